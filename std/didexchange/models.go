// Package didexchange is the wire model of Aries RFC 0023 DID Exchange 1.0 and
// the RFC 0434 out-of-band invitation which starts it.
package didexchange

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const MimeTypeDIDDoc = "application/json"

var ErrNoService = errors.New("invitation has no service")

// Invitation is an out-of-band invitation with did-exchange as the handshake
// protocol.
type Invitation struct {
	Type               string    `json:"@type,omitempty"`
	ID                 string    `json:"@id,omitempty"`
	Label              string    `json:"label,omitempty"`
	HandshakeProtocols []string  `json:"handshake_protocols,omitempty"`
	Services           []Service `json:"services,omitempty"`
}

// Service is an invitation service entry, which is either a resolvable DID or
// an inline service block.
type Service struct {
	DID    string
	Inline *did.Service
}

func (s Service) MarshalJSON() ([]byte, error) {
	if s.Inline != nil {
		return json.Marshal(s.Inline)
	}
	return json.Marshal(s.DID)
}

func (s *Service) UnmarshalJSON(b []byte) (err error) {
	defer err2.Handle(&err, "invitation service")

	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		try.To(json.Unmarshal(b, &s.DID))
		return nil
	}
	s.Inline = new(did.Service)
	try.To(json.Unmarshal(b, s.Inline))
	return nil
}

// Request defines the did-exchange request. The parent thread is the
// invitation id and the thread id is the request's own id.
type Request struct {
	Type   string                `json:"@type,omitempty"`
	ID     string                `json:"@id,omitempty"`
	Label  string                `json:"label,omitempty"`
	Goal   string                `json:"goal,omitempty"`
	DID    string                `json:"did,omitempty"`
	DIDDoc *decorator.Attachment `json:"did_doc~attach,omitempty"`
	Thread *decorator.Thread     `json:"~thread,omitempty"`
}

type Response struct {
	Type   string                `json:"@type,omitempty"`
	ID     string                `json:"@id,omitempty"`
	DID    string                `json:"did,omitempty"`
	DIDDoc *decorator.Attachment `json:"did_doc~attach,omitempty"`
	Thread *decorator.Thread     `json:"~thread,omitempty"`
}

type Complete struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
}

// NewInvitation creates an invitation with an inline service.
func NewInvitation(label string, vk wallet.Key, endpoint string) *Invitation {
	id := utils.UUID()
	return &Invitation{
		Type:               pltype.OutOfBandInvitation,
		ID:                 id,
		Label:              label,
		HandshakeProtocols: []string{pltype.DIDExchangeHandshakeTarget},
		Services: []Service{{Inline: &did.Service{
			ID:              "#inline",
			Type:            did.ServiceDIDComm,
			RecipientKeys:   []string{vk.String()},
			ServiceEndpoint: endpoint,
		}}},
	}
}

// NewPublicInvitation creates an invitation to a resolvable DID.
func NewPublicInvitation(label, publicDID string) *Invitation {
	return &Invitation{
		Type:               pltype.OutOfBandInvitation,
		ID:                 utils.UUID(),
		Label:              label,
		HandshakeProtocols: []string{pltype.DIDExchangeHandshakeTarget},
		Services:           []Service{{DID: publicDID}},
	}
}

// FirstService returns the first service entry.
func (i *Invitation) FirstService() (Service, error) {
	if len(i.Services) == 0 {
		return Service{}, ErrNoService
	}
	return i.Services[0], nil
}

// NewRequest creates a request to the invitation. The doc is attached unless
// it is nil, in which case the responder resolves myDID.
func NewRequest(label, invitationID, myDID string, doc *did.Doc) (_ *Request, err error) {
	defer err2.Handle(&err, "new request")

	id := utils.UUID()
	r := &Request{
		Type:   pltype.DIDExchangeRequest,
		ID:     id,
		Label:  label,
		DID:    myDID,
		Thread: &decorator.Thread{ID: id, PID: invitationID},
	}
	if doc != nil {
		r.DIDDoc = decorator.NewAttachment("", MimeTypeDIDDoc, try.To1(json.Marshal(doc)))
	}
	return r, nil
}

func NewResponse(thid, pthid, ourDID string, doc *did.Doc) (_ *Response, err error) {
	defer err2.Handle(&err, "new response")

	return &Response{
		Type:   pltype.DIDExchangeResponse,
		ID:     utils.UUID(),
		DID:    ourDID,
		DIDDoc: decorator.NewAttachment("", MimeTypeDIDDoc, try.To1(json.Marshal(doc))),
		Thread: &decorator.Thread{ID: thid, PID: pthid},
	}, nil
}

func NewComplete(thid, pthid string) *Complete {
	return &Complete{
		Type:   pltype.DIDExchangeComplete,
		ID:     utils.UUID(),
		Thread: &decorator.Thread{ID: thid, PID: pthid},
	}
}

// AttachedDoc parses the DID document attachment. It returns nil without an
// error when nothing is attached.
func AttachedDoc(a *decorator.Attachment) (_ *did.Doc, err error) {
	defer err2.Handle(&err, "did_doc~attach")

	if a == nil {
		return nil, nil
	}
	var doc did.Doc
	try.To(json.Unmarshal(try.To1(a.Bytes()), &doc))
	return &doc, nil
}
