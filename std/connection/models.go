// Package connection is the wire model of the Aries RFC 0160 connection
// protocol: invitation, request, response and the connection~sig signature.
package connection

import (
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/did"
)

// Invitation defines the connection invitation message. A pairwise
// invitation carries RecipientKeys and ServiceEndpoint, a public one only
// the DID.
type Invitation struct {
	Type            string   `json:"@type,omitempty"`
	ID              string   `json:"@id,omitempty"`
	Label           string   `json:"label,omitempty"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	DID             string   `json:"did,omitempty"`
}

// Public tells if the invitation is a public DID invitation.
func (i *Invitation) Public() bool {
	return i.DID != "" && len(i.RecipientKeys) == 0
}

// Keys returns the recipient keys of the invitation.
func (i *Invitation) Keys() []wallet.Key {
	keys := make([]wallet.Key, 0, len(i.RecipientKeys))
	for _, k := range i.RecipientKeys {
		keys = append(keys, wallet.Key(k))
	}
	return keys
}

// Request defines the connection request.
type Request struct {
	Type       string            `json:"@type,omitempty"`
	ID         string            `json:"@id,omitempty"`
	Label      string            `json:"label,omitempty"`
	Connection *Connection       `json:"connection,omitempty"`
	Thread     *decorator.Thread `json:"~thread,omitempty"`
}

// Response defines the connection response. Connection is the verified or
// to be signed content of the connection~sig.
type Response struct {
	Type                string               `json:"@type,omitempty"`
	ID                  string               `json:"@id,omitempty"`
	ConnectionSignature *ConnectionSignature `json:"connection~sig,omitempty"`
	Thread              *decorator.Thread    `json:"~thread,omitempty"`
	PleaseAck           *decorator.PleaseAck `json:"~please_ack,omitempty"`

	Connection *Connection `json:"-"`
}

// ConnectionSignature connection signature
type ConnectionSignature struct {
	Type       string `json:"@type,omitempty"`
	Signature  string `json:"signature,omitempty"`
	SignedData string `json:"sig_data,omitempty"`
	SignVerKey string `json:"signer,omitempty"`
}

// Connection is a connection definition
type Connection struct {
	DID    string   `json:"DID,omitempty"`
	DIDDoc *did.Doc `json:"DIDDoc,omitempty"`
}

func NewInvitation(label string, vk wallet.Key, endpoint string, routingKeys ...wallet.Key) *Invitation {
	var routing []string
	for _, k := range routingKeys {
		routing = append(routing, k.String())
	}
	return &Invitation{
		Type:            pltype.AriesConnectionInvitation,
		ID:              utils.UUID(),
		Label:           label,
		RecipientKeys:   []string{vk.String()},
		ServiceEndpoint: endpoint,
		RoutingKeys:     routing,
	}
}

func NewPublicInvitation(label, publicDID string) *Invitation {
	return &Invitation{
		Type:  pltype.AriesConnectionInvitation,
		ID:    utils.UUID(),
		Label: label,
		DID:   publicDID,
	}
}

// NewRequest creates a request. An empty thid means a request to a public
// invitation, which starts a new thread with the request's own id.
func NewRequest(label, thid string, conn *Connection) *Request {
	id := utils.UUID()
	if thid == "" {
		thid = id
	}
	return &Request{
		Type:       pltype.AriesConnectionRequest,
		ID:         id,
		Label:      label,
		Connection: conn,
		Thread:     &decorator.Thread{ID: thid},
	}
}

func NewResponse(thid string, conn *Connection) *Response {
	return &Response{
		Type:       pltype.AriesConnectionResponse,
		ID:         utils.UUID(),
		Thread:     &decorator.Thread{ID: thid},
		Connection: conn,
	}
}
