// Package didexchange implements Aries RFC 0023 DID Exchange over an RFC 0434
// out-of-band invitation. A run is keyed by both the invitation id and the
// request id, see psm.CompoundThread.
package didexchange

import (
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/did"
	stdex "github.com/findy-network/findy-didcomm/std/didexchange"
)

const (
	Protocol      = pltype.ProtocolDIDExchange
	RoleRequester = "requester"
	RoleResponder = "responder"
)

type Kind string

const (
	Initial         Kind = "Initial"
	Invited         Kind = "Invited"
	RequestSent     Kind = "RequestSent"
	RequestReceived Kind = "RequestReceived"
	ResponseSent    Kind = "ResponseSent"
	Completed       Kind = "Completed"
	Abandoned       Kind = "Abandoned"
)

type Config struct {
	Label       string       `json:"label,omitempty"`
	Endpoint    string       `json:"endpoint"`
	RoutingKeys []wallet.Key `json:"routing_keys,omitempty"`
}

// Requester is the state union of the end which answers an invitation.
type Requester struct {
	State       Kind           `json:"state"`
	RequestSent *Requesting    `json:"request_sent,omitempty"`
	Completed   *Exchanged     `json:"completed,omitempty"`
	Abandoned   *AbandonedData `json:"abandoned,omitempty"`
}

type Requesting struct {
	Invitation stdex.Invitation `json:"invitation"`
	TheirDoc   *did.Doc         `json:"their_doc"`
	Request    stdex.Request    `json:"request"`
	MyDID      string           `json:"my_did"`
	MyKey      wallet.Key       `json:"my_key"`
	MyDoc      *did.Doc         `json:"my_doc"`
}

// Responder is the state union of the inviting end.
type Responder struct {
	State           Kind           `json:"state"`
	Invited         *Inviting      `json:"invited,omitempty"`
	RequestReceived *Responding    `json:"request_received,omitempty"`
	ResponseSent    *Exchanged     `json:"response_sent,omitempty"`
	Completed       *Exchanged     `json:"completed,omitempty"`
	Abandoned       *AbandonedData `json:"abandoned,omitempty"`
}

type Inviting struct {
	Invitation stdex.Invitation `json:"invitation"`
	Key        wallet.Key       `json:"key"`
	Config     Config           `json:"config"`
}

type Responding struct {
	Inviting
	Request  stdex.Request `json:"request"`
	TheirDID string        `json:"their_did"`
	TheirDoc *did.Doc      `json:"their_doc"`
}

// Exchanged is the negotiated relationship. Pairwise.ThreadID is the
// request id.
type Exchanged struct {
	InvitationID string            `json:"invitation_id"`
	Pairwise     pairwise.Pairwise `json:"pairwise"`
	LastMsgID    string            `json:"last_msg_id,omitempty"`
}

type AbandonedData struct {
	Thread psm.CompoundThread   `json:"thread"`
	Report common.ProblemReport `json:"report"`
	MsgID  string               `json:"msg_id,omitempty"`
}

func NewRequester() Requester {
	return Requester{State: Initial}
}

func NewResponder() Responder {
	return Responder{State: Initial}
}

func kind(k Kind) Kind {
	if k == "" {
		return Initial
	}
	return k
}

func (e *Exchanged) thread() *psm.CompoundThread {
	return &psm.CompoundThread{InvitationID: e.InvitationID, RequestID: e.Pairwise.ThreadID}
}

func threadKey(t *psm.CompoundThread) psm.ThreadKey {
	if t == nil {
		return nil
	}
	return *t
}

func abandoned(t *psm.CompoundThread, pr *common.ProblemReport, msgID string) *AbandonedData {
	a := &AbandonedData{Report: *pr, MsgID: msgID}
	if t != nil {
		a.Thread = *t
	}
	return a
}

// MARK: Requester machine

func (s Requester) StateName() string {
	return string(kind(s.State))
}

func (s Requester) thread() *psm.CompoundThread {
	switch s.State {
	case RequestSent:
		r := s.RequestSent
		return &psm.CompoundThread{InvitationID: r.Invitation.ID, RequestID: r.Request.ID}
	case Completed:
		return s.Completed.thread()
	case Abandoned:
		return &s.Abandoned.Thread
	}
	return nil
}

func (s Requester) Thread() psm.ThreadKey {
	return threadKey(s.thread())
}

func (s Requester) Accepts(kind string) bool {
	return s.State == RequestSent && kind == pltype.HandlerResponse
}

func (s Requester) Terminal() bool {
	return s.State == Completed || s.State == Abandoned
}

func (s Requester) LastMsgID() string {
	switch s.State {
	case Completed:
		return s.Completed.LastMsgID
	case Abandoned:
		return s.Abandoned.MsgID
	}
	return ""
}

func (s Requester) Pairwise() (*pairwise.Pairwise, bool) {
	if s.State != Completed {
		return nil, false
	}
	pw := s.Completed.Pairwise
	return &pw, true
}

// MARK: Responder machine

func (s Responder) StateName() string {
	return string(kind(s.State))
}

func (s Responder) thread() *psm.CompoundThread {
	switch s.State {
	case Invited:
		return &psm.CompoundThread{InvitationID: s.Invited.Invitation.ID}
	case RequestReceived:
		r := s.RequestReceived
		return &psm.CompoundThread{InvitationID: r.Invitation.ID, RequestID: r.Request.ID}
	case ResponseSent:
		return s.ResponseSent.thread()
	case Completed:
		return s.Completed.thread()
	case Abandoned:
		return &s.Abandoned.Thread
	}
	return nil
}

func (s Responder) Thread() psm.ThreadKey {
	return threadKey(s.thread())
}

func (s Responder) Accepts(kind string) bool {
	switch s.State {
	case Invited:
		return kind == pltype.HandlerRequest
	case ResponseSent:
		return kind == pltype.HandlerComplete
	}
	return false
}

func (s Responder) Terminal() bool {
	return s.State == Completed || s.State == Abandoned
}

func (s Responder) LastMsgID() string {
	switch s.State {
	case Completed:
		return s.Completed.LastMsgID
	case Abandoned:
		return s.Abandoned.MsgID
	}
	return ""
}

func (s Responder) Pairwise() (*pairwise.Pairwise, bool) {
	if s.State != Completed {
		return nil, false
	}
	pw := s.Completed.Pairwise
	return &pw, true
}

// Reusable tells if the state is the Invited template of a public
// invitation which every request starts a new run from.
func (s Responder) Reusable() bool {
	if s.State != Invited {
		return false
	}
	svc, err := s.Invited.Invitation.FirstService()
	return err == nil && svc.DID != ""
}
