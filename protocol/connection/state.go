// Package connection implements the Aries RFC 0160 connection protocol as
// two state unions, Inviter and Invitee. Every transition returns a new
// value, the old one stays untouched.
package connection

import (
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/common"
	stdconn "github.com/findy-network/findy-didcomm/std/connection"
	"github.com/findy-network/findy-didcomm/std/did"
)

const (
	Protocol    = pltype.ProtocolConnection
	RoleInviter = "inviter"
	RoleInvitee = "invitee"
)

// Kind is the discriminant of the state unions.
type Kind string

const (
	Initial   Kind = "Initial"
	Invited   Kind = "Invited"
	Requested Kind = "Requested"
	Responded Kind = "Responded"
	Completed Kind = "Completed"
	Abandoned Kind = "Abandoned"
)

// Config is what our end puts to its invitations and DID documents.
type Config struct {
	Label       string       `json:"label,omitempty"`
	Endpoint    string       `json:"endpoint"`
	RoutingKeys []wallet.Key `json:"routing_keys,omitempty"`
}

// Inviter is the state union of the inviting end. Exactly the case named by
// State is non-nil; Initial has no data.
type Inviter struct {
	State     Kind              `json:"state"`
	Invited   *InviterInvited   `json:"invited,omitempty"`
	Requested *InviterRequested `json:"requested,omitempty"`
	Responded *Established      `json:"responded,omitempty"`
	Completed *Established      `json:"completed,omitempty"`
	Abandoned *AbandonedData    `json:"abandoned,omitempty"`
}

type InviterInvited struct {
	Invitation stdconn.Invitation `json:"invitation"`
	Key        wallet.Key         `json:"key"`
	Config     Config             `json:"config"`
}

type InviterRequested struct {
	InviterInvited
	ThreadID string          `json:"thread_id"`
	Request  stdconn.Request `json:"request"`
	TheirDID string          `json:"their_did"`
	TheirDoc *did.Doc        `json:"their_doc"`
}

// Invitee is the state union of the invited end.
type Invitee struct {
	State     Kind              `json:"state"`
	Invited   *InviteeInvited   `json:"invited,omitempty"`
	Requested *InviteeRequested `json:"requested,omitempty"`
	Completed *Established      `json:"completed,omitempty"`
	Abandoned *AbandonedData    `json:"abandoned,omitempty"`
}

// InviteeInvited holds the received invitation and the inviter's document
// built from it or resolved from its public DID.
type InviteeInvited struct {
	Invitation stdconn.Invitation `json:"invitation"`
	TheirDoc   *did.Doc           `json:"their_doc"`
}

type InviteeRequested struct {
	InviteeInvited
	ThreadID string          `json:"thread_id"`
	Request  stdconn.Request `json:"request"`
	MyDID    string          `json:"my_did"`
	MyKey    wallet.Key      `json:"my_key"`
	MyDoc    *did.Doc        `json:"my_doc"`
}

// Established is the negotiated connection. LastMsgID is the inbound
// message that completed the run, if any.
type Established struct {
	Pairwise  pairwise.Pairwise `json:"pairwise"`
	LastMsgID string            `json:"last_msg_id,omitempty"`
}

type AbandonedData struct {
	ThreadID string               `json:"thread_id"`
	Report   common.ProblemReport `json:"report"`
	MsgID    string               `json:"msg_id,omitempty"`
}

func NewInviter() Inviter {
	return Inviter{State: Initial}
}

func NewInvitee() Invitee {
	return Invitee{State: Initial}
}

func abandoned(thid string, pr *common.ProblemReport, msgID string) *AbandonedData {
	if pr.Thread != nil && pr.Thread.ID != "" {
		thid = pr.Thread.ID
	}
	return &AbandonedData{ThreadID: thid, Report: *pr, MsgID: msgID}
}

func kind(k Kind) Kind {
	if k == "" {
		return Initial
	}
	return k
}

// MARK: Inviter machine

func (s Inviter) StateName() string {
	return string(kind(s.State))
}

func (s Inviter) threadID() string {
	switch s.State {
	case Invited:
		if s.Invited.Invitation.Public() {
			return ""
		}
		return s.Invited.Invitation.ID
	case Requested:
		return s.Requested.ThreadID
	case Responded:
		return s.Responded.Pairwise.ThreadID
	case Completed:
		return s.Completed.Pairwise.ThreadID
	case Abandoned:
		return s.Abandoned.ThreadID
	}
	return ""
}

func (s Inviter) Thread() psm.ThreadKey {
	if thid := s.threadID(); thid != "" {
		return psm.SingleThread(thid)
	}
	return nil
}

func (s Inviter) Accepts(kind string) bool {
	switch s.State {
	case Invited:
		return kind == pltype.HandlerRequest
	case Responded:
		return kind == pltype.HandlerAck || kind == pltype.HandlerPing
	}
	return false
}

func (s Inviter) Terminal() bool {
	return s.State == Completed || s.State == Abandoned
}

func (s Inviter) LastMsgID() string {
	switch s.State {
	case Completed:
		return s.Completed.LastMsgID
	case Abandoned:
		return s.Abandoned.MsgID
	}
	return ""
}

func (s Inviter) Pairwise() (*pairwise.Pairwise, bool) {
	if s.State != Completed {
		return nil, false
	}
	pw := s.Completed.Pairwise
	return &pw, true
}

// Reusable tells if the state is the Invited template of a public
// invitation. Every request to it starts a new run.
func (s Inviter) Reusable() bool {
	return s.State == Invited && s.Invited.Invitation.Public()
}

// MARK: Invitee machine

func (s Invitee) StateName() string {
	return string(kind(s.State))
}

func (s Invitee) threadID() string {
	switch s.State {
	case Invited:
		if s.Invited.Invitation.Public() {
			return ""
		}
		return s.Invited.Invitation.ID
	case Requested:
		return s.Requested.ThreadID
	case Completed:
		return s.Completed.Pairwise.ThreadID
	case Abandoned:
		return s.Abandoned.ThreadID
	}
	return ""
}

func (s Invitee) Thread() psm.ThreadKey {
	if thid := s.threadID(); thid != "" {
		return psm.SingleThread(thid)
	}
	return nil
}

func (s Invitee) Accepts(kind string) bool {
	return s.State == Requested && kind == pltype.HandlerResponse
}

func (s Invitee) Terminal() bool {
	return s.State == Completed || s.State == Abandoned
}

func (s Invitee) LastMsgID() string {
	switch s.State {
	case Completed:
		return s.Completed.LastMsgID
	case Abandoned:
		return s.Abandoned.MsgID
	}
	return ""
}

func (s Invitee) Pairwise() (*pairwise.Pairwise, bool) {
	if s.State != Completed {
		return nil, false
	}
	pw := s.Completed.Pairwise
	return &pw, true
}
