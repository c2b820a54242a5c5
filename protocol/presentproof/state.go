// Package presentproof implements the Aries RFC 0037 present proof protocol
// as the Verifier and Prover state unions.
package presentproof

import (
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/std/common"
	stdproof "github.com/findy-network/findy-didcomm/std/presentproof"
)

const (
	Protocol     = pltype.ProtocolPresentProof
	RoleVerifier = "verifier"
	RoleProver   = "prover"
)

type Kind string

const (
	Initial              Kind = "Initial"
	ProposalReceived     Kind = "PresentationProposalReceived"
	ProposalSent         Kind = "ProposalSent"
	RequestSent          Kind = "RequestSent"
	RequestReceived      Kind = "RequestReceived"
	PresentationSent     Kind = "PresentationSent"
	PresentationReceived Kind = "PresentationReceived"
	Finished             Kind = "Finished"
)

type Verifier struct {
	State                Kind           `json:"state"`
	ProposalReceived     *Proposal      `json:"proposal_received,omitempty"`
	RequestSent          *ProofRequest  `json:"request_sent,omitempty"`
	PresentationReceived *ReceivedProof `json:"presentation_received,omitempty"`
	Finished             *FinishedData  `json:"finished,omitempty"`
}

type Proposal struct {
	ThreadID string           `json:"thread_id"`
	Proposal stdproof.Propose `json:"proposal"`
}

// ProofRequest is the outstanding anoncreds proof request.
type ProofRequest struct {
	ThreadID string `json:"thread_id"`
	Request  []byte `json:"request"`
}

type ReceivedProof struct {
	ProofRequest
	PresentationID string `json:"presentation_id"`
	Presentation   []byte `json:"presentation"`
}

type Prover struct {
	State            Kind          `json:"state"`
	ProposalSent     *Proposal     `json:"proposal_sent,omitempty"`
	RequestReceived  *ProofRequest `json:"request_received,omitempty"`
	PresentationSent *SentProof    `json:"presentation_sent,omitempty"`
	Finished         *FinishedData `json:"finished,omitempty"`
}

type SentProof struct {
	ThreadID       string `json:"thread_id"`
	PresentationID string `json:"presentation_id"`
}

type FinishedData struct {
	ThreadID string     `json:"thread_id"`
	Status   psm.Status `json:"status"`
	MsgID    string     `json:"msg_id,omitempty"`
}

func NewVerifier() Verifier {
	return Verifier{State: Initial}
}

func NewProver() Prover {
	return Prover{State: Initial}
}

func kind(k Kind) Kind {
	if k == "" {
		return Initial
	}
	return k
}

func threadKey(thid string) psm.ThreadKey {
	if thid == "" {
		return nil
	}
	return psm.SingleThread(thid)
}

func failed(thid string, pr *common.ProblemReport, msgID string) *FinishedData {
	if pr.Thread != nil && pr.Thread.ID != "" {
		thid = pr.Thread.ID
	}
	return &FinishedData{ThreadID: thid, Status: psm.Failed(pr), MsgID: msgID}
}

func report(thid, code, reason string) *common.ProblemReport {
	return common.NewProblemReport(pltype.PresentProofProblemReport, thid, code, reason)
}

// MARK: Verifier machine

func (s Verifier) StateName() string {
	return string(kind(s.State))
}

func (s Verifier) ThreadID() string {
	switch s.State {
	case ProposalReceived:
		return s.ProposalReceived.ThreadID
	case RequestSent:
		return s.RequestSent.ThreadID
	case PresentationReceived:
		return s.PresentationReceived.ThreadID
	case Finished:
		return s.Finished.ThreadID
	}
	return ""
}

func (s Verifier) Thread() psm.ThreadKey {
	return threadKey(s.ThreadID())
}

func (s Verifier) Accepts(kind string) bool {
	switch kind {
	case pltype.HandlerPresentProofPropose:
		return s.State == Initial || s.State == ""
	case pltype.HandlerPresentProofPresentation:
		return s.State == RequestSent
	}
	return false
}

func (s Verifier) Terminal() bool {
	return s.State == Finished
}

func (s Verifier) LastMsgID() string {
	if s.State == Finished {
		return s.Finished.MsgID
	}
	return ""
}

func (s Verifier) Status() (psm.Status, bool) {
	if s.State != Finished {
		return psm.Status{}, false
	}
	return s.Finished.Status, true
}

// MARK: Prover machine

func (s Prover) StateName() string {
	return string(kind(s.State))
}

func (s Prover) ThreadID() string {
	switch s.State {
	case ProposalSent:
		return s.ProposalSent.ThreadID
	case RequestReceived:
		return s.RequestReceived.ThreadID
	case PresentationSent:
		return s.PresentationSent.ThreadID
	case Finished:
		return s.Finished.ThreadID
	}
	return ""
}

func (s Prover) Thread() psm.ThreadKey {
	return threadKey(s.ThreadID())
}

func (s Prover) Accepts(kind string) bool {
	switch kind {
	case pltype.HandlerPresentProofRequest:
		return s.State == Initial || s.State == "" || s.State == ProposalSent
	case pltype.HandlerAck:
		return s.State == PresentationSent
	}
	return false
}

func (s Prover) Terminal() bool {
	return s.State == Finished
}

func (s Prover) LastMsgID() string {
	if s.State == Finished {
		return s.Finished.MsgID
	}
	return ""
}

func (s Prover) Status() (psm.Status, bool) {
	if s.State != Finished {
		return psm.Status{}, false
	}
	return s.Finished.Status, true
}
