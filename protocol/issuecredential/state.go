// Package issuecredential implements the Aries RFC 0036 issue credential
// protocol as the Issuer and Holder state unions. The anoncreds payloads are
// opaque bytes made and consumed by a vc.AnonCreds.
package issuecredential

import (
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/vc"
	"github.com/findy-network/findy-didcomm/std/common"
	stdissue "github.com/findy-network/findy-didcomm/std/issuecredential"
)

const (
	Protocol   = pltype.ProtocolIssueCredential
	RoleIssuer = "issuer"
	RoleHolder = "holder"
)

type Kind string

const (
	Initial          Kind = "Initial"
	ProposalReceived Kind = "ProposalReceived"
	ProposalSent     Kind = "ProposalSent"
	OfferSent        Kind = "OfferSent"
	OfferReceived    Kind = "OfferReceived"
	RequestSent      Kind = "RequestSent"
	RequestReceived  Kind = "RequestReceived"
	CredentialSent   Kind = "CredentialSent"
	Finished         Kind = "Finished"
)

// OfferInfo is what the issuer offers. A credential with RevRegID is
// issued to that revocation registry, which needs the TailsFile.
type OfferInfo struct {
	CredDefID  string               `json:"cred_def_id"`
	Attributes []stdissue.Attribute `json:"attributes"`
	Comment    string               `json:"comment,omitempty"`
	RevRegID   string               `json:"rev_reg_id,omitempty"`
	TailsFile  string               `json:"tails_file,omitempty"`
}

func (o OfferInfo) Revocation() vc.Revocation {
	return vc.Revocation{RevRegID: o.RevRegID, TailsFile: o.TailsFile}
}

// Issuer is the state union of the issuing end.
type Issuer struct {
	State            Kind             `json:"state"`
	ProposalReceived *IssuerProposal  `json:"proposal_received,omitempty"`
	OfferSent        *IssuerOffer     `json:"offer_sent,omitempty"`
	RequestReceived  *IssuerRequest   `json:"request_received,omitempty"`
	CredentialSent   *CredentialIssue `json:"credential_sent,omitempty"`
	Finished         *FinishedData    `json:"finished,omitempty"`
}

type IssuerProposal struct {
	ThreadID string           `json:"thread_id"`
	Proposal stdissue.Propose `json:"proposal"`
}

type IssuerOffer struct {
	ThreadID string    `json:"thread_id"`
	Info     OfferInfo `json:"info"`
	Offer    []byte    `json:"offer"`
}

type IssuerRequest struct {
	IssuerOffer
	Request []byte `json:"request"`
}

type CredentialIssue struct {
	ThreadID string `json:"thread_id"`
	IssueID  string `json:"issue_id"`
}

// Holder is the state union of the receiving end.
type Holder struct {
	State         Kind            `json:"state"`
	ProposalSent  *HolderProposal `json:"proposal_sent,omitempty"`
	OfferReceived *HolderOffer    `json:"offer_received,omitempty"`
	RequestSent   *HolderRequest  `json:"request_sent,omitempty"`
	Finished      *FinishedData   `json:"finished,omitempty"`
}

type HolderProposal struct {
	ThreadID string           `json:"thread_id"`
	Proposal stdissue.Propose `json:"proposal"`
}

type HolderOffer struct {
	ThreadID string                     `json:"thread_id"`
	Preview  stdissue.PreviewCredential `json:"preview"`
	Comment  string                     `json:"comment,omitempty"`
	Offer    []byte                     `json:"offer"`
}

// HolderRequest keeps the request metadata the credential is stored with.
type HolderRequest struct {
	HolderOffer
	Request []byte `json:"request"`
	Meta    []byte `json:"meta"`
}

// FinishedData is the terminal case of both roles. MsgID is the inbound
// message that finished the run.
type FinishedData struct {
	ThreadID string     `json:"thread_id"`
	Status   psm.Status `json:"status"`
	MsgID    string     `json:"msg_id,omitempty"`
}

func NewIssuer() Issuer {
	return Issuer{State: Initial}
}

func NewHolder() Holder {
	return Holder{State: Initial}
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

// failed folds a received problem report.
func failed(thid string, pr *common.ProblemReport, msgID string) *FinishedData {
	if pr.Thread != nil && pr.Thread.ID != "" {
		thid = pr.Thread.ID
	}
	return &FinishedData{ThreadID: thid, Status: psm.Failed(pr), MsgID: msgID}
}

func declineReport(thid, reason string) *common.ProblemReport {
	return common.NewProblemReport(pltype.IssueCredentialProblemReport,
		thid, common.CodeIssuanceAbandoned, reason)
}

// MARK: Issuer machine

func (s Issuer) StateName() string {
	return string(kind(s.State))
}

func (s Issuer) ThreadID() string {
	switch s.State {
	case ProposalReceived:
		return s.ProposalReceived.ThreadID
	case OfferSent:
		return s.OfferSent.ThreadID
	case RequestReceived:
		return s.RequestReceived.ThreadID
	case CredentialSent:
		return s.CredentialSent.ThreadID
	case Finished:
		return s.Finished.ThreadID
	}
	return ""
}

func (s Issuer) Thread() psm.ThreadKey {
	return threadKey(s.ThreadID())
}

func (s Issuer) Accepts(kind string) bool {
	switch kind {
	case pltype.HandlerIssueCredentialPropose:
		return s.State == Initial || s.State == ""
	case pltype.HandlerIssueCredentialRequest:
		return s.State == OfferSent
	case pltype.HandlerAck:
		return s.State == CredentialSent
	}
	return false
}

func (s Issuer) Terminal() bool {
	return s.State == Finished
}

func (s Issuer) LastMsgID() string {
	if s.State == Finished {
		return s.Finished.MsgID
	}
	return ""
}

// Status returns the outcome of a finished run.
func (s Issuer) Status() (psm.Status, bool) {
	if s.State != Finished {
		return psm.Status{}, false
	}
	return s.Finished.Status, true
}

// MARK: Holder machine

func (s Holder) StateName() string {
	return string(kind(s.State))
}

func (s Holder) ThreadID() string {
	switch s.State {
	case ProposalSent:
		return s.ProposalSent.ThreadID
	case OfferReceived:
		return s.OfferReceived.ThreadID
	case RequestSent:
		return s.RequestSent.ThreadID
	case Finished:
		return s.Finished.ThreadID
	}
	return ""
}

func (s Holder) Thread() psm.ThreadKey {
	return threadKey(s.ThreadID())
}

func (s Holder) Accepts(kind string) bool {
	switch kind {
	case pltype.HandlerIssueCredentialOffer:
		return s.State == Initial || s.State == "" || s.State == ProposalSent
	case pltype.HandlerIssueCredentialIssue:
		return s.State == RequestSent
	}
	return false
}

func (s Holder) Terminal() bool {
	return s.State == Finished
}

func (s Holder) LastMsgID() string {
	if s.State == Finished {
		return s.Finished.MsgID
	}
	return ""
}

func (s Holder) Status() (psm.Status, bool) {
	if s.State != Finished {
		return psm.Status{}, false
	}
	return s.Finished.Status, true
}
