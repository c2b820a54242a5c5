package issuecredential

import (
	"context"
	"errors"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/vc"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	stdissue "github.com/findy-network/findy-didcomm/std/issuecredential"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrNoAttachment = errors.New("anoncreds attachment missing")

// CreateOffer makes the anoncreds offer for info.CredDefID. It starts a new
// thread from Initial or answers a proposal in the proposal's thread.
// Initial|ProposalReceived -> OfferSent.
func (s Issuer) CreateOffer(
	ctx context.Context,
	ac vc.AnonCreds,
	info OfferInfo,
) (_ Issuer, _ *stdissue.Offer, err error) {
	defer err2.Handle(&err, "create credential offer")

	k := kind(s.State)
	try.To(psm.Require(k == Initial || k == ProposalReceived, "create offer", s))

	if k == ProposalReceived && info.CredDefID == "" {
		info.CredDefID = s.ProposalReceived.Proposal.CredDefID
	}
	if k == ProposalReceived && len(info.Attributes) == 0 {
		info.Attributes = s.ProposalReceived.Proposal.CredentialProposal.Attributes
	}
	data := try.To1(ac.CreateOffer(ctx, info.CredDefID))
	offer := stdissue.NewOffer(s.ThreadID(), info.Comment,
		stdissue.NewPreview(info.Attributes), data)
	glog.V(1).Infoln("credential offer", offer.Thread.ID, info.CredDefID)
	return Issuer{
		State: OfferSent,
		OfferSent: &IssuerOffer{
			ThreadID: offer.Thread.ID,
			Info:     info,
			Offer:    data,
		},
	}, offer, nil
}

// Handle runs an inbound message: a proposal in Initial, a request in
// OfferSent, an ack in CredentialSent or a problem report in any
// non-terminal state.
func (s Issuer) Handle(msg *common.Msg) (Issuer, any, error) {
	return psm.Step(s, msg, s.abandon, func(msg *common.Msg) (Issuer, any, error) {
		switch s.State {
		case OfferSent:
			return s.handleRequest(msg)
		case CredentialSent:
			return Issuer{
				State: Finished,
				Finished: &FinishedData{
					ThreadID: s.CredentialSent.ThreadID,
					Status:   psm.Success(s.CredentialSent.IssueID),
					MsgID:    msg.ID,
				},
			}, nil, nil
		}
		return s.handleProposal(msg)
	})
}

func (s Issuer) abandon(pr *common.ProblemReport, msgID string) Issuer {
	return Issuer{State: Finished, Finished: failed(s.ThreadID(), pr, msgID)}
}

func (s Issuer) handleProposal(msg *common.Msg) (_ Issuer, _ any, err error) {
	var prop stdissue.Propose
	if err = msg.Unmarshal(&prop); err != nil {
		return s, nil, err
	}
	return Issuer{
		State:            ProposalReceived,
		ProposalReceived: &IssuerProposal{ThreadID: msg.ThreadID(), Proposal: prop},
	}, nil, nil
}

// handleRequest takes the holder's credential request. The thread is the
// offer's. OfferSent -> RequestReceived.
func (s Issuer) handleRequest(msg *common.Msg) (_ Issuer, _ any, err error) {
	var req stdissue.Request
	if err = msg.Unmarshal(&req); err != nil {
		return s, nil, err
	}
	data, err := decorator.FirstBytes(req.RequestsAttach)
	if err != nil {
		return s, nil, fmt.Errorf("%w: %w", ErrNoAttachment, err)
	}
	return Issuer{
		State: RequestReceived,
		RequestReceived: &IssuerRequest{
			IssuerOffer: *s.OfferSent,
			Request:     data,
		},
	}, nil, nil
}

// CreateCredential issues the credential with the offered values.
// RequestReceived -> CredentialSent. The run finishes when the holder acks.
func (s Issuer) CreateCredential(
	ctx context.Context,
	ac vc.AnonCreds,
) (_ Issuer, _ *stdissue.Issue, err error) {
	defer err2.Handle(&err, "create credential")

	try.To(psm.Require(s.State == RequestReceived, "create credential", s))
	r := s.RequestReceived

	values := stdissue.NewPreview(r.Info.Attributes).Values()
	cred := try.To1(ac.IssueCredential(ctx, r.Offer, r.Request, values, r.Info.Revocation()))
	issue := stdissue.NewIssue(r.ThreadID, cred)
	return Issuer{
		State:          CredentialSent,
		CredentialSent: &CredentialIssue{ThreadID: r.ThreadID, IssueID: issue.ID},
	}, issue, nil
}

// Decline ends the run and returns the problem report to send.
// Any started non-terminal state -> Finished(Declined).
func (s Issuer) Decline(reason string) (_ Issuer, _ *common.ProblemReport, err error) {
	if err = psm.Require(kind(s.State) != Initial && !s.Terminal(), "decline", s); err != nil {
		return s, nil, err
	}

	pr := declineReport(s.ThreadID(), reason)
	return Issuer{
		State:    Finished,
		Finished: &FinishedData{ThreadID: s.ThreadID(), Status: psm.Declined(pr)},
	}, pr, nil
}
