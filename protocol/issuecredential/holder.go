package issuecredential

import (
	"context"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/vc"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	stdissue "github.com/findy-network/findy-didcomm/std/issuecredential"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// CreateProposal starts the protocol from the holder's side.
// Initial -> ProposalSent.
func (s Holder) CreateProposal(
	comment, credDefID string,
	attrs []stdissue.Attribute,
) (_ Holder, _ *stdissue.Propose, err error) {
	defer err2.Handle(&err, "create credential proposal")

	try.To(psm.Require(kind(s.State) == Initial, "create proposal", s))

	prop := stdissue.NewPropose(comment, credDefID, stdissue.NewPreview(attrs))
	return Holder{
		State:        ProposalSent,
		ProposalSent: &HolderProposal{ThreadID: prop.Thread.ID, Proposal: *prop},
	}, prop, nil
}

// Handle runs an inbound message: an offer in Initial or ProposalSent, the
// credential in RequestSent or a problem report in any non-terminal state.
// The received credential is stored with ac.
func (s Holder) Handle(ctx context.Context, ac vc.AnonCreds, msg *common.Msg) (Holder, any, error) {
	return psm.Step(s, msg, s.abandon, func(msg *common.Msg) (Holder, any, error) {
		if s.State == RequestSent {
			return s.handleIssue(ctx, ac, msg)
		}
		return s.handleOffer(msg)
	})
}

func (s Holder) abandon(pr *common.ProblemReport, msgID string) Holder {
	return Holder{State: Finished, Finished: failed(s.ThreadID(), pr, msgID)}
}

// handleOffer -> OfferReceived. The offer's thread becomes the run's thread.
func (s Holder) handleOffer(msg *common.Msg) (_ Holder, _ any, err error) {
	var offer stdissue.Offer
	if err = msg.Unmarshal(&offer); err != nil {
		return s, nil, err
	}
	data, err := decorator.FirstBytes(offer.OffersAttach)
	if err != nil {
		return s, nil, fmt.Errorf("%w: %w", ErrNoAttachment, err)
	}
	return Holder{
		State: OfferReceived,
		OfferReceived: &HolderOffer{
			ThreadID: msg.ThreadID(),
			Preview:  offer.CredentialPreview,
			Comment:  offer.Comment,
			Offer:    data,
		},
	}, nil, nil
}

// CreateRequest accepts the offer. OfferReceived -> RequestSent.
func (s Holder) CreateRequest(
	ctx context.Context,
	ac vc.AnonCreds,
	holderDID string,
) (_ Holder, _ *stdissue.Request, err error) {
	defer err2.Handle(&err, "create credential request")

	try.To(psm.Require(s.State == OfferReceived, "create request", s))
	o := s.OfferReceived

	req, meta := try.To2(ac.CreateRequest(ctx, holderDID, o.Offer))
	msg := stdissue.NewRequest(o.ThreadID, req)
	return Holder{
		State: RequestSent,
		RequestSent: &HolderRequest{
			HolderOffer: *o,
			Request:     req,
			Meta:        meta,
		},
	}, msg, nil
}

// handleIssue stores the credential and acks it.
// RequestSent -> Finished(Success(credential id)).
func (s Holder) handleIssue(ctx context.Context, ac vc.AnonCreds, msg *common.Msg) (_ Holder, _ any, err error) {
	r := s.RequestSent

	var issue stdissue.Issue
	if err = msg.Unmarshal(&issue); err != nil {
		return s, nil, err
	}
	cred, err := decorator.FirstBytes(issue.CredentialsAttach)
	if err != nil {
		return s, nil, fmt.Errorf("%w: %w", ErrNoAttachment, err)
	}
	credID, err := ac.StoreCredential(ctx, r.Meta, cred)
	if err != nil {
		return s, nil, fmt.Errorf("store credential: %w", err)
	}
	return Holder{
		State: Finished,
		Finished: &FinishedData{
			ThreadID: r.ThreadID,
			Status:   psm.Success(credID),
			MsgID:    msg.ID,
		},
	}, common.NewAck(pltype.IssueCredentialACK, r.ThreadID), nil
}

// Decline rejects the offer, or gives up waiting, and returns the problem
// report to send. -> Finished(Declined).
func (s Holder) Decline(reason string) (_ Holder, _ *common.ProblemReport, err error) {
	if err = psm.Require(kind(s.State) != Initial && !s.Terminal(), "decline", s); err != nil {
		return s, nil, err
	}

	pr := declineReport(s.ThreadID(), reason)
	return Holder{
		State:    Finished,
		Finished: &FinishedData{ThreadID: s.ThreadID(), Status: psm.Declined(pr)},
	}, pr, nil
}
