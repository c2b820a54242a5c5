package presentproof

import (
	"context"
	"errors"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/vc"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	stdproof "github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrNoAttachment = errors.New("anoncreds attachment missing")

// RequestPresentation sends the proof request, in a new thread or as an
// answer to a proposal. Initial|PresentationProposalReceived -> RequestSent.
func (s Verifier) RequestPresentation(
	comment string,
	proofReq []byte,
) (_ Verifier, _ *stdproof.Request, err error) {
	defer err2.Handle(&err, "request presentation")

	k := kind(s.State)
	try.To(psm.Require(k == Initial || k == ProposalReceived, "request presentation", s))

	req := stdproof.NewRequest(s.ThreadID(), comment, proofReq)
	glog.V(1).Infoln("proof request", req.Thread.ID)
	return Verifier{
		State:       RequestSent,
		RequestSent: &ProofRequest{ThreadID: req.Thread.ID, Request: proofReq},
	}, req, nil
}

// Handle runs an inbound message: a proposal in Initial, the presentation
// in RequestSent or a problem report in any non-terminal state.
func (s Verifier) Handle(msg *common.Msg) (Verifier, any, error) {
	return psm.Step(s, msg, s.abandon, func(msg *common.Msg) (Verifier, any, error) {
		if s.State == RequestSent {
			return s.handlePresentation(msg)
		}
		return s.handleProposal(msg)
	})
}

func (s Verifier) abandon(pr *common.ProblemReport, msgID string) Verifier {
	return Verifier{State: Finished, Finished: failed(s.ThreadID(), pr, msgID)}
}

func (s Verifier) handleProposal(msg *common.Msg) (_ Verifier, _ any, err error) {
	var prop stdproof.Propose
	if err = msg.Unmarshal(&prop); err != nil {
		return s, nil, err
	}
	return Verifier{
		State:            ProposalReceived,
		ProposalReceived: &Proposal{ThreadID: msg.ThreadID(), Proposal: prop},
	}, nil, nil
}

// handlePresentation only takes the payload. The thread check has already
// bound it to the outstanding request. RequestSent -> PresentationReceived.
func (s Verifier) handlePresentation(msg *common.Msg) (_ Verifier, _ any, err error) {
	var pres stdproof.Presentation
	if err = msg.Unmarshal(&pres); err != nil {
		return s, nil, err
	}
	data, err := decorator.FirstBytes(pres.PresentationAttaches)
	if err != nil {
		return s, nil, fmt.Errorf("%w: %w", ErrNoAttachment, err)
	}
	return Verifier{
		State: PresentationReceived,
		PresentationReceived: &ReceivedProof{
			ProofRequest:   *s.RequestSent,
			PresentationID: pres.ID,
			Presentation:   data,
		},
	}, nil, nil
}

// Verify checks the presentation against the request and folds the result
// into Finished. A valid presentation is acked, an invalid one gets a
// presentation-rejected problem report. PresentationReceived -> Finished.
func (s Verifier) Verify(ctx context.Context, ac vc.AnonCreds) (_ Verifier, out any, err error) {
	defer err2.Handle(&err, "verify presentation")

	try.To(psm.Require(s.State == PresentationReceived, "verify", s))
	p := s.PresentationReceived

	ok := try.To1(ac.VerifyPresentation(ctx, p.Request, p.Presentation))
	if !ok {
		pr := report(p.ThreadID, common.CodePresentationRejected, "presentation verification failed")
		return Verifier{
			State:    Finished,
			Finished: &FinishedData{ThreadID: p.ThreadID, Status: psm.Failed(pr)},
		}, pr, nil
	}
	return Verifier{
		State:    Finished,
		Finished: &FinishedData{ThreadID: p.ThreadID, Status: psm.Success(p.PresentationID)},
	}, common.NewAck(pltype.PresentProofACK, p.ThreadID), nil
}

// Decline rejects a proposal or a received presentation without verifying
// it. -> Finished(Declined).
func (s Verifier) Decline(reason string) (_ Verifier, _ *common.ProblemReport, err error) {
	if err = psm.Require(kind(s.State) != Initial && !s.Terminal(), "decline", s); err != nil {
		return s, nil, err
	}
	pr := report(s.ThreadID(), common.CodePresentationRejected, reason)
	return Verifier{
		State:    Finished,
		Finished: &FinishedData{ThreadID: s.ThreadID(), Status: psm.Declined(pr)},
	}, pr, nil
}
