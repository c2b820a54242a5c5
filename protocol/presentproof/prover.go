package presentproof

import (
	"context"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/vc"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	stdproof "github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// CreateProposal proposes a presentation. Initial -> ProposalSent.
func (s Prover) CreateProposal(
	comment string,
	preview *stdproof.Preview,
) (_ Prover, _ *stdproof.Propose, err error) {
	if err = psm.Require(kind(s.State) == Initial, "create proposal", s); err != nil {
		return s, nil, err
	}
	prop := stdproof.NewPropose(comment, preview)
	return Prover{
		State:        ProposalSent,
		ProposalSent: &Proposal{ThreadID: prop.Thread.ID, Proposal: *prop},
	}, prop, nil
}

// Handle runs an inbound message: a request in Initial or ProposalSent, the
// verifier's ack in PresentationSent or a problem report in any
// non-terminal state.
func (s Prover) Handle(msg *common.Msg) (Prover, any, error) {
	return psm.Step(s, msg, s.abandon, func(msg *common.Msg) (Prover, any, error) {
		if s.State == PresentationSent {
			return Prover{
				State: Finished,
				Finished: &FinishedData{
					ThreadID: s.PresentationSent.ThreadID,
					Status:   psm.Success(s.PresentationSent.PresentationID),
					MsgID:    msg.ID,
				},
			}, nil, nil
		}
		return s.handleRequest(msg)
	})
}

func (s Prover) abandon(pr *common.ProblemReport, msgID string) Prover {
	return Prover{State: Finished, Finished: failed(s.ThreadID(), pr, msgID)}
}

func (s Prover) handleRequest(msg *common.Msg) (_ Prover, _ any, err error) {
	var req stdproof.Request
	if err = msg.Unmarshal(&req); err != nil {
		return s, nil, err
	}
	data, err := decorator.FirstBytes(req.RequestPresentations)
	if err != nil {
		return s, nil, fmt.Errorf("%w: %w", ErrNoAttachment, err)
	}
	return Prover{
		State:           RequestReceived,
		RequestReceived: &ProofRequest{ThreadID: msg.ThreadID(), Request: data},
	}, nil, nil
}

// CreatePresentation builds the proof for the request.
// RequestReceived -> PresentationSent.
func (s Prover) CreatePresentation(
	ctx context.Context,
	ac vc.AnonCreds,
) (_ Prover, _ *stdproof.Presentation, err error) {
	defer err2.Handle(&err, "create presentation")

	try.To(psm.Require(s.State == RequestReceived, "create presentation", s))
	r := s.RequestReceived

	proof := try.To1(ac.CreatePresentation(ctx, r.Request))
	pres := stdproof.NewPresentation(r.ThreadID, proof)
	return Prover{
		State:            PresentationSent,
		PresentationSent: &SentProof{ThreadID: r.ThreadID, PresentationID: pres.ID},
	}, pres, nil
}

// Decline refuses the request. -> Finished(Declined).
func (s Prover) Decline(reason string) (_ Prover, _ *common.ProblemReport, err error) {
	if err = psm.Require(kind(s.State) != Initial && !s.Terminal(), "decline", s); err != nil {
		return s, nil, err
	}
	pr := report(s.ThreadID(), common.CodePresentationAbandoned, reason)
	return Prover{
		State:    Finished,
		Finished: &FinishedData{ThreadID: s.ThreadID(), Status: psm.Declined(pr)},
	}, pr, nil
}
