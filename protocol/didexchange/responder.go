package didexchange

import (
	"context"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/vdr"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/did"
	stdex "github.com/findy-network/findy-didcomm/std/didexchange"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// CreateInvitation creates an invitation with an inline service and a
// fresh key. Initial -> Invited.
func (s Responder) CreateInvitation(
	ctx context.Context,
	w wallet.Wallet,
	cfg Config,
) (_ Responder, _ *stdex.Invitation, err error) {
	defer err2.Handle(&err, "create did-exchange invitation")

	try.To(psm.Require(kind(s.State) == Initial, "create invitation", s))

	key := try.To1(w.CreateKey(ctx, ""))
	inv := stdex.NewInvitation(cfg.Label, key, cfg.Endpoint)
	glog.V(1).Infoln("did-exchange invitation", inv.ID)
	return Responder{
		State:   Invited,
		Invited: &Inviting{Invitation: *inv, Key: key, Config: cfg},
	}, inv, nil
}

// CreatePublicInvitation creates a multi-use invitation to our public DID.
// See Reusable.
func (s Responder) CreatePublicInvitation(
	ctx context.Context,
	w wallet.Wallet,
	cfg Config,
	publicDID string,
) (_ Responder, _ *stdex.Invitation, err error) {
	defer err2.Handle(&err, "create public did-exchange invitation")

	try.To(psm.Require(kind(s.State) == Initial, "create invitation", s))

	key := try.To1(w.KeyForDID(ctx, publicDID))
	inv := stdex.NewPublicInvitation(cfg.Label, publicDID)
	return Responder{
		State:   Invited,
		Invited: &Inviting{Invitation: *inv, Key: key, Config: cfg},
	}, inv, nil
}

// Handle runs an inbound message: a request in Invited, the complete in
// ResponseSent or a problem report in any non-terminal state.
func (s Responder) Handle(ctx context.Context, res vdr.Resolver, msg *common.Msg) (Responder, any, error) {
	return psm.Step(s, msg, s.abandon, func(msg *common.Msg) (Responder, any, error) {
		if s.State == Invited {
			return s.handleRequest(ctx, res, msg)
		}
		return Responder{
			State: Completed,
			Completed: &Exchanged{
				InvitationID: s.ResponseSent.InvitationID,
				Pairwise:     s.ResponseSent.Pairwise,
				LastMsgID:    msg.ID,
			},
		}, nil, nil
	})
}

func (s Responder) abandon(pr *common.ProblemReport, msgID string) Responder {
	return Responder{State: Abandoned, Abandoned: abandoned(s.thread(), pr, msgID)}
}

// handleRequest takes the requester's document. Invited -> RequestReceived.
func (s Responder) handleRequest(ctx context.Context, res vdr.Resolver, msg *common.Msg) (_ Responder, _ any, err error) {
	var req stdex.Request
	if err = msg.Unmarshal(&req); err != nil {
		return s, nil, err
	}
	theirDoc, err := exchangedDoc(ctx, res, req.DID, req.DIDDoc)
	if err != nil {
		return s, nil, err
	}
	theirDID := req.DID
	if theirDID == "" {
		theirDID = theirDoc.ID
	}
	return Responder{
		State: RequestReceived,
		RequestReceived: &Responding{
			Inviting: *s.Invited,
			Request:  req,
			TheirDID: theirDID,
			TheirDoc: theirDoc,
		},
	}, nil, nil
}

// exchangedDoc returns the attached document or resolves theirDID when
// nothing is attached.
func exchangedDoc(ctx context.Context, res vdr.Resolver, theirDID string, a *decorator.Attachment) (*did.Doc, error) {
	doc, err := stdex.AttachedDoc(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", psm.ErrMissingDidDoc, err)
	}
	if doc == nil {
		if theirDID == "" || res == nil {
			return nil, fmt.Errorf("%w: no did_doc~attach and no DID", psm.ErrMissingDidDoc)
		}
		if doc, err = res.Resolve(ctx, theirDID); err != nil {
			return nil, fmt.Errorf("%w: %w", psm.ErrMissingDidDoc, err)
		}
	}
	if err = doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", psm.ErrMissingDidDoc, err)
	}
	return doc, nil
}

// CreateResponse creates our did:key and document and the response carrying
// them. RequestReceived -> ResponseSent.
func (s Responder) CreateResponse(
	ctx context.Context,
	w wallet.Wallet,
) (_ Responder, _ *stdex.Response, err error) {
	defer err2.Handle(&err, "create did-exchange response")

	try.To(psm.Require(s.State == RequestReceived, "create response", s))
	r := s.RequestReceived

	myKey := try.To1(w.CreateKey(ctx, ""))
	myDID := try.To1(did.KeyDID(myKey))
	try.To(w.StoreDID(ctx, myDID, myKey))
	myDoc := did.NewDoc(myDID, myKey, r.Config.Endpoint, r.Config.RoutingKeys...)

	resp := try.To1(stdex.NewResponse(r.Request.ID, r.Invitation.ID, myDID, myDoc))
	return Responder{
		State: ResponseSent,
		ResponseSent: &Exchanged{
			InvitationID: r.Invitation.ID,
			Pairwise: pairwise.Pairwise{
				ThreadID:   r.Request.ID,
				TheirLabel: r.Request.Label,
				MyDID:      myDID,
				MyKey:      myKey,
				MyDoc:      myDoc,
				TheirDID:   r.TheirDID,
				TheirDoc:   r.TheirDoc,
			},
		},
	}, resp, nil
}

func (s Responder) Route() (wallet.Key, *did.Doc, error) {
	switch s.State {
	case ResponseSent:
		return s.ResponseSent.Pairwise.MyKey, s.ResponseSent.Pairwise.TheirDoc, nil
	case Completed:
		return s.Completed.Pairwise.MyKey, s.Completed.Pairwise.TheirDoc, nil
	case RequestReceived:
		return s.RequestReceived.Key, s.RequestReceived.TheirDoc, nil
	}
	return "", nil, psm.Require(false, "route", s)
}
