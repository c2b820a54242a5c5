package connection

import (
	"context"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/sec"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/common"
	stdconn "github.com/findy-network/findy-didcomm/std/connection"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// CreateInvitation creates a pairwise invitation with a fresh key.
// Initial -> Invited.
func (s Inviter) CreateInvitation(
	ctx context.Context,
	w wallet.Wallet,
	cfg Config,
) (_ Inviter, _ *stdconn.Invitation, err error) {
	defer err2.Handle(&err, "create invitation")

	try.To(psm.Require(kind(s.State) == Initial, "create invitation", s))

	key := try.To1(w.CreateKey(ctx, ""))
	inv := stdconn.NewInvitation(cfg.Label, key, cfg.Endpoint, cfg.RoutingKeys...)
	glog.V(1).Infoln("connection invitation", inv.ID)
	return Inviter{
		State:   Invited,
		Invited: &InviterInvited{Invitation: *inv, Key: key, Config: cfg},
	}, inv, nil
}

// CreatePublicInvitation creates an invitation naming our public DID. The
// wallet must hold the DID's key. The Invited state of a public invitation
// is a template: every request to it starts a new run.
func (s Inviter) CreatePublicInvitation(
	ctx context.Context,
	w wallet.Wallet,
	cfg Config,
	publicDID string,
) (_ Inviter, _ *stdconn.Invitation, err error) {
	defer err2.Handle(&err, "create public invitation")

	try.To(psm.Require(kind(s.State) == Initial, "create invitation", s))

	key := try.To1(w.KeyForDID(ctx, publicDID))
	inv := stdconn.NewPublicInvitation(cfg.Label, publicDID)
	return Inviter{
		State:   Invited,
		Invited: &InviterInvited{Invitation: *inv, Key: key, Config: cfg},
	}, inv, nil
}

// Handle runs an inbound message: a request in Invited, an ack or trust
// ping in Responded, a problem report in any non-terminal state.
func (s Inviter) Handle(msg *common.Msg) (Inviter, any, error) {
	return psm.Step(s, msg, s.abandon, func(msg *common.Msg) (Inviter, any, error) {
		if s.State == Invited {
			return s.handleRequest(msg)
		}
		return Inviter{
			State: Completed,
			Completed: &Established{
				Pairwise:  s.Responded.Pairwise,
				LastMsgID: msg.ID,
			},
		}, nil, nil
	})
}

func (s Inviter) abandon(pr *common.ProblemReport, msgID string) Inviter {
	return Inviter{State: Abandoned, Abandoned: abandoned(s.threadID(), pr, msgID)}
}

// handleRequest validates the requester's document. Invited -> Requested.
// A pairwise invitation's id is the thread id, a public one anchors the
// thread to the request itself.
func (s Inviter) handleRequest(msg *common.Msg) (_ Inviter, _ any, err error) {
	var req stdconn.Request
	if err = msg.Unmarshal(&req); err != nil {
		return s, nil, err
	}
	if req.Connection == nil || req.Connection.DIDDoc == nil {
		return s, nil, fmt.Errorf("%w: connection request %s", psm.ErrMissingDidDoc, req.ID)
	}
	if err = req.Connection.DIDDoc.Validate(); err != nil {
		return s, nil, fmt.Errorf("%w: %w", psm.ErrMissingDidDoc, err)
	}
	theirDID := req.Connection.DID
	if theirDID == "" {
		theirDID = req.Connection.DIDDoc.ID
	}
	return Inviter{
		State: Requested,
		Requested: &InviterRequested{
			InviterInvited: *s.Invited,
			ThreadID:       msg.ThreadID(),
			Request:        req,
			TheirDID:       theirDID,
			TheirDoc:       req.Connection.DIDDoc,
		},
	}, nil, nil
}

// CreateResponse creates our pairwise key and DID and the response signed
// with the invitation key. Requested -> Completed, or Requested -> Responded
// when pleaseAck is set and the invitee is asked to ack. The response must
// be packed with the new pairwise key.
func (s Inviter) CreateResponse(
	ctx context.Context,
	w wallet.Wallet,
	pleaseAck bool,
) (_ Inviter, _ *stdconn.Response, err error) {
	defer err2.Handle(&err, "create response")

	try.To(psm.Require(s.State == Requested, "create response", s))
	r := s.Requested

	myKey := try.To1(w.CreateKey(ctx, ""))
	myDID := try.To1(did.FromKey(myKey))
	try.To(w.StoreDID(ctx, myDID, myKey))
	myDoc := did.NewDoc(myDID, myKey, r.Config.Endpoint, r.Config.RoutingKeys...)

	resp := stdconn.NewResponse(r.ThreadID, &stdconn.Connection{DID: myDID, DIDDoc: myDoc})
	try.To(stdconn.Sign(ctx, resp, sec.NewPipe(w, r.Key)))

	est := &Established{Pairwise: pairwise.Pairwise{
		ThreadID:   r.ThreadID,
		TheirLabel: r.Request.Label,
		MyDID:      myDID,
		MyKey:      myKey,
		MyDoc:      myDoc,
		TheirDID:   r.TheirDID,
		TheirDoc:   r.TheirDoc,
	}}
	if pleaseAck {
		resp.PleaseAck = &decorator.PleaseAck{On: []string{"RECEIPT"}}
		return Inviter{State: Responded, Responded: est}, resp, nil
	}
	return Inviter{State: Completed, Completed: est}, resp, nil
}

// Route returns our sending key and the receiving document for the
// messages of the current state.
func (s Inviter) Route() (wallet.Key, *did.Doc, error) {
	switch s.State {
	case Responded:
		return s.Responded.Pairwise.MyKey, s.Responded.Pairwise.TheirDoc, nil
	case Completed:
		return s.Completed.Pairwise.MyKey, s.Completed.Pairwise.TheirDoc, nil
	case Requested:
		return s.Requested.Key, s.Requested.TheirDoc, nil
	}
	return "", nil, psm.Require(false, "route", s)
}
