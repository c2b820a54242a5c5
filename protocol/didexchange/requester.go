package didexchange

import (
	"context"
	"fmt"
	"strings"

	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/vdr"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/did"
	stdex "github.com/findy-network/findy-didcomm/std/didexchange"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// CreateRequest answers the invitation. The inviter's document comes from
// the inline service or is resolved from the service DID. Our DID is a
// did:key of a fresh key and its document is attached to the request.
// Initial -> RequestSent.
func (s Requester) CreateRequest(
	ctx context.Context,
	w wallet.Wallet,
	res vdr.Resolver,
	inv *stdex.Invitation,
	cfg Config,
) (_ Requester, _ *stdex.Request, err error) {
	defer err2.Handle(&err, "create did-exchange request to %s", inv.ID)

	try.To(psm.Require(kind(s.State) == Initial, "create request", s))

	theirDoc := try.To1(invitationDoc(ctx, inv, res))
	if err := theirDoc.Validate(); err != nil {
		return s, nil, fmt.Errorf("%w: %w", psm.ErrMissingDidDoc, err)
	}

	myKey := try.To1(w.CreateKey(ctx, ""))
	myDID := try.To1(did.KeyDID(myKey))
	try.To(w.StoreDID(ctx, myDID, myKey))
	myDoc := did.NewDoc(myDID, myKey, cfg.Endpoint, cfg.RoutingKeys...)

	req := try.To1(stdex.NewRequest(cfg.Label, inv.ID, myDID, myDoc))
	glog.V(1).Infof("did-exchange request %s to invitation %s", req.ID, inv.ID)
	return Requester{
		State: RequestSent,
		RequestSent: &Requesting{
			Invitation: *inv,
			TheirDoc:   theirDoc,
			Request:    *req,
			MyDID:      myDID,
			MyKey:      myKey,
			MyDoc:      myDoc,
		},
	}, req, nil
}

func invitationDoc(ctx context.Context, inv *stdex.Invitation, res vdr.Resolver) (_ *did.Doc, err error) {
	defer err2.Handle(&err)

	svc, err := inv.FirstService()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", psm.ErrMissingDidDoc, err)
	}
	if svc.Inline == nil {
		doc, err := res.Resolve(ctx, svc.DID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", psm.ErrMissingDidDoc, err)
		}
		return doc, nil
	}
	if len(svc.Inline.RecipientKeys) == 0 {
		return nil, fmt.Errorf("%w: inline service has no recipient keys", psm.ErrMissingDidDoc)
	}
	keys := make([]wallet.Key, 0, len(svc.Inline.RecipientKeys))
	for _, k := range svc.Inline.RecipientKeys {
		keys = append(keys, try.To1(serviceKey(k)))
	}
	routing := make([]wallet.Key, 0, len(svc.Inline.RoutingKeys))
	for _, k := range svc.Inline.RoutingKeys {
		routing = append(routing, try.To1(serviceKey(k)))
	}
	theirDID := try.To1(did.KeyDID(keys[0]))
	doc := did.NewDoc(theirDID, keys[0], svc.Inline.ServiceEndpoint, routing...)
	for _, k := range keys[1:] {
		doc.Service[0].RecipientKeys = append(doc.Service[0].RecipientKeys, k.String())
	}
	return doc, nil
}

// serviceKey accepts both raw base58 verkeys and did:key references.
func serviceKey(k string) (wallet.Key, error) {
	if strings.HasPrefix(k, "did:key:") {
		return did.KeyFromKeyDID(k)
	}
	key := wallet.Key(k)
	if _, err := key.Bytes(); err != nil {
		return "", err
	}
	return key, nil
}

// Handle runs an inbound message: the response in RequestSent or a problem
// report in any non-terminal state. The responder's document is resolved
// with res when the response has no attachment.
func (s Requester) Handle(ctx context.Context, res vdr.Resolver, msg *common.Msg) (Requester, any, error) {
	return psm.Step(s, msg, s.abandon, func(msg *common.Msg) (Requester, any, error) {
		return s.handleResponse(ctx, res, msg)
	})
}

func (s Requester) abandon(pr *common.ProblemReport, msgID string) Requester {
	return Requester{State: Abandoned, Abandoned: abandoned(s.thread(), pr, msgID)}
}

// handleResponse takes the responder's document. RequestSent -> Completed
// and the complete message is returned.
func (s Requester) handleResponse(ctx context.Context, res vdr.Resolver, msg *common.Msg) (_ Requester, _ any, err error) {
	r := s.RequestSent

	var resp stdex.Response
	if err = msg.Unmarshal(&resp); err != nil {
		return s, nil, err
	}
	theirDoc, err := exchangedDoc(ctx, res, resp.DID, resp.DIDDoc)
	if err != nil {
		return s, nil, err
	}
	theirDID := resp.DID
	if theirDID == "" {
		theirDID = theirDoc.ID
	}
	return Requester{
		State: Completed,
		Completed: &Exchanged{
			InvitationID: r.Invitation.ID,
			Pairwise: pairwise.Pairwise{
				ThreadID:   r.Request.ID,
				TheirLabel: r.Invitation.Label,
				MyDID:      r.MyDID,
				MyKey:      r.MyKey,
				MyDoc:      r.MyDoc,
				TheirDID:   theirDID,
				TheirDoc:   theirDoc,
			},
			LastMsgID: msg.ID,
		},
	}, stdex.NewComplete(r.Request.ID, r.Invitation.ID), nil
}

// Route returns our sending key and the receiving document for the
// messages of the current state.
func (s Requester) Route() (wallet.Key, *did.Doc, error) {
	switch s.State {
	case RequestSent:
		return s.RequestSent.MyKey, s.RequestSent.TheirDoc, nil
	case Completed:
		return s.Completed.Pairwise.MyKey, s.Completed.Pairwise.TheirDoc, nil
	}
	return "", nil, psm.Require(false, "route", s)
}
