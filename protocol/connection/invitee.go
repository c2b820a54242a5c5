package connection

import (
	"context"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/vdr"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/common"
	stdconn "github.com/findy-network/findy-didcomm/std/connection"
	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// HandleInvitation takes a received invitation. The inviter's document is
// built from a pairwise invitation or resolved for a public one.
// Initial -> Invited.
func (s Invitee) HandleInvitation(
	ctx context.Context,
	inv *stdconn.Invitation,
	res vdr.Resolver,
) (_ Invitee, err error) {
	defer err2.Handle(&err, "handle invitation %s", inv.ID)

	try.To(psm.Require(kind(s.State) == Initial, "handle invitation", s))

	var theirDoc *did.Doc
	if inv.Public() {
		theirDoc = try.To1(res.Resolve(ctx, inv.DID))
	} else {
		theirDoc = try.To1(invitationDoc(inv))
	}
	if err := theirDoc.Validate(); err != nil {
		return s, fmt.Errorf("%w: %w", psm.ErrMissingDidDoc, err)
	}
	return Invitee{
		State:   Invited,
		Invited: &InviteeInvited{Invitation: *inv, TheirDoc: theirDoc},
	}, nil
}

func invitationDoc(inv *stdconn.Invitation) (*did.Doc, error) {
	keys := inv.Keys()
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: invitation has no recipient keys", psm.ErrMissingDidDoc)
	}
	theirDID, err := did.FromKey(keys[0])
	if err != nil {
		return nil, err
	}
	routing := make([]wallet.Key, 0, len(inv.RoutingKeys))
	for _, k := range inv.RoutingKeys {
		routing = append(routing, wallet.Key(k))
	}
	doc := did.NewDoc(theirDID, keys[0], inv.ServiceEndpoint, routing...)
	for _, k := range keys[1:] {
		doc.Service[0].RecipientKeys = append(doc.Service[0].RecipientKeys, k.String())
	}
	return doc, nil
}

// CreateRequest creates our pairwise key, DID and document and the request
// carrying them. Invited -> Requested. The request is packed with the new
// key to the invitation's keys.
func (s Invitee) CreateRequest(
	ctx context.Context,
	w wallet.Wallet,
	cfg Config,
) (_ Invitee, _ *stdconn.Request, err error) {
	defer err2.Handle(&err, "create request")

	try.To(psm.Require(s.State == Invited, "create request", s))
	inv := s.Invited

	myKey := try.To1(w.CreateKey(ctx, ""))
	myDID := try.To1(did.FromKey(myKey))
	try.To(w.StoreDID(ctx, myDID, myKey))
	myDoc := did.NewDoc(myDID, myKey, cfg.Endpoint, cfg.RoutingKeys...)

	thid := inv.Invitation.ID
	if inv.Invitation.Public() {
		thid = ""
	}
	req := stdconn.NewRequest(cfg.Label, thid, &stdconn.Connection{DID: myDID, DIDDoc: myDoc})
	return Invitee{
		State: Requested,
		Requested: &InviteeRequested{
			InviteeInvited: *inv,
			ThreadID:       req.Thread.ID,
			Request:        *req,
			MyDID:          myDID,
			MyKey:          myKey,
			MyDoc:          myDoc,
		},
	}, req, nil
}

// Handle runs an inbound message: the response in Requested or a problem
// report in any non-terminal state.
func (s Invitee) Handle(msg *common.Msg) (Invitee, any, error) {
	return psm.Step(s, msg, s.abandon, s.handleResponse)
}

func (s Invitee) abandon(pr *common.ProblemReport, msgID string) Invitee {
	return Invitee{State: Abandoned, Abandoned: abandoned(s.threadID(), pr, msgID)}
}

// handleResponse verifies that the response is signed with a key of the
// invitation and takes the inviter's pairwise document from it.
// Requested -> Completed. An ack is returned when the inviter asked one.
func (s Invitee) handleResponse(msg *common.Msg) (_ Invitee, _ any, err error) {
	r := s.Requested

	var resp stdconn.Response
	if err = msg.Unmarshal(&resp); err != nil {
		return s, nil, err
	}
	expected, err := r.TheirDoc.RecipientKeys()
	if err != nil {
		return s, nil, err
	}
	if err = stdconn.Verify(&resp, expected...); err != nil {
		return s, nil, fmt.Errorf("%w: %w", psm.ErrInvalidResponseSignature, err)
	}
	conn := resp.Connection
	if conn == nil || conn.DIDDoc == nil {
		return s, nil, fmt.Errorf("%w: connection response %s", psm.ErrMissingDidDoc, resp.ID)
	}
	if err = conn.DIDDoc.Validate(); err != nil {
		return s, nil, fmt.Errorf("%w: %w", psm.ErrMissingDidDoc, err)
	}
	theirDID := conn.DID
	if theirDID == "" {
		theirDID = conn.DIDDoc.ID
	}

	var out any
	if resp.PleaseAck != nil {
		out = common.NewAck(pltype.AriesConnectionAck, r.ThreadID)
	}
	return Invitee{
		State: Completed,
		Completed: &Established{
			Pairwise: pairwise.Pairwise{
				ThreadID:   r.ThreadID,
				TheirLabel: r.Invitation.Label,
				MyDID:      r.MyDID,
				MyKey:      r.MyKey,
				MyDoc:      r.MyDoc,
				TheirDID:   theirDID,
				TheirDoc:   conn.DIDDoc,
			},
			LastMsgID: msg.ID,
		},
	}, out, nil
}

// Route returns our sending key and the receiving document for the
// messages of the current state.
func (s Invitee) Route() (wallet.Key, *did.Doc, error) {
	switch s.State {
	case Requested:
		return s.Requested.MyKey, s.Requested.TheirDoc, nil
	case Completed:
		return s.Completed.Pairwise.MyKey, s.Completed.Pairwise.TheirDoc, nil
	}
	return "", nil, psm.Require(false, "route", s)
}
