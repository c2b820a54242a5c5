package prot

import (
	"context"
	"errors"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/protocol/didexchange"
	"github.com/findy-network/findy-didcomm/protocol/issuecredential"
	"github.com/findy-network/findy-didcomm/protocol/presentproof"
	"github.com/findy-network/findy-didcomm/std/common"
	stdconn "github.com/findy-network/findy-didcomm/std/connection"
	"github.com/findy-network/findy-didcomm/std/decorator"
	stdex "github.com/findy-network/findy-didcomm/std/didexchange"
	stdissue "github.com/findy-network/findy-didcomm/std/issuecredential"
	stdproof "github.com/findy-network/findy-didcomm/std/presentproof"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

func (p *Processor) connConfig() connection.Config {
	return connection.Config{
		Label:       p.cfg.Label,
		Endpoint:    p.cfg.Endpoint,
		RoutingKeys: p.cfg.RoutingKeys,
	}
}

func (p *Processor) exchangeConfig() didexchange.Config {
	return didexchange.Config{
		Label:       p.cfg.Label,
		Endpoint:    p.cfg.Endpoint,
		RoutingKeys: p.cfg.RoutingKeys,
	}
}

// MARK: connection

// Invite creates a single use connection invitation.
func (p *Processor) Invite(ctx context.Context) (_ *psm.Record, _ *stdconn.Invitation, err error) {
	defer err2.Handle(&err, "invite")

	s, inv := try.To2(connection.NewInviter().CreateInvitation(ctx, p.w, p.connConfig()))
	rec := try.To1(p.start(ctx, connection.Protocol, connection.RoleInviter, "",
		inviter{s}, nil, invitationKeyIndex(connection.Protocol, s.Invited.Key)))
	return rec, inv, nil
}

// InvitePublic creates a multi-use invitation to our public DID. The
// returned run is the template the requests start their runs from.
func (p *Processor) InvitePublic(ctx context.Context, publicDID string) (_ *psm.Record, _ *stdconn.Invitation, err error) {
	defer err2.Handle(&err, "invite with %s", publicDID)

	s, inv := try.To2(connection.NewInviter().CreatePublicInvitation(ctx, p.w, p.connConfig(), publicDID))
	rec := try.To1(p.start(ctx, connection.Protocol, connection.RoleInviter, "",
		inviter{s}, nil, invitationKeyIndex(connection.Protocol, s.Invited.Key)))
	return rec, inv, nil
}

// Connect answers a connection invitation.
func (p *Processor) Connect(ctx context.Context, inv *stdconn.Invitation) (_ *psm.Record, err error) {
	defer err2.Handle(&err, "connect to invitation %s", inv.ID)

	s := try.To1(connection.NewInvitee().HandleInvitation(ctx, inv, p.res))
	s, req := try.To2(s.CreateRequest(ctx, p.w, p.connConfig()))
	return p.start(ctx, connection.Protocol, connection.RoleInvitee, "", invitee{s}, req)
}

// MARK: did exchange

// ExchangeInvite creates a single use out-of-band invitation to DID
// exchange.
func (p *Processor) ExchangeInvite(ctx context.Context) (_ *psm.Record, _ *stdex.Invitation, err error) {
	defer err2.Handle(&err, "did-exchange invite")

	s, inv := try.To2(didexchange.NewResponder().CreateInvitation(ctx, p.w, p.exchangeConfig()))
	rec := try.To1(p.start(ctx, didexchange.Protocol, didexchange.RoleResponder, "",
		responder{s}, nil, invitationKeyIndex(didexchange.Protocol, s.Invited.Key)))
	return rec, inv, nil
}

// ExchangeInvitePublic creates a multi-use out-of-band invitation to our
// public DID.
func (p *Processor) ExchangeInvitePublic(ctx context.Context, publicDID string) (_ *psm.Record, _ *stdex.Invitation, err error) {
	defer err2.Handle(&err, "did-exchange invite with %s", publicDID)

	s, inv := try.To2(didexchange.NewResponder().CreatePublicInvitation(ctx, p.w, p.exchangeConfig(), publicDID))
	rec := try.To1(p.start(ctx, didexchange.Protocol, didexchange.RoleResponder, "",
		responder{s}, nil, invitationKeyIndex(didexchange.Protocol, s.Invited.Key)))
	return rec, inv, nil
}

// ExchangeConnect answers an out-of-band invitation with a DID exchange
// request.
func (p *Processor) ExchangeConnect(ctx context.Context, inv *stdex.Invitation) (_ *psm.Record, err error) {
	defer err2.Handle(&err, "did-exchange connect to %s", inv.ID)

	s, req := try.To2(didexchange.NewRequester().CreateRequest(ctx, p.w, p.res, inv, p.exchangeConfig()))
	return p.start(ctx, didexchange.Protocol, didexchange.RoleRequester, "", requester{s}, req)
}

// MARK: issue credential

// OfferCredential offers a credential. The target is either a connection,
// which starts a new issuance, or an issuer run that received a proposal.
func (p *Processor) OfferCredential(
	ctx context.Context,
	target string,
	info issuecredential.OfferInfo,
) (_ *psm.Record, err error) {
	defer err2.Handle(&err, "offer credential to %s", target)

	rec := try.To1(p.store.Get(ctx, target))
	if rec.Protocol == issuecredential.Protocol {
		return p.act(ctx, target, func(_ *psm.Record, d driver) (driver, any, error) {
			s, ok := d.(issuer)
			if !ok {
				return d, nil, ErrWrongRun
			}
			s2, offer, err := s.CreateOffer(ctx, p.ac, info)
			return issuer{s2}, offer, err
		})
	}
	try.To1(p.pairwise(ctx, target))
	s, offer := try.To2(issuecredential.NewIssuer().CreateOffer(ctx, p.ac, info))
	return p.start(ctx, issuecredential.Protocol, issuecredential.RoleIssuer, target, issuer{s}, offer)
}

// ProposeCredential starts an issuance from the holder's end.
func (p *Processor) ProposeCredential(
	ctx context.Context,
	connID, comment, credDefID string,
	attrs []stdissue.Attribute,
) (_ *psm.Record, err error) {
	defer err2.Handle(&err, "propose credential to %s", connID)

	try.To1(p.pairwise(ctx, connID))
	s, prop := try.To2(issuecredential.NewHolder().CreateProposal(comment, credDefID, attrs))
	return p.start(ctx, issuecredential.Protocol, issuecredential.RoleHolder, connID, holder{s}, prop)
}

// RequestCredential accepts the offer the holder run has received.
func (p *Processor) RequestCredential(ctx context.Context, runID string) (*psm.Record, error) {
	return p.act(ctx, runID, func(rec *psm.Record, d driver) (driver, any, error) {
		s, ok := d.(holder)
		if !ok {
			return d, nil, ErrWrongRun
		}
		pw, err := p.pairwise(ctx, rec.ConnectionID)
		if err != nil {
			return d, nil, err
		}
		s2, req, err := s.CreateRequest(ctx, p.ac, pw.MyDID)
		return holder{s2}, req, err
	})
}

// IssueCredential issues the credential the holder has requested.
func (p *Processor) IssueCredential(ctx context.Context, runID string) (*psm.Record, error) {
	return p.act(ctx, runID, func(_ *psm.Record, d driver) (driver, any, error) {
		s, ok := d.(issuer)
		if !ok {
			return d, nil, ErrWrongRun
		}
		s2, cred, err := s.CreateCredential(ctx, p.ac)
		return issuer{s2}, cred, err
	})
}

// MARK: present proof

// RequestProof sends a proof request. The target is either a connection or
// a verifier run that received a proposal.
func (p *Processor) RequestProof(
	ctx context.Context,
	target, comment string,
	proofReq []byte,
) (_ *psm.Record, err error) {
	defer err2.Handle(&err, "request proof from %s", target)

	rec := try.To1(p.store.Get(ctx, target))
	if rec.Protocol == presentproof.Protocol {
		return p.act(ctx, target, func(_ *psm.Record, d driver) (driver, any, error) {
			s, ok := d.(verifier)
			if !ok {
				return d, nil, ErrWrongRun
			}
			s2, req, err := s.RequestPresentation(comment, proofReq)
			return verifier{s2}, req, err
		})
	}
	try.To1(p.pairwise(ctx, target))
	s, req := try.To2(presentproof.NewVerifier().RequestPresentation(comment, proofReq))
	return p.start(ctx, presentproof.Protocol, presentproof.RoleVerifier, target, verifier{s}, req)
}

// ProposePresentation starts a presentation from the prover's end.
func (p *Processor) ProposePresentation(
	ctx context.Context,
	connID, comment string,
	preview *stdproof.Preview,
) (_ *psm.Record, err error) {
	defer err2.Handle(&err, "propose presentation to %s", connID)

	try.To1(p.pairwise(ctx, connID))
	s, prop := try.To2(presentproof.NewProver().CreateProposal(comment, preview))
	return p.start(ctx, presentproof.Protocol, presentproof.RoleProver, connID, prover{s}, prop)
}

// Present answers the proof request the prover run has received.
func (p *Processor) Present(ctx context.Context, runID string) (*psm.Record, error) {
	return p.act(ctx, runID, func(_ *psm.Record, d driver) (driver, any, error) {
		s, ok := d.(prover)
		if !ok {
			return d, nil, ErrWrongRun
		}
		s2, pres, err := s.CreatePresentation(ctx, p.ac)
		return prover{s2}, pres, err
	})
}

// Verify verifies the presentation the verifier run has received.
func (p *Processor) Verify(ctx context.Context, runID string) (*psm.Record, error) {
	return p.act(ctx, runID, func(_ *psm.Record, d driver) (driver, any, error) {
		s, ok := d.(verifier)
		if !ok {
			return d, nil, ErrWrongRun
		}
		s2, out, err := s.Verify(ctx, p.ac)
		return verifier{s2}, out, err
	})
}

// MARK: ending runs

// Decline ends an issuance or presentation run as Declined and sends the
// problem report to the other end.
func (p *Processor) Decline(ctx context.Context, runID, reason string) (*psm.Record, error) {
	return p.act(ctx, runID, func(_ *psm.Record, d driver) (driver, any, error) {
		switch s := d.(type) {
		case issuer:
			s2, pr, err := s.Decline(reason)
			return issuer{s2}, pr, err
		case holder:
			s2, pr, err := s.Decline(reason)
			return holder{s2}, pr, err
		case verifier:
			s2, pr, err := s.Decline(reason)
			return verifier{s2}, pr, err
		case prover:
			s2, pr, err := s.Decline(reason)
			return prover{s2}, pr, err
		}
		return d, nil, ErrWrongRun
	})
}

// Abandon ends any non-terminal run with a problem report of the code. The
// report goes through the same transition as an inbound one. It's sent to
// the other end when the run has a route, and a failed send doesn't undo the
// abandoning.
func (p *Processor) Abandon(ctx context.Context, runID, code, reason string) (rec *psm.Record, err error) {
	defer err2.Handle(&err, "abandon run %s", runID)

	var outs []outbound
	func() {
		p.lk.Lock()
		defer p.lk.Unlock()

		rec = try.To1(p.store.Get(ctx, runID))
		d := try.To1(loadDriver(rec))
		try.To(psm.Require(!d.Terminal(), "abandon", d))

		pr := common.NewProblemReport(problemType(rec.Protocol), "", code, reason)
		pr.Thread = reportThread(d.Thread(), pr.ID)
		msg := try.To1(common.NewMsg(pr))
		nd, _ := try.To2(d.handle(ctx, p, msg))

		if key, doc, err := d.route(ctx, p, rec); err == nil {
			outs = append(outs, outbound{runID: rec.ID, msg: pr, key: key, doc: doc})
		}
		try.To(p.save(ctx, rec, nd))
	}()
	if err := p.send(ctx, outs); err != nil {
		glog.Warningf("abandon run %s, problem report not sent: %v", runID, err)
	}
	return rec, nil
}

// reportThread is the ~thread of a report the run's own key matches.
func reportThread(key psm.ThreadKey, id string) *decorator.Thread {
	switch k := key.(type) {
	case psm.CompoundThread:
		if k.RequestID == "" {
			return &decorator.Thread{ID: id, PID: k.InvitationID}
		}
		return &decorator.Thread{ID: k.RequestID, PID: k.InvitationID}
	case psm.SingleThread:
		return &decorator.Thread{ID: string(k)}
	}
	return &decorator.Thread{ID: id}
}

// MARK: helpers

// start stores a new run and sends its first message, if there is one.
func (p *Processor) start(
	ctx context.Context,
	protocol, role, connID string,
	d driver,
	out any,
	index ...string,
) (rec *psm.Record, err error) {
	defer err2.Handle(&err, "start %s %s", protocol, role)

	rec = try.To1(psm.NewRecord(protocol, role, d))
	rec.ConnectionID = connID
	rec.Index(index...)

	outs := try.To1(p.commit(ctx, rec, d, out))
	try.To(p.send(ctx, outs))
	glog.V(1).Infof("%s run %s started as %s", protocol, rec.ID, role)
	return rec, nil
}

func (p *Processor) commit(ctx context.Context, rec *psm.Record, d driver, out any) ([]outbound, error) {
	p.lk.Lock()
	defer p.lk.Unlock()

	outs, err := p.collect(ctx, rec, d, out, nil)
	if err != nil {
		return nil, err
	}
	return outs, p.save(ctx, rec, d)
}

// act runs a local action on an existing run. The run is stored only when
// the action succeeds.
func (p *Processor) act(
	ctx context.Context,
	runID string,
	f func(rec *psm.Record, d driver) (driver, any, error),
) (rec *psm.Record, err error) {
	defer err2.Handle(&err, "run %s", runID)

	var outs []outbound
	func() {
		p.lk.Lock()
		defer p.lk.Unlock()

		rec = try.To1(p.store.Get(ctx, runID))
		d := try.To1(loadDriver(rec))
		nd, out, err := f(rec, d)
		if errors.Is(err, ErrWrongRun) {
			err = fmt.Errorf("%w: %s %s", err, rec.Protocol, rec.Role)
		}
		try.To(err)
		outs = try.To1(p.collect(ctx, rec, nd, out, nil))
		try.To(p.save(ctx, rec, nd))
	}()
	try.To(p.send(ctx, outs))
	return rec, nil
}
