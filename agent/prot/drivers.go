package prot

import (
	"context"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/protocol/didexchange"
	"github.com/findy-network/findy-didcomm/protocol/issuecredential"
	"github.com/findy-network/findy-didcomm/protocol/presentproof"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/did"
)

// driver binds a protocol state union to the processor's capabilities. The
// drivers are thin: all the protocol logic lives in the protocol packages.
type driver interface {
	psm.Machine

	handle(ctx context.Context, p *Processor, msg *common.Msg) (driver, any, error)

	// proceed runs the local step which automatically follows an inbound
	// transition. ok is false when there is none and the run waits for its
	// owner.
	proceed(ctx context.Context, p *Processor, rec *psm.Record) (_ driver, out any, ok bool, err error)

	// route returns our sending key and the receiving document.
	route(ctx context.Context, p *Processor, rec *psm.Record) (wallet.Key, *did.Doc, error)
}

// reusable is implemented by the drivers which have invitation templates.
type reusable interface {
	Reusable() bool
}

func loadDriver(rec *psm.Record) (_ driver, err error) {
	var d driver
	switch rec.Protocol + "/" + rec.Role {
	case connection.Protocol + "/" + connection.RoleInviter:
		var s inviter
		err = rec.Load(&s.Inviter)
		d = s
	case connection.Protocol + "/" + connection.RoleInvitee:
		var s invitee
		err = rec.Load(&s.Invitee)
		d = s
	case didexchange.Protocol + "/" + didexchange.RoleRequester:
		var s requester
		err = rec.Load(&s.Requester)
		d = s
	case didexchange.Protocol + "/" + didexchange.RoleResponder:
		var s responder
		err = rec.Load(&s.Responder)
		d = s
	case issuecredential.Protocol + "/" + issuecredential.RoleIssuer:
		var s issuer
		err = rec.Load(&s.Issuer)
		d = s
	case issuecredential.Protocol + "/" + issuecredential.RoleHolder:
		var s holder
		err = rec.Load(&s.Holder)
		d = s
	case presentproof.Protocol + "/" + presentproof.RoleVerifier:
		var s verifier
		err = rec.Load(&s.Verifier)
		d = s
	case presentproof.Protocol + "/" + presentproof.RoleProver:
		var s prover
		err = rec.Load(&s.Prover)
		d = s
	default:
		return nil, fmt.Errorf("run %s: unknown protocol role %s/%s",
			rec.ID, rec.Protocol, rec.Role)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// starter returns the driver and role of a run the inbound message starts.
func starter(msg *common.Msg) (d driver, role string, ok bool) {
	switch msg.Family() + "/" + msg.Kind() {
	case issuecredential.Protocol + "/" + pltype.HandlerIssueCredentialOffer:
		return holder{issuecredential.NewHolder()}, issuecredential.RoleHolder, true
	case issuecredential.Protocol + "/" + pltype.HandlerIssueCredentialPropose:
		return issuer{issuecredential.NewIssuer()}, issuecredential.RoleIssuer, true
	case presentproof.Protocol + "/" + pltype.HandlerPresentProofRequest:
		return prover{presentproof.NewProver()}, presentproof.RoleProver, true
	case presentproof.Protocol + "/" + pltype.HandlerPresentProofPropose:
		return verifier{presentproof.NewVerifier()}, presentproof.RoleVerifier, true
	}
	return nil, "", false
}

func problemType(protocol string) string {
	switch protocol {
	case connection.Protocol:
		return pltype.AriesConnectionProblemRpt
	case didexchange.Protocol:
		return pltype.DIDExchangeProblemReport
	case issuecredential.Protocol:
		return pltype.IssueCredentialProblemReport
	case presentproof.Protocol:
		return pltype.PresentProofProblemReport
	}
	return pltype.NotificationProblemReport
}

// MARK: connection

type inviter struct{ connection.Inviter }

func (d inviter) handle(_ context.Context, _ *Processor, msg *common.Msg) (driver, any, error) {
	s, out, err := d.Handle(msg)
	return inviter{s}, out, err
}

func (d inviter) proceed(ctx context.Context, p *Processor, _ *psm.Record) (driver, any, bool, error) {
	if d.State != connection.Requested {
		return d, nil, false, nil
	}
	s, resp, err := d.CreateResponse(ctx, p.w, p.cfg.PleaseAck)
	if err != nil {
		return d, nil, true, err
	}
	return inviter{s}, resp, true, nil
}

func (d inviter) route(context.Context, *Processor, *psm.Record) (wallet.Key, *did.Doc, error) {
	return d.Route()
}

type invitee struct{ connection.Invitee }

func (d invitee) handle(_ context.Context, _ *Processor, msg *common.Msg) (driver, any, error) {
	s, out, err := d.Handle(msg)
	return invitee{s}, out, err
}

func (d invitee) proceed(context.Context, *Processor, *psm.Record) (driver, any, bool, error) {
	return d, nil, false, nil
}

func (d invitee) route(context.Context, *Processor, *psm.Record) (wallet.Key, *did.Doc, error) {
	return d.Route()
}

// MARK: did exchange

type requester struct{ didexchange.Requester }

func (d requester) handle(ctx context.Context, p *Processor, msg *common.Msg) (driver, any, error) {
	s, out, err := d.Handle(ctx, p.res, msg)
	return requester{s}, out, err
}

func (d requester) proceed(context.Context, *Processor, *psm.Record) (driver, any, bool, error) {
	return d, nil, false, nil
}

func (d requester) route(context.Context, *Processor, *psm.Record) (wallet.Key, *did.Doc, error) {
	return d.Route()
}

type responder struct{ didexchange.Responder }

func (d responder) handle(ctx context.Context, p *Processor, msg *common.Msg) (driver, any, error) {
	s, out, err := d.Handle(ctx, p.res, msg)
	return responder{s}, out, err
}

func (d responder) proceed(ctx context.Context, p *Processor, _ *psm.Record) (driver, any, bool, error) {
	if d.State != didexchange.RequestReceived {
		return d, nil, false, nil
	}
	s, resp, err := d.CreateResponse(ctx, p.w)
	if err != nil {
		return d, nil, true, err
	}
	return responder{s}, resp, true, nil
}

func (d responder) route(context.Context, *Processor, *psm.Record) (wallet.Key, *did.Doc, error) {
	return d.Route()
}

// MARK: issue credential

type issuer struct{ issuecredential.Issuer }

func (d issuer) handle(_ context.Context, _ *Processor, msg *common.Msg) (driver, any, error) {
	s, out, err := d.Handle(msg)
	return issuer{s}, out, err
}

func (d issuer) proceed(ctx context.Context, p *Processor, _ *psm.Record) (driver, any, bool, error) {
	if d.State != issuecredential.RequestReceived || !p.cfg.AutoAccept {
		return d, nil, false, nil
	}
	s, cred, err := d.CreateCredential(ctx, p.ac)
	if err != nil {
		return d, nil, true, err
	}
	return issuer{s}, cred, true, nil
}

func (d issuer) route(ctx context.Context, p *Processor, rec *psm.Record) (wallet.Key, *did.Doc, error) {
	return p.connectionRoute(ctx, rec)
}

type holder struct{ issuecredential.Holder }

func (d holder) handle(ctx context.Context, p *Processor, msg *common.Msg) (driver, any, error) {
	s, out, err := d.Handle(ctx, p.ac, msg)
	return holder{s}, out, err
}

func (d holder) proceed(ctx context.Context, p *Processor, rec *psm.Record) (driver, any, bool, error) {
	if d.State != issuecredential.OfferReceived || !p.cfg.AutoAccept {
		return d, nil, false, nil
	}
	pw, err := p.pairwise(ctx, rec.ConnectionID)
	if err != nil {
		return d, nil, true, err
	}
	s, req, err := d.CreateRequest(ctx, p.ac, pw.MyDID)
	if err != nil {
		return d, nil, true, err
	}
	return holder{s}, req, true, nil
}

func (d holder) route(ctx context.Context, p *Processor, rec *psm.Record) (wallet.Key, *did.Doc, error) {
	return p.connectionRoute(ctx, rec)
}

// MARK: present proof

type verifier struct{ presentproof.Verifier }

func (d verifier) handle(_ context.Context, _ *Processor, msg *common.Msg) (driver, any, error) {
	s, out, err := d.Handle(msg)
	return verifier{s}, out, err
}

func (d verifier) proceed(ctx context.Context, p *Processor, _ *psm.Record) (driver, any, bool, error) {
	if d.State != presentproof.PresentationReceived || !p.cfg.AutoAccept {
		return d, nil, false, nil
	}
	s, out, err := d.Verify(ctx, p.ac)
	if err != nil {
		return d, nil, true, err
	}
	return verifier{s}, out, true, nil
}

func (d verifier) route(ctx context.Context, p *Processor, rec *psm.Record) (wallet.Key, *did.Doc, error) {
	return p.connectionRoute(ctx, rec)
}

type prover struct{ presentproof.Prover }

func (d prover) handle(_ context.Context, _ *Processor, msg *common.Msg) (driver, any, error) {
	s, out, err := d.Handle(msg)
	return prover{s}, out, err
}

func (d prover) proceed(ctx context.Context, p *Processor, _ *psm.Record) (driver, any, bool, error) {
	if d.State != presentproof.RequestReceived || !p.cfg.AutoAccept {
		return d, nil, false, nil
	}
	s, pres, err := d.CreatePresentation(ctx, p.ac)
	if err != nil {
		return d, nil, true, err
	}
	return prover{s}, pres, true, nil
}

func (d prover) route(ctx context.Context, p *Processor, rec *psm.Record) (wallet.Key, *did.Doc, error) {
	return p.connectionRoute(ctx, rec)
}
