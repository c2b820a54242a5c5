// Package prot is the agent's protocol processor. It runs the inbound
// control flow: unpack, find the run, transition, persist, pack and send.
// The local actions start runs and continue the ones waiting for their
// owner.
package prot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/findy-network/findy-didcomm/agent/bus"
	"github.com/findy-network/findy-didcomm/agent/endp"
	"github.com/findy-network/findy-didcomm/agent/envelope"
	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/sec"
	"github.com/findy-network/findy-didcomm/agent/trans"
	"github.com/findy-network/findy-didcomm/agent/vc"
	"github.com/findy-network/findy-didcomm/agent/vdr"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

var (
	ErrUnknownSender = errors.New("no connection with the sender")
	ErrNotConnected  = errors.New("connection isn't completed")
	ErrWrongRun      = errors.New("action doesn't fit the run")
)

// Config is the agent's policy.
type Config struct {
	Label       string
	Endpoint    string
	RoutingKeys []wallet.Key

	// PleaseAck makes connection responses ask for an ack.
	PleaseAck bool

	// AutoAccept continues issuance and presentation runs without waiting
	// for the local actions: offers are accepted, credentials issued, proof
	// requests answered and presentations verified.
	AutoAccept bool
}

// Capabilities are the processor's collaborators. Envelope and Bus are
// optional.
type Capabilities struct {
	Wallet    wallet.Wallet
	Envelope  envelope.Envelope
	Resolver  vdr.Resolver
	AnonCreds vc.AnonCreds
	Transport trans.Transport
	Store     psm.Store
	Bus       *bus.Station
}

// Processor runs the protocols of one agent. Transitions are serialized
// with one lock. Packing and sending happen outside of it.
type Processor struct {
	cfg Config

	w     wallet.Wallet
	env   envelope.Envelope
	res   vdr.Resolver
	ac    vc.AnonCreds
	tr    trans.Transport
	store psm.Store
	bus   *bus.Station

	lk sync.Mutex
}

func New(cfg Config, c Capabilities) *Processor {
	assert.INotNil(c.Wallet)
	assert.INotNil(c.Store)
	assert.INotNil(c.Transport)

	p := &Processor{
		cfg:   cfg,
		w:     c.Wallet,
		env:   c.Envelope,
		res:   c.Resolver,
		ac:    c.AnonCreds,
		tr:    c.Transport,
		store: c.Store,
		bus:   c.Bus,
	}
	if p.env == nil {
		p.env = envelope.NewLegacy(c.Wallet)
	}
	if p.res == nil {
		p.res = vdr.New()
	}
	if p.bus == nil {
		p.bus = bus.New()
	}
	return p
}

// Bus returns the station the run notifications are broadcast to.
func (p *Processor) Bus() *bus.Station {
	return p.bus
}

// outbound is a message with its route.
type outbound struct {
	runID string
	msg   any
	key   wallet.Key
	doc   *did.Doc
}

// Receive processes one packed inbound message. It implements
// endp.Receiver. The run isn't changed when the message is rejected.
func (p *Processor) Receive(ctx context.Context, addr *endp.Addr, packed []byte) (err error) {
	defer err2.Handle(&err, "receive")

	u := try.To1(p.env.Unpack(ctx, packed))
	msg := try.To1(common.ParseMsg(u.Message))
	if glog.V(3) {
		glog.Infof("inbound %s (%s) to %v from %s", msg.Type, msg.ID, addr, u.Sender)
	}
	if glog.V(5) {
		glog.Infoln(string(u.Message))
	}
	outs := try.To1(p.receive(ctx, u, msg))
	return p.send(ctx, outs)
}

func (p *Processor) receive(ctx context.Context, u *envelope.Unpacked, msg *common.Msg) (outs []outbound, err error) {
	p.lk.Lock()
	defer p.lk.Unlock()

	rec, d, err := p.find(ctx, u, msg)
	if err != nil {
		return nil, err
	}
	if err = p.authorize(ctx, u, rec, d); err != nil {
		glog.Warningf("%s run %s: %v", rec.Protocol, rec.ID, err)
		return nil, err
	}
	if d.Terminal() {
		// Step answers replays of the terminating message; there is
		// nothing to store or send
		_, _, err = d.handle(ctx, p, msg)
		return nil, err
	}
	if r, ok := d.(reusable); ok && r.Reusable() {
		glog.V(1).Infoln("new run from invitation template", rec.ID)
		rec = &psm.Record{ID: "", Protocol: rec.Protocol, Role: rec.Role}
	}

	nd, out, err := d.handle(ctx, p, msg)
	if err != nil {
		glog.Warningf("%s run %s: %v", rec.Protocol, rec.ID, err)
		return nil, err
	}
	if rec.ID == "" {
		rec, err = psm.NewRecord(rec.Protocol, rec.Role, nd)
		if err != nil {
			return nil, err
		}
	}
	outs, err = p.collect(ctx, rec, nd, out, outs)
	if err != nil {
		return nil, err
	}
	if !nd.Terminal() {
		nd2, out2, ok, err := nd.proceed(ctx, p, rec)
		switch {
		case err != nil:
			// the inbound transition stands, the owner may retry the
			// local step
			glog.Errorf("%s run %s proceed: %v", rec.Protocol, rec.ID, err)
		case ok:
			nd = nd2
			if outs, err = p.collect(ctx, rec, nd, out2, outs); err != nil {
				return nil, err
			}
		}
	}
	if err = p.save(ctx, rec, nd); err != nil {
		return nil, err
	}
	return outs, nil
}

// find returns the run of the message: by thread keys, by the invitation
// key the message was packed to, or a new run the message starts over a
// known connection. Requests to public invitations have no thread we know
// and are found by the key.
func (p *Processor) find(ctx context.Context, u *envelope.Unpacked, msg *common.Msg) (_ *psm.Record, _ driver, err error) {
	defer err2.Handle(&err, "find run for %s", msg.Kind())

	keys := psm.Lookup(msg)
	if u.Recipient != "" {
		keys = append(keys, invitationKeyIndex(msg.Family(), u.Recipient))
	}
	for _, k := range keys {
		rec, err := p.store.Find(ctx, k)
		if errors.Is(err, psm.ErrNotFound) {
			continue
		}
		try.To(err)
		return rec, try.To1(loadDriver(rec)), nil
	}

	d, role, ok := starter(msg)
	if !ok {
		return nil, nil, fmt.Errorf("%w: thread %s", psm.ErrNotFound, msg.ThreadID())
	}
	if u.Anon() {
		return nil, nil, ErrUnknownSender
	}
	conn, err := p.store.Find(ctx, theirKeyIndex(u.Sender))
	if errors.Is(err, psm.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownSender, u.Sender)
	}
	try.To(err)
	rec := try.To1(psm.NewRecord(msg.Family(), role, d))
	rec.ConnectionID = conn.ID
	return rec, d, nil
}

// authorize checks that the message comes from the peer of the run. Runs
// over a connection and completed connections know the peer's keys, and
// only an authcrypted message from one of them may move the run.
func (p *Processor) authorize(ctx context.Context, u *envelope.Unpacked, rec *psm.Record, d driver) (err error) {
	defer err2.Handle(&err, "sender of run %s", rec.ID)

	var pw *pairwise.Pairwise
	if rec.ConnectionID != "" {
		pw = try.To1(p.pairwise(ctx, rec.ConnectionID))
	} else if c, ok := d.(pairwise.Connected); ok {
		var completed bool
		if pw, completed = c.Pairwise(); !completed {
			return nil
		}
	} else {
		return nil
	}
	if u.Anon() {
		return fmt.Errorf("%w: anonymous message", ErrUnknownSender)
	}
	theirKeys := try.To1(pw.TheirDoc.RecipientKeys())
	if !slices.Contains(theirKeys, u.Sender) {
		return fmt.Errorf("%w: %s", ErrUnknownSender, u.Sender)
	}
	return nil
}

// collect routes the message. Nil messages are skipped.
func (p *Processor) collect(ctx context.Context, rec *psm.Record, d driver, msg any, outs []outbound) ([]outbound, error) {
	if msg == nil {
		return outs, nil
	}
	key, doc, err := d.route(ctx, p, rec)
	if err != nil {
		return outs, fmt.Errorf("route %s: %w", rec.ID, err)
	}
	return append(outs, outbound{runID: rec.ID, msg: msg, key: key, doc: doc}), nil
}

// save stores the run and notifies the listeners. Completed connections are
// indexed by the peer's keys for the runs the peer starts over them.
func (p *Processor) save(ctx context.Context, rec *psm.Record, d driver) (err error) {
	defer err2.Handle(&err, "save run %s", rec.ID)

	try.To(rec.Update(d))
	if c, ok := d.(pairwise.Connected); ok {
		if pw, ok := c.Pairwise(); ok {
			theirKeys := try.To1(pw.TheirDoc.RecipientKeys())
			for _, k := range theirKeys {
				rec.Index(theirKeyIndex(k))
			}
		}
	}
	try.To(p.store.Save(ctx, rec))
	p.notify(rec)
	return nil
}

// send packs and sends the messages in order. The first failure stops the
// sending.
func (p *Processor) send(ctx context.Context, outs []outbound) (err error) {
	for _, o := range outs {
		if err = p.sendOne(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) sendOne(ctx context.Context, o outbound) (err error) {
	defer err2.Handle(&err, "send for run %s", o.runID)

	data := try.To1(json.Marshal(o.msg))
	keys := try.To1(o.doc.RecipientKeys())
	pipe := sec.Pipe{W: p.w, Env: p.env, In: o.key, Out: keys}
	packed := try.To1(pipe.Pack(ctx, data))
	if glog.V(3) {
		glog.Infof("outbound for run %s to %s", o.runID, o.doc.Endpoint())
	}
	return p.tr.Send(ctx, o.doc.Endpoint(), packed)
}

// pairwise returns the pairwise of a completed connection or did exchange
// run.
func (p *Processor) pairwise(ctx context.Context, connID string) (_ *pairwise.Pairwise, err error) {
	defer err2.Handle(&err, "connection %s", connID)

	rec := try.To1(p.store.Get(ctx, connID))
	d := try.To1(loadDriver(rec))
	c, ok := d.(pairwise.Connected)
	if !ok {
		return nil, fmt.Errorf("%w: %s run", ErrWrongRun, rec.Protocol)
	}
	pw, ok := c.Pairwise()
	if !ok {
		return nil, fmt.Errorf("%w: state %s", ErrNotConnected, rec.StateName)
	}
	return pw, nil
}

// connectionRoute routes the issuance and presentation runs over their
// connection.
func (p *Processor) connectionRoute(ctx context.Context, rec *psm.Record) (wallet.Key, *did.Doc, error) {
	pw, err := p.pairwise(ctx, rec.ConnectionID)
	if err != nil {
		return "", nil, err
	}
	return pw.MyKey, pw.TheirDoc, nil
}

// Pairwise returns the pairwise of a completed connection run.
func (p *Processor) Pairwise(ctx context.Context, connID string) (*pairwise.Pairwise, error) {
	p.lk.Lock()
	defer p.lk.Unlock()
	return p.pairwise(ctx, connID)
}

func theirKeyIndex(k wallet.Key) string {
	return "their-key:" + k.String()
}

// invitationKeyIndex finds the invitation of the protocol by the key the
// first message is packed to.
func invitationKeyIndex(protocol string, k wallet.Key) string {
	return "invitation-key:" + protocol + ":" + k.String()
}
