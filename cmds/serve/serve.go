// Package serve is the command which runs the agent: the HTTP endpoint, the
// protocol processor over the configured store and the janitor.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/findy-network/findy-didcomm/agent/envelope"
	"github.com/findy-network/findy-didcomm/agent/prot"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/storage/redis"
	"github.com/findy-network/findy-didcomm/agent/trans"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/agent/vc"
	"github.com/findy-network/findy-didcomm/agent/vdr"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/cmds"
	"github.com/findy-network/findy-didcomm/server"
	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	goredis "github.com/redis/go-redis/v9"
)

const (
	EnvelopeLegacy = "legacy"
	EnvelopeAries  = "aries"
)

type Cmd struct {
	Label       string
	ServiceName string
	HostAddr    string
	HostScheme  string
	HostPort    uint
	ServerPort  uint

	PsmDb     string
	RedisAddr string

	// Seed is the seed of the public DID. Without it the agent makes no
	// public invitations.
	Seed string

	// CredDefs are the cred defs written to the ledger at startup. Proofs
	// of credentials of other cred defs are rejected.
	CredDefs []string

	// Envelope is the packer of the wire messages: legacy, or aries for
	// the aries-framework-go packer over a KMS wallet.
	Envelope string

	PleaseAck  bool
	AutoAccept bool

	JanitorInterval time.Duration
	MaxRunAge       time.Duration
	SendRetry       time.Duration

	// Invitation prints the connection invitation to the public DID at
	// startup.
	Invitation bool
}

// Agent is a set up agent ready to run.
type Agent struct {
	*prot.Processor

	PublicDID string

	store    psm.Store
	registry *vdr.Registry
	cron     *gocron.Scheduler
}

func (c *Cmd) Validate() error {
	if c.Label == "" {
		return errors.New("label cannot be empty")
	}
	if c.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}
	if c.HostAddr == "" {
		return errors.New("host address cannot be empty")
	}
	if c.HostPort == 0 {
		return errors.New("host port cannot be zero")
	}
	if c.HostScheme != "http" && c.HostScheme != "https" {
		return fmt.Errorf("%w: host scheme %q", cmds.ErrInvalid, c.HostScheme)
	}
	if c.PsmDb != "" && c.RedisAddr != "" {
		return errors.New("give either psm database or redis address, not both")
	}
	if c.JanitorInterval < 0 || c.MaxRunAge < 0 || c.SendRetry < 0 {
		return fmt.Errorf("%w: durations cannot be negative", cmds.ErrInvalid)
	}
	if c.JanitorInterval > 0 && c.MaxRunAge == 0 {
		return errors.New("janitor needs max run age")
	}
	if c.Envelope != EnvelopeLegacy && c.Envelope != EnvelopeAries {
		return fmt.Errorf("%w: envelope %q", cmds.ErrInvalid, c.Envelope)
	}
	if c.Invitation && c.Seed == "" {
		return errors.New("invitation needs the public DID seed")
	}
	return cmds.ValidateSeed(c.Seed)
}

// Exec runs the agent until SIGINT or SIGTERM.
func (c *Cmd) Exec(w io.Writer) (err error) {
	defer err2.Handle(&err, "serve")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := try.To1(c.Setup(ctx, w))
	defer a.Close()
	return a.Run(ctx, c.ServerPort, c.ServiceName)
}

// Setup builds the agent: settings, store, keys, the processor and its
// public invitation templates. The janitor is started when configured.
func (c *Cmd) Setup(ctx context.Context, w io.Writer) (_ *Agent, err error) {
	defer err2.Handle(&err, "setup")

	c.printStartupArgs()
	c.setRuntimeSettings()

	store := try.To1(c.openStore())
	defer err2.Handle(&err, func(err error) error {
		_ = store.Close()
		return err
	})

	wlt, env := try.To2(c.wallet())
	registry := vdr.New()
	for _, id := range c.CredDefs {
		registry.Put(id, try.To1(json.Marshal(map[string]string{"id": id})))
	}
	a := &Agent{store: store, registry: registry}
	if c.Seed != "" {
		a.PublicDID = try.To1(c.publicDID(ctx, wlt, registry))
	}

	a.Processor = prot.New(prot.Config{
		Label:      c.Label,
		Endpoint:   server.Endpoint(c.ServiceName),
		PleaseAck:  c.PleaseAck,
		AutoAccept: c.AutoAccept,
	}, prot.Capabilities{
		Wallet:    wlt,
		Envelope:  env,
		Resolver:  registry,
		AnonCreds: vc.NewPlain(registry),
		Transport: trans.NewHTTP(c.SendRetry),
		Store:     store,
	})

	if a.PublicDID != "" {
		try.To(c.publicTemplates(ctx, a, w))
	}
	if c.JanitorInterval > 0 {
		a.cron = try.To1(a.StartJanitor(c.JanitorInterval, c.MaxRunAge))
	}
	return a, nil
}

// Run serves the agent's endpoint until the context is done.
func (a *Agent) Run(ctx context.Context, serverPort uint, serviceName string) error {
	return server.Serve(ctx, server.New(serverPort, serviceName, a.Processor))
}

// Close stops the janitor and closes the store.
func (a *Agent) Close() {
	if a.cron != nil {
		a.cron.Stop()
	}
	if err := a.store.Close(); err != nil {
		glog.Warningln("close store:", err)
	}
}

func (c *Cmd) openStore() (psm.Store, error) {
	switch {
	case c.RedisAddr != "":
		glog.V(1).Infoln("psm store on redis", c.RedisAddr)
		return redis.New(goredis.NewClient(&goredis.Options{Addr: c.RedisAddr}), ""), nil
	case c.PsmDb != "":
		return psm.Open(c.PsmDb)
	default:
		glog.Warningln("no psm database, protocol runs are kept in memory")
		return psm.NewMemory(), nil
	}
}

// publicDID creates the key of the seed, stores its DID to the wallet and
// registers the DID document for the resolver.
func (c *Cmd) publicDID(ctx context.Context, w wallet.Wallet, r *vdr.Registry) (_ string, err error) {
	defer err2.Handle(&err, "public DID")

	key := try.To1(w.CreateKey(ctx, c.Seed))
	id := "did:sov:" + try.To1(did.FromKey(key))
	try.To(w.StoreDID(ctx, id, key))
	try.To(r.Register(did.NewDoc(id, key, server.Endpoint(c.ServiceName))))
	glog.V(1).Infoln("public DID:", id, key)
	return id, nil
}

func (c *Cmd) publicTemplates(ctx context.Context, a *Agent, w io.Writer) (err error) {
	defer err2.Handle(&err)

	_, inv := try.To2(a.InvitePublic(ctx, a.PublicDID))
	try.To2(a.ExchangeInvitePublic(ctx, a.PublicDID))
	if c.Invitation {
		cmds.Fprintln(w, string(try.To1(json.Marshal(inv))))
	}
	return nil
}

func (c *Cmd) setRuntimeSettings() {
	utils.Settings.SetLabel(c.Label)
	utils.Settings.SetServiceName(c.ServiceName)
	utils.Settings.SetHostAddr(c.HostAddr)
	utils.Settings.SetHostPort(c.HostPort)
	server.BuildHostAddr(c.HostScheme, c.HostPort)
}

// wallet returns the agent's wallet and its envelope. A nil envelope is
// the processor's default.
func (c *Cmd) wallet() (wallet.Wallet, envelope.Envelope, error) {
	if c.Envelope != EnvelopeAries {
		return wallet.NewMemory(), nil, nil
	}
	w, err := wallet.NewKMS()
	if err != nil {
		return nil, nil, err
	}
	return w, envelope.NewAries(w), nil
}

func (c *Cmd) printStartupArgs() {
	glog.V(1).Infoln(
		"label:", c.Label,
		"host address:", c.HostAddr,
		"host port:", c.HostPort,
		"server port:", c.ServerPort,
		"psm db:", c.PsmDb,
		"redis:", c.RedisAddr,
		"envelope:", c.Envelope,
		"cred defs:", c.CredDefs)
}
