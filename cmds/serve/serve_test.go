package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/findy-network/findy-didcomm/agent/envelope"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/protocol/connection"
	"github.com/findy-network/findy-didcomm/protocol/didexchange"
	stdconn "github.com/findy-network/findy-didcomm/std/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seed = "000000000000000000000000Steward1"

func validCmd() Cmd {
	return Cmd{
		Label:       "faber",
		ServiceName: "a2a",
		HostAddr:    "localhost",
		HostScheme:  "http",
		HostPort:    8080,
		ServerPort:  8080,
		Envelope:    EnvelopeLegacy,
	}
}

func TestCmd_Validate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *Cmd)
		ok   bool
	}{
		{"ok", func(*Cmd) {}, true},
		{"no label", func(c *Cmd) { c.Label = "" }, false},
		{"no service", func(c *Cmd) { c.ServiceName = "" }, false},
		{"no host", func(c *Cmd) { c.HostAddr = "" }, false},
		{"no port", func(c *Cmd) { c.HostPort = 0 }, false},
		{"scheme", func(c *Cmd) { c.HostScheme = "ftp" }, false},
		{"two stores", func(c *Cmd) { c.PsmDb, c.RedisAddr = "psm.bolt", "localhost:6379" }, false},
		{"janitor without age", func(c *Cmd) { c.JanitorInterval = time.Minute }, false},
		{"janitor", func(c *Cmd) { c.JanitorInterval, c.MaxRunAge = time.Minute, time.Hour }, true},
		{"invitation without seed", func(c *Cmd) { c.Invitation = true }, false},
		{"bad seed", func(c *Cmd) { c.Seed = "short" }, false},
		{"seed", func(c *Cmd) { c.Seed, c.Invitation = seed, true }, true},
		{"aries envelope", func(c *Cmd) { c.Envelope = EnvelopeAries }, true},
		{"unknown envelope", func(c *Cmd) { c.Envelope = "didcomm-v2" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCmd()
			tt.mod(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCmd_Setup(t *testing.T) {
	c := validCmd()
	c.Seed = seed
	c.Invitation = true
	c.PsmDb = filepath.Join(t.TempDir(), "psm.bolt")
	c.JanitorInterval, c.MaxRunAge = time.Hour, time.Hour
	c.CredDefs = []string{"cred-def-1"}
	require.NoError(t, c.Validate())

	var buf bytes.Buffer
	ctx := context.Background()
	a, err := c.Setup(ctx, &buf)
	require.NoError(t, err)
	defer a.Close()

	assert.Contains(t, a.PublicDID, "did:sov:")
	_, err = a.registry.ReadCredDef(ctx, "cred-def-1")
	assert.NoError(t, err)

	var inv stdconn.Invitation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &inv))
	assert.True(t, inv.Public())
	assert.Equal(t, a.PublicDID, inv.DID)

	runs, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	protocols := map[string]string{}
	for _, r := range runs {
		protocols[r.Protocol] = r.Role
		assert.False(t, r.Terminal)
	}
	assert.Equal(t, connection.RoleInviter, protocols[connection.Protocol])
	assert.Equal(t, didexchange.RoleResponder, protocols[didexchange.Protocol])
}

func TestCmd_SetupNoSeed(t *testing.T) {
	c := validCmd()
	a, err := c.Setup(context.Background(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Empty(t, a.PublicDID)
	runs, err := a.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestCmd_SetupAriesEnvelope(t *testing.T) {
	c := validCmd()
	c.Seed = seed
	c.Envelope = EnvelopeAries
	require.NoError(t, c.Validate())

	a, err := c.Setup(context.Background(), nil)
	require.NoError(t, err)
	defer a.Close()

	w, env, err := c.wallet()
	require.NoError(t, err)
	assert.IsType(t, &wallet.KMS{}, w)
	assert.IsType(t, &envelope.Aries{}, env)
	assert.Contains(t, a.PublicDID, "did:sov:")
}
