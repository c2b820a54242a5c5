// Package agent holds the commands which work offline with the agent's
// public key, i.e. without a running agent.
package agent

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/cmds"
	stdconn "github.com/findy-network/findy-didcomm/std/connection"
	stdex "github.com/findy-network/findy-didcomm/std/didexchange"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// InvitationCmd prints a multi-use invitation to the key of the seed. The
// serve command started with the same seed answers the requests to it.
type InvitationCmd struct {
	Seed     string
	Label    string
	Endpoint string

	// Exchange makes an out-of-band invitation to did exchange instead of a
	// connection invitation.
	Exchange bool
}

func (c *InvitationCmd) Validate() error {
	if c.Seed == "" {
		return errors.New("seed cannot be empty")
	}
	if err := cmds.ValidateSeed(c.Seed); err != nil {
		return err
	}
	if c.Label == "" {
		return errors.New("label cannot be empty")
	}
	return cmds.ValidateEndpoint(c.Endpoint)
}

// Exec writes the invitation JSON and returns it.
func (c *InvitationCmd) Exec(w io.Writer) (_ []byte, err error) {
	defer err2.Handle(&err, "invitation")

	key := try.To1(wallet.KeyFromSeed(c.Seed))
	var inv any
	if c.Exchange {
		inv = stdex.NewInvitation(c.Label, key, c.Endpoint)
	} else {
		inv = stdconn.NewInvitation(c.Label, key, c.Endpoint)
	}
	data := try.To1(json.Marshal(inv))
	cmds.Fprintln(w, string(data))
	return data, nil
}
