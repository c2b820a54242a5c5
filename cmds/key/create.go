package key

import (
	"context"
	"io"

	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/cmds"
	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// CreateCmd prints the verkey of the seed and its DIDs. An empty seed gives
// a random key.
type CreateCmd struct {
	Seed string
}

type Result struct {
	VerKey wallet.Key
	DID    string
	KeyDID string
}

func (c *CreateCmd) Validate() error {
	if err := cmds.ValidateSeed(c.Seed); err != nil {
		return err
	}
	return nil
}

func (c *CreateCmd) Exec(w io.Writer) (r *Result, err error) {
	defer err2.Handle(&err, "key create")

	k := try.To1(wallet.NewMemory().CreateKey(context.Background(), c.Seed))
	r = &Result{
		VerKey: k,
		DID:    try.To1(did.FromKey(k)),
		KeyDID: try.To1(did.KeyDID(k)),
	}
	cmds.Fprintln(w, r.VerKey)
	cmds.Fprintln(w, r.DID)
	cmds.Fprintln(w, r.KeyDID)
	return r, nil
}
