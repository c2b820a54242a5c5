// Package pairwise is the result of a connection or DID exchange run: both
// ends' DIDs and documents. The issuance and presentation runs address their
// messages with it.
package pairwise

import (
	"errors"

	"github.com/findy-network/findy-didcomm/agent/sec"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrIncomplete = errors.New("pairwise incomplete")

type Pairwise struct {
	ThreadID   string     `json:"thread_id"`
	TheirLabel string     `json:"their_label,omitempty"`
	MyDID      string     `json:"my_did"`
	MyKey      wallet.Key `json:"my_key"`
	MyDoc      *did.Doc   `json:"my_doc"`
	TheirDID   string     `json:"their_did"`
	TheirDoc   *did.Doc   `json:"their_doc"`
}

func (p *Pairwise) Validate() error {
	if p == nil || p.MyKey == "" || p.TheirDID == "" {
		return ErrIncomplete
	}
	return p.TheirDoc.Validate()
}

// Endpoint returns the service endpoint of the other end.
func (p *Pairwise) Endpoint() string {
	return p.TheirDoc.Endpoint()
}

// Pipe returns the secure pipe from our key to their recipient keys.
func (p *Pairwise) Pipe(w wallet.Wallet) (_ sec.Pipe, err error) {
	defer err2.Handle(&err, "pairwise %s pipe", p.ThreadID)

	try.To(p.Validate())
	theirKeys := try.To1(p.TheirDoc.RecipientKeys())
	return sec.NewPipe(w, p.MyKey, theirKeys...), nil
}

// Connected is implemented by the connection protocol states. ok is false
// until the run is completed.
type Connected interface {
	Pairwise() (pw *Pairwise, ok bool)
}
