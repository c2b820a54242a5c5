package prot

import (
	"context"
	"time"

	"github.com/findy-network/findy-didcomm/agent/pairwise"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/protocol/issuecredential"
	"github.com/findy-network/findy-didcomm/protocol/presentproof"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// RunStatus is the public view of a run. Pairwise is set for completed
// connections and Outcome for finished issuances and presentations.
type RunStatus struct {
	ID                string             `json:"id"`
	Protocol          string             `json:"protocol"`
	Role              string             `json:"role"`
	ConnectionID      string             `json:"connection_id,omitempty"`
	State             string             `json:"state"`
	Terminal          bool               `json:"terminal"`
	PendingUserAction bool               `json:"pending_user_action"`
	Updated           time.Time          `json:"updated"`
	Outcome           *psm.Status        `json:"outcome,omitempty"`
	Pairwise          *pairwise.Pairwise `json:"pairwise,omitempty"`
}

type finisher interface {
	Status() (psm.Status, bool)
}

// Status returns the status of the run.
func (p *Processor) Status(ctx context.Context, runID string) (_ *RunStatus, err error) {
	defer err2.Handle(&err, "status of %s", runID)

	rec := try.To1(p.store.Get(ctx, runID))
	return statusOf(rec)
}

// List returns the statuses of all runs, the oldest update first.
func (p *Processor) List(ctx context.Context) (_ []*RunStatus, err error) {
	defer err2.Handle(&err, "list runs")

	recs := try.To1(p.store.List(ctx))
	sts := make([]*RunStatus, 0, len(recs))
	for _, rec := range recs {
		sts = append(sts, try.To1(statusOf(rec)))
	}
	return sts, nil
}

func statusOf(rec *psm.Record) (_ *RunStatus, err error) {
	defer err2.Handle(&err)

	d := try.To1(loadDriver(rec))
	st := &RunStatus{
		ID:                rec.ID,
		Protocol:          rec.Protocol,
		Role:              rec.Role,
		ConnectionID:      rec.ConnectionID,
		State:             rec.StateName,
		Terminal:          rec.Terminal,
		PendingUserAction: pending(d),
		Updated:           rec.Updated,
	}
	if c, ok := d.(pairwise.Connected); ok {
		if pw, ok := c.Pairwise(); ok {
			st.Pairwise = pw
		}
	}
	if f, ok := d.(finisher); ok {
		if s, ok := f.Status(); ok {
			st.Outcome = &s
		}
	}
	return st, nil
}

// pending tells if the run waits for a local action of its owner.
func pending(d driver) bool {
	switch s := d.(type) {
	case issuer:
		return s.State == issuecredential.ProposalReceived ||
			s.State == issuecredential.RequestReceived
	case holder:
		return s.State == issuecredential.OfferReceived
	case verifier:
		return s.State == presentproof.ProposalReceived ||
			s.State == presentproof.PresentationReceived
	case prover:
		return s.State == presentproof.RequestReceived
	}
	return false
}
