package prot

import (
	"context"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/bus"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// notify broadcasts the stored state of the run.
func (p *Processor) notify(rec *psm.Record) {
	if glog.V(2) {
		glog.Infof("%s/%s run %s: %s", rec.Protocol, rec.Role, rec.ID, rec.StateName)
	}
	p.bus.Broadcast(bus.Notification{
		RunID:     rec.ID,
		Protocol:  rec.Protocol,
		Role:      rec.Role,
		State:     rec.StateName,
		Terminal:  rec.Terminal,
		Timestamp: rec.Updated.UnixNano(),
	})
}

// WaitTerminal blocks until the run reaches a terminal state or ctx ends.
func (p *Processor) WaitTerminal(ctx context.Context, runID string) (_ *RunStatus, err error) {
	defer err2.Handle(&err, "wait run %s", runID)

	ready := p.bus.StartListen(runID)
	st := try.To1(p.Status(ctx, runID))
	if st.Terminal {
		return st, nil
	}
	select {
	case <-ready:
		return p.Status(ctx, runID)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: still %s", ctx.Err(), st.State)
	}
}
