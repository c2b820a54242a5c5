package prot

import (
	"context"
	"time"

	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"golang.org/x/sync/errgroup"
)

// abandonWorkers limits the concurrent abandons, each may send a report.
const abandonWorkers = 4

// AbandonStale abandons the runs which haven't moved for maxAge. Invitation
// templates never go stale. It returns the number of abandoned runs.
func (p *Processor) AbandonStale(ctx context.Context, maxAge time.Duration) (n int, err error) {
	defer err2.Handle(&err, "abandon stale runs")

	recs := try.To1(p.store.List(ctx))
	deadline := time.Now().Add(-maxAge)

	var stale []string
	for _, rec := range recs {
		if rec.Terminal || rec.Updated.After(deadline) {
			continue
		}
		d, err := loadDriver(rec)
		if err != nil {
			glog.Warningln("janitor:", err)
			continue
		}
		if r, ok := d.(reusable); ok && r.Reusable() {
			continue
		}
		stale = append(stale, rec.ID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(abandonWorkers)
	for _, id := range stale {
		id := id
		g.Go(func() error {
			_, err := p.Abandon(gctx, id, common.CodeAckTimeout, "no progress in "+maxAge.String())
			return err
		})
	}
	try.To(g.Wait())
	if len(stale) > 0 {
		glog.V(1).Infoln("janitor abandoned", len(stale), "runs")
	}
	return len(stale), nil
}

// StartJanitor runs AbandonStale periodically until the returned scheduler
// is stopped.
func (p *Processor) StartJanitor(every, maxAge time.Duration) (_ *gocron.Scheduler, err error) {
	defer err2.Handle(&err, "start janitor")

	cron := gocron.NewScheduler(time.Now().Location())
	try.To1(cron.Every(every).Do(func() {
		if _, err := p.AbandonStale(context.Background(), maxAge); err != nil {
			glog.Warningln("janitor:", err)
		}
	}))
	cron.StartAsync()
	return cron, nil
}
