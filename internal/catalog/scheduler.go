package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "campusbot/internal/log"
)

// Scheduler refreshes a Catalog on a cron schedule. Overlapping runs are
// skipped.
type Scheduler struct {
	cron    *cron.Cron
	catalog *Catalog
	timeout time.Duration
}

// NewScheduler validates spec (standard 5-field cron) and registers the
// refresh job. Call Start to begin.
func NewScheduler(c *Catalog, spec string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		catalog: c,
		timeout: 2 * time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.catalog.Refresh(ctx); err != nil {
		appLog.Error("scheduled catalog refresh failed", err)
	}
}

// Next returns the next scheduled refresh, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running refresh to finish or ctx
// to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
