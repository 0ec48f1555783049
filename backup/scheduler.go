// backup/scheduler.go
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler takes snapshots on a cron schedule, in UTC.
type Scheduler struct {
	cron   *cron.Cron
	snap   *Snapshotter
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

func NewScheduler(snap *Snapshotter, log zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		snap:   snap,
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Start registers the snapshot job for spec (standard five-field cron or a
// descriptor such as "@hourly") and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.snap.Snapshot(s.ctx); err != nil {
			s.log.Error().Err(err).Msg("scheduled snapshot failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.log.Info().Str("schedule", spec).Msg("backup scheduler started")
	return nil
}

// Stop waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
}
