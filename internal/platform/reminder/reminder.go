// Package reminder runs the daily appointment reminder sweep.
package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Job is the unit of work the sweeper runs once per day. It reports how many
// reminders it produced.
type Job interface {
	RemindUpcoming(ctx context.Context) (int, error)
}

// Sweeper invokes a Job on a fixed interval. Failures are logged and the next
// run proceeds normally.
type Sweeper struct {
	job      Job
	interval time.Duration
	logger   zerolog.Logger
}

// NewSweeper constructs a Sweeper. An interval of zero defaults to 24 hours.
func NewSweeper(job Job, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{job: job, interval: interval, logger: logger}
}

// Start runs the sweep loop until ctx is cancelled. The first sweep happens
// after one interval, not immediately, so restarts do not double-remind.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("reminder sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) {
	sent, err := s.job.RemindUpcoming(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reminder sweep failed")
		return
	}
	s.logger.Info().Int("reminders", sent).Msg("reminder sweep completed")
}
