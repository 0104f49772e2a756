package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultGrace is how far past its boundary a firing may land before it is
// logged as late. Lateness is advisory; the cycle still runs.
const DefaultGrace = 30 * time.Second

// Runner fires a cycle function on fixed wall-clock boundaries. It never
// fires at start, and each firing is independent of the previous one's
// outcome.
type Runner struct {
	Interval time.Duration
	Grace    time.Duration
	Cycle    func(ctx context.Context, scheduled time.Time) error
}

// NextFire returns the first interval boundary strictly after now.
func NextFire(now time.Time, interval time.Duration) time.Time {
	return now.UTC().Truncate(interval).Add(interval)
}

// Start blocks, firing the cycle on every boundary until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	grace := r.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	for {
		scheduled := NextFire(time.Now(), r.Interval)
		timer := time.NewTimer(time.Until(scheduled))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if late := time.Since(scheduled); late > grace {
			log.Warn().Dur("late", late).Time("scheduled", scheduled).Msg("Timer is past due")
		}

		if err := r.Cycle(ctx, scheduled); err != nil {
			// Cycle-scoped failure: log and wait for the next boundary.
			log.Error().Err(err).Time("scheduled", scheduled).Msg("Ingest cycle failed")
		}
	}
}
