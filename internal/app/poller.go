package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/shooter/internal/shooter"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultMaxAttempts  = 60
)

// Poller turns a JobHandle into a bounded sequence of status checks.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	// After returns a channel that fires once the duration elapses. Defaults to
	// time.After; tests substitute a fake clock.
	After  func(time.Duration) <-chan time.Time
	Logger zerolog.Logger
}

// Run polls until a terminal outcome, a transport failure, an exhausted attempt
// budget or cancellation of ctx. Each poll waits Interval first and starts only
// after the previous one returned. onAttempt, if set, is called with the 1-based
// attempt number before each poll.
func (p Poller) Run(ctx context.Context, client shooter.JobClient, handle shooter.JobHandle, onAttempt func(int)) shooter.PollOutcome {
	interval := p.interval()
	maxAttempts := p.maxAttempts()
	after := p.After
	if after == nil {
		after = time.After
	}
	logger := p.Logger.With().Str("task_id", handle.TaskID).Logger()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return cancelled(attempt - 1)
		case <-after(interval):
		}
		if onAttempt != nil {
			onAttempt(attempt)
		}

		outcome, err := client.Poll(ctx, handle)
		if err != nil {
			if ctx.Err() != nil {
				return cancelled(attempt)
			}
			// Transport failures end the sequence; only pending results are retried.
			logger.Warn().Err(err).Int("attempt", attempt).Msg("status check failed")
			failed := shooter.Failed(err.Error())
			failed.Attempts = attempt
			return failed
		}
		if outcome.Kind.Terminal() {
			outcome.Attempts = attempt
			logger.Debug().
				Str("outcome", outcome.Kind.String()).
				Int("attempt", attempt).
				Int("images", len(outcome.Images)).
				Msg("job resolved")
			return outcome
		}
	}

	logger.Info().Int("attempts", maxAttempts).Msg("gave up waiting for job")
	out := shooter.TimedOut()
	out.Attempts = maxAttempts
	return out
}

func (p Poller) interval() time.Duration {
	if p.Interval <= 0 {
		return defaultPollInterval
	}
	return p.Interval
}

func (p Poller) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

func cancelled(attempts int) shooter.PollOutcome {
	return shooter.PollOutcome{Kind: shooter.OutcomePending, Attempts: attempts, Cancelled: true}
}
