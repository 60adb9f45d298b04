package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/adapter"
)

// Poller drives the sleep-then-check loop for one submitted task. It owns the
// ProviderTask state machine for the duration of the loop and guarantees a
// terminal status on return: Succeeded, Failed, or TimedOut.
//
// The loop blocks the calling goroutine. Sleep is injectable so tests run
// without real intervals; a future background-worker model can reuse the same
// type unchanged.
type Poller struct {
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration)
	log      *zerolog.Logger
}

func NewPoller(interval time.Duration, log *zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		interval: interval,
		sleep: func(ctx context.Context, d time.Duration) {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
			case <-t.C:
			}
		},
		log: log,
	}
}

// Run polls prov for sub until a terminal state or maxAttempts checks have
// passed. A transport error from CheckStatus is transient: it is logged and
// the loop continues, but it never resolves the job by itself. Only a
// vendor-reported terminal status or budget exhaustion ends the loop.
func (p *Poller) Run(ctx context.Context, prov adapter.ProviderAdapter, task *model.ProviderTask, sub adapter.Submission, maxAttempts int) {
	// Single-call vendors resolve at submit time.
	if sub.ResultURL != "" {
		_ = task.Succeed(sub.ResultURL)
		return
	}
	if maxAttempts <= 0 {
		maxAttempts = 60
	}
	_ = task.Transition(model.TaskStatusPolling)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p.sleep(ctx, p.interval)
		task.Attempts = attempt

		res, err := prov.CheckStatus(ctx, sub)
		if err != nil {
			p.log.Warn().Err(err).
				Str("job_id", task.JobID).
				Str("task_id", task.TaskID).
				Int("attempt", attempt).
				Msg("status check failed, continuing")
			continue
		}

		switch res.State {
		case adapter.StatusSucceeded:
			// Some vendors report success a beat before the asset URL is
			// attached; keep polling until it shows up.
			if res.ResultURL == "" {
				continue
			}
			_ = task.Succeed(res.ResultURL)
			return
		case adapter.StatusFailed:
			_ = task.Fail(res.Message)
			return
		default:
			// pending, keep looping
		}
	}

	_ = task.TimeOut(fmt.Sprintf("generation timed out after %d status checks", maxAttempts))
}
