package champselect

import (
	"context"
	"time"

	"lol-autopilot/internal/constants"

	"github.com/jonboulle/clockwork"
)

// StepFunc runs once per timer step. Returning true ends the wait early.
type StepFunc func(ctx context.Context) (done bool, err error)

// LockInTimer holds a commit back for at least Delay, calling a step
// function about once a second so changes made meanwhile are picked up.
type LockInTimer struct {
	clock clockwork.Clock
	delay time.Duration
	step  time.Duration
}

func NewLockInTimer(clock clockwork.Clock, delay time.Duration) *LockInTimer {
	return &LockInTimer{clock: clock, delay: delay, step: constants.LockInStep}
}

func (t *LockInTimer) Delay() time.Duration {
	return t.delay
}

// Wait returns immediately when the delay is zero. Otherwise it returns
// after the delay has elapsed, when step reports done or fails, or when
// ctx is cancelled.
func (t *LockInTimer) Wait(ctx context.Context, step StepFunc) error {
	if t.delay <= 0 {
		return nil
	}
	start := t.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.clock.After(t.step):
		}

		done, err := step(ctx)
		if err != nil {
			return err
		}
		if done || t.clock.Since(start) >= t.delay {
			return nil
		}
	}
}
