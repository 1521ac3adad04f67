// internal/wait/wait.go
package wait

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Until when the condition never held within the
// allotted window. Callers that treat "not yet" as a normal outcome should
// test for it with errors.Is.
var ErrTimeout = errors.New("wait: condition not met before deadline")

// Clock abstracts time for everything in this program that paces or polls.
// Production code uses System(); tests substitute a FakeClock so no test ever
// sleeps for real.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// System returns the wall clock.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Condition reports whether the awaited state holds. Returning a non-nil
// error aborts the poll immediately.
type Condition func(ctx context.Context) (bool, error)

// Until polls cond every interval until it holds, the timeout elapses, or ctx
// is cancelled. The first probe runs immediately, and one final probe runs
// after the last full interval even if it lands past the deadline.
func Until(ctx context.Context, clk Clock, interval, timeout time.Duration, cond Condition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := clk.Now().Add(timeout)
	for {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !clk.Now().Before(deadline) {
			return ErrTimeout
		}
		if err := clk.Sleep(ctx, interval); err != nil {
			return err
		}
	}
}
