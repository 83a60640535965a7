package schedule

import (
	"context"
	"time"
)

// RunAt calls execute in a new goroutine once runAt is reached.
// execute is not called if ctx is done first.
func RunAt(ctx context.Context, runAt time.Time, execute func(ctx context.Context)) {
	RunAtOr(ctx, runAt, execute, nil)
}

// RunAtOr is RunAt that calls cancelled instead of execute when ctx is done
// before runAt. Exactly one of the two is called. cancelled may be nil.
func RunAtOr(ctx context.Context, runAt time.Time, execute func(ctx context.Context), cancelled func()) {
	go func() {
		delay := time.Until(runAt)
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				if cancelled != nil {
					cancelled()
				}
				return
			case <-timer.C:
			}
		}
		execute(ctx)
	}()
}
