package probe

import (
	"context"
	"time"
)

// RetryChecker retries a failing inner check before declaring the target
// down, which keeps single blips from opening incidents.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, target string) CheckResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last CheckResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, target)
		if last.Success {
			return last
		}
		if ctx.Err() != nil {
			break
		}
		if i < attempts-1 {
			time.Sleep(r.Backoff)
		}
	}
	last.Message = last.Message + " (after retries)"
	return last
}
