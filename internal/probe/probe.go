package probe

import "context"

// CheckResult is the outcome of a single probe.
//
// StatusCode is the HTTP status when available; 0 for transport errors and
// timeouts.
type CheckResult struct {
	Success    bool
	StatusCode int
	LatencyMS  float64
	Message    string
}

// Checker performs a single probe against a target URL. Implementations must
// honor ctx cancellation; a timed-out probe is a failure, never left pending.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}
