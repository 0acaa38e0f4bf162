// Package timeout models the two level-triggered cancellation signals of
// spec.md §5: soft ("stop looking for improvements, finalize with what you
// have") and hard ("stop now, return current best or Unknown"). Both are
// passed as explicit values rather than raised from package globals, so that
// two analyses with independent clocks can run concurrently in one process
// (DESIGN NOTES §9).
package timeout

import "time"

// Signal is polled at the labeled checkpoints named in spec.md §4.5/§4.6; it
// never preempts, it is only ever consulted.
type Signal struct {
	soft func() bool
	hard func() bool
}

// New builds a Signal that reports soft/hard expiry once the respective
// duration has elapsed since it was created. A non-positive duration means
// that budget never expires.
func New(soft, hard time.Duration) Signal {
	start := time.Now()
	return Signal{
		soft: deadlinePoll(start, soft),
		hard: deadlinePoll(start, hard),
	}
}

func deadlinePoll(start time.Time, d time.Duration) func() bool {
	if d <= 0 {
		return func() bool { return false }
	}
	return func() bool { return time.Since(start) >= d }
}

// Never is a Signal that never expires, used by tests and by callers that
// want the fixpoint to run to full completion.
func Never() Signal {
	return Signal{soft: func() bool { return false }, hard: func() bool { return false }}
}

// Soft reports whether the soft budget has been exhausted.
func (s Signal) Soft() bool { return s.soft != nil && s.soft() }

// Hard reports whether the hard budget has been exhausted.
func (s Signal) Hard() bool { return s.hard != nil && s.hard() }
