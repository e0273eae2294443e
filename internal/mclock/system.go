package mclock

import "time"

var startTime = time.Now()

// monotonicNow returns nanoseconds elapsed since package init, giving a
// monotonic AbsTime base without exposing wall-clock time to callers.
func monotonicNow() time.Duration {
	return time.Since(startTime)
}
