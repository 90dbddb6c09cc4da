// Package clock abstracts time so timer-driven table logic can be driven
// deterministically in tests. Production code injects Real(); tests
// inject a Fake and move time with Advance.
package clock

import "time"

// Clock is the subset of the time package used by table timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once d has elapsed. A non-positive d schedules
	// f for the next opportunity; it is never called synchronously.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call. It reports false when the call already
	// happened or was stopped before.
	Stop() bool
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, f)
}
