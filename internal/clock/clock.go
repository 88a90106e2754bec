// Package clock abstracts time so run records and durations can be pinned in tests.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time {
	return time.Now()
}

// Stepping is a Clock that starts at Start and advances by Step on every call.
// A zero Step makes it a fixed clock.
type Stepping struct {
	Start time.Time
	Step  time.Duration

	calls int64
}

// Now returns Start + n*Step for the n-th call (0-based).
// Not safe for concurrent use.
func (s *Stepping) Now() time.Time {
	t := s.Start.Add(time.Duration(s.calls) * s.Step)
	s.calls++
	return t
}

var (
	_ Clock = RealClock{}
	_ Clock = (*Stepping)(nil)
)
