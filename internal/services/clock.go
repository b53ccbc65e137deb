// internal/services/clock.go
package services

import "time"

// Clock is the time source used for timestamps and expiry checks.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}
