package shared

import "time"

// Clock supplies the current time to services so that date arithmetic is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

// Now returns the configured instant.
func (c FixedClock) Now() time.Time { return c.At }

// Today truncates the clock's current time to a date in UTC.
func Today(clock Clock) time.Time {
	return DateOf(clock.Now())
}

// DateOf strips the time-of-day component, keeping year/month/day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
