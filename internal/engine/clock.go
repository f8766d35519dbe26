package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// Services read "now" from a Clock once per operation and pass it explicitly
// to the projection functions, which never consult the system clock.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// ZonedClock reports the current time in a fixed location, so that calendar
// dates follow the user's timezone rather than the host's.
type ZonedClock struct {
	Loc *time.Location
}

// Now returns the current time in Loc (or local time if Loc is nil).
func (c ZonedClock) Now() time.Time {
	if c.Loc == nil {
		return time.Now()
	}
	return time.Now().In(c.Loc)
}
