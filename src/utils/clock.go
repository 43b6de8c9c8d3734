package utils

import "time"

// SystemClock reports wall time in the reference zone.
type SystemClock struct {
	Loc *time.Location
}

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.Loc)
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}
