package clock

import "time"

// Clock abstracts the wall clock so "is this slot in the past" and coupon
// validity checks stay deterministic in tests.
type Clock interface {
	Now() time.Time
}

// System reads the real clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
