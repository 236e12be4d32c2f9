package clock

import "time"

// Clock abstracts time so expiry and idle calculations stay deterministic
// under test.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in UTC.
type System struct{}

// Now implements Clock.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant. Test helper.
type Fixed struct {
	Time time.Time
}

// Now implements Clock.
func (f Fixed) Now() time.Time {
	return f.Time
}
