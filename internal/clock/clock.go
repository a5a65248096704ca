package clock

import "time"

// Clock abstracts wall-clock reads so that day-diff and week-boundary
// logic can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// TestClock is a manually advanced clock for unit tests.
type TestClock struct {
	now time.Time
}

func NewTestClock(now time.Time) *TestClock {
	return &TestClock{now: now}
}

func (c *TestClock) Now() time.Time {
	return c.now
}

func (c *TestClock) SetNow(now time.Time) {
	c.now = now
}

func (c *TestClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
