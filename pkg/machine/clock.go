package machine

import "time"

// Clock is the monotonic time source the run loop reads once per tick.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

// SystemClock returns the wall clock. time.Now carries a monotonic reading,
// so differences between its values are immune to clock adjustments.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// VirtualClock is a Clock whose Sleep advances Now without waiting. Runs on
// it are deterministic and finish as fast as the CPU allows.
type VirtualClock struct {
	now time.Time
}

func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

func (c *VirtualClock) Now() time.Time {
	return c.now
}

func (c *VirtualClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}
