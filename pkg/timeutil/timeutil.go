package timeutil

import "time"

// Sleeper abstracts time.Sleep so callers can substitute a fake in tests.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper sleeps for real using time.Sleep.
type RealSleeper struct{}

func NewRealSleeper() RealSleeper {
	return RealSleeper{}
}

func (RealSleeper) Sleep(d time.Duration) {
	time.Sleep(d)
}
