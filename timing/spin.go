package timing

import (
	"time"
)

// Spinner burns an exact number of calibration cycles without yielding.
type Spinner interface {
	Spin(cycles int)
}

// Delayer blocks for a duration. Unlike a Spinner it may yield.
type Delayer interface {
	Delay(d time.Duration)
}

// BusyWait spins on the monotonic clock. It's the only way to get sub-microsecond
// waits from userspace; time.Sleep can't go below the scheduler's granularity.
type BusyWait struct {
	ClockHz uint64
}

func (b BusyWait) Spin(cycles int) {
	if cycles <= 0 {
		return
	}
	d := time.Duration(uint64(cycles) * uint64(time.Second) / b.ClockHz)
	start := time.Now()
	for time.Since(start) < d {
	}
}

func (b BusyWait) Delay(d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
	}
}

// Sleeper delays by sleeping.
type Sleeper struct{}

func (Sleeper) Delay(d time.Duration) {
	time.Sleep(d)
}
