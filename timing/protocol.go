package timing

import (
	"time"
)

// Protocol describes the pulse timing of a self-clocked one-wire LED protocol.
// Each bit is a high pulse followed by a low pulse; a long high is a one,
// a short high is a zero, and the period is the same for both.
type Protocol struct {
	Name            string
	T0H             time.Duration // high time of a zero
	T1H             time.Duration // high time of a one
	Period          time.Duration
	HighTolerance   time.Duration
	PeriodTolerance time.Duration
	Reset           time.Duration // minimum low time to latch a frame
}

// WS2812B is the datasheet timing of the WS2812B, with the period tolerance
// widened to what the strips accept in practice.
var WS2812B = Protocol{
	Name:            "ws2812b",
	T0H:             400 * time.Nanosecond,
	T1H:             800 * time.Nanosecond,
	Period:          1250 * time.Nanosecond,
	HighTolerance:   150 * time.Nanosecond,
	PeriodTolerance: 600 * time.Nanosecond,
	Reset:           50 * time.Microsecond,
}

// T0L is the nominal low time of a zero.
func (p Protocol) T0L() time.Duration {
	return p.Period - p.T0H
}

// T1L is the nominal low time of a one.
func (p Protocol) T1L() time.Duration {
	return p.Period - p.T1H
}

// threshold is the high time above which a pulse reads as a one.
func (p Protocol) threshold() time.Duration {
	return (p.T0H + p.T1H) / 2
}

func within(got, want, tol time.Duration) bool {
	d := got - want
	if d < 0 {
		d = -d
	}
	return d <= tol
}
