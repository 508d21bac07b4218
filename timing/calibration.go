package timing

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Calibration is the complete set of busy-wait counts needed to produce a
// protocol's waveform on one platform. A cycle is whatever unit the platform's
// Spinner counts in; ClockHz converts cycles to time.
//
// A line write takes WriteCycles and the level changes once it completes, so a
// one's high time is OneHigh+WriteCycles (the spin plus the falling write) and
// its low time is OneLow+WriteCycles (the spin plus the next rising write).
type Calibration struct {
	Name        string
	ClockHz     uint64
	WriteCycles int
	OneHigh     int
	OneLow      int
	ZeroHigh    int
	ZeroLow     int
	Latch       int
}

// Cycles converts d to the nearest whole number of cycles.
func (c Calibration) Cycles(d time.Duration) int {
	if d <= 0 || c.ClockHz == 0 {
		return 0
	}
	return int((uint64(d)*c.ClockHz + uint64(time.Second)/2) / uint64(time.Second))
}

// Duration converts a cycle count to time.
func (c Calibration) Duration(cycles int) time.Duration {
	if cycles <= 0 || c.ClockHz == 0 {
		return 0
	}
	return time.Duration(uint64(cycles) * uint64(time.Second) / c.ClockHz)
}

// OneHighTime etc. are the pulse widths this calibration produces.
func (c Calibration) OneHighTime() time.Duration  { return c.Duration(c.OneHigh + c.WriteCycles) }
func (c Calibration) OneLowTime() time.Duration   { return c.Duration(c.OneLow + c.WriteCycles) }
func (c Calibration) ZeroHighTime() time.Duration { return c.Duration(c.ZeroHigh + c.WriteCycles) }
func (c Calibration) ZeroLowTime() time.Duration  { return c.Duration(c.ZeroLow + c.WriteCycles) }
func (c Calibration) LatchTime() time.Duration    { return c.Duration(c.Latch) }

// Derive computes the counts for p on a platform running at clockHz whose line
// writes cost writeCycles.
func Derive(name string, clockHz uint64, writeCycles int, p Protocol) Calibration {
	c := Calibration{Name: name, ClockHz: clockHz, WriteCycles: writeCycles}
	c.OneHigh = nonNeg(c.Cycles(p.T1H) - writeCycles)
	c.OneLow = nonNeg(c.Cycles(p.T1L()) - writeCycles)
	c.ZeroHigh = nonNeg(c.Cycles(p.T0H) - writeCycles)
	c.ZeroLow = nonNeg(c.Cycles(p.T0L()) - writeCycles)
	c.Latch = c.Cycles(p.Reset)
	return c
}

func nonNeg(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

// Validate reports every way in which c's waveform falls outside p's
// tolerances. A nil result means strips following p will read the bits right.
func (c Calibration) Validate(p Protocol) error {
	if c.ClockHz == 0 {
		return fmt.Errorf("calibration %q: zero clock", c.Name)
	}
	var errs []error
	check := func(what string, got, want, tol time.Duration) {
		if !within(got, want, tol) {
			errs = append(errs, fmt.Errorf("calibration %q: %s %v, want %v +/- %v", c.Name, what, got, want, tol))
		}
	}
	check("one high", c.OneHighTime(), p.T1H, p.HighTolerance)
	check("zero high", c.ZeroHighTime(), p.T0H, p.HighTolerance)
	check("one period", c.OneHighTime()+c.OneLowTime(), p.Period, p.PeriodTolerance)
	check("zero period", c.ZeroHighTime()+c.ZeroLowTime(), p.Period, p.PeriodTolerance)
	if c.OneHighTime() <= p.threshold() || c.ZeroHighTime() >= p.threshold() {
		errs = append(errs, fmt.Errorf("calibration %q: one/zero high times %v/%v don't straddle %v",
			c.Name, c.OneHighTime(), c.ZeroHighTime(), p.threshold()))
	}
	if c.LatchTime() < p.Reset {
		errs = append(errs, fmt.Errorf("calibration %q: latch %v, want at least %v", c.Name, c.LatchTime(), p.Reset))
	}
	return errors.Join(errs...)
}

// Built-in profiles. msp430-16mhz counts instruction cycles at 62.5ns each;
// the Raspberry Pi profiles spin on the monotonic clock, so a cycle is a
// nanosecond and WriteCycles is the measured cost of a GPIO register write.
var profiles = map[string]Calibration{
	"msp430-16mhz": {
		Name:        "msp430-16mhz",
		ClockHz:     16000000,
		WriteCycles: 4,
		OneHigh:     8,
		OneLow:      6,
		ZeroHigh:    2,
		ZeroLow:     10,
		Latch:       800,
	},
	"bcm2835": Derive("bcm2835", 1000000000, 60, WS2812B),
	"bcm2711": Derive("bcm2711", 1000000000, 25, WS2812B),
	"sim":     Derive("sim", 1000000000, 0, WS2812B),
}

var ErrUnknownProfile = errors.New("unknown calibration profile")

// Profile returns the named built-in calibration.
func Profile(name string) (Calibration, error) {
	c, ok := profiles[name]
	if !ok {
		return Calibration{}, fmt.Errorf("%w %q (have %v)", ErrUnknownProfile, name, ProfileNames())
	}
	return c, nil
}

func ProfileNames() []string {
	n := make([]string, 0, len(profiles))
	for k := range profiles {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}
