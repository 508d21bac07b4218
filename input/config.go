package input

import (
	"fmt"
	"time"
)

// Blink is a status LED sequence. Toggles should be even so the LED ends up
// where it started.
type Blink struct {
	Toggles  int
	Interval time.Duration
}

func (b Blink) String() string {
	return fmt.Sprintf("%dx%v", b.Toggles, b.Interval)
}

// Config holds the press thresholds and feedback sequences.
type Config struct {
	Debounce   time.Duration
	Tick       time.Duration // hold-measuring poll interval
	LongPress  time.Duration // holds shorter than this are short presses
	SleepPress time.Duration // holds longer than this put the strip to sleep

	ShortBlink Blink
	LongBlink  Blink
	SleepBlink Blink

	Full    uint8
	Quarter uint8

	NumPatterns int
}

func DefaultConfig(numPatterns int) Config {
	return Config{
		Debounce:    50 * time.Millisecond,
		Tick:        time.Millisecond,
		LongPress:   time.Second,
		SleepPress:  3 * time.Second,
		ShortBlink:  Blink{10, 100 * time.Millisecond},
		LongBlink:   Blink{20, 50 * time.Millisecond},
		SleepBlink:  Blink{6, 500 * time.Millisecond},
		Full:        255,
		Quarter:     64,
		NumPatterns: numPatterns,
	}
}

func (c Config) Validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %v", c.Tick)
	}
	if c.LongPress > c.SleepPress {
		return fmt.Errorf("long press %v is beyond sleep press %v", c.LongPress, c.SleepPress)
	}
	if c.NumPatterns < 1 {
		return fmt.Errorf("need at least one pattern, got %d", c.NumPatterns)
	}
	for _, b := range []Blink{c.ShortBlink, c.LongBlink, c.SleepBlink} {
		if b.Toggles%2 != 0 {
			return fmt.Errorf("blink %v has an odd toggle count", b)
		}
	}
	return nil
}
