package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Jon-Bright/ledhat/input"
	"github.com/Jon-Bright/ledhat/pixarray"
	"github.com/Jon-Bright/ledhat/timing"
)

var DefaultConfig = Config{
	Pixels:     38,
	Order:      "GRB",
	Brightness: 64,
	Backend:    "gpiod",
	Chip:       "gpiochip0",
	DataPin:    "GPIO18",
	ButtonPin:  "GPIO17",
	StatusPin:  "GPIO27",
	CPU:        -1,
	Timing:     TimingConfig{},
	Input: InputConfig{
		Debounce:   Duration{50 * time.Millisecond},
		LongPress:  Duration{time.Second},
		SleepPress: Duration{3 * time.Second},
		Full:       255,
		Quarter:    64,
	},
	Power: PowerConfig{
		StatusWait: Duration{2 * time.Second},
	},
	Colors: ColorConfig{
		Chase:   "#0000ff",
		Breathe: []string{"#0000ff", "#ff0000", "#00ff00"},
	},
}

type Config struct {
	Pixels     int
	Order      string // GRB, RGB and so on
	Brightness uint8  // at startup
	Backend    string // gpiod, periph or mem
	Chip       string // gpiod only
	DataPin    string
	ButtonPin  string
	StatusPin  string
	CPU        int // CPU to pin the pattern loop to, -1 for any
	Timing     TimingConfig
	Input      InputConfig
	Power      PowerConfig
	Colors     ColorConfig
}

// TimingConfig picks a calibration profile and optionally overrides its
// counts. Zero fields keep the profile's value. An empty profile means the
// one matching the board.
type TimingConfig struct {
	Profile     string
	ClockHz     uint64
	WriteCycles int
	OneHigh     int
	OneLow      int
	ZeroHigh    int
	ZeroLow     int
	Latch       int
}

type InputConfig struct {
	Debounce   Duration
	LongPress  Duration
	SleepPress Duration
	Full       uint8
	Quarter    uint8
}

type PowerConfig struct {
	CtrlPin    string // empty means the strip is always powered
	StatusPin  string
	StatusWait Duration
}

type ColorConfig struct {
	Chase   string
	Breathe []string
}

// Duration is a time.Duration that reads and writes as "1.5s" and friends.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// loadConfig reads path over the defaults. A missing file leaves the
// defaults alone.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig
	cfg.Colors.Breathe = append([]string(nil), DefaultConfig.Colors.Breathe...)
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("couldn't read config %q: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return cfg, fmt.Errorf("config %q: unknown keys %v", path, undec)
	}
	return cfg, nil
}

func writeConfig(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

func (c Config) order() (int, error) {
	o, ok := pixarray.StringOrders[c.Order]
	if !ok {
		return 0, fmt.Errorf("unknown color order %q", c.Order)
	}
	return o, nil
}

// calibration resolves the timing profile, falling back to def when the
// config doesn't name one, applies overrides and checks the result.
func (c Config) calibration(def string) (timing.Calibration, error) {
	name := c.Timing.Profile
	if name == "" {
		name = def
	}
	cal, err := timing.Profile(name)
	if err != nil {
		return cal, err
	}
	t := c.Timing
	if t.ClockHz != 0 {
		cal.ClockHz = t.ClockHz
	}
	for _, o := range []struct {
		v   int
		dst *int
	}{
		{t.WriteCycles, &cal.WriteCycles},
		{t.OneHigh, &cal.OneHigh},
		{t.OneLow, &cal.OneLow},
		{t.ZeroHigh, &cal.ZeroHigh},
		{t.ZeroLow, &cal.ZeroLow},
		{t.Latch, &cal.Latch},
	} {
		if o.v != 0 {
			*o.dst = o.v
		}
	}
	if err := cal.Validate(timing.WS2812B); err != nil {
		return cal, fmt.Errorf("bad calibration: %w", err)
	}
	return cal, nil
}

func (c Config) input(numPatterns int) (input.Config, error) {
	ic := input.DefaultConfig(numPatterns)
	if c.Input.Debounce.Duration != 0 {
		ic.Debounce = c.Input.Debounce.Duration
	}
	if c.Input.LongPress.Duration != 0 {
		ic.LongPress = c.Input.LongPress.Duration
	}
	if c.Input.SleepPress.Duration != 0 {
		ic.SleepPress = c.Input.SleepPress.Duration
	}
	if c.Input.Full != 0 {
		ic.Full = c.Input.Full
	}
	if c.Input.Quarter != 0 {
		ic.Quarter = c.Input.Quarter
	}
	return ic, ic.Validate()
}

// parseColor reads a "#rrggbb" hex color into a packed color.
func parseColor(s string) (uint32, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("bad color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return pixarray.Color(r, g, b), nil
}

func (c Config) colors() (chase uint32, breathe []uint32, err error) {
	chase, err = parseColor(c.Colors.Chase)
	if err != nil {
		return 0, nil, err
	}
	for _, s := range c.Colors.Breathe {
		v, err := parseColor(s)
		if err != nil {
			return 0, nil, err
		}
		breathe = append(breathe, v)
	}
	return chase, breathe, nil
}
