package pins

import (
	"fmt"

	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/device/rpi"
)

// Chip is a GPIO character device.
type Chip struct {
	c *gpiod.Chip
}

func OpenChip(name string) (*Chip, error) {
	if name == "" {
		name = "gpiochip0"
	}
	c, err := gpiod.NewChip(name, gpiod.WithConsumer("ledhat"))
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s: %w", name, err)
	}
	return &Chip{c: c}, nil
}

// Offset maps a pin name (GPIO17, J8p11 or 17) to its line offset.
func Offset(name string) (int, error) {
	o, err := rpi.Pin(name)
	if err != nil {
		return 0, fmt.Errorf("bad pin %q: %w", name, err)
	}
	return o, nil
}

type chipLine struct {
	l *gpiod.Line
}

func (c chipLine) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	return c.l.SetValue(v)
}

func (c chipLine) Read() (bool, error) {
	v, err := c.l.Value()
	return v != 0, err
}

func (c chipLine) Close() error {
	return c.l.Close()
}

func (c *Chip) request(name string, opts ...gpiod.LineReqOption) (chipLine, error) {
	o, err := Offset(name)
	if err != nil {
		return chipLine{}, err
	}
	l, err := c.c.RequestLine(o, opts...)
	if err != nil {
		return chipLine{}, fmt.Errorf("couldn't request %s: %w", name, err)
	}
	return chipLine{l}, nil
}

func (c *Chip) Output(name string, initial bool) (Output, error) {
	v := 0
	if initial {
		v = 1
	}
	return c.request(name, gpiod.AsOutput(v))
}

func (c *Chip) Input(name string, pull Pull) (Input, error) {
	var bias gpiod.LineReqOption
	switch pull {
	case PullUp:
		bias = gpiod.WithPullUp
	case PullDown:
		bias = gpiod.WithPullDown
	default:
		bias = gpiod.WithBiasDisabled
	}
	return c.request(name, gpiod.AsInput, bias)
}

func (c *Chip) Button(name string, onEdge func()) (Input, error) {
	return c.request(name,
		gpiod.WithPullUp,
		gpiod.WithFallingEdge,
		gpiod.WithEventHandler(func(gpiod.LineEvent) { onEdge() }))
}

func (c *Chip) Close() error {
	return c.c.Close()
}
