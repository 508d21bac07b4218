// Package pins provides the slow GPIO lines around the strip: the button,
// the status LED and the power switch. The strip's data line needs register
// access and lives in package rpi.
package pins

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type Output interface {
	Set(high bool) error
	Close() error
}

type Input interface {
	Read() (bool, error)
	Close() error
}

// Backend hands out lines by name ("GPIO17" and so on).
type Backend interface {
	Output(name string, initial bool) (Output, error)
	Input(name string, pull Pull) (Input, error)
	// Button requests an active-low input with a pull-up and calls onEdge on
	// every falling edge. onEdge runs on a goroutine the backend owns.
	Button(name string, onEdge func()) (Input, error)
	Close() error
}

var ErrUnknownBackend = errors.New("unknown pin backend")

// Open returns the named backend: "gpiod" (the GPIO character device),
// "periph" (periph.io's host drivers) or "mem" (no hardware at all).
func Open(backend string, chip string) (Backend, error) {
	switch backend {
	case "gpiod":
		c, err := OpenChip(chip)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "periph":
		p, err := OpenPeriph()
		if err != nil {
			return nil, err
		}
		return p, nil
	case "mem":
		return NewMem(), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownBackend, backend)
}

// Button adapts an active-low input to the press handler's view of it.
type Button struct {
	In Input
}

// Pressed is true while the input reads low. A read error counts as released.
func (b Button) Pressed() bool {
	v, err := b.In.Read()
	return err == nil && !v
}

// LED is a status indicator on an output. It remembers its level so it can
// toggle without reading the line back.
type LED struct {
	mu  sync.Mutex
	out Output
	on  bool
	log *slog.Logger
}

func NewLED(out Output, logger *slog.Logger) *LED {
	if logger == nil {
		logger = slog.Default()
	}
	return &LED{out: out, log: logger}
}

func (l *LED) Set(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.set(on)
}

func (l *LED) Toggle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.set(!l.on)
}

func (l *LED) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

func (l *LED) set(on bool) {
	l.on = on
	if err := l.out.Set(on); err != nil {
		l.log.Warn("couldn't set status LED", "err", err)
	}
}
