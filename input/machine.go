// Package input turns edges on a single push button into pattern, brightness
// and sleep changes on a strip.
package input

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Jon-Bright/ledhat/pixarray"
	"github.com/Jon-Bright/ledhat/timing"
)

// Button reports the raw level of the press input.
type Button interface {
	Pressed() bool
}

// LED is the status indicator.
type LED interface {
	Toggle()
}

type State int32

const (
	Idle State = iota
	Debouncing
	HoldMeasuring
	Acting
	Asleep
)

var stateNames = []string{"idle", "debouncing", "hold-measuring", "acting", "asleep"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

type Action int

const (
	None Action = iota
	Short
	Long
	Sleep
)

var actionNames = []string{"none", "short", "long", "sleep"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Machine is the press handler. Edge is safe to call from any goroutine; the
// handler itself runs on whichever goroutine calls Run, which plays the part of
// the interrupt context: while it's handling a press it holds the strip's mask,
// so no frame can go out and no pattern can touch pixel memory.
type Machine struct {
	cfg    Config
	strip  *pixarray.Strip
	button Button
	led    LED
	delay  timing.Delayer
	log    *slog.Logger

	// pending is the edge flag. It's one deep: edges arriving while one is
	// already pending are lost, as they would be in hardware.
	pending chan struct{}
	wake    chan struct{}

	pattern atomic.Int32
	asleep  atomic.Bool
	state   atomic.Int32
	presses atomic.Uint64
}

func New(strip *pixarray.Strip, button Button, led LED, delay timing.Delayer, cfg Config, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		cfg:     cfg,
		strip:   strip,
		button:  button,
		led:     led,
		delay:   delay,
		log:     logger.With("component", "input"),
		pending: make(chan struct{}, 1),
		wake:    make(chan struct{}, 1),
	}
}

// Edge records a falling edge on the button. Edges while a press is being
// handled are contact bounce and get dropped, along with anything pending.
func (m *Machine) Edge() {
	if m.strip.InInput() {
		m.clearPending()
		return
	}
	select {
	case m.pending <- struct{}{}:
	default:
	}
}

// Run handles pending edges one at a time until ctx is done.
func (m *Machine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.pending:
			m.handle()
		}
	}
}

func (m *Machine) Pattern() int {
	return int(m.pattern.Load())
}

func (m *Machine) SetPattern(p int) {
	if m.cfg.NumPatterns > 0 {
		p %= m.cfg.NumPatterns
		if p < 0 {
			p += m.cfg.NumPatterns
		}
	}
	m.pattern.Store(int32(p))
}

func (m *Machine) Asleep() bool {
	return m.asleep.Load()
}

func (m *Machine) State() State {
	return State(m.state.Load())
}

// Presses is the number of presses classified so far.
func (m *Machine) Presses() uint64 {
	return m.presses.Load()
}

// WaitWake blocks while the machine is asleep.
func (m *Machine) WaitWake(ctx context.Context) error {
	for m.asleep.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.wake:
		}
	}
	return nil
}

func (m *Machine) setState(s State) {
	m.state.Store(int32(s))
}

func (m *Machine) clearPending() {
	select {
	case <-m.pending:
	default:
	}
}

func (m *Machine) handle() Action {
	m.setState(Debouncing)
	m.delay.Delay(m.cfg.Debounce)
	if !m.strip.EnterInput() {
		m.clearPending()
		m.setState(Idle)
		return None
	}
	m.clearPending()

	// Mask first: a frame in flight finishes before the abort is seen, and the
	// pattern loop can't start another iteration until we're done.
	ms := m.strip.Mask()
	m.strip.RequestAbort()
	ms.ForceShowIdle()
	ms.Clear()
	ms.Show()

	m.setState(HoldMeasuring)
	var held time.Duration
	for m.button.Pressed() {
		m.delay.Delay(m.cfg.Tick)
		held += m.cfg.Tick
		if held > m.cfg.SleepPress {
			m.setState(Acting)
			m.presses.Add(1)
			m.log.Info("press", "held", held, "action", Sleep)
			m.blink(m.cfg.SleepBlink)
			m.strip.LeaveInput()
			m.clearPending()
			select {
			case <-m.wake:
			default:
			}
			m.asleep.Store(true)
			m.setState(Asleep)
			ms.Unmask()
			return Sleep
		}
	}

	m.setState(Acting)
	m.presses.Add(1)
	act := Long
	if held < m.cfg.LongPress {
		act = Short
	}
	switch act {
	case Short:
		m.blink(m.cfg.ShortBlink)
		m.SetPattern(m.Pattern() + 1)
		m.log.Info("press", "held", held, "action", act, "pattern", m.Pattern())
	case Long:
		m.blink(m.cfg.LongBlink)
		if ms.Brightness() != m.cfg.Full {
			ms.SetBrightness(m.cfg.Full)
		} else {
			ms.SetBrightness(m.cfg.Quarter)
		}
		m.log.Info("press", "held", held, "action", act, "brightness", ms.Brightness())
	}

	m.strip.LeaveInput()
	m.clearPending()
	m.asleep.Store(false)
	select {
	case m.wake <- struct{}{}:
	default:
	}
	m.setState(Idle)
	ms.Unmask()
	return act
}

func (m *Machine) blink(b Blink) {
	for i := 0; i < b.Toggles; i++ {
		m.led.Toggle()
		m.delay.Delay(b.Interval)
	}
}
