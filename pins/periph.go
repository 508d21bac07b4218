package pins

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Periph uses whichever GPIO driver periph.io's host package finds.
type Periph struct{}

func OpenPeriph() (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("couldn't init periph host: %w", err)
	}
	return &Periph{}, nil
}

func (p *Periph) pin(name string) (gpio.PinIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no pin named %q", name)
	}
	return pin, nil
}

type periphPin struct {
	p gpio.PinIO

	stop chan struct{}
	done sync.WaitGroup
	once sync.Once
}

func (pp *periphPin) Set(high bool) error {
	return pp.p.Out(gpio.Level(high))
}

func (pp *periphPin) Read() (bool, error) {
	return pp.p.Read() == gpio.High, nil
}

func (pp *periphPin) Close() error {
	pp.once.Do(func() {
		if pp.stop != nil {
			close(pp.stop)
			pp.done.Wait()
		}
	})
	return pp.p.Halt()
}

func (p *Periph) Output(name string, initial bool) (Output, error) {
	pin, err := p.pin(name)
	if err != nil {
		return nil, err
	}
	if err := pin.Out(gpio.Level(initial)); err != nil {
		return nil, fmt.Errorf("couldn't set %s as output: %w", name, err)
	}
	return &periphPin{p: pin}, nil
}

var periphPulls = map[Pull]gpio.Pull{
	PullNone: gpio.Float,
	PullUp:   gpio.PullUp,
	PullDown: gpio.PullDown,
}

func (p *Periph) Input(name string, pull Pull) (Input, error) {
	pin, err := p.pin(name)
	if err != nil {
		return nil, err
	}
	if err := pin.In(periphPulls[pull], gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("couldn't set %s as input: %w", name, err)
	}
	return &periphPin{p: pin}, nil
}

// edgePoll bounds how long Close waits for the edge goroutine.
const edgePoll = 100 * time.Millisecond

func (p *Periph) Button(name string, onEdge func()) (Input, error) {
	pin, err := p.pin(name)
	if err != nil {
		return nil, err
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("couldn't set %s for edges: %w", name, err)
	}
	pp := &periphPin{p: pin, stop: make(chan struct{})}
	pp.done.Add(1)
	go func() {
		defer pp.done.Done()
		for {
			select {
			case <-pp.stop:
				return
			default:
			}
			if pin.WaitForEdge(edgePoll) {
				onEdge()
			}
		}
	}()
	return pp, nil
}

func (p *Periph) Close() error {
	return nil
}
