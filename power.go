package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Jon-Bright/ledhat/pins"
)

// power switches the strip's supply through a control pin, optionally
// waiting for a status pin to report healthy power. A nil *power is a strip
// that's always on.
type power struct {
	ctrl   pins.Output
	status pins.Input
	wait   time.Duration
	poll   time.Duration
	log    *slog.Logger
}

func initPower(b pins.Backend, cfg PowerConfig, logger *slog.Logger) (*power, error) {
	if cfg.CtrlPin == "" {
		return nil, nil
	}
	ctrl, err := b.Output(cfg.CtrlPin, false)
	if err != nil {
		return nil, fmt.Errorf("couldn't set power control to output: %w", err)
	}
	p := &power{
		ctrl: ctrl,
		wait: cfg.StatusWait.Duration,
		poll: 50 * time.Millisecond, // No point overdoing it - we're not in _that_ much of a rush
		log:  logger,
	}
	if cfg.StatusPin == "" {
		return p, nil
	}
	p.status, err = b.Input(cfg.StatusPin, pins.PullNone)
	if err != nil {
		ctrl.Close()
		return nil, fmt.Errorf("couldn't set power status to input: %w", err)
	}
	return p, nil
}

func (p *power) On() error {
	if p == nil {
		return nil
	}
	p.log.Info("power on")
	err := p.ctrl.Set(true)
	if err != nil {
		return fmt.Errorf("couldn't set power control high: %w", err)
	}
	if p.status == nil {
		return nil
	}
	start := time.Now()
	for {
		val, err := p.status.Read()
		if err != nil {
			return fmt.Errorf("couldn't query power status: %w", err)
		}
		t := time.Now()
		if val {
			p.log.Info("power stabilized", "after", t.Sub(start))
			return nil
		}
		if t.Sub(start) > p.wait {
			return fmt.Errorf("timed out waiting for power to be healthy, started %v, now %v", start, t)
		}
		time.Sleep(p.poll)
	}
}

func (p *power) Off() error {
	if p == nil {
		return nil
	}
	p.log.Info("power off")
	err := p.ctrl.Set(false)
	if err != nil {
		return fmt.Errorf("couldn't set power control low: %w", err)
	}
	// We could wait for power status to go low, but that might take a while and doesn't seem to provide any benefit
	return nil
}

func (p *power) Close() error {
	if p == nil {
		return nil
	}
	if p.status != nil {
		p.status.Close() // Ignore error
	}
	return p.ctrl.Close()
}
