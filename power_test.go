package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Jon-Bright/ledhat/pins"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPowerNone(t *testing.T) {
	p, err := initPower(pins.NewMem(), PowerConfig{}, quietLogger())
	if err != nil || p != nil {
		t.Fatalf("initPower without a control pin = %v, %v, want nil, nil", p, err)
	}
	if err := p.On(); err != nil {
		t.Errorf("nil On failed: %v", err)
	}
	if err := p.Off(); err != nil {
		t.Errorf("nil Off failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil Close failed: %v", err)
	}
}

func TestPowerOnOff(t *testing.T) {
	m := pins.NewMem()
	p, err := initPower(m, PowerConfig{CtrlPin: "GPIO22"}, quietLogger())
	if err != nil {
		t.Fatalf("initPower failed: %v", err)
	}
	defer p.Close()
	ctrl := m.Pin("GPIO22")
	if v, _ := ctrl.Read(); v {
		t.Errorf("Power on before On")
	}
	if err := p.On(); err != nil {
		t.Fatalf("On failed: %v", err)
	}
	if v, _ := ctrl.Read(); !v {
		t.Errorf("Power off after On")
	}
	if err := p.Off(); err != nil {
		t.Fatalf("Off failed: %v", err)
	}
	if v, _ := ctrl.Read(); v {
		t.Errorf("Power on after Off")
	}
}

func TestPowerStatus(t *testing.T) {
	m := pins.NewMem()
	cfg := PowerConfig{CtrlPin: "GPIO22", StatusPin: "GPIO23", StatusWait: Duration{120 * time.Millisecond}}
	p, err := initPower(m, cfg, quietLogger())
	if err != nil {
		t.Fatalf("initPower failed: %v", err)
	}
	defer p.Close()
	p.poll = 10 * time.Millisecond

	if err := p.On(); err == nil {
		t.Errorf("On succeeded with status low")
	}

	status := m.Pin("GPIO23")
	go func() {
		time.Sleep(30 * time.Millisecond)
		status.High()
	}()
	if err := p.On(); err != nil {
		t.Errorf("On failed with status going high: %v", err)
	}
}

func TestPowerPinInUse(t *testing.T) {
	m := pins.NewMem()
	if _, err := m.Output("GPIO23", false); err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	_, err := initPower(m, PowerConfig{CtrlPin: "GPIO22", StatusPin: "GPIO23"}, quietLogger())
	if err == nil {
		t.Fatalf("initPower succeeded with status pin taken")
	}
	// The control pin must have been given back.
	if _, err := m.Output("GPIO22", false); err != nil {
		t.Errorf("Control pin still claimed: %v", err)
	}
}
