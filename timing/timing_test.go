package timing

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestProfilesValidate(t *testing.T) {
	for _, name := range ProfileNames() {
		c, err := Profile(name)
		if err != nil {
			t.Fatalf("Profile(%q) failed: %v", name, err)
		}
		if err := c.Validate(WS2812B); err != nil {
			t.Errorf("profile %s doesn't meet WS2812B timing: %v", name, err)
		}
	}
}

func TestUnknownProfile(t *testing.T) {
	_, err := Profile("z80")
	if !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Profile(z80) got err %v, want ErrUnknownProfile", err)
	}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		clock uint64
		write int
		want  Calibration
	}{
		{1000000000, 0, Calibration{ClockHz: 1000000000, OneHigh: 800, OneLow: 450, ZeroHigh: 400, ZeroLow: 850, Latch: 50000}},
		{1000000000, 60, Calibration{ClockHz: 1000000000, WriteCycles: 60, OneHigh: 740, OneLow: 390, ZeroHigh: 340, ZeroLow: 790, Latch: 50000}},
		{16000000, 4, Calibration{ClockHz: 16000000, WriteCycles: 4, OneHigh: 9, OneLow: 3, ZeroHigh: 2, ZeroLow: 10, Latch: 800}},
	}
	for _, test := range tests {
		got := Derive("", test.clock, test.write, WS2812B)
		if got != test.want {
			t.Errorf("Derive(%d, %d) got %+v, want %+v", test.clock, test.write, got, test.want)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	good, _ := Profile("sim")
	tests := []struct {
		name string
		mod  func(c *Calibration)
		want string
	}{
		{"short one", func(c *Calibration) { c.OneHigh = 500 }, "one high"},
		{"long zero", func(c *Calibration) { c.ZeroHigh = 700 }, "zero high"},
		{"slow period", func(c *Calibration) { c.ZeroLow = 2000 }, "zero period"},
		{"short latch", func(c *Calibration) { c.Latch = 1000 }, "latch"},
		{"no clock", func(c *Calibration) { c.ClockHz = 0 }, "zero clock"},
	}
	for _, test := range tests {
		c := good
		test.mod(&c)
		err := c.Validate(WS2812B)
		if err == nil || !strings.Contains(err.Error(), test.want) {
			t.Errorf("%s: got %v, want error mentioning %q", test.name, err, test.want)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	c, _ := Profile("msp430-16mhz")
	if got := c.Duration(16); got != time.Microsecond {
		t.Errorf("16 cycles at 16MHz got %v, want 1us", got)
	}
	if got := c.Cycles(50 * time.Microsecond); got != 800 {
		t.Errorf("50us at 16MHz got %d cycles, want 800", got)
	}
}

// send drives s like a transmitter would, MSB first.
func send(s *Sim, c Calibration, latch int, b ...byte) {
	s.Low()
	s.Spin(latch)
	for _, v := range b {
		for k := 7; k >= 0; k-- {
			s.High()
			if v&(1<<uint(k)) != 0 {
				s.Spin(c.OneHigh)
				s.Low()
				s.Spin(c.OneLow)
			} else {
				s.Spin(c.ZeroHigh)
				s.Low()
				s.Spin(c.ZeroLow)
			}
		}
	}
}

func TestSimDecode(t *testing.T) {
	c, _ := Profile("msp430-16mhz")
	s := NewSim(c)
	send(s, c, c.Latch, 0xa5, 0x00, 0xff)
	send(s, c, c.Latch, 0x3c)
	frames, err := s.Frames(WS2812B)
	if err != nil {
		t.Fatalf("Frames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if string(frames[0].Bytes) != "\xa5\x00\xff" {
		t.Errorf("frame 0 got %x, want a500ff", frames[0].Bytes)
	}
	if string(frames[1].Bytes) != "\x3c" {
		t.Errorf("frame 1 got %x, want 3c", frames[1].Bytes)
	}
	if frames[0].Latch < WS2812B.Reset {
		t.Errorf("latch %v shorter than %v", frames[0].Latch, WS2812B.Reset)
	}
}

func TestSimRejectsBadWaveforms(t *testing.T) {
	c, _ := Profile("sim")

	s := NewSim(c)
	send(s, c, c.Latch/2, 0x01)
	if _, err := s.Frames(WS2812B); err == nil || !strings.Contains(err.Error(), "latch") {
		t.Errorf("short latch got %v, want latch error", err)
	}

	bad := c
	bad.OneHigh = 1200
	s = NewSim(bad)
	send(s, bad, bad.Latch, 0x80)
	if _, err := s.Frames(WS2812B); err == nil || !strings.Contains(err.Error(), "high") {
		t.Errorf("long one got %v, want high-time error", err)
	}

	s = NewSim(c)
	s.Low()
	s.Spin(c.Latch)
	s.High()
	if _, err := s.Frames(WS2812B); err == nil {
		t.Errorf("line left high decoded without error")
	}
}

func TestBusyWaitSpinsAtLeast(t *testing.T) {
	b := BusyWait{ClockHz: 1000000000}
	start := time.Now()
	b.Spin(int(2 * time.Millisecond))
	if el := time.Since(start); el < 2*time.Millisecond {
		t.Errorf("Spin returned after %v, want at least 2ms", el)
	}
}

func BenchmarkSimFrame(b *testing.B) {
	c, _ := Profile("sim")
	s := NewSim(c)
	pix := make([]byte, 38*3)
	for i := 0; i < b.N; i++ {
		s.Reset()
		send(s, c, c.Latch, pix...)
	}
}
