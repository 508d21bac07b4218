package timing

import (
	"errors"
	"fmt"
	"time"
)

// Sim is a cycle-accurate stand-in for a data line and its Spinner. Every line
// write costs the calibration's WriteCycles, every Spin costs exactly what it's
// asked for, and nothing else takes time. Recording the writes lets tests check
// a waveform the way a logic analyzer would.
type Sim struct {
	cal   Calibration
	now   uint64
	level bool
	edges []Edge
}

// Edge is a line write, stamped with the cycle at which it took effect.
type Edge struct {
	At    uint64
	Level bool
}

// Pulse is one decoded bit. Low is zero for the last bit of a frame.
type Pulse struct {
	High time.Duration
	Low  time.Duration
}

// Frame is everything sent after one latch interval.
type Frame struct {
	Latch  time.Duration
	Pulses []Pulse
	Bytes  []byte
}

func NewSim(cal Calibration) *Sim {
	return &Sim{cal: cal}
}

func (s *Sim) High() { s.write(true) }
func (s *Sim) Low()  { s.write(false) }

func (s *Sim) write(level bool) {
	s.now += uint64(s.cal.WriteCycles)
	s.level = level
	s.edges = append(s.edges, Edge{At: s.now, Level: level})
}

func (s *Sim) Spin(cycles int) {
	if cycles > 0 {
		s.now += uint64(cycles)
	}
}

func (s *Sim) Level() bool { return s.level }
func (s *Sim) Now() uint64 { return s.now }

// Writes is the number of line writes recorded since the last Reset.
func (s *Sim) Writes() int { return len(s.edges) }

func (s *Sim) Edges() []Edge {
	e := make([]Edge, len(s.edges))
	copy(e, s.edges)
	return e
}

// Reset forgets recorded writes. The clock and line level carry on.
func (s *Sim) Reset() {
	s.edges = s.edges[:0]
}

func (s *Sim) dur(cycles uint64) time.Duration {
	return s.cal.Duration(int(cycles))
}

// transitions drops writes that didn't change the level.
func transitions(edges []Edge) []Edge {
	var t []Edge
	for i, e := range edges {
		if i == 0 || e.Level != t[len(t)-1].Level {
			t = append(t, e)
		}
	}
	return t
}

// Frames decodes the recorded waveform against p. Any low stretch of at least
// p.Reset starts a new frame. Pulses outside p's tolerances are errors, as is
// a waveform that doesn't start with a latch or ends with the line high.
func (s *Sim) Frames(p Protocol) ([]Frame, error) {
	t := transitions(s.edges)
	if len(t) == 0 {
		return nil, nil
	}
	if t[0].Level {
		return nil, errors.New("sim: waveform doesn't start low")
	}
	var (
		frames []Frame
		cur    *Frame
	)
	lowStart := t[0].At
	for i := 1; i < len(t); i += 2 {
		rise := t[i].At
		low := s.dur(rise - lowStart)
		if cur == nil || low >= p.Reset {
			if cur != nil {
				if err := cur.pack(p); err != nil {
					return frames, err
				}
				frames = append(frames, *cur)
			}
			if low < p.Reset {
				return frames, fmt.Errorf("sim: latch %v shorter than %v", low, p.Reset)
			}
			cur = &Frame{Latch: low}
		} else {
			last := &cur.Pulses[len(cur.Pulses)-1]
			last.Low = low
			if !within(last.High+last.Low, p.Period, p.PeriodTolerance) {
				return frames, fmt.Errorf("sim: frame %d pulse %d period %v, want %v +/- %v",
					len(frames), len(cur.Pulses)-1, last.High+last.Low, p.Period, p.PeriodTolerance)
			}
		}
		if i+1 >= len(t) {
			return frames, errors.New("sim: line left high")
		}
		fall := t[i+1].At
		high := s.dur(fall - rise)
		want := p.T0H
		if high >= p.threshold() {
			want = p.T1H
		}
		if !within(high, want, p.HighTolerance) {
			return frames, fmt.Errorf("sim: frame %d pulse %d high %v, want %v +/- %v",
				len(frames), len(cur.Pulses), high, want, p.HighTolerance)
		}
		cur.Pulses = append(cur.Pulses, Pulse{High: high})
		lowStart = fall
	}
	if cur != nil {
		if err := cur.pack(p); err != nil {
			return frames, err
		}
		frames = append(frames, *cur)
	}
	return frames, nil
}

func (f *Frame) pack(p Protocol) error {
	if len(f.Pulses)%8 != 0 {
		return fmt.Errorf("sim: %d bits isn't a whole number of bytes", len(f.Pulses))
	}
	f.Bytes = make([]byte, len(f.Pulses)/8)
	for i, pu := range f.Pulses {
		if pu.High >= p.threshold() {
			f.Bytes[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return nil
}
