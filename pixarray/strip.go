package pixarray

import (
	"sync"
	"sync/atomic"

	"github.com/Jon-Bright/ledhat/timing"
)

// Line is the strip's data output.
type Line interface {
	High()
	Low()
}

// Strip is a fixed-length string of one-wire RGB LEDs and the only state the
// pattern loop and the button handler share.
//
// mu stands in for the global interrupt mask. Show holds it for a whole frame,
// the button handler holds it (via Mask) for a whole press, and the pixel
// mutators hold it only for their own short sections, so a press can never be
// handled in the middle of a frame and a frame can never start in the middle
// of a press.
type Strip struct {
	mu         sync.Mutex
	numPixels  int
	pixels     []byte
	brightness uint8 // level+1, with 0 meaning never set
	g          int
	r          int
	b          int
	line       Line
	spin       timing.Spinner
	cal        timing.Calibration

	inShow  atomic.Bool
	inInput atomic.Bool
	abort   atomic.Bool
}

func NewStrip(numPixels int, order int, line Line, spin timing.Spinner, cal timing.Calibration) *Strip {
	o, ok := offsets[order]
	if !ok {
		o = offsets[GRB]
	}
	return &Strip{
		numPixels: numPixels,
		pixels:    make([]byte, numPixels*3),
		g:         o[0],
		r:         o[1],
		b:         o[2],
		line:      line,
		spin:      spin,
		cal:       cal,
	}
}

func (s *Strip) NumPixels() int {
	return s.numPixels
}

// SetPixel stores c at pixel i, scaled by the current brightness. Indices
// outside the strip are ignored.
func (s *Strip) SetPixel(i int, c uint32) {
	s.mu.Lock()
	s.setPixel(i, c)
	s.mu.Unlock()
}

func (s *Strip) GetPixel(i int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= s.numPixels {
		return 0
	}
	p := s.pixels[i*3 : i*3+3]
	return Color(p[s.r], p[s.g], p[s.b])
}

// Bytes returns a copy of the pixel memory in wire order.
func (s *Strip) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, len(s.pixels))
	copy(b, s.pixels)
	return b
}

func (s *Strip) Clear() {
	s.mu.Lock()
	s.clear()
	s.mu.Unlock()
}

// SetBrightness sets the output level, 0 (off) to 255 (colors used as given).
// Pixel memory already holds scaled values, so changing the level rescales it
// in place. That's lossy: going down and back up won't restore the originals.
func (s *Strip) SetBrightness(level uint8) {
	s.mu.Lock()
	s.setBrightness(level)
	s.mu.Unlock()
}

// RestoreBrightness puts back a level saved from Brightness without touching
// pixel memory. Only pixels set afterwards are scaled by it.
func (s *Strip) RestoreBrightness(level uint8) {
	s.mu.Lock()
	s.brightness = level + 1
	s.mu.Unlock()
}

// Brightness returns the current level. A strip that's never had one set
// reports 255.
func (s *Strip) Brightness() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness - 1
}

func (s *Strip) InShow() bool { return s.inShow.Load() }

func (s *Strip) InInput() bool { return s.inInput.Load() }

// EnterInput marks a press as being handled. It returns false if one already is.
func (s *Strip) EnterInput() bool { return s.inInput.CompareAndSwap(false, true) }

func (s *Strip) LeaveInput() { s.inInput.Store(false) }

// AbortRequested is polled by pattern loops; once set they should return at
// their next iteration boundary.
func (s *Strip) AbortRequested() bool { return s.abort.Load() }

func (s *Strip) RequestAbort() { s.abort.Store(true) }

func (s *Strip) ClearAbort() { s.abort.Store(false) }

// Mask waits for any frame in progress to finish, then keeps every other user
// of the strip out until Unmask.
func (s *Strip) Mask() *Masked {
	s.mu.Lock()
	return &Masked{s}
}

// Masked is exclusive access to a Strip. Its methods don't take the mask
// again, so they're safe to call while holding it.
type Masked struct {
	s *Strip
}

func (m *Masked) Unmask() {
	m.s.mu.Unlock()
}

func (m *Masked) SetPixel(i int, c uint32)  { m.s.setPixel(i, c) }
func (m *Masked) Clear()                    { m.s.clear() }
func (m *Masked) SetBrightness(level uint8) { m.s.setBrightness(level) }
func (m *Masked) Brightness() uint8         { return m.s.brightness - 1 }
func (m *Masked) Show()                     { m.s.show() }
func (m *Masked) Strip() *Strip             { return m.s }

// ForceShowIdle drops a stale in-show flag so the next Show isn't skipped.
func (m *Masked) ForceShowIdle() { m.s.inShow.Store(false) }

func (s *Strip) setPixel(i int, c uint32) {
	if i < 0 || i >= s.numPixels {
		return
	}
	r := uint8(c >> 16)
	g := uint8(c >> 8)
	b := uint8(c)
	if s.brightness != 0 {
		// 8x8 multiply, keep the high byte
		r = uint8((uint16(r) * uint16(s.brightness)) >> 8)
		g = uint8((uint16(g) * uint16(s.brightness)) >> 8)
		b = uint8((uint16(b) * uint16(s.brightness)) >> 8)
	}
	p := s.pixels[i*3 : i*3+3]
	p[s.r] = r
	p[s.g] = g
	p[s.b] = b
}

func (s *Strip) clear() {
	for i := range s.pixels {
		s.pixels[i] = 0
	}
}

func (s *Strip) setBrightness(level uint8) {
	nb := level + 1 // 255 wraps to 0: no scaling
	if nb == s.brightness {
		return
	}
	old := s.brightness - 1
	var scale uint16
	switch {
	case old == 0:
		scale = 0
	case s.brightness == 255:
		scale = 65535 / uint16(old)
	default:
		scale = ((uint16(nb) << 8) - 1) / uint16(old)
	}
	for i, c := range s.pixels {
		s.pixels[i] = byte((uint32(c) * uint32(scale)) >> 8)
	}
	s.brightness = nb
}
