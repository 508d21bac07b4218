package pixarray

// Show sends the whole of pixel memory to the strip: the line is held low for
// the latch interval, then every byte goes out MSB first, one pulse per bit.
// Pulse widths come from the strip's calibration and nothing else may run on
// the strip while a frame is going out.
//
// A Show while another is in progress returns immediately. It doesn't queue.
func (s *Strip) Show() {
	if s.inShow.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.show()
}

func (s *Strip) show() {
	if !s.inShow.CompareAndSwap(false, true) {
		return
	}
	defer s.inShow.Store(false)

	s.line.Low()
	s.spin.Spin(s.cal.Latch)
	for _, v := range s.pixels {
		for k := 7; k >= 0; k-- {
			if (v & (1 << uint(k))) != 0 {
				s.writeOne()
			} else {
				s.writeZero()
			}
		}
	}
}

func (s *Strip) writeOne() {
	s.line.High()
	s.spin.Spin(s.cal.OneHigh)
	s.line.Low()
	s.spin.Spin(s.cal.OneLow)
}

func (s *Strip) writeZero() {
	s.line.High()
	s.spin.Spin(s.cal.ZeroHigh)
	s.line.Low()
	s.spin.Spin(s.cal.ZeroLow)
}
