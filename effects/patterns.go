package effects

import (
	"context"
	"time"

	"github.com/Jon-Bright/ledhat/pixarray"
)

// Solid shows each color on the whole strip in turn.
type Solid struct {
	colors []uint32
	hold   time.Duration
}

func NewSolid(hold time.Duration, colors ...uint32) *Solid {
	return &Solid{colors: colors, hold: hold}
}

func (s *Solid) Run(ctx context.Context, env *Env) {
	for _, c := range s.colors {
		if env.Aborted(ctx) {
			return
		}
		env.Fill(c)
		if !env.Sleep(ctx, s.hold) {
			return
		}
	}
}

func (s *Solid) Name() string {
	return "SOLID"
}

// Wipe lights the strip one pixel at a time, a full strip per color.
// wipeTime is how long one color takes to cover the strip.
type Wipe struct {
	colors   []uint32
	wipeTime time.Duration
}

func NewWipe(wipeTime time.Duration, colors ...uint32) *Wipe {
	return &Wipe{colors: colors, wipeTime: wipeTime}
}

// WipeTestColors walks through the primaries, the secondaries and white.
var WipeTestColors = []uint32{
	pixarray.Color(255, 0, 0),
	pixarray.Color(255, 255, 0),
	pixarray.Color(0, 255, 0),
	pixarray.Color(0, 255, 255),
	pixarray.Color(0, 0, 255),
	pixarray.Color(255, 0, 255),
	pixarray.Color(255, 255, 255),
}

func (w *Wipe) Run(ctx context.Context, env *Env) {
	n := env.Strip.NumPixels()
	if n == 0 {
		return
	}
	step := w.wipeTime / time.Duration(n)
	for _, c := range w.colors {
		for i := 0; i < n; i++ {
			if env.Aborted(ctx) {
				return
			}
			env.Strip.SetPixel(i, c)
			env.Strip.Show()
			if !env.Sleep(ctx, step) {
				return
			}
		}
	}
}

func (w *Wipe) Name() string {
	return "WIPE"
}

// Police alternates red and blue on neighbouring pixels, then swaps them.
type Police struct {
	interval time.Duration
}

func NewPolice(interval time.Duration) *Police {
	return &Police{interval: interval}
}

func (p *Police) Run(ctx context.Context, env *Env) {
	phases := [][2]uint32{
		{pixarray.Red, pixarray.Blue},
		{pixarray.Blue, pixarray.Red},
	}
	for _, ph := range phases {
		if env.Aborted(ctx) {
			return
		}
		for i := 0; i < env.Strip.NumPixels(); i++ {
			env.Strip.SetPixel(i, ph[i%2])
		}
		env.Strip.Show()
		if !env.Sleep(ctx, p.interval) {
			return
		}
	}
}

func (p *Police) Name() string {
	return "POLICE"
}

// Rainbow runs the color wheel along the strip, one wheel step per frame.
type Rainbow struct {
	interval time.Duration
}

func NewRainbow(interval time.Duration) *Rainbow {
	return &Rainbow{interval: interval}
}

func (r *Rainbow) Run(ctx context.Context, env *Env) {
	env.Blank()
	for j := 0; j < 256; j++ {
		if env.Aborted(ctx) {
			return
		}
		for i := 0; i < env.Strip.NumPixels(); i++ {
			env.Strip.SetPixel(i, pixarray.Wheel(uint8((i+j)&255)))
		}
		env.Strip.Show()
		if !env.Sleep(ctx, r.interval) {
			return
		}
	}
}

func (r *Rainbow) Name() string {
	return "RAINBOW"
}

// Cycle is Rainbow with the whole wheel spread evenly over the strip.
type Cycle struct {
	interval time.Duration
}

func NewCycle(interval time.Duration) *Cycle {
	return &Cycle{interval: interval}
}

func (c *Cycle) Run(ctx context.Context, env *Env) {
	n := env.Strip.NumPixels()
	env.Blank()
	for j := 0; j < 256; j++ {
		if env.Aborted(ctx) {
			return
		}
		for i := 0; i < n; i++ {
			env.Strip.SetPixel(i, pixarray.Wheel(uint8((i*256/n+j)&255)))
		}
		env.Strip.Show()
		if !env.Sleep(ctx, c.interval) {
			return
		}
	}
}

func (c *Cycle) Name() string {
	return "CYCLE"
}

// Chase is theatre-style crawling lights: every third pixel lit, moving one
// pixel per frame. A nil color picks from the wheel instead, advancing four
// wheel steps per three frames.
type Chase struct {
	color    *uint32
	interval time.Duration
}

func NewChase(interval time.Duration, color uint32) *Chase {
	return &Chase{color: &color, interval: interval}
}

func NewRainbowChase(interval time.Duration) *Chase {
	return &Chase{interval: interval}
}

func (c *Chase) Run(ctx context.Context, env *Env) {
	env.Blank()
	if c.color != nil {
		c.crawl(ctx, env, func(int) uint32 { return *c.color })
		return
	}
	for j := 0; j < 256; j += 4 {
		if env.Aborted(ctx) {
			return
		}
		if !c.crawl(ctx, env, func(i int) uint32 { return pixarray.Wheel(uint8((i + j) % 255)) }) {
			return
		}
	}
}

func (c *Chase) crawl(ctx context.Context, env *Env, color func(int) uint32) bool {
	n := env.Strip.NumPixels()
	for q := 0; q < 3; q++ {
		if env.Aborted(ctx) {
			return false
		}
		for i := 0; i < n; i += 3 {
			env.Strip.SetPixel(i+q, color(i))
		}
		env.Strip.Show()
		if !env.Sleep(ctx, c.interval) {
			return false
		}
		for i := 0; i < n; i += 3 {
			env.Strip.SetPixel(i+q, 0)
		}
	}
	return true
}

func (c *Chase) Name() string {
	if c.color == nil {
		return "RAINBOWCHASE"
	}
	return "CHASE"
}

// Breathe fills the strip with each color in turn and ramps the brightness
// all the way up and back down, taking cycleTime per color.
type Breathe struct {
	colors    []uint32
	cycleTime time.Duration
}

func NewBreathe(cycleTime time.Duration, colors ...uint32) *Breathe {
	return &Breathe{colors: colors, cycleTime: cycleTime}
}

func (b *Breathe) Run(ctx context.Context, env *Env) {
	for _, c := range b.colors {
		if !b.breathe(ctx, env, c) {
			return
		}
	}
}

// breathe leaves the ramped brightness in place if it's aborted: the press
// that aborted it may have set a brightness of its own. On completion the old
// level comes back unscaled; the dim frame in memory stays as it is.
func (b *Breathe) breathe(ctx context.Context, env *Env, c uint32) bool {
	old := env.Strip.Brightness()
	step := b.cycleTime / 512
	pause := b.cycleTime / 16

	env.Blank()
	for i := 0; i < env.Strip.NumPixels(); i++ {
		env.Strip.SetPixel(i, c)
	}
	for j := 1; j < 255; j++ {
		if env.Aborted(ctx) {
			return false
		}
		env.Strip.SetBrightness(uint8(j))
		env.Strip.Show()
		if !env.Sleep(ctx, step) {
			return false
		}
	}
	if !env.Sleep(ctx, pause) {
		return false
	}
	for j := 255; j > 0; j-- {
		if env.Aborted(ctx) {
			return false
		}
		env.Strip.SetBrightness(uint8(j))
		env.Strip.Show()
		if !env.Sleep(ctx, step) {
			return false
		}
	}
	if !env.Sleep(ctx, pause) {
		return false
	}
	env.Strip.RestoreBrightness(old)
	return true
}

func (b *Breathe) Name() string {
	return "BREATHE"
}
