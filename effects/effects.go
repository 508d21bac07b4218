package effects

import (
	"context"
	"time"

	"github.com/Jon-Bright/ledhat/pixarray"
	"github.com/Jon-Bright/ledhat/timing"
)

// Effect is one pattern. Run draws until the pattern's natural end, or until
// an abort is requested or ctx is done, whichever comes first. Aborts are
// only noticed between frames.
type Effect interface {
	Run(ctx context.Context, env *Env)
	Name() string
}

// Env is what an Effect runs against.
type Env struct {
	Strip *pixarray.Strip
	Delay timing.Delayer
	Tick  time.Duration // abort polling interval while sleeping
}

func NewEnv(strip *pixarray.Strip, delay timing.Delayer) *Env {
	return &Env{Strip: strip, Delay: delay, Tick: time.Millisecond}
}

// Aborted reports whether the current effect should stop.
func (e *Env) Aborted(ctx context.Context) bool {
	return e.Strip.AbortRequested() || ctx.Err() != nil
}

// Sleep waits for d a tick at a time. It returns false as soon as the effect
// is aborted, true if the whole wait elapsed.
func (e *Env) Sleep(ctx context.Context, d time.Duration) bool {
	tick := e.Tick
	if tick <= 0 {
		tick = time.Millisecond
	}
	for d > 0 {
		if e.Aborted(ctx) {
			return false
		}
		step := tick
		if d < step {
			step = d
		}
		e.Delay.Delay(step)
		d -= step
	}
	return !e.Aborted(ctx)
}

// Fill sets every pixel to c and shows the result.
func (e *Env) Fill(c uint32) {
	for i := 0; i < e.Strip.NumPixels(); i++ {
		e.Strip.SetPixel(i, c)
	}
	e.Strip.Show()
}

// Blank clears the strip and shows the result.
func (e *Env) Blank() {
	e.Strip.Clear()
	e.Strip.Show()
}
