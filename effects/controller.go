package effects

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jon-Bright/ledhat/pixarray"
)

// Standard is the pattern list the button cycles through, in order.
func Standard(chase uint32, breathe ...uint32) []Effect {
	if len(breathe) == 0 {
		breathe = []uint32{pixarray.Blue, pixarray.Red, pixarray.Green}
	}
	return []Effect{
		NewSolid(time.Second, pixarray.Red, pixarray.Green, pixarray.Blue),
		NewWipe(time.Second, WipeTestColors...),
		NewPolice(150 * time.Millisecond),
		NewRainbow(15 * time.Millisecond),
		NewCycle(5 * time.Millisecond),
		NewChase(100*time.Millisecond, chase),
		NewRainbowChase(100 * time.Millisecond),
		NewBreathe(2*time.Second, breathe...),
	}
}

// Selector is where the controller learns what to draw.
type Selector interface {
	Pattern() int
	Asleep() bool
	WaitWake(ctx context.Context) error
}

// Power switches the strip's supply. A nil Power is always on.
type Power interface {
	On() error
	Off() error
}

// Controller is the foreground loop: it runs the selected effect over and
// over, starting again whenever a press aborts it.
type Controller struct {
	env     *Env
	effects []Effect
	sel     Selector
	power   Power
	log     *slog.Logger
}

func NewController(env *Env, effects []Effect, sel Selector, power Power, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		env:     env,
		effects: effects,
		sel:     sel,
		power:   power,
		log:     logger.With("component", "controller"),
	}
}

func (c *Controller) Run(ctx context.Context) error {
	if len(c.effects) == 0 {
		<-ctx.Done()
		return nil
	}
	last := -1
	for ctx.Err() == nil {
		// The selection is read under the mask so a press can't land between
		// reading it and clearing the abort it raised.
		ms := c.env.Strip.Mask()
		asleep := c.sel.Asleep()
		p := c.sel.Pattern()
		if asleep {
			ms.Clear()
			ms.Show()
		} else {
			c.env.Strip.ClearAbort()
		}
		ms.Unmask()

		if asleep {
			if err := c.sleep(ctx); err != nil {
				return nil
			}
			last = -1
			continue
		}

		e := c.effects[p%len(c.effects)]
		if p != last {
			c.log.Info("starting effect", "pattern", p, "name", e.Name())
			last = p
		}
		e.Run(ctx, c.env)
	}
	return nil
}

func (c *Controller) sleep(ctx context.Context) error {
	c.log.Info("sleeping")
	if c.power != nil {
		if err := c.power.Off(); err != nil {
			c.log.Error("couldn't power strip off", "err", err)
		}
	}
	if err := c.sel.WaitWake(ctx); err != nil {
		return err
	}
	if c.power != nil {
		if err := c.power.On(); err != nil {
			c.log.Error("couldn't power strip on", "err", err)
		}
	}
	c.log.Info("woken")
	return nil
}
