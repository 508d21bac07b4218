package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Jon-Bright/ledhat/effects"
	"github.com/Jon-Bright/ledhat/input"
	"github.com/Jon-Bright/ledhat/pins"
	"github.com/Jon-Bright/ledhat/pixarray"
	"github.com/Jon-Bright/ledhat/rpi"
	"github.com/Jon-Bright/ledhat/timing"
)

var (
	configPath   = "/etc/ledhat.toml"
	verbose      = false
	dryRun       = false
	dumpConfig   = false
	listProfiles = false
	pixels       = DefaultConfig.Pixels
	order        = DefaultConfig.Order
	backend      = DefaultConfig.Backend
	profile      = ""
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "TOML config file; missing is fine")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
	pflag.BoolVar(&dryRun, "dry-run", dryRun, "no hardware: in-memory pins, presses read from stdin as durations")
	pflag.BoolVar(&dumpConfig, "dump-config", dumpConfig, "print the effective config and exit")
	pflag.BoolVar(&listProfiles, "list-profiles", listProfiles, "list timing calibration profiles and exit")
	pflag.IntVar(&pixels, "pixels", pixels, "number of pixels on the strip")
	pflag.StringVar(&order, "order", order, "color order of the pixels")
	pflag.StringVar(&backend, "backend", backend, "pin backend for button, status LED and power: gpiod, periph or mem")
	pflag.StringVar(&profile, "profile", profile, "timing calibration profile (default: match the board)")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	if listProfiles {
		for _, n := range timing.ProfileNames() {
			c, _ := timing.Profile(n)
			fmt.Printf("%-14s %d Hz  one %v/%v  zero %v/%v  latch %v\n", n, c.ClockHz,
				c.OneHighTime(), c.OneLowTime(), c.ZeroHighTime(), c.ZeroLowTime(), c.LatchTime())
		}
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	applyFlags(&cfg)
	if dumpConfig {
		if err := writeConfig(os.Stdout, cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg); err != nil {
		cancel()
		log.Fatal(err)
	}
}

func applyFlags(cfg *Config) {
	f := pflag.CommandLine
	if f.Changed("pixels") {
		cfg.Pixels = pixels
	}
	if f.Changed("order") {
		cfg.Order = order
	}
	if f.Changed("backend") {
		cfg.Backend = backend
	}
	if f.Changed("profile") {
		cfg.Timing.Profile = profile
	}
	if dryRun {
		cfg.Backend = "mem"
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg Config) error {
	a, err := newApp(cfg, dryRun, logger)
	if err != nil {
		return err
	}
	defer a.close()
	if dryRun {
		go a.readPresses(ctx, os.Stdin)
	}
	return a.run(ctx)
}

// app is everything wired together.
type app struct {
	cfg     Config
	log     *slog.Logger
	backend pins.Backend
	rp      *rpi.RPi
	strip   *pixarray.Strip
	button  pins.Input
	led     *pins.LED
	power   *power
	machine *input.Machine
	ctrl    *effects.Controller

	// realtime prepares a goroutine that bit-bangs frames. nil in a dry run.
	realtime func(cpu int) (release func(), err error)
}

func newApp(cfg Config, dry bool, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: logger}
	if !dry {
		a.realtime = rpi.Realtime
	}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	o, err := cfg.order()
	if err != nil {
		return nil, err
	}
	if cfg.Pixels <= 0 {
		return nil, fmt.Errorf("need at least one pixel, got %d", cfg.Pixels)
	}

	a.backend, err = pins.Open(cfg.Backend, cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("couldn't open pins: %w", err)
	}

	var (
		line pixarray.Line
		def  = "sim"
	)
	if dry {
		mem, ok := a.backend.(*pins.Mem)
		if !ok {
			return nil, fmt.Errorf("dry run needs the mem backend, got %s", cfg.Backend)
		}
		line = mem.Pin(cfg.DataPin)
	} else {
		a.rp, err = rpi.NewRPi()
		if err != nil {
			return nil, err
		}
		def = a.rp.Profile()
		logger.Info("detected board", "name", a.rp.Name(), "profile", def)
		pin, err := pins.Offset(cfg.DataPin)
		if err != nil {
			return nil, err
		}
		line, err = a.rp.OutputLine(pin)
		if err != nil {
			return nil, fmt.Errorf("couldn't set up data line: %w", err)
		}
	}

	cal, err := cfg.calibration(def)
	if err != nil {
		return nil, err
	}
	logger.Debug("calibration", "profile", cal.Name, "one", cal.OneHighTime(), "zero", cal.ZeroHighTime(), "latch", cal.LatchTime())

	a.strip = pixarray.NewStrip(cfg.Pixels, o, line, timing.BusyWait{ClockHz: cal.ClockHz}, cal)
	a.strip.Show()
	a.strip.SetBrightness(cfg.Brightness)

	status, err := a.backend.Output(cfg.StatusPin, false)
	if err != nil {
		return nil, fmt.Errorf("couldn't set up status LED: %w", err)
	}
	a.led = pins.NewLED(status, logger)

	a.power, err = initPower(a.backend, cfg.Power, logger)
	if err != nil {
		return nil, err
	}

	chase, breathe, err := cfg.colors()
	if err != nil {
		return nil, err
	}
	effs := effects.Standard(chase, breathe...)

	ic, err := cfg.input(len(effs))
	if err != nil {
		return nil, fmt.Errorf("bad input config: %w", err)
	}
	btn := &pins.Button{}
	a.machine = input.New(a.strip, btn, a.led, timing.Sleeper{}, ic, logger)
	a.button, err = a.backend.Button(cfg.ButtonPin, a.machine.Edge)
	if err != nil {
		return nil, fmt.Errorf("couldn't set up button: %w", err)
	}
	btn.In = a.button

	var pw effects.Power
	if a.power != nil {
		pw = a.power
	}
	env := effects.NewEnv(a.strip, timing.Sleeper{})
	a.ctrl = effects.NewController(env, effs, a.machine, pw, logger)
	return a, nil
}

func (a *app) run(ctx context.Context) error {
	if err := a.power.On(); err != nil {
		return err
	}
	// Both loops send frames: the controller its patterns, the press handler
	// the blank that acknowledges a press.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer a.prepare("input")()
		return a.machine.Run(ctx)
	})
	g.Go(func() error {
		defer a.prepare("controller")()
		return a.ctrl.Run(ctx)
	})
	err := g.Wait()

	a.strip.Clear()
	a.strip.Show()
	if perr := a.power.Off(); perr != nil {
		a.log.Error("couldn't power off", "err", perr)
	}
	return err
}

// prepare readies the calling goroutine for bit-banging and returns the
// function that undoes it.
func (a *app) prepare(who string) func() {
	if a.realtime == nil {
		return func() {}
	}
	release, err := a.realtime(a.cfg.CPU)
	if err != nil {
		a.log.Warn("bit timing may be unreliable", "loop", who, "err", err)
	}
	return release
}

func (a *app) close() {
	if a.button != nil {
		a.button.Close() // Ignore error
	}
	a.power.Close() // Ignore error
	if a.backend != nil {
		a.backend.Close() // Ignore error
	}
	if a.rp != nil {
		a.rp.Close() // Ignore error
	}
}

// readPresses simulates the button from r: each line is a hold duration
// ("250ms", "1.5s"), an empty line a quick tap.
func (a *app) readPresses(ctx context.Context, r io.Reader) {
	mem, ok := a.backend.(*pins.Mem)
	if !ok {
		return
	}
	pin := mem.Pin(a.cfg.ButtonPin)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		d := 100 * time.Millisecond
		if s := strings.TrimSpace(sc.Text()); s != "" {
			v, err := time.ParseDuration(s)
			if err != nil {
				a.log.Warn("not a duration", "input", s, "err", err)
				continue
			}
			d = v
		}
		a.log.Info("pressing", "for", d)
		pin.Press()
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}
		pin.Release()
	}
}
