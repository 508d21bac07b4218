package input

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Jon-Bright/ledhat/pixarray"
	"github.com/Jon-Bright/ledhat/timing"
)

// fakeClock is a Delayer that only moves virtual time.
type fakeClock struct {
	mu  sync.Mutex
	now time.Duration
}

func (c *fakeClock) Delay(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// holdButton is pressed from virtual time zero until release.
type holdButton struct {
	c       *fakeClock
	release time.Duration
}

func (b *holdButton) Pressed() bool {
	return b.c.Now() < b.release
}

type fakeLED struct {
	mu      sync.Mutex
	toggles int
	on      bool
}

func (l *fakeLED) Toggle() {
	l.mu.Lock()
	l.toggles++
	l.on = !l.on
	l.mu.Unlock()
}

type fixture struct {
	m     *Machine
	strip *pixarray.Strip
	sim   *timing.Sim
	clock *fakeClock
	btn   *holdButton
	led   *fakeLED
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cal, err := timing.Profile("sim")
	if err != nil {
		t.Fatalf("Failed loading sim profile: %v", err)
	}
	f := &fixture{clock: &fakeClock{}, led: &fakeLED{}}
	f.sim = timing.NewSim(cal)
	f.strip = pixarray.NewStrip(6, pixarray.GRB, f.sim, f.sim, cal)
	f.strip.SetBrightness(64)
	f.btn = &holdButton{c: f.clock}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.m = New(f.strip, f.btn, f.led, f.clock, DefaultConfig(8), logger)
	return f
}

// press holds the button for d after debouncing and handles the edge.
func (f *fixture) press(d time.Duration) Action {
	f.btn.release = f.clock.Now() + f.m.cfg.Debounce + d
	f.m.Edge()
	<-f.m.pending
	return f.m.handle()
}

func TestClassify(t *testing.T) {
	tests := []struct {
		held time.Duration
		want Action
	}{
		{0, Short},
		{500 * time.Millisecond, Short},
		{999 * time.Millisecond, Short},
		{1000 * time.Millisecond, Long},
		{1500 * time.Millisecond, Long},
		{3000 * time.Millisecond, Long},
		{3001 * time.Millisecond, Sleep},
		{3500 * time.Millisecond, Sleep},
	}
	for _, test := range tests {
		f := newFixture(t)
		if got := f.press(test.held); got != test.want {
			t.Errorf("Hold %v: got %v, want %v", test.held, got, test.want)
		}
	}
}

func TestShortPressAdvancesPattern(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 9; i++ {
		f.press(500 * time.Millisecond)
		if want := i % 8; f.m.Pattern() != want {
			t.Errorf("After %d presses, pattern got %d, want %d", i, f.m.Pattern(), want)
		}
	}
	if f.strip.Brightness() != 64 {
		t.Errorf("Short press changed brightness, got %d, want 64", f.strip.Brightness())
	}
	if f.led.toggles != 9*10 || f.led.on {
		t.Errorf("Wrong status blinks, got %d toggles (on %v), want 90 (off)", f.led.toggles, f.led.on)
	}
	if f.m.Presses() != 9 {
		t.Errorf("Wrong press count, got %d, want 9", f.m.Presses())
	}
}

func TestLongPressTogglesBrightness(t *testing.T) {
	f := newFixture(t)
	for _, want := range []uint8{255, 64, 255} {
		f.press(1500 * time.Millisecond)
		if f.strip.Brightness() != want {
			t.Errorf("Brightness got %d, want %d", f.strip.Brightness(), want)
		}
		if f.m.Pattern() != 0 {
			t.Errorf("Long press changed pattern to %d", f.m.Pattern())
		}
	}
	if f.led.toggles != 3*20 {
		t.Errorf("Wrong status blinks, got %d toggles, want 60", f.led.toggles)
	}
}

func TestSleepLeavesState(t *testing.T) {
	f := newFixture(t)
	f.m.SetPattern(5)
	start := f.clock.Now()
	if got := f.press(3500 * time.Millisecond); got != Sleep {
		t.Fatalf("Got %v, want sleep", got)
	}
	if !f.m.Asleep() || f.m.State() != Asleep {
		t.Errorf("Not asleep, state %v", f.m.State())
	}
	if f.m.Pattern() != 5 || f.strip.Brightness() != 64 {
		t.Errorf("Sleep changed state, pattern %d brightness %d", f.m.Pattern(), f.strip.Brightness())
	}
	if f.strip.InInput() {
		t.Errorf("Handler flag still set after sleep")
	}
	// Sleep doesn't wait for release.
	want := f.m.cfg.Debounce + 3001*time.Millisecond + 6*500*time.Millisecond
	if el := f.clock.Now() - start; el != want {
		t.Errorf("Sleep took %v, want %v", el, want)
	}

	woke := make(chan error)
	go func() {
		woke <- f.m.WaitWake(context.Background())
	}()
	select {
	case <-woke:
		t.Fatalf("WaitWake returned while asleep")
	case <-time.After(20 * time.Millisecond):
	}
	f.press(100 * time.Millisecond)
	select {
	case err := <-woke:
		if err != nil {
			t.Errorf("WaitWake failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("WaitWake never returned")
	}
	if f.m.Asleep() || f.m.Pattern() != 6 {
		t.Errorf("After wake got asleep %v pattern %d, want false 6", f.m.Asleep(), f.m.Pattern())
	}
}

func TestWaitWakeCancelled(t *testing.T) {
	f := newFixture(t)
	f.press(3500 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.m.WaitWake(ctx); err != context.Canceled {
		t.Errorf("WaitWake got %v, want context.Canceled", err)
	}
}

func TestPressBlanksAndAborts(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 6; i++ {
		f.strip.SetPixel(i, pixarray.Red)
	}
	f.sim.Reset()
	f.press(200 * time.Millisecond)
	if !f.strip.AbortRequested() {
		t.Errorf("Abort not requested")
	}
	frames, err := f.sim.Frames(timing.WS2812B)
	if err != nil {
		t.Fatalf("Couldn't decode waveform: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("Got %d frames, want one blank frame", len(frames))
	}
	for i, b := range frames[0].Bytes {
		if b != 0 {
			t.Errorf("Byte %d of blank frame is %02x", i, b)
		}
	}
}

func TestEdgeWhileHandling(t *testing.T) {
	f := newFixture(t)
	f.m.Edge()
	f.m.Edge()
	if len(f.m.pending) != 1 {
		t.Errorf("Pending got %d, want 1", len(f.m.pending))
	}
	f.strip.EnterInput()
	f.m.Edge()
	if len(f.m.pending) != 0 {
		t.Errorf("Edge during handling left %d pending", len(f.m.pending))
	}
	if got := f.m.handle(); got != None {
		t.Errorf("Nested handle got %v, want none", got)
	}
	f.strip.LeaveInput()
	if f.m.Pattern() != 0 || f.m.State() != Idle {
		t.Errorf("Dropped edge changed state: pattern %d state %v", f.m.Pattern(), f.m.State())
	}
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- f.m.Run(ctx)
	}()
	f.m.Edge()
	deadline := time.Now().Add(time.Second)
	for f.m.Pattern() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Edge never handled")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestSetPatternWraps(t *testing.T) {
	f := newFixture(t)
	for _, test := range []struct{ in, want int }{{0, 0}, {7, 7}, {8, 0}, {-1, 7}, {17, 1}} {
		f.m.SetPattern(test.in)
		if f.m.Pattern() != test.want {
			t.Errorf("SetPattern(%d) got %d, want %d", test.in, f.m.Pattern(), test.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	good := DefaultConfig(8)
	if err := good.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
	bad := good
	bad.ShortBlink.Toggles = 9
	if bad.Validate() == nil {
		t.Errorf("Odd blink count accepted")
	}
	bad = good
	bad.LongPress = 4 * time.Second
	if bad.Validate() == nil {
		t.Errorf("Long press beyond sleep accepted")
	}
	bad = good
	bad.NumPatterns = 0
	if bad.Validate() == nil {
		t.Errorf("Zero patterns accepted")
	}
}

func TestNames(t *testing.T) {
	if Sleep.String() != "sleep" || Action(9).String() != "unknown" {
		t.Errorf("Action names wrong")
	}
	if HoldMeasuring.String() != "hold-measuring" || State(-1).String() != "unknown" {
		t.Errorf("State names wrong")
	}
}
