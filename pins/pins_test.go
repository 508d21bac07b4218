package pins

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
)

func TestMemClaim(t *testing.T) {
	m := NewMem()
	out, err := m.Output("GPIO27", true)
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if _, err := m.Input("GPIO27", PullNone); err == nil {
		t.Errorf("Second claim of GPIO27 succeeded, want error")
	}
	if v, _ := m.Pin("GPIO27").Read(); !v {
		t.Errorf("GPIO27 reads low, want initial high")
	}
	out.Close()
	if _, err := m.Input("GPIO27", PullDown); err != nil {
		t.Errorf("Claim after Close failed: %v", err)
	}
	if v, _ := m.Pin("GPIO27").Read(); v {
		t.Errorf("GPIO27 reads high after pull-down, want low")
	}
}

func TestMemButton(t *testing.T) {
	m := NewMem()
	var edges atomic.Int32
	in, err := m.Button("GPIO17", func() { edges.Add(1) })
	if err != nil {
		t.Fatalf("Button failed: %v", err)
	}
	b := Button{In: in}
	if b.Pressed() {
		t.Errorf("Button pressed before any press")
	}
	p := m.Pin("GPIO17")
	p.Press()
	if !b.Pressed() {
		t.Errorf("Button not pressed after Press")
	}
	p.Press()
	p.Release()
	if b.Pressed() {
		t.Errorf("Button pressed after Release")
	}
	p.Press()
	if got := edges.Load(); got != 2 {
		t.Errorf("Got %d falling edges, want 2", got)
	}
	in.Close()
	p.Release()
	p.Press()
	if got := edges.Load(); got != 2 {
		t.Errorf("Got %d falling edges after Close, want 2", got)
	}
}

type errInput struct{}

func (errInput) Read() (bool, error) { return false, errors.New("gone") }
func (errInput) Close() error        { return nil }

func TestButtonReadError(t *testing.T) {
	if (Button{In: errInput{}}).Pressed() {
		t.Errorf("Button with failing input reports pressed")
	}
}

type failOutput struct {
	sets int
}

func (f *failOutput) Set(bool) error {
	f.sets++
	return errors.New("nope")
}

func (f *failOutput) Close() error { return nil }

func TestLED(t *testing.T) {
	m := NewMem()
	out, err := m.Output("GPIO27", false)
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	p := m.Pin("GPIO27")
	l := NewLED(out, nil)
	for i := 0; i < 3; i++ {
		l.Toggle()
	}
	if !l.On() {
		t.Errorf("LED off after 3 toggles")
	}
	if v, _ := p.Read(); !v {
		t.Errorf("Pin low after 3 toggles")
	}
	l.Set(false)
	if v, _ := p.Read(); v {
		t.Errorf("Pin high after Set(false)")
	}
	// 1 initial write plus 4
	if got := p.Writes(); got != 5 {
		t.Errorf("Got %d writes, want 5", got)
	}

	f := &failOutput{}
	l = NewLED(f, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.Toggle()
	if !l.On() || f.sets != 1 {
		t.Errorf("Failing LED: on=%v sets=%d, want true and 1", l.On(), f.sets)
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open("smoke-signals", ""); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(smoke-signals) returned %v, want ErrUnknownBackend", err)
	}
	b, err := Open("mem", "")
	if err != nil {
		t.Fatalf("Open(mem) failed: %v", err)
	}
	if _, ok := b.(*Mem); !ok {
		t.Errorf("Open(mem) returned %T", b)
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"GPIO17", 17, false},
		{"GPIO18", 18, false},
		{"NOPE", 0, true},
	}
	for _, tc := range tests {
		got, err := Offset(tc.name)
		if (err != nil) != tc.wantErr {
			t.Errorf("Offset(%q) error %v, wantErr %v", tc.name, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("Offset(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}
