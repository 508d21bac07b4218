package pins

import (
	"fmt"
	"sync"
)

// Mem is a Backend with no hardware behind it. Inputs read whatever was last
// set on them; Press and Release drive buttons.
type Mem struct {
	mu   sync.Mutex
	pins map[string]*MemPin
}

func NewMem() *Mem {
	return &Mem{pins: map[string]*MemPin{}}
}

// Pin returns the named pin, creating it (low, unclaimed) if needed.
func (m *Mem) Pin(name string) *MemPin {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pins[name]
	if !ok {
		p = &MemPin{name: name}
		m.pins[name] = p
	}
	return p
}

func (m *Mem) claim(name string) (*MemPin, error) {
	p := m.Pin(name)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.claimed {
		return nil, fmt.Errorf("pin %s already in use", name)
	}
	p.claimed = true
	return p, nil
}

func (m *Mem) Output(name string, initial bool) (Output, error) {
	p, err := m.claim(name)
	if err != nil {
		return nil, err
	}
	p.Set(initial)
	return p, nil
}

func (m *Mem) Input(name string, pull Pull) (Input, error) {
	p, err := m.claim(name)
	if err != nil {
		return nil, err
	}
	switch pull {
	case PullUp:
		p.Set(true)
	case PullDown:
		p.Set(false)
	}
	return p, nil
}

func (m *Mem) Button(name string, onEdge func()) (Input, error) {
	p, err := m.claim(name)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.high = true
	p.onEdge = onEdge
	p.mu.Unlock()
	return p, nil
}

func (m *Mem) Close() error {
	return nil
}

// MemPin is one line of a Mem backend. It's also a pixarray.Line.
type MemPin struct {
	mu      sync.Mutex
	name    string
	high    bool
	claimed bool
	writes  int
	onEdge  func()
}

func (p *MemPin) Set(high bool) error {
	p.mu.Lock()
	fall := p.high && !high
	p.high = high
	p.writes++
	edge := p.onEdge
	p.mu.Unlock()
	if fall && edge != nil {
		edge()
	}
	return nil
}

func (p *MemPin) High() { p.Set(true) }
func (p *MemPin) Low()  { p.Set(false) }

func (p *MemPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high, nil
}

// Press pulls a button low, firing its edge handler.
func (p *MemPin) Press() { p.Set(false) }

func (p *MemPin) Release() { p.Set(true) }

func (p *MemPin) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

func (p *MemPin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claimed = false
	p.onEdge = nil
	return nil
}
