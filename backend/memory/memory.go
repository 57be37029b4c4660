// Package memory implements an in-process Backend that records every
// event of every sweep, for assertions in tests.
package memory

import (
	"sync"

	"github.com/tef/optics"
)

// Sweep is every metric emitted between one EventBegin/EventDone pair.
type Sweep struct {
	Metrics []optics.Emission
}

// Backend is a Backend that keeps every completed sweep in memory.
type Backend struct {
	mu     sync.Mutex
	sweeps []Sweep
	cur    *Sweep
	freed  bool
}

// New returns an empty memory backend.
func New() *Backend { return &Backend{} }

// OnEvent implements optics.Backend.
func (b *Backend) OnEvent(kind optics.EventKind, p *optics.Emission) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch kind {
	case optics.EventBegin:
		b.cur = &Sweep{}
	case optics.EventMetric:
		b.cur.Metrics = append(b.cur.Metrics, *p)
	case optics.EventDone:
		b.sweeps = append(b.sweeps, *b.cur)
		b.cur = nil
	}
}

// OnFree implements optics.Backend.
func (b *Backend) OnFree() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.freed = true
}

// Freed reports whether OnFree has been called.
func (b *Backend) Freed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.freed
}

// Sweeps returns every completed sweep, oldest first.
func (b *Backend) Sweeps() []Sweep {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Sweep(nil), b.sweeps...)
}

// Last returns the most recently completed sweep's metrics as a
// key->value map, for convenient assertions. Returns nil if no sweep
// has completed yet.
func (b *Backend) Last() map[string]float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sweeps) == 0 {
		return nil
	}
	last := b.sweeps[len(b.sweeps)-1]
	out := make(map[string]float64, len(last.Metrics))
	for _, e := range last.Metrics {
		out[e.Key] = e.Value
	}
	return out
}
