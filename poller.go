package optics

import (
	"time"

	"github.com/rs/zerolog"
)

// EventKind identifies which of the three events of one sweep a backend
// is being notified of.
type EventKind int

const (
	EventBegin EventKind = iota
	EventMetric
	EventDone
)

// Backend is the sink a Poller fans one sweep's emissions out to.
// OnEvent is called once with EventBegin (p == nil), any number of
// times with EventMetric in arbitrary order, and exactly once with
// EventDone (p == nil). A backend must not retain p past OnEvent's
// return. OnFree is called when the owning Poller is closed.
type Backend interface {
	OnEvent(kind EventKind, p *Emission)
	OnFree()
}

// stragglerGrace is the brief sleep after a flip, before the poller
// reads the retired slot, that lets in-flight recorders finish on it.
// This is an intentional simplification over full epoch reclamation: a
// recorder preempted for longer than this is permitted to lose its
// sample.
const stragglerGrace = time.Millisecond

// Poller drives one sweep at a time: flip the epoch, drain the retired
// half of every live cell, normalize, and fan out to a backend. The
// design requires exactly one active poller per Registry; nothing here
// guards against a second one.
type Poller struct {
	registry *Registry
	backend  Backend
	log      zerolog.Logger
}

// PollerOption configures a Poller at construction.
type PollerOption func(*Poller)

func WithBackend(b Backend) PollerOption { return func(p *Poller) { p.backend = b } }

func WithPollerLogger(l zerolog.Logger) PollerOption {
	return func(p *Poller) { p.log = l }
}

// NewPoller creates a poller over r.
func NewPoller(r *Registry, opts ...PollerOption) *Poller {
	p := &Poller{registry: r, log: r.log}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Poll runs one sweep at the registry clock's current time.
func (p *Poller) Poll() { p.PollAt(p.registry.clockNow()) }

// PollAt runs one sweep as of ts: flip the epoch, compute elapsed
// (warning on a monotonic-clock violation), sleep for the straggler
// grace, emit begin, traverse and read-and-reset every cell, emit done.
func (p *Poller) PollAt(ts Timestamp) {
	retired, prevTS := p.registry.epoch.Flip(ts)

	var elapsed float64
	if ts > prevTS {
		elapsed = float64(ts - prevTS)
	} else {
		elapsed = 1
		p.log.Warn().
			Int64("ts", int64(ts)).
			Int64("prev_ts", int64(prevTS)).
			Msg("poll timestamp did not advance; clamping elapsed to 1s")
	}

	time.Sleep(stragglerGrace)

	p.emit(EventBegin, nil)

	host := p.registry.Host()
	prefix := p.registry.Prefix()

	p.registry.ForEach(func(cell Cell) bool {
		pv, status := cell.readReset(retired)
		switch status {
		case StatusBusy:
			p.log.Warn().Str("name", cell.Name()).Msg("cell busy, skipping this sweep")
			return true
		case StatusErr:
			p.log.Error().Str("name", cell.Name()).Msg("cell read error, skipping")
			return true
		}

		pv.Host = host
		pv.Prefix = prefix
		pv.Name = cell.Name()
		pv.Type = cell.Type()
		pv.TS = ts
		pv.Elapsed = elapsed

		pv.Normalize(func(em Emission) {
			p.emit(EventMetric, &em)
		})
		return true
	})

	p.emit(EventDone, nil)
}

func (p *Poller) emit(kind EventKind, em *Emission) {
	if p.backend != nil {
		p.backend.OnEvent(kind, em)
	}
}

// Close releases the poller's backend.
func (p *Poller) Close() {
	if p.backend != nil {
		p.backend.OnFree()
	}
}
