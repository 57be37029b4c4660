package optics

import (
	"math"
	"sync/atomic"
)

var nanBits = math.Float64bits(math.NaN())

// Gauge holds an arbitrary double, double-buffered across two atomic
// words holding bit-punned IEEE-754 values. A NaN slot means "nothing
// was Set in this window"; unlike a Prometheus-style gauge, a value is
// never carried forward across polls.
type Gauge struct {
	cellHeader
	slots [2]atomic.Uint64
}

func newGauge(name string) *Gauge {
	g := &Gauge{}
	g.cellHeader = cellHeader{typ: TypeGauge, name: name, owner: g}
	g.slots[0].Store(nanBits)
	g.slots[1].Store(nanBits)
	return g
}

// CreateGauge registers a new gauge, failing with ErrAlreadyExists if
// name is already registered under any type.
func CreateGauge(r *Registry, name string) (*Gauge, error) {
	cell, err := r.create(name, TypeGauge, func() Cell { return newGauge(name) }, false)
	if err != nil {
		return nil, err
	}
	return cell.(*Gauge), nil
}

// OpenGauge is the idempotent get-or-create form.
func OpenGauge(r *Registry, name string) (*Gauge, error) {
	cell, err := r.create(name, TypeGauge, func() Cell { return newGauge(name) }, true)
	if err != nil {
		return nil, err
	}
	return cell.(*Gauge), nil
}

// Set stores x into the gauge's live slot. Setting NaN is permitted and
// is indistinguishable from never having set the gauge this window.
func (g *Gauge) Set(x float64) {
	e := g.registry.epoch.Current()
	g.slots[e].Store(math.Float64bits(x))
}

func (g *Gauge) readReset(e Epoch) (PollValue, ReadStatus) {
	bits := g.slots[e].Swap(nanBits)
	v := math.Float64frombits(bits)
	if math.IsNaN(v) {
		return PollValue{}, StatusOK
	}
	return PollValue{Gauge: v, GaugeSet: true}, StatusOK
}
