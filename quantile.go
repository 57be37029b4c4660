package optics

import "sync/atomic"

// Quantile is a Frank-Wolfe-style stochastic quantile estimator: a
// single signed multiplier m nudged up or down by a Bernoulli trial
// against the target quantile q, so that the current estimate
// base + m*delta converges towards the q-th percentile of the recorded
// stream. Unlike every other cell type, m is *not* double-buffered -
// the estimate must evolve continuously across flips, so only the
// per-epoch sample counter is two-slot.
type Quantile struct {
	cellHeader
	q     float64
	base  float64
	delta float64
	m     atomic.Int64
	count [2]atomic.Int64
}

func newQuantile(name string, q, base, delta float64) *Quantile {
	qt := &Quantile{q: q, base: base, delta: delta}
	qt.cellHeader = cellHeader{typ: TypeQuantile, name: name, owner: qt}
	return qt
}

// CreateQuantile registers a new quantile estimator targeting q, with
// initial estimate base and adjustment step delta.
func CreateQuantile(r *Registry, name string, q, base, delta float64) (*Quantile, error) {
	if q <= 0 || q >= 1 {
		return nil, &Error{Op: "create", Name: name, Err: ErrInvalidQuantile}
	}
	cell, err := r.create(name, TypeQuantile, func() Cell { return newQuantile(name, q, base, delta) }, false)
	if err != nil {
		return nil, err
	}
	return cell.(*Quantile), nil
}

// OpenQuantile is the idempotent get-or-create form.
func OpenQuantile(r *Registry, name string, q, base, delta float64) (*Quantile, error) {
	if q <= 0 || q >= 1 {
		return nil, &Error{Op: "open", Name: name, Err: ErrInvalidQuantile}
	}
	cell, err := r.create(name, TypeQuantile, func() Cell { return newQuantile(name, q, base, delta) }, true)
	if err != nil {
		return nil, err
	}
	return cell.(*Quantile), nil
}

func (qt *Quantile) estimate() float64 {
	return qt.base + float64(qt.m.Load())*qt.delta
}

// Update draws a Bernoulli(q) trial and nudges m by +-1 depending on
// whether v landed above or below the current estimate and whether the
// trial succeeded.
func (qt *Quantile) Update(v float64) {
	e := qt.registry.epoch.Current()
	est := qt.estimate()
	trial := qt.registry.rng.Float64() < qt.q

	switch {
	case v < est && !trial:
		qt.m.Add(-1)
	case v >= est && trial:
		qt.m.Add(1)
	}
	qt.count[e].Add(1)
}

func (qt *Quantile) readReset(e Epoch) (PollValue, ReadStatus) {
	c := qt.count[e].Swap(0)
	return PollValue{Quantile: QuantReading{
		Q:      qt.q,
		Sample: qt.estimate(),
		Count:  c,
	}}, StatusOK
}
