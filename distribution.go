package optics

import (
	"math"
	"sort"
	"sync"

	"golang.org/x/exp/constraints"
)

// DistributionReservoirSize is R, the fixed reservoir capacity per
// slot.
const DistributionReservoirSize = 200

// reservoirSlot is one half of a Distribution's double buffer: a short,
// bounded spinlock-class mutex guarding the running count, max, and the
// reservoir itself. Readers only ever touch the retired slot, so they
// never contend with steady-state recorders targeting the live slot.
type reservoirSlot struct {
	mu      sync.Mutex
	n       int64
	max     float64
	samples [DistributionReservoirSize]float64
}

// Distribution is a reservoir-sampling metric: exact percentiles while
// n <= R, uniform-random eviction afterwards.
type Distribution struct {
	cellHeader
	slots [2]reservoirSlot
}

func newDistribution(name string) *Distribution {
	d := &Distribution{}
	d.cellHeader = cellHeader{typ: TypeDistribution, name: name, owner: d}
	return d
}

// CreateDistribution registers a new distribution metric.
func CreateDistribution(r *Registry, name string) (*Distribution, error) {
	cell, err := r.create(name, TypeDistribution, func() Cell { return newDistribution(name) }, false)
	if err != nil {
		return nil, err
	}
	return cell.(*Distribution), nil
}

// OpenDistribution is the idempotent get-or-create form.
func OpenDistribution(r *Registry, name string) (*Distribution, error) {
	cell, err := r.create(name, TypeDistribution, func() Cell { return newDistribution(name) }, true)
	if err != nil {
		return nil, err
	}
	return cell.(*Distribution), nil
}

// Record implements the reservoir update: while n < R every sample is
// kept; afterwards, sample i in [0, n] is kept only if i < R, giving
// every observed value an equal R/n chance of occupying a slot.
func (d *Distribution) Record(v float64) {
	e := d.registry.epoch.Current()
	slot := &d.slots[e]

	slot.mu.Lock()
	var i int64
	if slot.n < DistributionReservoirSize {
		i = slot.n
	} else {
		i = int64(d.registry.rng.Uint64N(uint64(slot.n + 1)))
	}
	if i < DistributionReservoirSize {
		slot.samples[i] = v
	}
	slot.max = math.Max(slot.max, v)
	slot.n++
	slot.mu.Unlock()
}

// readReset try-locks the retired slot; if it is held (contending with
// an in-flight Record on the very small window between epoch selection
// and the slot mutex, which can only happen for the live slot in
// practice, but the lock is attempted defensively regardless), it
// returns StatusBusy and leaves the slot untouched for the next sweep.
func (d *Distribution) readReset(e Epoch) (PollValue, ReadStatus) {
	slot := &d.slots[e]
	if !slot.mu.TryLock() {
		return PollValue{}, StatusBusy
	}

	n := slot.n
	max := slot.max
	count := n
	if count > DistributionReservoirSize {
		count = DistributionReservoirSize
	}
	samples := make([]float64, count)
	copy(samples, slot.samples[:count])
	slot.n = 0
	slot.max = 0
	slot.mu.Unlock()

	sort.Float64s(samples)
	reading := DistReading{N: n, Max: max}
	if len(samples) > 0 {
		reading.P50 = orderStatistic(samples, 0.5)
		reading.P90 = orderStatistic(samples, 0.9)
		reading.P99 = orderStatistic(samples, 0.99)
	}
	return PollValue{Dist: reading}, StatusOK
}

// orderStatistic returns the floor(q*len(sorted))-th smallest element of
// sorted (1-indexed: q=0.5 over a 100-element slice returns its 50th
// smallest value), clamped to the available range. Written as a small
// generic helper over constraints.Ordered, the same shape as the
// generic ring buffer in joeycumines-go-utilpkg/catrate/ring.go.
func orderStatistic[E constraints.Ordered](sorted []E, q float64) E {
	n := len(sorted)
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return sorted[k-1]
}
