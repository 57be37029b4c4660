package optics

import "sync/atomic"

const maxHistogramBuckets = 8

// Histogram is a bucketed count: N half-open buckets derived from N+1
// strictly-ascending edges, plus below/above overflow counts, double-
// buffered. Edges are shared across both slots; only the counts are
// per-slot.
type Histogram struct {
	cellHeader
	edges  []float64
	counts [2][]atomic.Int64
	below  [2]atomic.Int64
	above  [2]atomic.Int64
}

func validateEdges(edges []float64) error {
	if len(edges) < 2 || len(edges) > maxHistogramBuckets+1 {
		return ErrInvalidEdges
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return ErrInvalidEdges
		}
	}
	return nil
}

func newHistogram(name string, edges []float64) *Histogram {
	h := &Histogram{edges: edges}
	h.cellHeader = cellHeader{typ: TypeHistogram, name: name, owner: h}
	n := len(edges) - 1
	h.counts[0] = make([]atomic.Int64, n)
	h.counts[1] = make([]atomic.Int64, n)
	return h
}

// CreateHistogram registers a new histogram with the given bucket edges
// (N+1 strictly ascending thresholds, N <= 8 buckets).
func CreateHistogram(r *Registry, name string, edges []float64) (*Histogram, error) {
	if err := validateEdges(edges); err != nil {
		return nil, &Error{Op: "create", Name: name, Err: err}
	}
	cell, err := r.create(name, TypeHistogram, func() Cell { return newHistogram(name, edges) }, false)
	if err != nil {
		return nil, err
	}
	return cell.(*Histogram), nil
}

// OpenHistogram is the idempotent get-or-create form. edges is only
// used if the histogram does not already exist.
func OpenHistogram(r *Registry, name string, edges []float64) (*Histogram, error) {
	if err := validateEdges(edges); err != nil {
		return nil, &Error{Op: "open", Name: name, Err: err}
	}
	cell, err := r.create(name, TypeHistogram, func() Cell { return newHistogram(name, edges) }, true)
	if err != nil {
		return nil, err
	}
	return cell.(*Histogram), nil
}

// Record locates v's half-open bucket [edges[j], edges[j+1]) by binary
// search over the shared edges and fetch_adds its live-slot count;
// values outside the edge range increment below/above instead.
func (h *Histogram) Record(v float64) {
	e := h.registry.epoch.Current()
	j, ok := h.bucketIndex(v)
	if !ok {
		if v < h.edges[0] {
			h.below[e].Add(1)
		} else {
			h.above[e].Add(1)
		}
		return
	}
	h.counts[e][j].Add(1)
}

func (h *Histogram) bucketIndex(v float64) (int, bool) {
	if v < h.edges[0] || v >= h.edges[len(h.edges)-1] {
		return 0, false
	}
	lo, hi := 0, len(h.edges)-2
	for lo < hi {
		mid := (lo + hi) / 2
		if v < h.edges[mid+1] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, true
}

func (h *Histogram) readReset(e Epoch) (PollValue, ReadStatus) {
	counts := make([]int64, len(h.counts[e]))
	for i := range counts {
		counts[i] = h.counts[e][i].Swap(0)
	}
	below := h.below[e].Swap(0)
	above := h.above[e].Swap(0)
	return PollValue{Histo: HistoReading{
		Edges:  h.edges,
		Counts: counts,
		Below:  below,
		Above:  above,
	}}, StatusOK
}
