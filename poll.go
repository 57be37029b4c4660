package optics

import "fmt"

// DistReading is a Distribution's read-and-reset result: the sample
// count observed in the window, the running max, and the three
// percentiles computed from the copied reservoir prefix.
type DistReading struct {
	N             int64
	Max           float64
	P50, P90, P99 float64
}

// HistoReading is a Histogram's read-and-reset result.
type HistoReading struct {
	Edges  []float64 // shared, not reset; len(Edges) == len(Counts)+1
	Counts []int64
	Below  int64
	Above  int64
}

// QuantReading is a Quantile estimator's read-and-reset result.
type QuantReading struct {
	Q      float64
	Sample float64
	Count  int64
}

// PollValue is the transient record produced for one cell during one
// sweep: owned solely by the poller for the duration of that sweep, and
// normalized into zero or more flat emissions before being discarded.
type PollValue struct {
	Host    string
	Prefix  string
	Name    string
	Type    CellType
	TS      Timestamp
	Elapsed float64 // seconds, rounded up to a 1s minimum

	Counter int64

	Gauge    float64
	GaugeSet bool // false means "no value was set in this window"

	Dist     DistReading
	Histo    HistoReading
	Quantile QuantReading
}

// Emission is one flat (timestamp, dotted-key, value) tuple, the unit a
// Backend receives via EventMetric.
type Emission struct {
	TS    Timestamp
	Key   string
	Value float64
}

// rate divides v by p.Elapsed, clamped to a 1s floor.
func (p *PollValue) rate(v float64) float64 {
	elapsed := p.Elapsed
	if elapsed < 1 {
		elapsed = 1
	}
	return v / elapsed
}

// Normalize maps p into its per-type emissions (a flat key/value per
// counter and quantile; count, p50, p90, p99 and max for a distribution;
// below, one per bucket, and above for a histogram; zero or one for a
// gauge). It is re-entrant, since it only reads p and a stack-local
// KeyBuilder. The Poller calls it once per cell read; the bundled
// backends (backend/stdout, backend/memory) only receive the resulting
// Emissions and do not call it themselves.
func (p *PollValue) Normalize(emit func(Emission)) {
	var kb KeyBuilder
	kb.Push(p.Prefix)
	kb.Push(p.Host)
	kb.Push(p.Name)
	rootPos := kb.Len()
	rootKey := kb.String()

	withSuffix := func(suffix string) string {
		if suffix == "" {
			return rootKey
		}
		kb.Push(suffix)
		key := kb.String()
		kb.Pop(rootPos)
		return key
	}

	switch p.Type {
	case TypeCounter:
		emit(Emission{p.TS, rootKey, p.rate(float64(p.Counter))})

	case TypeGauge:
		if p.GaugeSet {
			emit(Emission{p.TS, rootKey, p.Gauge})
		}

	case TypeDistribution:
		emit(Emission{p.TS, withSuffix("count"), p.rate(float64(p.Dist.N))})
		emit(Emission{p.TS, withSuffix("p50"), p.Dist.P50})
		emit(Emission{p.TS, withSuffix("p90"), p.Dist.P90})
		emit(Emission{p.TS, withSuffix("p99"), p.Dist.P99})
		emit(Emission{p.TS, withSuffix("max"), p.Dist.Max})

	case TypeHistogram:
		emit(Emission{p.TS, withSuffix("below"), p.rate(float64(p.Histo.Below))})
		for j, c := range p.Histo.Counts {
			suffix := fmt.Sprintf("<%v>", p.Histo.Edges[j+1])
			emit(Emission{p.TS, withSuffix(suffix), p.rate(float64(c))})
		}
		emit(Emission{p.TS, withSuffix("above"), p.rate(float64(p.Histo.Above))})

	case TypeQuantile:
		emit(Emission{p.TS, rootKey, p.Quantile.Sample})
	}
}
