// Package stdout implements a minimal reference backend: one structured
// zerolog line per emitted metric tuple. It exists to show the Backend
// contract satisfied end to end, not as a production export path.
package stdout

import (
	"github.com/rs/zerolog"

	"github.com/tef/optics"
)

// Backend writes each emitted metric tuple as one zerolog event.
type Backend struct {
	log zerolog.Logger
}

// New returns a Backend logging through log.
func New(log zerolog.Logger) *Backend { return &Backend{log: log} }

// OnEvent implements optics.Backend.
func (b *Backend) OnEvent(kind optics.EventKind, p *optics.Emission) {
	if kind != optics.EventMetric {
		return
	}
	b.log.Info().
		Int64("ts", int64(p.TS)).
		Str("key", p.Key).
		Float64("value", p.Value).
		Msg("metric")
}

// OnFree implements optics.Backend.
func (b *Backend) OnFree() {}
