package optics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tef/optics/backend/memory"
)

func TestPollerEmitsBeginMetricDoneInOrder(t *testing.T) {
	r := New(0)
	mem := memory.New()
	p := NewPoller(r, WithBackend(mem))

	c, err := CreateCounter(r, "reqs")
	require.NoError(t, err)
	c.Inc(5)

	p.PollAt(1)

	sweeps := mem.Sweeps()
	require.Len(t, sweeps, 1)
	require.Equal(t, []Emission{{TS: 1, Key: "reqs", Value: 5}}, sweeps[0].Metrics)
}

// TestPollerBusyCellSkipped confirms a StatusBusy cell contributes no
// emissions to the sweep that hit it, and that the slot it left
// untouched is still read out correctly two sweeps later (once the
// epoch parity cycles back to it).
func TestPollerBusyCellSkipped(t *testing.T) {
	r := New(0)
	mem := memory.New()
	p := NewPoller(r, WithBackend(mem))

	d, err := CreateDistribution(r, "latency")
	require.NoError(t, err)
	d.Record(1) // lands in the slot for epoch 0, the current epoch

	e := r.epoch.Current()
	d.slots[e].mu.Lock()

	p.PollAt(1) // flips to epoch 1; retired (0) is locked, so this is a busy skip
	require.Empty(t, mem.Last())

	d.slots[e].mu.Unlock()

	p.PollAt(2) // retired is now epoch 1, never touched: an empty read
	require.Equal(t, 0.0, mem.Last()["latency.count"])

	p.PollAt(3) // retired is epoch 0 again: the sample from step one, still there
	last := mem.Last()
	require.Equal(t, 1.0, last["latency.count"])
	require.Equal(t, 1.0, last["latency.max"])
}

func TestPollerCloseCallsBackendOnFree(t *testing.T) {
	r := New(0)
	mem := memory.New()
	p := NewPoller(r, WithBackend(mem))

	require.False(t, mem.Freed())
	p.Close()
	require.True(t, mem.Freed())
}

func TestPollerSkipsClosedCells(t *testing.T) {
	r := New(0)
	mem := memory.New()
	p := NewPoller(r, WithBackend(mem))

	c1, err := CreateCounter(r, "a")
	require.NoError(t, err)
	c2, err := CreateCounter(r, "b")
	require.NoError(t, err)
	c1.Inc(1)
	c2.Inc(2)

	require.NoError(t, c1.Close())

	p.PollAt(1)
	require.Equal(t, map[string]float64{"b": 2}, mem.Last())
}
