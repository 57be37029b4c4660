package optics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagerCurrentStartsAtZero(t *testing.T) {
	m := NewManager(0)
	require.Equal(t, Epoch(0), m.Current())
}

func TestManagerFlipTogglesCurrent(t *testing.T) {
	m := NewManager(0)

	retired, prevTS := m.Flip(1)
	require.Equal(t, Epoch(0), retired)
	require.Equal(t, Timestamp(0), prevTS)
	require.Equal(t, Epoch(1), m.Current())

	retired, prevTS = m.Flip(2)
	require.Equal(t, Epoch(1), retired)
	require.Equal(t, Timestamp(1), prevTS)
	require.Equal(t, Epoch(0), m.Current())
}

// fakeCell is the minimum implementation of Cell needed to exercise
// Manager.Retire/drain in isolation, without pulling in Registry.
type fakeCell struct {
	cellHeader
}

func (c *fakeCell) readReset(Epoch) (PollValue, ReadStatus) { return PollValue{}, StatusOK }

func TestManagerRetireDrainsTwoFlipsLater(t *testing.T) {
	m := NewManager(0)
	cell := &fakeCell{}
	cell.cellHeader = cellHeader{typ: TypeCounter, name: "x", owner: cell}

	// retire while epoch 0 is current
	m.Retire(cell)
	require.NotNil(t, m.retire[0].Load())

	// first flip: drains "other" (1), leaving our node on 0 untouched
	m.Flip(1)
	require.NotNil(t, m.retire[0].Load())
	require.Nil(t, m.retire[1].Load())

	// second flip: drains 0, our node is gone
	m.Flip(2)
	require.Nil(t, m.retire[0].Load())
}
