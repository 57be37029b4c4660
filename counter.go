package optics

import "sync/atomic"

// Counter is a monotonically-accumulated count, double-buffered across
// two signed 64-bit atomics.
type Counter struct {
	cellHeader
	slots [2]atomic.Int64
}

func newCounter(name string) *Counter {
	c := &Counter{}
	c.cellHeader = cellHeader{typ: TypeCounter, name: name, owner: c}
	return c
}

// CreateCounter registers a new counter, failing with ErrAlreadyExists
// if name is already registered under any type.
func CreateCounter(r *Registry, name string) (*Counter, error) {
	cell, err := r.create(name, TypeCounter, func() Cell { return newCounter(name) }, false)
	if err != nil {
		return nil, err
	}
	return cell.(*Counter), nil
}

// OpenCounter is the idempotent get-or-create form: it returns the
// existing counter if name is already registered as a counter, and
// ErrTypeMismatch if it is registered as a different type.
func OpenCounter(r *Registry, name string) (*Counter, error) {
	cell, err := r.create(name, TypeCounter, func() Cell { return newCounter(name) }, true)
	if err != nil {
		return nil, err
	}
	return cell.(*Counter), nil
}

// Inc adds delta to the counter's live slot. The only atomic op on the
// record path: fetch_add with relaxed ordering.
func (c *Counter) Inc(delta int64) {
	e := c.registry.epoch.Current()
	c.slots[e].Add(delta)
}

func (c *Counter) readReset(e Epoch) (PollValue, ReadStatus) {
	v := c.slots[e].Swap(0)
	return PollValue{Counter: v}, StatusOK
}
