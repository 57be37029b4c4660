package optics

import "sync/atomic"

/*
Epoch is the parity bit selecting which of a cell's two slots is
currently writable: live = current epoch, retired = current epoch ^ 1.
A recorder always indexes its atomic update by the live slot; the poller
always indexes its read-and-reset by the retired slot, so the two never
touch the same word.

Manager owns exactly that bit, plus a pair of retire lists used to defer
freeing a closed cell until it is provably unreachable by any in-flight
reader. Two epochs suffice because a recorder that observed epoch e
cannot still be running by the time two flips have elapsed, provided
flips are separated by at least one straggler-grace interval. This is
an intentional simplification over full epoch-based reclamation, not a
general-purpose EBR implementation - there is no thread registration,
no hazard pointers, just the two-flip rule and a short sleep.

retire is a lock-free singly-linked stack per epoch, pushed with a
release-CAS the same way this package's registry links cells into its
traversal list: the push must be visible to a later flip under acquire,
without requiring the pusher and the flipper to coordinate any other
way.
*/

// Epoch is one of {0, 1}.
type Epoch uint32

type retireNode struct {
	cell Cell
	next *retireNode
}

// Manager is the epoch-based reclamation core. It owns no cells itself;
// Registry.closeCell enqueues onto it via Retire, and Poller.PollAt
// drains it via Flip.
type Manager struct {
	counter atomic.Uint64 // current epoch = counter.Load() & 1
	lastTS  atomic.Int64  // timestamp recorded by the previous Flip

	retire [2]atomic.Pointer[retireNode]
}

// NewManager returns a Manager whose first Flip will compute elapsed
// against now.
func NewManager(now Timestamp) *Manager {
	m := &Manager{}
	m.lastTS.Store(int64(now))
	return m
}

// Current is an acquire-load of the global counter, modulo 2. All
// record-path cell-body atomics use relaxed ordering; only this load
// uses acquire, so the subsequent slot access can never be hoisted
// above the epoch selection.
func (m *Manager) Current() Epoch {
	return Epoch(m.counter.Load() & 1)
}

// Retire pushes cell onto the retire list of the currently live epoch.
// The node becomes visible to readers only once a later Flip observes
// it under acquire; that Flip drains it at the *following* Flip (see
// the package comment above for why two flips, not one).
func (m *Manager) Retire(cell Cell) {
	e := m.Current()
	node := &retireNode{cell: cell}
	for {
		head := m.retire[e].Load()
		node.next = head
		if m.retire[e].CompareAndSwap(head, node) {
			return
		}
	}
}

// Flip frees everything retired on the epoch that has been quiescent
// since the previous flip, then atomically advances the global counter.
// It returns the epoch that was live immediately before the advance
// (now retired and safe for the poller to read-and-reset) plus the
// timestamp recorded by the previous Flip, for elapsed computation.
func (m *Manager) Flip(now Timestamp) (retired Epoch, prevTS Timestamp) {
	retired = m.Current()
	m.drain(retired ^ 1)

	prevTS = Timestamp(m.lastTS.Swap(int64(now)))
	m.counter.Add(1)
	return retired, prevTS
}

func (m *Manager) drain(e Epoch) {
	head := m.retire[e].Swap(nil)
	for head != nil {
		head.cell = nil
		head = head.next
	}
}
