package optics

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Registry holds one process region's named metrics: a name-indexed map
// (mutex-guarded) and a lock-free intrusive list of live cells reachable
// without the mutex. Every cell present in the map is also reachable
// from the list head; both are updated together, under mu.
type Registry struct {
	mu     sync.Mutex
	prefix string
	byName map[string]Cell
	head   atomic.Pointer[cellHeader]

	epoch *Manager
	rng   RNG
	clock Clock
	host  string
	log   zerolog.Logger
}

// Option configures a Registry at construction, the same shape
// zerolog.WithZerolog and logiface.LoggerFactory.WithOptions use.
type Option func(*Registry)

func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		if len(prefix) > maxPrefixLen {
			prefix = prefix[:maxPrefixLen]
		}
		r.prefix = prefix
	}
}

func WithHost(host string) Option { return func(r *Registry) { r.host = host } }
func WithRNG(rng RNG) Option      { return func(r *Registry) { r.rng = rng } }
func WithClock(c Clock) Option    { return func(r *Registry) { r.clock = c } }
func WithLogger(l zerolog.Logger) Option { return func(r *Registry) { r.log = l } }

// New creates an empty registry with its epoch clock seeded at now.
func New(now Timestamp, opts ...Option) *Registry {
	r := &Registry{
		byName: make(map[string]Cell, 64),
		epoch:  NewManager(now),
		rng:    defaultRNG{},
		clock:  systemClock{},
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewAt is an alias of New, for call sites that want to make the epoch
// clock's seed timestamp explicit even when it's just the wall clock:
// NewAt(r.clock.Now()) reads the same as New(r.clock.Now()).
func NewAt(now Timestamp, opts ...Option) *Registry { return New(now, opts...) }

func (r *Registry) clockNow() Timestamp { return r.clock.Now() }

// SetPrefix replaces the registry's key prefix, truncating to
// maxPrefixLen.
func (r *Registry) SetPrefix(prefix string) {
	if len(prefix) > maxPrefixLen {
		prefix = prefix[:maxPrefixLen]
	}
	r.mu.Lock()
	r.prefix = prefix
	r.mu.Unlock()
}

func (r *Registry) Prefix() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prefix
}

func (r *Registry) Host() string { return r.host }

// Get returns the named cell, if any.
func (r *Registry) Get(name string) (Cell, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byName[name]
	return c, ok
}

// create is the shared insert path behind every CreateX/OpenX wrapper.
// allowExisting selects create (false: AlreadyExists on collision) vs
// open (true: idempotent get-or-create, failing only on a type
// mismatch).
func (r *Registry) create(name string, typ CellType, factory func() Cell, allowExisting bool) (Cell, error) {
	op := "create"
	if allowExisting {
		op = "open"
	}
	if !ValidName(name) {
		return nil, &Error{Op: op, Name: name, Err: ErrInvalidName}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		if !allowExisting {
			return nil, &Error{Op: op, Name: name, Err: ErrAlreadyExists}
		}
		if existing.Type() != typ {
			return nil, &Error{Op: op, Name: name, Err: ErrTypeMismatch}
		}
		return existing, nil
	}

	cell := factory()
	h := cell.header()
	h.registry = r
	h.name = name
	h.typ = typ

	r.link(h)
	r.byName[name] = cell
	return cell, nil
}

// link inserts h at the head of the intrusive list. Always called under
// mu, so the only writer is this goroutine; the store into head is
// still a release-store (atomic.Pointer.Store), publishing h and its
// already-set next/prev to lock-free ForEach traversals without them
// taking mu.
func (r *Registry) link(h *cellHeader) {
	head := r.head.Load()
	h.next.Store(head)
	h.prev = nil
	if head != nil {
		head.prev = h
	}
	r.head.Store(h)
}

// unlink removes h from the intrusive list by patching its neighbours.
// Also called only under mu.
func (r *Registry) unlink(h *cellHeader) {
	next := h.next.Load()
	prev := h.prev
	if prev != nil {
		prev.next.Store(next)
	} else {
		r.head.Store(next)
	}
	if next != nil {
		next.prev = prev
	}
}

// closeCell unlinks h under mu, removes it from the name map, then
// retires it onto the epoch manager's currently-live retire list.
func (r *Registry) closeCell(h *cellHeader) error {
	r.mu.Lock()
	if c, ok := r.byName[h.name]; !ok || c.header() != h {
		r.mu.Unlock()
		return nil
	}
	delete(r.byName, h.name)
	r.unlink(h)
	r.mu.Unlock()

	r.epoch.Retire(h.owner)
	return nil
}

// ForEach is the lock-free traversal over every live cell: it visits
// every cell inserted before this call's head load, may or may not
// visit cells inserted concurrently, and never visits a freed cell
// (freeing is gated on two epoch flips after removal). fn returning
// false stops the traversal early.
func (r *Registry) ForEach(fn func(Cell) bool) {
	h := r.head.Load()
	for h != nil {
		if !fn(h.owner) {
			return
		}
		h = h.next.Load()
	}
}
