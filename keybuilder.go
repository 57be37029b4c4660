package optics

import (
	"fmt"
	"regexp"
)

// keyBufferCap is the fixed capacity of a KeyBuilder.
const keyBufferCap = 256

// maxNameLen bounds every registered metric name.
const maxNameLen = 255

// maxPrefixLen bounds a registry's human-readable prefix.
const maxPrefixLen = 64

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidName reports whether name is non-empty, within maxNameLen, and
// matches [A-Za-z0-9_.-]+. Name validity could be left advisory, but a
// library with no enforcement here is a trap for every caller, so this
// rejects outright instead of warning.
func ValidName(name string) bool {
	if name == "" || len(name) > maxNameLen {
		return false
	}
	return nameRe.MatchString(name)
}

// KeyBuilder is a fixed-capacity dotted-path builder. Push/Pop let a
// caller build a shared root ("prefix.host.name") once and cheaply
// append/remove a per-emission suffix without reallocating, which is
// exactly how PollValue.Normalize assembles one key per emission.
type KeyBuilder struct {
	buf [keyBufferCap]byte
	n   int
}

// Len returns the current length of the built key.
func (k *KeyBuilder) Len() int { return k.n }

// String returns the key built so far.
func (k *KeyBuilder) String() string { return string(k.buf[:k.n]) }

// Reset empties the builder.
func (k *KeyBuilder) Reset() { k.n = 0 }

// Push appends "."+suffix, omitting the leading dot if the builder is
// currently empty, and returns the pre-push length for a later Pop.
// An empty suffix is a no-op. Overflow truncates nothing (the push is
// simply rejected) and returns -1; callers must check for -1 before
// trusting the result.
func (k *KeyBuilder) Push(suffix string) int {
	pos := k.n
	if suffix == "" {
		return pos
	}
	need := len(suffix)
	if k.n > 0 {
		need++
	}
	if k.n+need > keyBufferCap {
		return -1
	}
	if k.n > 0 {
		k.buf[k.n] = '.'
		k.n++
	}
	k.n += copy(k.buf[k.n:], suffix)
	return pos
}

// Pushf is Push with fmt.Sprintf formatting applied to the suffix first.
func (k *KeyBuilder) Pushf(format string, args ...any) int {
	return k.Push(fmt.Sprintf(format, args...))
}

// Pop restores the builder to the length returned by a prior Push.
func (k *KeyBuilder) Pop(pos int) {
	if pos >= 0 && pos <= k.n {
		k.n = pos
	}
}
