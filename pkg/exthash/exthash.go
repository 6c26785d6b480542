// Package exthash provides an in-memory extendible-hashing map: point
// lookup with directory-guided bucket expansion. It is unordered — callers
// needing range queries or ordered iteration want package bptreemap
// instead.
package exthash

import (
	"fmt"
	"log"
	"math/bits"

	"github.com/ssargent/indexkit/pkg/mapkit"
)

// DefaultSlots is the fallback bucket capacity if a caller-supplied value
// is not positive. The reference value from the source specification is 4.
const DefaultSlots = 4

// maxLocalDepth bounds the recursive splitting triggered by pathological
// key collisions (more than Slots keys sharing every hash prefix up to
// this depth). Past it, Put reports a capacity overflow instead of
// recursing forever; see spec.md §7, CapacityOverflow.
const maxLocalDepth = 56

// HashFunc produces a stable, well-distributed hash for a key. Callers own
// the distribution quality; a poor hash function degrades directly into
// the pathological-collision failure mode described in spec.md §9.
type HashFunc[K comparable] func(K) uint64

// bucket holds up to Slots key/value pairs plus the bookkeeping needed to
// decide when and how it must split. localDepth is tracked explicitly
// (rather than derived from nSplit alone) so that every directory slot
// aliasing a bucket can be rewritten consistently on a split — see
// spec.md §9's open question about the faithful reimplementation.
type bucket[K comparable, V any] struct {
	keys       []K
	values     []V
	localDepth int
	nSplit     int
}

func newBucket[K comparable, V any](localDepth int) *bucket[K, V] {
	return &bucket[K, V]{localDepth: localDepth}
}

func (b *bucket[K, V]) full(slots int) bool {
	return len(b.keys) >= slots
}

func (b *bucket[K, V]) append(k K, v V) {
	b.keys = append(b.keys, k)
	b.values = append(b.values, v)
}

// ExtHashMap is an unordered map using directory-based extendible hashing.
// The zero value is not usable; construct with New.
type ExtHashMap[K comparable, V any] struct {
	hash    HashFunc[K]
	slots   int
	depth0  int // D0: log2(initial directory size)
	dir     []*bucket[K, V]
	buckets []*bucket[K, V] // physical store of distinct buckets
	access  mapkit.AccessCounter
}

// New creates an ExtHashMap whose directory starts at the next power of
// two at or above initSize (the reference default is 11, rounding up to
// 16). slots <= 0 falls back to DefaultSlots.
func New[K comparable, V any](initSize, slots int, hash HashFunc[K]) *ExtHashMap[K, V] {
	if slots <= 0 {
		slots = DefaultSlots
	}
	if initSize < 1 {
		initSize = 1
	}
	mod := nextPowerOfTwo(initSize)
	depth0 := bits.TrailingZeros(uint(mod))

	root := newBucket[K, V](0)
	dir := make([]*bucket[K, V], mod)
	for i := range dir {
		dir[i] = root
	}

	return &ExtHashMap[K, V]{
		hash:    hash,
		slots:   slots,
		depth0:  depth0,
		dir:     dir,
		buckets: []*bucket[K, V]{root},
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (m *ExtHashMap[K, V]) globalDepth() int {
	return bits.TrailingZeros(uint(len(m.dir)))
}

func (m *ExtHashMap[K, V]) index(k K) uint64 {
	return m.hash(k) % uint64(len(m.dir))
}

// Get returns the value for k, incrementing the access counter once for
// the single bucket inspected.
func (m *ExtHashMap[K, V]) Get(k K) (V, bool) {
	b := m.dir[m.index(k)]
	m.access.Inc()
	for i, key := range b.keys {
		if key == k {
			return b.values[i], true
		}
	}
	var zero V
	return zero, false
}

// Put inserts k/v unconditionally — duplicate detection is not required;
// a prior value for the same key remains in the bucket, and Get returns
// whichever slot the linear scan reaches first (see spec.md §9). It
// returns a non-nil error only on the pathological CapacityOverflow case:
// more than Slots keys sharing a hash prefix deeper than maxLocalDepth.
func (m *ExtHashMap[K, V]) Put(k K, v V) error {
	i := m.index(k)
	b := m.dir[i]
	if !b.full(m.slots) {
		b.append(k, v)
		return nil
	}
	return m.split(b, k, v)
}

// split implements the insertion-triggered bucket split (spec.md §4.2).
// If the overflowing bucket's local depth has caught up with the global
// depth, the directory is doubled first so a new bit of addressing exists
// to separate the two halves. The bucket's contents (plus the pending
// insert) are then redistributed between two fresh buckets, and every
// directory slot that aliased the old bucket is rewritten — not just the
// two slots the new keys land in.
func (m *ExtHashMap[K, V]) split(old *bucket[K, V], k K, v V) error {
	if old.localDepth >= maxLocalDepth {
		return fmt.Errorf("exthash: capacity overflow: more than %d keys share a %d-bit hash prefix", m.slots, maxLocalDepth)
	}

	if old.localDepth == m.globalDepth() {
		m.doubleDirectory()
	}

	newDepth := old.localDepth + 1
	b0 := newBucket[K, V](newDepth) // bit at position old.localDepth == 0
	b1 := newBucket[K, V](newDepth) // bit at position old.localDepth == 1
	b0.nSplit = old.nSplit + 1
	b1.nSplit = old.nSplit + 1

	splitBit := old.localDepth
	place := func(key K, val V) {
		if (m.hash(key)>>splitBit)&1 == 0 {
			b0.append(key, val)
		} else {
			b1.append(key, val)
		}
	}
	for i, key := range old.keys {
		place(key, old.values[i])
	}
	place(k, v)

	// Replace old in the physical store with the two new buckets.
	m.buckets = append(m.buckets, b0, b1)
	for idx, phys := range m.buckets {
		if phys == old {
			m.buckets = append(m.buckets[:idx], m.buckets[idx+1:]...)
			break
		}
	}

	// Rewrite every directory slot that aliased old, not merely the two
	// slots hash(k) mod mod and its sibling.
	for j := range m.dir {
		if m.dir[j] != old {
			continue
		}
		if (uint64(j)>>splitBit)&1 == 0 {
			m.dir[j] = b0
		} else {
			m.dir[j] = b1
		}
	}

	if b0.full(m.slots) {
		log.Printf("exthash: bucket still full after split at depth %d, recursing", newDepth)
		return m.redistributeOverflow(b0)
	}
	if b1.full(m.slots) {
		log.Printf("exthash: bucket still full after split at depth %d, recursing", newDepth)
		return m.redistributeOverflow(b1)
	}
	return nil
}

// redistributeOverflow re-splits a bucket that is still over capacity
// immediately after a split (more than Slots keys share the deeper prefix
// too). It re-runs split by draining the bucket's last key back through
// the insertion path. A bucket holding exactly Slots keys is left as is.
func (m *ExtHashMap[K, V]) redistributeOverflow(b *bucket[K, V]) error {
	if len(b.keys) <= m.slots {
		return nil
	}
	lastIdx := len(b.keys) - 1
	k, v := b.keys[lastIdx], b.values[lastIdx]
	b.keys = b.keys[:lastIdx]
	b.values = b.values[:lastIdx]
	return m.split(b, k, v)
}

// doubleDirectory appends len(dir) new entries aliasing the lower half,
// then doubles mod (expressed here as the new directory length).
func (m *ExtHashMap[K, V]) doubleDirectory() {
	old := m.dir
	m.dir = make([]*bucket[K, V], len(old)*2)
	copy(m.dir, old)
	copy(m.dir[len(old):], old)
}

// EntrySet enumerates every distinct bucket's contents by scanning the
// physical store, so each bucket is visited exactly once regardless of how
// many directory slots alias it.
func (m *ExtHashMap[K, V]) EntrySet() []mapkit.Entry[K, V] {
	var out []mapkit.Entry[K, V]
	for _, b := range m.buckets {
		for i, k := range b.keys {
			out = append(out, mapkit.Entry[K, V]{Key: k, Value: b.values[i]})
		}
	}
	return out
}

// Size returns nominal capacity (Slots * number of distinct buckets), not
// live population — see spec.md §4.2.
func (m *ExtHashMap[K, V]) Size() int {
	return m.slots * len(m.buckets)
}

// AccessCount returns the number of buckets inspected across Get calls
// since construction or the last ResetAccessCount.
func (m *ExtHashMap[K, V]) AccessCount() uint64 {
	return m.access.Count()
}

// ResetAccessCount zeroes the access counter.
func (m *ExtHashMap[K, V]) ResetAccessCount() {
	m.access.Reset()
}
