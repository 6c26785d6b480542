// Package linhash provides an in-memory linear-hashing map: point lookup
// with incremental, amortized bucket splitting and no directory. It is
// unordered — callers needing range queries want package bptreemap
// instead.
package linhash

import (
	"fmt"
	"strings"

	"github.com/ssargent/indexkit/pkg/mapkit"
)

// DefaultSlots is the fallback bucket capacity if a caller-supplied value
// is not positive. The reference value from the source specification is 4.
const DefaultSlots = 4

// maxChainDepth bounds the recursive re-insertion performed while
// redistributing a splitting bucket's overflow chain. spec.md §9 notes
// this recursion "cannot itself trigger a further split beyond the one
// already in progress" under normal conditions; this is a backstop against
// a pathological hash function defeating that assumption.
const maxChainDepth = 10_000

// HashFunc produces a stable, well-distributed hash for a key.
type HashFunc[K comparable] func(K) uint64

// bucket is one link in a home bucket's overflow chain.
type bucket[K comparable, V any] struct {
	keys   []K
	values []V
	next   *bucket[K, V]
}

func (b *bucket[K, V]) full(slots int) bool {
	return len(b.keys) >= slots
}

// tail walks to the last bucket in the chain starting at b.
func (b *bucket[K, V]) tail() *bucket[K, V] {
	for b.next != nil {
		b = b.next
	}
	return b
}

// LinHashMap is an unordered map using linear hashing with overflow
// chains. The zero value is not usable; construct with New.
type LinHashMap[K comparable, V any] struct {
	hash    HashFunc[K]
	slots   int
	hTable  []*bucket[K, V]
	mod1    int
	mod2    int
	split   int
	access  mapkit.AccessCounter
}

// New creates a LinHashMap with initSize home buckets (used directly as
// mod1; mod2 = 2*mod1). slots <= 0 falls back to DefaultSlots. initSize
// < 1 falls back to 1.
func New[K comparable, V any](initSize, slots int, hash HashFunc[K]) *LinHashMap[K, V] {
	if slots <= 0 {
		slots = DefaultSlots
	}
	if initSize < 1 {
		initSize = 1
	}
	hTable := make([]*bucket[K, V], initSize)
	for i := range hTable {
		hTable[i] = &bucket[K, V]{}
	}
	return &LinHashMap[K, V]{
		hash:   hash,
		slots:  slots,
		hTable: hTable,
		mod1:   initSize,
		mod2:   initSize * 2,
	}
}

// chainIndex computes the target chain for k under the current split
// state: i = hash(k) mod mod1; if i < split, i is recomputed mod mod2.
func (m *LinHashMap[K, V]) chainIndex(k K) int {
	i := int(m.hash(k) % uint64(m.mod1))
	if i < m.split {
		i = int(m.hash(k) % uint64(m.mod2))
	}
	return i
}

// Get walks the target chain, incrementing the access counter once per
// bucket visited, and returns the first slot whose key equals k.
func (m *LinHashMap[K, V]) Get(k K) (V, bool) {
	b := m.hTable[m.chainIndex(k)]
	for b != nil {
		m.access.Inc()
		for i, key := range b.keys {
			if key == k {
				return b.values[i], true
			}
		}
		b = b.next
	}
	var zero V
	return zero, false
}

// Put inserts k/v. Duplicates are permitted (see spec.md §4.3): a repeated
// key appends a second slot, and Get's first-match semantics mean only the
// earlier-scanned copy is visible, so re-puts are not idempotent.
func (m *LinHashMap[K, V]) Put(k K, v V) error {
	return m.put(k, v, 0)
}

func (m *LinHashMap[K, V]) put(k K, v V, depth int) error {
	if depth > maxChainDepth {
		return fmt.Errorf("linhash: exceeded max recursion depth %d during split re-insertion", maxChainDepth)
	}

	i := m.chainIndex(k)
	home := m.hTable[i]

	if !home.full(m.slots) {
		home.keys = append(home.keys, k)
		home.values = append(home.values, v)
		return nil
	}

	t := home.tail()
	if t != home && !t.full(m.slots) {
		t.keys = append(t.keys, k)
		t.values = append(t.values, v)
		return nil
	}
	t.next = &bucket[K, V]{}
	t.next.keys = append(t.next.keys, k)
	t.next.values = append(t.next.values, v)

	return m.splitAt(m.split, depth)
}

// splitAt performs the overflow-triggered split of the bucket at the
// current split pointer: its entire chain is collected, the slot is reset
// to a single empty bucket, a new empty bucket is appended to hTable, the
// split pointer advances, and every collected entry is reinserted through
// put (rehashing under the now-advanced split state routes each entry into
// one of the two chains). When split reaches mod1, a round completes and
// the moduli rotate.
func (m *LinHashMap[K, V]) splitAt(idx int, depth int) error {
	var collected []mapkit.Entry[K, V]
	for b := m.hTable[idx]; b != nil; b = b.next {
		for i, k := range b.keys {
			collected = append(collected, mapkit.Entry[K, V]{Key: k, Value: b.values[i]})
		}
	}

	m.hTable[idx] = &bucket[K, V]{}
	m.hTable = append(m.hTable, &bucket[K, V]{})
	m.split++

	if m.split == m.mod1 {
		m.split = 0
		m.mod1 = m.mod2
		m.mod2 = m.mod1 * 2
	}

	for _, e := range collected {
		if err := m.put(e.Key, e.Value, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Print renders each chain's layout, one line per home bucket index,
// listing the keys held at each link. Exposed for test and debugging
// inspection of the split state, not for production output formatting.
func (m *LinHashMap[K, V]) Print() string {
	var sb strings.Builder
	for i, home := range m.hTable {
		fmt.Fprintf(&sb, "[%d]", i)
		for b := home; b != nil; b = b.next {
			fmt.Fprintf(&sb, " %v", b.keys)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// EntrySet walks every home bucket and its overflow chain.
func (m *LinHashMap[K, V]) EntrySet() []mapkit.Entry[K, V] {
	var out []mapkit.Entry[K, V]
	for _, home := range m.hTable {
		for b := home; b != nil; b = b.next {
			for i, k := range b.keys {
				out = append(out, mapkit.Entry[K, V]{Key: k, Value: b.values[i]})
			}
		}
	}
	return out
}

// Size returns nominal capacity: Slots * (mod1 + split). Callers needing
// live population must traverse EntrySet — see spec.md §9.
func (m *LinHashMap[K, V]) Size() int {
	return m.slots * (m.mod1 + m.split)
}

// AccessCount returns the number of buckets inspected across Get calls
// since construction or the last ResetAccessCount.
func (m *LinHashMap[K, V]) AccessCount() uint64 {
	return m.access.Count()
}

// ResetAccessCount zeroes the access counter.
func (m *LinHashMap[K, V]) ResetAccessCount() {
	m.access.Reset()
}
