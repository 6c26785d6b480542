// Package bptreemap provides an in-memory, single-threaded B+Tree ordered
// map. It supports point lookup, ordered range scans via a leaf chain, and
// insertion with node splitting and root promotion. Deletion, persistence,
// and concurrent access are not supported — see package indexkit's design
// notes for the reasoning.
package bptreemap

import (
	"cmp"
	"log"

	"github.com/ssargent/indexkit/pkg/mapkit"
)

// DefaultOrder is the fallback branching factor if a caller-supplied order
// is too small. The reference value from the source specification is 5.
const DefaultOrder = 5

// findChildIndex determines which child pointer to follow for a given
// search key in an internal node.
//
//   - For internal node with separator keys [k1, k2, ..., kn] and children
//     [c0, c1, ..., cn]:
//   - If searchKey < k1, return 0 (follow c0)
//   - If k1 <= searchKey < k2, return 1 (follow c1)
//   - ...
//   - If searchKey >= kn, return n (follow cn)
//
// Linear scan; order is small enough that binary search buys nothing.
func findChildIndex[K cmp.Ordered](keys []K, searchKey K) int {
	for i, k := range keys {
		if searchKey < k {
			return i
		}
	}
	return len(keys)
}

// node is a single node in the tree, either internal or leaf.
//
// Internal nodes: keys are separators; children has len(keys)+1 entries;
// values is unused. Subtree[i] holds keys strictly less than key[i];
// subtree[n] holds keys >= key[n-1]. key[i] equals the smallest key
// reachable in subtree[i+1].
//
// Leaf nodes: keys and values are aligned; next chains to the leaf holding
// the next-greater keys (nil for the rightmost leaf).
type node[K cmp.Ordered, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V]
	values   []V
	next     *node[K, V]
}

// BPlusTreeMap is an ordered map keyed by a cmp.Ordered type. The zero
// value is not usable; construct with New.
type BPlusTreeMap[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	order  int
	access mapkit.AccessCounter
}

// New creates an empty BPlusTreeMap with the given order (maximum fanout).
// If order < 3, DefaultOrder is used. A node holds up to order-1 keys.
func New[K cmp.Ordered, V any](order int) *BPlusTreeMap[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTreeMap[K, V]{
		order: order,
		root: &node[K, V]{
			isLeaf: true,
			keys:   make([]K, 0, order-1),
			values: make([]V, 0, order-1),
		},
	}
}

// AccessCount returns the number of nodes visited across Get calls since
// construction or the last ResetAccessCount.
func (t *BPlusTreeMap[K, V]) AccessCount() uint64 {
	return t.access.Count()
}

// ResetAccessCount zeroes the access counter.
func (t *BPlusTreeMap[K, V]) ResetAccessCount() {
	t.access.Reset()
}

// Get performs a point lookup. It descends from the root, choosing at each
// internal node the first child whose separator exceeds k (else the
// rightmost child), scans the leaf for equality, and increments the access
// counter once per node visited.
func (t *BPlusTreeMap[K, V]) Get(k K) (V, bool) {
	current := t.root
	t.access.Inc()
	for !current.isLeaf {
		idx := findChildIndex(current.keys, k)
		current = current.children[idx]
		t.access.Inc()
	}
	for i, key := range current.keys {
		if key == k {
			return current.values[i], true
		}
	}
	var zero V
	return zero, false
}

// Put inserts k/v. A duplicate key is rejected: the insert is logged and
// ignored, and the map is left unchanged. There is no previous-value
// return.
func (t *BPlusTreeMap[K, V]) Put(k K, v V) {
	current := t.root
	var ancestors []*node[K, V]
	for !current.isLeaf {
		// Equal to any separator on the way down means the key already
		// exists somewhere in the right subtree it routes to.
		for _, sep := range current.keys {
			if sep == k {
				log.Printf("bptreemap: duplicate key rejected: %v", k)
				return
			}
		}
		ancestors = append(ancestors, current)
		idx := findChildIndex(current.keys, k)
		current = current.children[idx]
	}

	for _, existing := range current.keys {
		if existing == k {
			log.Printf("bptreemap: duplicate key rejected: %v", k)
			return
		}
	}

	if len(current.keys) < t.order-1 {
		insertSortedLeaf(current, k, v)
		return
	}

	t.splitLeaf(current, ancestors, k, v)
}

// insertSortedLeaf inserts k,v into leaf at its sorted position, shifting
// later keys/values one slot right. Caller guarantees leaf has room and k
// is not already present.
func insertSortedLeaf[K cmp.Ordered, V any](leaf *node[K, V], k K, v V) {
	idx := 0
	for idx < len(leaf.keys) && leaf.keys[idx] < k {
		idx++
	}
	leaf.keys = append(leaf.keys, k)
	leaf.values = append(leaf.values, v)
	copy(leaf.keys[idx+1:], leaf.keys[idx:])
	copy(leaf.values[idx+1:], leaf.values[idx:])
	leaf.keys[idx] = k
	leaf.values[idx] = v
}

// splitLeaf handles inserting into a full leaf. It builds the combined,
// sorted set of order entries (the leaf's existing order-1 entries plus the
// new one), keeps the first ceil((order-1)/2) in the original leaf, and
// puts the remainder in a freshly created sibling spliced into the leaf
// chain. The promoted separator is the sibling's smallest key — it is not
// duplicated into the sibling's own key set, only into ancestors.
func (t *BPlusTreeMap[K, V]) splitLeaf(leaf *node[K, V], ancestors []*node[K, V], k K, v V) {
	idx := 0
	for idx < len(leaf.keys) && leaf.keys[idx] < k {
		idx++
	}
	combinedKeys := make([]K, 0, len(leaf.keys)+1)
	combinedKeys = append(combinedKeys, leaf.keys[:idx]...)
	combinedKeys = append(combinedKeys, k)
	combinedKeys = append(combinedKeys, leaf.keys[idx:]...)

	combinedValues := make([]V, 0, len(leaf.values)+1)
	combinedValues = append(combinedValues, leaf.values[:idx]...)
	combinedValues = append(combinedValues, v)
	combinedValues = append(combinedValues, leaf.values[idx:]...)

	splitAt := t.order / 2 // ceil((order-1)/2), equal to floor(order/2)

	sibling := &node[K, V]{
		isLeaf: true,
		keys:   append([]K{}, combinedKeys[splitAt:]...),
		values: append([]V{}, combinedValues[splitAt:]...),
		next:   leaf.next,
	}
	leaf.keys = append(leaf.keys[:0], combinedKeys[:splitAt]...)
	leaf.values = append(leaf.values[:0], combinedValues[:splitAt]...)
	leaf.next = sibling

	promoted := sibling.keys[0]
	t.insertIntoParent(ancestors, leaf, sibling, promoted)
}

// insertIntoParent wedges promoted/right into the parent named by the tail
// of ancestors (or creates a new root if ancestors is empty, i.e. we just
// split the root). If the parent overflows, it is split by the same rule
// and the process continues upward.
func (t *BPlusTreeMap[K, V]) insertIntoParent(ancestors []*node[K, V], left, right *node[K, V], promoted K) {
	if len(ancestors) == 0 {
		t.root = &node[K, V]{
			keys:     []K{promoted},
			children: []*node[K, V]{left, right},
		}
		return
	}

	parent := ancestors[len(ancestors)-1]
	rest := ancestors[:len(ancestors)-1]

	idx := 0
	for idx < len(parent.keys) && parent.keys[idx] < promoted {
		idx++
	}

	if len(parent.keys) < t.order-1 {
		parent.keys = append(parent.keys, promoted)
		copy(parent.keys[idx+1:], parent.keys[idx:])
		parent.keys[idx] = promoted

		parent.children = append(parent.children, nil)
		copy(parent.children[idx+2:], parent.children[idx+1:])
		parent.children[idx+1] = right
		return
	}

	t.splitInternal(parent, rest, idx, promoted, right)
}

// splitInternal handles inserting a promoted separator/child pair into a
// full internal node. The combined order keys and order+1 children are
// split at the midpoint; the middle key is promoted to the grandparent and
// is not duplicated into either half.
func (t *BPlusTreeMap[K, V]) splitInternal(internal *node[K, V], ancestors []*node[K, V], childIdx int, promoted K, right *node[K, V]) {
	combinedKeys := make([]K, 0, len(internal.keys)+1)
	combinedKeys = append(combinedKeys, internal.keys[:childIdx]...)
	combinedKeys = append(combinedKeys, promoted)
	combinedKeys = append(combinedKeys, internal.keys[childIdx:]...)

	combinedChildren := make([]*node[K, V], 0, len(internal.children)+1)
	combinedChildren = append(combinedChildren, internal.children[:childIdx+1]...)
	combinedChildren = append(combinedChildren, right)
	combinedChildren = append(combinedChildren, internal.children[childIdx+1:]...)

	mid := len(combinedKeys) / 2
	splitKey := combinedKeys[mid]

	newInternal := &node[K, V]{
		keys:     append([]K{}, combinedKeys[mid+1:]...),
		children: append([]*node[K, V]{}, combinedChildren[mid+1:]...),
	}
	internal.keys = append(internal.keys[:0], combinedKeys[:mid]...)
	internal.children = append(internal.children[:0], combinedChildren[:mid+1]...)

	t.insertIntoParent(ancestors, internal, newInternal, splitKey)
}

// FirstKey returns the smallest key. Undefined (panics) on an empty map.
func (t *BPlusTreeMap[K, V]) FirstKey() K {
	leaf := t.leftmostLeaf()
	if len(leaf.keys) == 0 {
		panic("bptreemap: FirstKey on empty map")
	}
	return leaf.keys[0]
}

// LastKey returns the largest key. Undefined (panics) on an empty map.
func (t *BPlusTreeMap[K, V]) LastKey() K {
	var last K
	found := false
	for leaf := t.leftmostLeaf(); leaf != nil; leaf = leaf.next {
		if len(leaf.keys) > 0 {
			last = leaf.keys[len(leaf.keys)-1]
			found = true
		}
	}
	if !found {
		panic("bptreemap: LastKey on empty map")
	}
	return last
}

// leftmostLeaf descends along child[0] from the root to the leftmost leaf.
func (t *BPlusTreeMap[K, V]) leftmostLeaf() *node[K, V] {
	current := t.root
	for !current.isLeaf {
		current = current.children[0]
	}
	return current
}

// SubMap returns, in ascending order, every entry with lo <= key < hi. It
// walks the leaf chain from the leftmost leaf, which is always sorted, so
// no tree descent is needed once the chain is entered.
func (t *BPlusTreeMap[K, V]) SubMap(lo, hi K) []mapkit.Entry[K, V] {
	var out []mapkit.Entry[K, V]
	for leaf := t.leftmostLeaf(); leaf != nil; leaf = leaf.next {
		for i, k := range leaf.keys {
			if k >= lo && k < hi {
				out = append(out, mapkit.Entry[K, V]{Key: k, Value: leaf.values[i]})
			}
		}
	}
	return out
}

// HeadMap is equivalent to SubMap(FirstKey(), hi).
func (t *BPlusTreeMap[K, V]) HeadMap(hi K) []mapkit.Entry[K, V] {
	return t.SubMap(t.FirstKey(), hi)
}

// TailMap is equivalent to SubMap(lo, LastKey()), augmented with the
// (LastKey, value) pair when lo <= LastKey — SubMap's upper bound is
// half-open, so TailMap closes it explicitly. This asymmetry between
// SubMap (half-open) and TailMap (closed) is intentional; see spec.md §9.
func (t *BPlusTreeMap[K, V]) TailMap(lo K) []mapkit.Entry[K, V] {
	last := t.LastKey()
	out := t.SubMap(lo, last)
	if v, ok := t.Get(last); ok && lo <= last {
		out = append(out, mapkit.Entry[K, V]{Key: last, Value: v})
	}
	return out
}

// EntrySet returns every (key, value) pair in ascending key order, walking
// the leaf chain from the leftmost leaf.
func (t *BPlusTreeMap[K, V]) EntrySet() []mapkit.Entry[K, V] {
	var out []mapkit.Entry[K, V]
	for leaf := t.leftmostLeaf(); leaf != nil; leaf = leaf.next {
		for i, k := range leaf.keys {
			out = append(out, mapkit.Entry[K, V]{Key: k, Value: leaf.values[i]})
		}
	}
	return out
}

// Keys returns every key in ascending order.
func (t *BPlusTreeMap[K, V]) Keys() []K {
	var out []K
	for leaf := t.leftmostLeaf(); leaf != nil; leaf = leaf.next {
		out = append(out, leaf.keys...)
	}
	return out
}

// Values returns every value, ordered by ascending key.
func (t *BPlusTreeMap[K, V]) Values() []V {
	var out []V
	for leaf := t.leftmostLeaf(); leaf != nil; leaf = leaf.next {
		out = append(out, leaf.values...)
	}
	return out
}

// Size returns the live key count, summed across the leaf chain.
func (t *BPlusTreeMap[K, V]) Size() int {
	n := 0
	for leaf := t.leftmostLeaf(); leaf != nil; leaf = leaf.next {
		n += len(leaf.keys)
	}
	return n
}
