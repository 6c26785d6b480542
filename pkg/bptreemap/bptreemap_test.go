package bptreemap

import (
	"cmp"
	"math/rand"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/indexkit/pkg/mapkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsSmallOrder(t *testing.T) {
	tree := New[int, int](2)
	assert.Equal(t, DefaultOrder, tree.order)
}

func TestEmptyTree(t *testing.T) {
	tree := New[int, string](5)

	_, found := tree.Get(42)
	assert.False(t, found)
	assert.Empty(t, tree.EntrySet())
	assert.Equal(t, 0, tree.Size())
}

// Scenario 1 from spec.md §8: ORDER=5, insert 1..9 with values k^2.
func TestOrder5_SequentialInsertScenario(t *testing.T) {
	tree := New[int, int](5)
	for i := 1; i <= 9; i++ {
		tree.Put(i, i*i)
		assertValidBPlusTree(t, tree)
	}

	v, found := tree.Get(5)
	require.True(t, found)
	assert.Equal(t, 25, v)

	assert.Equal(t, 1, tree.FirstKey())
	assert.Equal(t, 9, tree.LastKey())

	sub := tree.SubMap(3, 7)
	assert.Equal(t, []mapkit.Entry[int, int]{
		{Key: 3, Value: 9},
		{Key: 4, Value: 16},
		{Key: 5, Value: 25},
		{Key: 6, Value: 36},
	}, sub)

	assert.Equal(t, 9, tree.Size())
}

// Scenario 2: re-inserting an existing key is a no-op.
func TestDuplicateInsertIsRejected(t *testing.T) {
	tree := New[int, int](5)
	for i := 1; i <= 9; i++ {
		tree.Put(i, i*i)
	}

	tree.Put(4, -1)

	assert.Equal(t, 9, tree.Size())
	v, found := tree.Get(4)
	require.True(t, found)
	assert.Equal(t, 16, v)
}

// Scenario 6: shuffled insertion still yields an ascending leaf chain.
func TestLeafChainOrderingUnderShuffledInsert(t *testing.T) {
	tree := New[int, int](5)
	keys := rand.New(rand.NewSource(7)).Perm(20)
	for _, k := range keys {
		tree.Put(k+1, (k + 1) * 10)
	}

	got := tree.Keys()
	want := make([]int, 20)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, got)
}

func TestHeadMapAndTailMap(t *testing.T) {
	tree := New[int, int](5)
	for i := 1; i <= 9; i++ {
		tree.Put(i, i*i)
	}

	head := tree.HeadMap(4)
	assert.Equal(t, []mapkit.Entry[int, int]{{1, 1}, {2, 4}, {3, 9}}, head)

	tail := tree.TailMap(7)
	assert.Equal(t, []mapkit.Entry[int, int]{{7, 49}, {8, 64}, {9, 81}}, tail)
}

func TestAccessCounterIncrementsPerNodeVisited(t *testing.T) {
	tree := New[int, int](3)
	for i := 1; i <= 10; i++ {
		tree.Put(i, i)
	}

	tree.ResetAccessCount()
	_, _ = tree.Get(5)
	assert.Greater(t, tree.AccessCount(), uint64(0))

	tree.ResetAccessCount()
	assert.Equal(t, uint64(0), tree.AccessCount())
}

func TestSplitInternalNode(t *testing.T) {
	tree := New[string, ksuid.KSUID](3)
	keys := []string{"key1", "key2", "key3", "key4", "key5"}
	for _, k := range keys {
		tree.Put(k, ksuid.New())
	}
	assertValidBPlusTree(t, tree)
	for _, k := range keys {
		_, found := tree.Get(k)
		assert.True(t, found)
	}
}

// assertValidBPlusTree checks the invariants from spec.md §8: ascending
// leaf chain, uniform leaf depth, and separator-equals-min-of-right-subtree.
func assertValidBPlusTree[K cmp.Ordered, V any](t *testing.T, tree *BPlusTreeMap[K, V]) {
	t.Helper()

	keys := tree.Keys()
	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1], keys[i], "leaf chain must be strictly ascending")
	}

	depth := leafDepth(tree.root, 0)
	checkUniformDepth(t, tree.root, 0, depth)
	checkSeparatorInvariant(t, tree.root)
}

func leafDepth[K cmp.Ordered, V any](n *node[K, V], d int) int {
	if n.isLeaf {
		return d
	}
	return leafDepth(n.children[0], d+1)
}

func checkUniformDepth[K cmp.Ordered, V any](t *testing.T, n *node[K, V], d, want int) {
	t.Helper()
	if n.isLeaf {
		assert.Equal(t, want, d, "all leaves must be at the same depth")
		return
	}
	for _, c := range n.children {
		checkUniformDepth(t, c, d+1, want)
	}
}

func checkSeparatorInvariant[K cmp.Ordered, V any](t *testing.T, n *node[K, V]) {
	t.Helper()
	if n.isLeaf {
		return
	}
	for i, sep := range n.keys {
		min := minKey(n.children[i+1])
		assert.Equal(t, sep, min, "separator must equal min key of right subtree")
	}
	for _, c := range n.children {
		checkSeparatorInvariant(t, c)
	}
}

func minKey[K cmp.Ordered, V any](n *node[K, V]) K {
	for !n.isLeaf {
		n = n.children[0]
	}
	return n.keys[0]
}
