package exthash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intHash(k int) uint64 {
	h := uint64(k)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return h
}

func TestEmptyMap(t *testing.T) {
	m := New[int, int](4, 4, intHash)
	_, found := m.Get(1)
	assert.False(t, found)
	assert.Empty(t, m.EntrySet())
}

func TestPutGetRoundTrip(t *testing.T) {
	m := New[int, int](4, 4, intHash)
	require.NoError(t, m.Put(1, 1))
	require.NoError(t, m.Put(2, 4))

	v, found := m.Get(1)
	require.True(t, found)
	assert.Equal(t, 1, v)

	v, found = m.Get(2)
	require.True(t, found)
	assert.Equal(t, 4, v)

	_, found = m.Get(3)
	assert.False(t, found)
}

// Scenario 3 from spec.md §8: initSize=11, insert i -> i^2 for odd i in [1,99].
func TestOddSquaresScenario(t *testing.T) {
	m := New[int, int](11, DefaultSlots, intHash)
	for i := 1; i <= 99; i += 2 {
		require.NoError(t, m.Put(i, i*i))
	}

	for i := 1; i <= 99; i += 2 {
		v, found := m.Get(i)
		require.True(t, found, "key %d should be present", i)
		assert.Equal(t, i*i, v)
	}

	_, found := m.Get(2)
	assert.False(t, found)

	assertEverySlotConsistent(t, m)
}

func TestDirectoryDoublingPreservesAllKeys(t *testing.T) {
	m := New[int, int](2, 2, intHash)
	for i := 0; i < 200; i++ {
		require.NoError(t, m.Put(i, i))
	}
	for i := 0; i < 200; i++ {
		v, found := m.Get(i)
		require.True(t, found)
		assert.Equal(t, i, v)
	}
	assertEverySlotConsistent(t, m)
}

func TestSizeIsNominalCapacity(t *testing.T) {
	m := New[int, int](4, 4, intHash)
	assert.Equal(t, 4, m.Size()) // one bucket initially

	for i := 0; i < 20; i++ {
		require.NoError(t, m.Put(i, i))
	}
	assert.Equal(t, 4*len(m.buckets), m.Size())
}

func TestDuplicatePutIsPermissiveNotRejected(t *testing.T) {
	m := New[int, int](4, 4, intHash)
	require.NoError(t, m.Put(7, 70))
	require.NoError(t, m.Put(7, 700))

	entries := m.EntrySet()
	count := 0
	for _, e := range entries {
		if e.Key == 7 {
			count++
		}
	}
	assert.Equal(t, 2, count, "ExtHashMap does not reject duplicate keys")
}

func TestAccessCounter(t *testing.T) {
	m := New[int, int](4, 4, intHash)
	require.NoError(t, m.Put(1, 1))

	m.ResetAccessCount()
	_, _ = m.Get(1)
	assert.Equal(t, uint64(1), m.AccessCount())
}

// assertEverySlotConsistent checks spec.md §8's extendible-hashing
// invariant: every key in a bucket of local depth L shares the low L bits
// of hash(k) with every directory slot that aliases it.
func assertEverySlotConsistent(t *testing.T, m *ExtHashMap[int, int]) {
	t.Helper()
	seen := map[*bucket[int, int]]bool{}
	for d, b := range m.dir {
		if seen[b] {
			continue
		}
		seen[b] = true
		prefixMask := uint64(1)<<b.localDepth - 1
		wantPrefix := uint64(d) & prefixMask
		for _, k := range b.keys {
			assert.Equal(t, wantPrefix, intHash(k)&prefixMask, "key %d in wrong bucket", k)
		}
	}
}
