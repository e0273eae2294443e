package lfht

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddThenLookupFinds(t *testing.T) {
	tbl, err := New(fnvLikeHash, bytesEqualTest, testConfig(8))
	require.NoError(t, err)
	defer destroyEmpty(t, tbl)

	n := tbl.NewNode([]byte("alpha"), 42)
	tbl.Add(n)

	it := tbl.Lookup([]byte("alpha"))
	require.True(t, it.Found())
	require.Equal(t, 42, it.Value())
}

func TestLookupMissingReturnsNotFound(t *testing.T) {
	tbl, err := New(fnvLikeHash, bytesEqualTest, testConfig(8))
	require.NoError(t, err)
	defer destroyEmpty(t, tbl)

	it := tbl.Lookup([]byte("nope"))
	require.False(t, it.Found())
	require.Nil(t, it.Node())
}

func TestAddUniqueRejectsDuplicateKey(t *testing.T) {
	tbl, err := New(fnvLikeHash, bytesEqualTest, testConfig(8))
	require.NoError(t, err)
	defer destroyEmpty(t, tbl)

	first := tbl.NewNode([]byte("k"), 1)
	_, ok := tbl.AddUnique(first)
	require.True(t, ok)

	second := tbl.NewNode([]byte("k"), 2)
	existing, ok := tbl.AddUnique(second)
	require.False(t, ok)
	require.Equal(t, first, existing)
	require.Equal(t, 1, existing.Value)
}

func TestAddReplaceSwapsValueAtomically(t *testing.T) {
	tbl, err := New(fnvLikeHash, bytesEqualTest, testConfig(8))
	require.NoError(t, err)
	defer destroyEmpty(t, tbl)

	first := tbl.NewNode([]byte("k"), 1)
	tbl.Add(first)

	second := tbl.NewNode([]byte("k"), 2)
	replaced := tbl.AddReplace(second)
	require.Equal(t, first, replaced)

	it := tbl.Lookup([]byte("k"))
	require.True(t, it.Found())
	require.Equal(t, 2, it.Value())
	require.Equal(t, int64(1), tbl.Len())
}

func TestDelRemovesNodeAndIsIdempotentFalse(t *testing.T) {
	tbl, err := New(fnvLikeHash, bytesEqualTest, testConfig(8))
	require.NoError(t, err)
	defer destroyEmpty(t, tbl)

	n := tbl.NewNode([]byte("k"), 1)
	tbl.Add(n)

	it := tbl.Lookup([]byte("k"))
	require.True(t, it.Found())
	require.NoError(t, tbl.Del(it))

	require.False(t, tbl.Lookup([]byte("k")).Found())
	require.ErrorIs(t, tbl.Del(it), ErrNotFound)
}

func TestAddAllowsDuplicatesAndNextDuplicateWalksThem(t *testing.T) {
	tbl, err := New(fnvLikeHash, bytesEqualTest, testConfig(8))
	require.NoError(t, err)
	defer destroyEmpty(t, tbl)

	for i := 0; i < 5; i++ {
		tbl.Add(tbl.NewNode([]byte("dup"), i))
	}

	seen := map[int]bool{}
	it := tbl.Lookup([]byte("dup"))
	for it.Found() {
		seen[it.Value().(int)] = true
		it = tbl.NextDuplicate(it)
	}
	require.Len(t, seen, 5)
}

func TestFirstNextVisitsEveryLiveNodeExactlyOnce(t *testing.T) {
	tbl, err := New(fnvLikeHash, bytesEqualTest, testConfig(4))
	require.NoError(t, err)
	defer destroyEmpty(t, tbl)

	const n = 64
	want := map[string]bool{}
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("key-%03d", i)
		tbl.Add(tbl.NewNode([]byte(k), i))
		want[k] = true
	}

	got := map[string]bool{}
	for it := tbl.First(); it.Found(); it = tbl.Next(it) {
		require.False(t, got[string(it.Key())], "visited %q twice", it.Key())
		got[string(it.Key())] = true
	}
	require.Equal(t, want, got)
	require.EqualValues(t, n, tbl.CountNodes().Exact)
}
