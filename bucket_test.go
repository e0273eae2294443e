package lfht

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderSizeDoublesFromOrderTwo(t *testing.T) {
	require.Equal(t, uint64(1), orderSize(0))
	require.Equal(t, uint64(1), orderSize(1))
	require.Equal(t, uint64(2), orderSize(2))
	require.Equal(t, uint64(4), orderSize(3))
	require.Equal(t, uint64(8), orderSize(4))
}

func TestBucketForCoversEveryIndexExactlyOnce(t *testing.T) {
	tbl, err := New(fnvLikeHash, bytesEqualTest, testConfig(16))
	require.NoError(t, err)
	defer destroyEmpty(t, tbl)

	seen := make(map[*Node][]uint64)
	for idx := uint64(0); idx < 16; idx++ {
		n := tbl.bucketFor(16, idx)
		require.NotNil(t, n)
		seen[n] = append(seen[n], idx)
	}
	for n, idxs := range seen {
		require.Len(t, idxs, 1, "bucket %v claimed by more than one index: %v", n, idxs)
	}
}
