package lfht

import (
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/require"
)

func fnvLikeHash(key []byte, seed uint64) uint64 {
	h := fnv.New64a()
	var seedBytes [8]byte
	for i := range seedBytes {
		seedBytes[i] = byte(seed >> (8 * i))
	}
	h.Write(seedBytes[:])
	h.Write(key)
	return h.Sum64()
}

func bytesEqualTest(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testConfig(initSize uint64) Config {
	cfg := DefaultConfig()
	cfg.InitSize = initSize
	cfg.MinPartition = 64 // keep resize fan-out reachable in small tests
	return cfg
}

func destroyEmpty(t *testing.T, tbl *Table) {
	t.Helper()
	var nodes []*Node
	for it := tbl.First(); it.Found(); it = tbl.Next(it) {
		nodes = append(nodes, it.Node())
	}
	for _, n := range nodes {
		_ = tbl.Del(Iterator{node: n})
	}
	require.NoError(t, tbl.Destroy())
}
