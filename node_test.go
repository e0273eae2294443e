package lfht

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUserNodeStartsAtEnd(t *testing.T) {
	n := newUserNode([]byte("k"), 1, 7)
	require.False(t, n.dummy)
	require.Equal(t, uint64(7), n.reverseHash)
	l := n.next.Load()
	require.NotNil(t, l)
	require.Nil(t, l.node)
	require.False(t, l.removed)
}

func TestNewDummyNodeIsMarkedDummy(t *testing.T) {
	n := newDummyNode(3)
	require.True(t, n.dummy)
	require.Nil(t, n.Key)
}
