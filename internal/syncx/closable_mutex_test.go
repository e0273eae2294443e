package syncx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClosableMutexBasic(t *testing.T) {
	cm := NewClosableMutex()
	require.True(t, cm.TryLock())
	require.False(t, cm.TryLock(), "second TryLock should fail while held")
	cm.Unlock()
	require.True(t, cm.TryLock())
	cm.Unlock()
}

func TestClosableMutexClose(t *testing.T) {
	cm := NewClosableMutex()
	cm.Close()
	require.False(t, cm.TryLock())
	require.Panics(t, func() { cm.MustLock() })
	require.Panics(t, cm.Close)
}

func TestClosableMutexUnlockPanics(t *testing.T) {
	cm := NewClosableMutex()
	require.Panics(t, cm.Unlock)
}
