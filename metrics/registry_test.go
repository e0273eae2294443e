package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	c := NewCounter()
	c.Inc(3)
	c.Dec(1)
	require.EqualValues(t, 2, c.Snapshot().Count())
	c.Clear()
	require.Zero(t, c.Snapshot().Count())
}

func TestGauge(t *testing.T) {
	g := NewGauge()
	g.Update(64)
	require.EqualValues(t, 64, g.Snapshot().Value())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("size", NewGauge()))
	require.Error(t, r.Register("size", NewGauge()), "duplicate registration should fail")

	names := []string{}
	r.Each(func(name string, _ interface{}) { names = append(names, name) })
	require.Equal(t, []string{"size"}, names)

	r.Unregister("size")
	require.Nil(t, r.Get("size"))

	got := r.GetOrRegister("count", func() interface{} { return NewCounter() })
	require.NotNil(t, got)
	same := r.GetOrRegister("count", func() interface{} { return NewCounter() })
	require.Same(t, got, same)
}
