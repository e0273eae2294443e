package bits

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReverseRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		x := r.Uint64()
		require.Equal(t, x, Reverse(Reverse(x)))
	}
}

func TestReverseKnownValues(t *testing.T) {
	cases := []struct{ in, want uint64 }{
		{0, 0},
		{1, 1 << 63},
		{1 << 63, 1},
		{0xff, 0xff << 56},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Reverse(c.in), "Reverse(%x)", c.in)
	}
}

func TestMSBIndex(t *testing.T) {
	cases := []struct {
		in   uint64
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{7, 3},
		{8, 4},
	}
	for _, c := range cases {
		require.Equal(t, c.want, MSBIndex(c.in), "MSBIndex(%d)", c.in)
	}
}

func TestCeilLog2(t *testing.T) {
	cases := []struct {
		in   uint64
		want int
	}{
		{0, -1},
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{1024, 10},
		{1025, 11},
	}
	for _, c := range cases {
		require.Equal(t, c.want, CeilLog2(c.in), "CeilLog2(%d)", c.in)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, x := range []uint64{1, 2, 4, 1024, 1 << 40} {
		require.True(t, IsPowerOfTwo(x), "%d", x)
	}
	for _, x := range []uint64{0, 3, 5, 6, 1023} {
		require.False(t, IsPowerOfTwo(x), "%d", x)
	}
}
