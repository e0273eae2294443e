package mclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var _ Clock = System{}
var _ Clock = new(Simulated)

func TestSimulatedTickerFires(t *testing.T) {
	var c Simulated
	ticker := c.NewTicker(10 * time.Millisecond)
	require.Equal(t, 1, c.ActiveTickers())

	select {
	case <-ticker.C():
		t.Fatal("ticker fired before any time advanced")
	default:
	}

	c.Run(10 * time.Millisecond)
	select {
	case <-ticker.C():
	default:
		t.Fatal("ticker did not fire")
	}

	ticker.Stop()
	require.Equal(t, 0, c.ActiveTickers())
}

func TestSimulatedNowMonotonic(t *testing.T) {
	var c Simulated
	start := c.Now()
	c.Run(5 * time.Second)
	require.Equal(t, 5*time.Second, c.Now().Sub(start))
}
