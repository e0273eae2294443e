package lfht

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().validate())
}

func TestValidateRejectsNonPowerOfTwoSizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitSize = 6
	require.ErrorIs(t, cfg.validate(), ErrInvalidArgument)
}

func TestValidateRejectsInitSizeBelowMinTableSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitSize = 2
	cfg.MinTableSize = 8
	require.ErrorIs(t, cfg.validate(), ErrInvalidArgument)
}

func TestWithDefaultsFillsOnlyZeroFields(t *testing.T) {
	cfg := Config{InitSize: 64, ChainLenTarget: 7}
	merged := cfg.withDefaults()

	require.EqualValues(t, 64, merged.InitSize)
	require.EqualValues(t, 7, merged.ChainLenTarget)
	require.Equal(t, DefaultConfig().MinTableSize, merged.MinTableSize)
	require.Equal(t, DefaultConfig().CounterShards, merged.CounterShards)
}

func TestDecodeTOMLOverridesTunables(t *testing.T) {
	cfg := DefaultConfig()
	r := strings.NewReader(`
InitSize = 32
ChainLenResizeThreshold = 5
`)
	require.NoError(t, cfg.DecodeTOML(r))
	require.EqualValues(t, 32, cfg.InitSize)
	require.EqualValues(t, 5, cfg.ChainLenResizeThreshold)
	// Untouched fields survive the decode.
	require.Equal(t, DefaultConfig().CounterShards, cfg.CounterShards)
}
