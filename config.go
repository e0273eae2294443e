package lfht

import (
	"io"

	"github.com/BurntSushi/toml"

	"github.com/rcuhash/lfht/internal/bits"
	"github.com/rcuhash/lfht/internal/mclock"
	"github.com/rcuhash/lfht/log"
	"github.com/rcuhash/lfht/metrics"
	"github.com/rcuhash/lfht/rcu"
)

// Flags configures optional table behavior, combined with bitwise OR.
type Flags uint32

const (
	// FlagAutoResize enables the lazy grow/shrink heuristics driven by
	// observed chain length and the approximate node count. Without it,
	// the table only resizes when Resize is called explicitly.
	FlagAutoResize Flags = 1 << iota

	// FlagAccounting registers the table's gauges ("size" and "count",
	// the split counter's estimate) on its metrics.Registry. Off by default
	// since most callers embedding many small tables don't want one
	// gauge set each.
	FlagAccounting
)

// Config controls a Table's tunables. New fills every zero-valued tunable
// from DefaultConfig, except Flags: a zero Config builds a table with every
// flag off. Start from DefaultConfig to keep its default flags.
type Config struct {
	// InitSize is the table's starting bucket count; must be a power of
	// two no smaller than MinTableSize.
	InitSize uint64

	// MinTableSize is the floor auto-shrink will never cross.
	MinTableSize uint64

	Flags Flags

	// CommitOrder sets both the split counter's per-shard fold interval
	// and the approximate node count, 2^CommitOrder, below which the
	// chain-length heuristic (rather than the approximate-count heuristic)
	// drives auto-resize.
	CommitOrder uint

	// ChainLenResizeThreshold is the chain length, observed during an
	// Add walk on a small table, that triggers a lazy grow.
	ChainLenResizeThreshold uint32

	// ChainLenTarget is the desired average chain length a resize aims
	// to restore once the approximate count heuristic takes over.
	ChainLenTarget uint32

	// MinPartition is the smallest per-goroutine span of dummy slots the
	// resize engine will hand to a worker; levels smaller than twice it
	// are populated inline on the caller's goroutine instead of fanning out.
	MinPartition uint64

	// CounterShards is the number of shards the split counter spreads
	// adds and deletes across.
	CounterShards int

	HashSeed uint64

	Logger   log.Logger
	Clock    mclock.Clock
	Domain   *rcu.Domain
	Registry metrics.Registry
}

// DefaultConfig returns a Config with the same tunables the reference
// implementation ships as defaults, translated to this package's names.
func DefaultConfig() Config {
	return Config{
		InitSize:                1,
		MinTableSize:            1,
		Flags:                   FlagAutoResize,
		CommitOrder:             10,
		ChainLenResizeThreshold: 3,
		ChainLenTarget:          1,
		MinPartition:            4096,
		CounterShards:           16,
		Logger:                  log.Discard,
		Clock:                   mclock.System{},
	}
}

// DecodeTOML merges TOML-encoded overrides from r into c's non-struct
// tunables (Logger, Clock and Domain are not representable in TOML and are
// left untouched).
func (c *Config) DecodeTOML(r io.Reader) error {
	_, err := toml.NewDecoder(r).Decode(c)
	return err
}

// withDefaults fills any zero-valued tunable from DefaultConfig, leaving
// every field the caller did set untouched. Flags is deliberately excluded:
// unlike the numeric tunables, Flags(0) (every flag off) is itself a
// legitimate configuration, so defaulting it the same way would make it
// impossible to ever build a table with auto-resize off via New.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InitSize == 0 {
		c.InitSize = d.InitSize
	}
	if c.MinTableSize == 0 {
		c.MinTableSize = d.MinTableSize
	}
	if c.CommitOrder == 0 {
		c.CommitOrder = d.CommitOrder
	}
	if c.ChainLenResizeThreshold == 0 {
		c.ChainLenResizeThreshold = d.ChainLenResizeThreshold
	}
	if c.ChainLenTarget == 0 {
		c.ChainLenTarget = d.ChainLenTarget
	}
	if c.MinPartition == 0 {
		c.MinPartition = d.MinPartition
	}
	if c.CounterShards == 0 {
		c.CounterShards = d.CounterShards
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	return c
}

func (c Config) validate() error {
	if !bits.IsPowerOfTwo(c.InitSize) {
		return ErrInvalidArgument
	}
	if !bits.IsPowerOfTwo(c.MinTableSize) {
		return ErrInvalidArgument
	}
	if c.InitSize < c.MinTableSize {
		return ErrInvalidArgument
	}
	return nil
}
