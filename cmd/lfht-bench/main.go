// Command lfht-bench drives a lfht.Table with concurrent goroutines doing
// random adds, lookups and deletes, reports throughput, and then checks
// that every key it believes is still live is actually found by Lookup
// before exiting. Keys present in the table but missing from its tracked
// set are not checked for.
package main

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/rcuhash/lfht"
	"github.com/rcuhash/lfht/log"
)

func main() {
	app := &cli.App{
		Name:  "lfht-bench",
		Usage: "exercise a lock-free hash table with concurrent workers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a TOML config overriding the table's tunables"},
			&cli.IntFlag{Name: "workers", Value: 8, Usage: "number of concurrent goroutines"},
			&cli.DurationFlag{Name: "duration", Value: 2 * time.Second, Usage: "how long to hammer the table"},
			&cli.Uint64Flag{Name: "init-size", Value: 16, Usage: "initial bucket count"},
			&cli.BoolFlag{Name: "verbose", Usage: "log at debug level instead of info"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "lfht-bench:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := lfht.DefaultConfig()
	cfg.InitSize = c.Uint64("init-size")
	minLevel := log.LevelInfo
	if c.Bool("verbose") {
		minLevel = log.LevelDebug
	}
	cfg.Logger = log.NewTerminalLogger(os.Stdout, minLevel)

	if path := c.String("config"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
		defer f.Close()
		if err := cfg.DecodeTOML(f); err != nil {
			return fmt.Errorf("decoding config: %w", err)
		}
	}

	table, err := lfht.New(fnvHash, bytesEqual, cfg)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	workers := c.Int("workers")
	duration := c.Duration("duration")

	present := mapset.NewSet[string]()
	var presentMu sync.Mutex
	var ops atomic.Int64

	deadline := time.Now().Add(duration)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			var localKeys []string
			for time.Now().Before(deadline) {
				switch rng.Intn(3) {
				case 0:
					key := uuid.New().String()
					node := table.NewNode([]byte(key), rng.Int63())
					table.Add(node)
					localKeys = append(localKeys, key)
					presentMu.Lock()
					present.Add(key)
					presentMu.Unlock()
				case 1:
					if len(localKeys) == 0 {
						continue
					}
					key := localKeys[rng.Intn(len(localKeys))]
					table.Lookup([]byte(key))
				case 2:
					if len(localKeys) == 0 {
						continue
					}
					i := rng.Intn(len(localKeys))
					key := localKeys[i]
					it := table.Lookup([]byte(key))
					if it.Found() {
						if table.Del(it) == nil {
							presentMu.Lock()
							present.Remove(key)
							presentMu.Unlock()
						}
					}
					localKeys[i] = localKeys[len(localKeys)-1]
					localKeys = localKeys[:len(localKeys)-1]
				}
				ops.Add(1)
			}
		}(int64(w) + time.Now().UnixNano())
	}
	wg.Wait()

	cfg.Logger.Info("workload complete", "ops", ops.Load(), "duration", duration.String(), "size", table.Size())

	mismatches := 0
	present.Each(func(key string) bool {
		if !table.Lookup([]byte(key)).Found() {
			mismatches++
		}
		return false
	})
	counts := table.CountNodes()
	cfg.Logger.Info("consistency check", "tracked", present.Cardinality(),
		"exact_count", counts.Exact, "removed_count", counts.Removed,
		"approx_before", counts.Approx, "approx_after", counts.ApproxAfter,
		"mismatches", mismatches)

	// drain the tracked set so Destroy's emptiness check passes.
	present.Each(func(key string) bool {
		if it := table.Lookup([]byte(key)); it.Found() {
			_ = table.Del(it)
		}
		return false
	})
	if err := table.Destroy(); err != nil {
		return fmt.Errorf("destroying table: %w", err)
	}
	if mismatches > 0 {
		return fmt.Errorf("%d tracked keys were not found", mismatches)
	}
	return nil
}

func fnvHash(key []byte, seed uint64) uint64 {
	h := fnv.New64a()
	var seedBytes [8]byte
	for i := range seedBytes {
		seedBytes[i] = byte(seed >> (8 * i))
	}
	h.Write(seedBytes[:])
	h.Write(key)
	return h.Sum64()
}

func bytesEqual(a, b []byte) bool {
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
