package lfht

import "github.com/cockroachdb/errors"

// Sentinel errors returned by the table's public operations. Callers should
// compare against these with errors.Is, not string-match the error text.
var (
	// ErrNotFound is returned by Del and Replace when the target node has
	// already been logically removed by a concurrent caller.
	ErrNotFound = errors.New("lfht: node not found")

	// ErrDuplicate is available for callers layering a strict unique-insert
	// API on top of AddUnique's (node, bool) result.
	ErrDuplicate = errors.New("lfht: duplicate key")

	// ErrNotEmpty is returned by Destroy when live nodes remain.
	ErrNotEmpty = errors.New("lfht: table not empty")

	// ErrInvalidArgument is returned for malformed Config values, such as a
	// non-power-of-two size.
	ErrInvalidArgument = errors.New("lfht: invalid argument")

	// ErrClosed is returned by operations attempted after Destroy.
	ErrClosed = errors.New("lfht: table destroyed")
)
