// Package lfht implements a lock-free, resizable, concurrent hash table
// backed by a split-ordered linked list (Shalev & Shavit) and synchronized
// for safe memory reclamation by the rcu package's quiescence primitive.
//
// Readers call Lookup (and First/Next/NextDuplicate for traversal) inside a
// read critical section obtained from an *rcu.Reader bound to the table's
// Domain; they never block writers and are never blocked by them. Writers
// call Add, AddUnique, AddReplace, Replace, and Del using only atomic
// compare-and-swap, and the table grows and shrinks concurrently with both
// — see bucket.go and resize.go for the bucket index and resize engine, and
// list.go for the split-ordered list itself.
//
// The hash and equality functions, and the memory backing each Node's
// payload, are the caller's responsibility; the table only links and
// unlinks nodes the caller allocated.
package lfht
