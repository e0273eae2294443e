package lfht

import "sync/atomic"

// link is the tagged-pointer word C would CAS as a single machine word with
// low bits stolen for flags. Go has no safe way to steal pointer bits, so a
// link is an immutable value swapped as a whole behind atomic.Pointer[link]:
// the CAS still fails if either the target or the removed flag changed
// underneath it, which is all the algorithm actually needs.
//
// The DUMMY flag the reference implementation carries on the pointer itself
// is instead stored as an immutable property of the node it addresses
// (Node.dummy) — an allowed simplification, since the bit never changes for
// a given node's lifetime and is cheaper to read off the referent directly
// than to keep re-propagating across every splice.
type link struct {
	node    *Node
	removed bool
}

var endLink = &link{}

// Node is one entry in the split-ordered list: either a caller-supplied
// key/value pair, or an internal bucket anchor (dummy) used only to splice
// the chain at a bucket boundary.
type Node struct {
	Key   []byte
	Value any

	// reverseHash is bit_reverse(hash(Key)) for user nodes, or the bucket's
	// own reverse-sortable position for dummies; it is what the list is
	// actually ordered by.
	reverseHash uint64
	dummy       bool

	next atomic.Pointer[link]
}

func newUserNode(key []byte, value any, reverseHash uint64) *Node {
	n := &Node{Key: key, Value: value, reverseHash: reverseHash}
	n.next.Store(endLink)
	return n
}

func newDummyNode(reverseHash uint64) *Node {
	n := &Node{reverseHash: reverseHash, dummy: true}
	n.next.Store(endLink)
	return n
}

// addMode selects the duplicate-key policy for an insert; see Table.Add,
// Table.AddUnique and Table.AddReplace.
type addMode int

const (
	modeDefault addMode = iota // always insert, duplicates allowed
	modeUnique                 // refuse if an equal key is already present
	modeReplace                // atomically replace an equal key if present
)
