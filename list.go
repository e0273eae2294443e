package lfht

import "github.com/rcuhash/lfht/internal/bits"

// Lookup returns an Iterator for the first live node matching key, or a
// not-found Iterator if none exists. Call it within a read critical section
// (between Reader.ReadLock and Reader.ReadUnlock) so a concurrent resize or
// delete cannot free the node out from under the caller. It also returns a
// not-found Iterator if the table has already been destroyed.
func (t *Table) Lookup(key []byte) Iterator {
	if t.closed.Load() {
		return Iterator{}
	}
	h := t.hash(key, t.cfg.HashSeed)
	r := bits.Reverse(h)
	size := t.size.Load()
	cur := t.bucketFor(size, h).next.Load()
	for {
		n := cur.node
		if n == nil {
			return Iterator{}
		}
		if n.reverseHash > r {
			return Iterator{}
		}
		next := n.next.Load()
		if !next.removed && !n.dummy && n.reverseHash == r && t.equal(n.Key, key) {
			return Iterator{node: n, next: next}
		}
		cur = next
	}
}

// NextDuplicate returns the next live node sharing it.Node's key, for a
// duplicate-permitting table populated with Add. It returns a not-found
// Iterator once the duplicate run ends.
func (t *Table) NextDuplicate(it Iterator) Iterator {
	if it.node == nil {
		return Iterator{}
	}
	r := it.node.reverseHash
	key := it.node.Key
	cur := it.next
	for {
		n := cur.node
		if n == nil {
			return Iterator{}
		}
		if n.reverseHash > r {
			return Iterator{}
		}
		next := n.next.Load()
		if !next.removed && !n.dummy && t.equal(n.Key, key) {
			return Iterator{node: n, next: next}
		}
		cur = next
	}
}

// First returns the first live, non-anchor node in the whole table, in
// split order (not insertion order). It returns a not-found Iterator for an
// empty table.
func (t *Table) First() Iterator {
	return t.advance(t.levels[0].at(0).next.Load())
}

// Next returns the next live node after it, in split order.
func (t *Table) Next(it Iterator) Iterator {
	return t.advance(it.next)
}

func (t *Table) advance(cur *link) Iterator {
	for {
		n := cur.node
		if n == nil {
			return Iterator{}
		}
		next := n.next.Load()
		if !next.removed && !n.dummy {
			return Iterator{node: n, next: next}
		}
		cur = next
	}
}

// addResult carries back what addInternal actually did, since the three
// public entry points (Add, AddUnique, AddReplace) each want a different
// projection of the same walk.
type addResult struct {
	inserted *Node // non-nil: node was linked in
	existing *Node // non-nil: an equal key was already present (Unique/Replace)
}

// addInternal is the shared CAS-retry walk behind Add, AddUnique and
// AddReplace: it locates the insertion point for node under a table of the
// given size, cooperatively unlinks any logically-removed node it steps
// over, and retries from the bucket anchor on every CAS failure or
// concurrent mutation it observes — mirroring _cds_lfht_add.
func (t *Table) addInternal(size uint64, node *Node, mode addMode) addResult {
	if size == 0 {
		// Bootstrapping the very first (order-0) dummy: there is no
		// anchor to walk yet, so it simply becomes the head.
		node.next.Store(endLink)
		return addResult{inserted: node}
	}
	anchor := t.bucketFor(size, bits.Reverse(node.reverseHash))

retry:
	for {
		var chainLen uint32
		prev := anchor
		prevLink := prev.next.Load()

		for {
			cur := prevLink.node
			if cur == nil || cur.reverseHash > node.reverseHash {
				break
			}
			if node.dummy && cur.reverseHash == node.reverseHash {
				break
			}

			curNext := cur.next.Load()
			if curNext.removed {
				t.gcBucket(anchor, cur)
				continue retry
			}

			if mode != modeDefault && !cur.dummy && cur.reverseHash == node.reverseHash && t.equal(cur.Key, node.Key) {
				if mode == modeUnique {
					return addResult{existing: cur}
				}
				if t.replaceAt(size, cur, curNext, node) {
					return addResult{inserted: node, existing: cur}
				}
				continue retry
			}

			if prev.reverseHash != cur.reverseHash && !cur.dummy {
				chainLen++
				t.onChainStep(size, chainLen)
			}
			prev = cur
			prevLink = curNext
		}

		succ := prevLink.node
		node.next.Store(&link{node: succ})
		if prev.next.CompareAndSwap(prevLink, &link{node: node}) {
			return addResult{inserted: node}
		}
	}
}

// replaceAt atomically splices newNode in place of old: newNode's own next
// is set to point past old first, then a single CAS on old.next both
// flags old removed and points it at newNode, exactly as
// _cds_lfht_replace does. On success it then gcs old's bucket itself to
// physically excise old.
func (t *Table) replaceAt(size uint64, old *Node, oldNext *link, newNode *Node) bool {
	newNode.next.Store(&link{node: oldNext.node})
	if !old.next.CompareAndSwap(oldNext, &link{node: newNode, removed: true}) {
		return false
	}
	t.gcBucket(t.bucketFor(size, bits.Reverse(old.reverseHash)), newNode)
	return true
}

// delAt logically removes target by flagging its own next pointer removed,
// then physically excises it from its bucket's chain under the given
// table size snapshot.
func (t *Table) delAt(size uint64, target *Node) error {
	for {
		old := target.next.Load()
		if old.removed {
			return ErrNotFound
		}
		if target.next.CompareAndSwap(old, &link{node: old.node, removed: true}) {
			break
		}
	}
	t.gcBucket(t.bucketFor(size, bits.Reverse(target.reverseHash)), target)
	return nil
}

// gcBucket walks the chain from anchor, physically unlinking any node
// whose own next is flagged removed, stopping once it passes target's
// position (or reaches the end). It mirrors _cds_lfht_gc_bucket: a CAS
// failure or a successful splice both just restart the walk from anchor,
// since either can only have made further progress easier.
func (t *Table) gcBucket(anchor, target *Node) {
outer:
	for {
		prev := anchor
		prevLink := prev.next.Load()
		for {
			cur := prevLink.node
			if cur == nil || cur.reverseHash > target.reverseHash {
				return
			}
			curNext := cur.next.Load()
			if curNext.removed {
				if prev.next.CompareAndSwap(prevLink, &link{node: curNext.node}) {
					t.log.Trace("gc.unlink", "reverse_hash", cur.reverseHash, "dummy", cur.dummy)
				}
				continue outer
			}
			prev = cur
			prevLink = curNext
		}
	}
}
