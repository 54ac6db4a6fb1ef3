package hashring

import "fmt"

// FindAdjacentReplicas reports every circularly consecutive pair of ring
// positions owned by the same physical node, including the wrap-around pair
// between the maximum and minimum digests. Adjacent same-node positions
// double that node's effective arc and skew load.
func (r *Ring[T]) FindAdjacentReplicas() []AdjacentPair[T] {
	if len(r.positions) < 2 {
		return nil
	}

	var pairs []AdjacentPair[T]
	for i := range r.positions {
		var (
			next   = (i + 1) % len(r.positions)
			first  = r.nodeAt[r.positions[i]]
			second = r.nodeAt[r.positions[next]]
		)
		if r.options.nodeKey(first) != r.options.nodeKey(second) {
			continue
		}

		pairs = append(pairs, AdjacentPair[T]{
			Node:         first,
			NodeKey:      r.options.nodeKey(first),
			FirstDigest:  r.positions[i],
			SecondDigest: r.positions[next],
			FirstIndex:   i,
			SecondIndex:  next,
		})
	}

	return pairs
}

// fixAdjacentReplicas relocates replicas until no two consecutive ring
// positions share a physical node, or a bound is hit. It runs after every
// mutation and is a no-op on a ring that already satisfies the invariant.
// With fewer than 2 distinct nodes the invariant is vacuous.
func (r *Ring[T]) fixAdjacentReplicas() {
	if r.GetNodesCount() < 2 {
		return
	}

	// Each pass relocates one replica. A relocation can expose a new pair
	// behind it, so the pass budget is generous before declaring exhaustion.
	var maxPasses = 2*len(r.positions) + 8
	for pass := 0; pass < maxPasses; pass++ {
		var pairs = r.FindAdjacentReplicas()
		if len(pairs) == 0 {
			return
		}

		var pair = pairs[0]
		if !r.hasSafeSlot(pair) {
			r.repairLog = append(r.repairLog, fmt.Sprintf(
				"no non-adjacent slot for a replica of node %q; %d adjacent pair(s) remain",
				pair.NodeKey, len(pairs)))
			r.options.logger.Warn("adjacency repair stopped, no safe slot",
				"node", pair.NodeKey, "remainingPairs", len(pairs))
			return
		}

		if !r.relocate(pair) {
			r.repairLog = append(r.repairLog, fmt.Sprintf(
				"rotation attempts exhausted relocating a replica of node %q from digest %s",
				pair.NodeKey, pair.SecondDigest))
			r.options.logger.Warn("adjacency repair stopped, rotations exhausted",
				"node", pair.NodeKey, "digest", pair.SecondDigest)
			return
		}
	}

	if pairs := r.FindAdjacentReplicas(); len(pairs) > 0 {
		r.repairLog = append(r.repairLog, fmt.Sprintf(
			"repair pass budget exhausted with %d adjacent pair(s) remaining", len(pairs)))
	}
}

// hasSafeSlot reports whether any ring index, excluding the pair's own two,
// has neither circular neighbor owned by the pair's node. Candidates are
// scanned in ring order; the first hit wins. No such index means the pair
// cannot be resolved with the current replica set.
func (r *Ring[T]) hasSafeSlot(pair AdjacentPair[T]) bool {
	var n = len(r.positions)
	for j := 0; j < n; j++ {
		if j == pair.FirstIndex || j == pair.SecondIndex {
			continue
		}

		var (
			pred = r.nodeAt[r.positions[(j-1+n)%n]]
			succ = r.nodeAt[r.positions[(j+1)%n]]
		)
		if r.options.nodeKey(pred) != pair.NodeKey && r.options.nodeKey(succ) != pair.NodeKey {
			return true
		}
	}

	return false
}

// relocate moves the second replica of pair to a rotated digest that is both
// unoccupied and non-adjacent to its own node. On rotation exhaustion the
// replica is restored to its old position and false is returned.
func (r *Ring[T]) relocate(pair AdjacentPair[T]) bool {
	var (
		node       = r.nodeAt[pair.SecondDigest]
		virtualKey = r.virtualAt[pair.SecondDigest]
	)
	r.remove(pair.SecondDigest)

	var rotated, digest, ok = r.rotateVirtualKey(virtualKey, func(candidate string) bool {
		return !r.wouldBeAdjacent(candidate, pair.NodeKey)
	})
	if !ok {
		r.insert(pair.SecondDigest, node, virtualKey)
		return false
	}

	r.insert(digest, node, rotated)
	r.options.logger.Debug("relocated adjacent replica",
		"node", pair.NodeKey, "from", pair.SecondDigest, "to", digest)
	return true
}

// wouldBeAdjacent simulates inserting digest into the sorted position list
// and reports whether either would-be circular neighbor is owned by nodeKey.
func (r *Ring[T]) wouldBeAdjacent(digest, nodeKey string) bool {
	var n = len(r.positions)
	if n == 0 {
		return false
	}

	var (
		idx  = r.searchPosition(digest)
		succ = r.nodeAt[r.positions[idx%n]]
		pred = r.nodeAt[r.positions[(idx-1+n)%n]]
	)
	return r.options.nodeKey(pred) == nodeKey || r.options.nodeKey(succ) == nodeKey
}
