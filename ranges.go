package hashring

import (
	"strconv"
	"strings"
)

// GetRangesForNode returns one (Start, End] arc per replica owned by node.
// Start is the ring predecessor of the replica's digest, wrapping to the
// maximum digest when the replica holds the minimum position.
func (r *Ring[T]) GetRangesForNode(node T) []Range {
	var (
		nodeKey = r.options.nodeKey(node)
		n       = len(r.positions)
		ranges  = make([]Range, 0)
	)
	for i, digest := range r.positions {
		if r.options.nodeKey(r.nodeAt[digest]) != nodeKey {
			continue
		}
		ranges = append(ranges, Range{
			Start: r.positions[(i-1+n)%n],
			End:   digest,
		})
	}

	return ranges
}

// GetNodeForRange returns the node owning rng. Ownership of a range is
// always carried by its end digest.
func (r *Ring[T]) GetNodeForRange(rng Range) (T, bool) {
	var node, ok = r.nodeAt[rng.End]
	return node, ok
}

// GetNodesInRange returns the distinct physical nodes whose digests fall in
// [start, end] under the ring's comparator. When start sorts after end the
// range wraps around the top of the ring and matches digests >= start or
// <= end.
func (r *Ring[T]) GetNodesInRange(start, end string) []T {
	var (
		wraps = r.options.compare(start, end) > 0
		seen  = make(map[string]struct{})
		nodes = make([]T, 0)
	)
	for _, digest := range r.positions {
		var (
			geStart = r.options.compare(digest, start) >= 0
			leEnd   = r.options.compare(digest, end) <= 0
			inside  bool
		)
		if wraps {
			inside = geStart || leEnd
		} else {
			inside = geStart && leEnd
		}
		if !inside {
			continue
		}

		var key = r.options.nodeKey(r.nodeAt[digest])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		nodes = append(nodes, r.nodeAt[digest])
	}

	return nodes
}

// GetOrderedNodes returns every ring position in ascending digest order with
// its owning node and recovered replica index.
func (r *Ring[T]) GetOrderedNodes() []OrderedNode[T] {
	var ordered = make([]OrderedNode[T], 0, len(r.positions))
	for _, digest := range r.positions {
		var node = r.nodeAt[digest]
		ordered = append(ordered, OrderedNode[T]{
			Digest:       digest,
			Node:         node,
			ReplicaIndex: replicaIndex(r.virtualAt[digest], r.options.nodeKey(node)),
		})
	}

	return ordered
}

// GetNodeDistribution groups ring positions by physical node, keyed by the
// node's string identity. Digest lists come out in ascending ring order.
func (r *Ring[T]) GetNodeDistribution() map[string]NodeDigests[T] {
	var distribution = make(map[string]NodeDigests[T])
	for _, digest := range r.positions {
		var (
			node = r.nodeAt[digest]
			key  = r.options.nodeKey(node)
		)

		var entry, exists = distribution[key]
		if !exists {
			entry = NodeDigests[T]{Node: node}
		}
		entry.Digests = append(entry.Digests, digest)
		distribution[key] = entry
	}

	return distribution
}

// replicaIndex parses the replica index out of a virtual key: the integer
// right after the "<nodeKey>:" prefix, before any rotation or spread suffix.
// Returns -1 for keys that do not carry an index.
func replicaIndex(virtualKey, nodeKey string) int {
	var rest = strings.TrimPrefix(virtualKey, nodeKey+":")

	var end = 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}

	var index, err = strconv.Atoi(rest[:end])
	if err != nil {
		return -1
	}
	return index
}
