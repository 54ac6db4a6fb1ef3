// Package hashring implements a consistent hashing ring over string digests
// with virtual replicas and adjacency-avoidance rebalancing. Keys map to the
// first ring position clockwise from their digest, so membership changes
// only remap the arcs the changed node occupied.
package hashring

import (
	"fmt"
	"sort"
)

// NewRing creates a ring and seeds it by adding initialNodes in order.
func NewRing[T any](initialNodes []T, opts ...Option[T]) *Ring[T] {
	var options = defaultOptions[T]()
	for _, opt := range opts {
		opt(&options)
	}

	var r = &Ring[T]{
		positions: make([]string, 0),
		nodeAt:    make(map[string]T),
		virtualAt: make(map[string]string),
		options:   options,
	}

	for _, node := range initialNodes {
		r.AddNode(node)
	}

	return r
}

// AddNode inserts the configured number of virtual replicas for node and
// rebalances the ring. Adding a node that is already present duplicates its
// replicas; callers wanting an idempotent re-add must RemoveNode first.
func (r *Ring[T]) AddNode(node T) {
	r.repairLog = r.repairLog[:0]

	var nodeKey = r.options.nodeKey(node)
	for i := 0; i < r.options.replicas; i++ {
		var (
			virtualKey = r.virtualKey(nodeKey, i)
			digest     = r.options.digest(virtualKey)
		)

		// A colliding digest must never clobber an existing binding.
		// Rotate the key the same way repair does until a free slot appears.
		if _, occupied := r.nodeAt[digest]; occupied {
			var rotated, rotatedDigest, ok = r.rotateVirtualKey(virtualKey, nil)
			if !ok {
				r.repairLog = append(r.repairLog, fmt.Sprintf(
					"digest collision for %q not resolved within %d rotation(s)",
					virtualKey, r.options.maxRotationAttempts))
				r.options.logger.Warn("dropping replica after digest collision",
					"virtualKey", virtualKey, "node", nodeKey)
				continue
			}
			virtualKey, digest = rotated, rotatedDigest
		}

		r.insert(digest, node, virtualKey)
	}

	r.fixAdjacentReplicas()
}

// RemoveNode deletes every replica owned by node and rebalances. Removing a
// node that is not on the ring is a no-op. Removal can close a gap between
// two replicas of another node, so repair runs here as well.
func (r *Ring[T]) RemoveNode(node T) {
	r.repairLog = r.repairLog[:0]

	var (
		nodeKey = r.options.nodeKey(node)
		owned   = make([]string, 0, r.options.replicas)
	)
	for digest, bound := range r.nodeAt {
		if r.options.nodeKey(bound) == nodeKey {
			owned = append(owned, digest)
		}
	}
	for _, digest := range owned {
		r.remove(digest)
	}

	r.fixAdjacentReplicas()
}

// GetNode returns the node owning key: the first position clockwise from the
// key's digest, wrapping past the maximum digest to the minimum. The second
// return is false only when the ring holds no virtual nodes.
func (r *Ring[T]) GetNode(key string) (T, bool) {
	var zero T
	if len(r.positions) == 0 {
		return zero, false
	}

	var idx = r.searchPosition(r.options.digest(key))
	if idx == len(r.positions) {
		idx = 0
	}

	return r.nodeAt[r.positions[idx]], true
}

// GetNodesCount returns the number of distinct physical nodes on the ring.
func (r *Ring[T]) GetNodesCount() int {
	var seen = make(map[string]struct{}, len(r.nodeAt))
	for _, node := range r.nodeAt {
		seen[r.options.nodeKey(node)] = struct{}{}
	}
	return len(seen)
}

// virtualKey builds the key hashed for one replica of a node.
func (r *Ring[T]) virtualKey(nodeKey string, index int) string {
	if r.options.spreadGroups > 1 {
		return fmt.Sprintf("%s:%d_spread%d", nodeKey, index, index%r.options.spreadGroups)
	}
	return fmt.Sprintf("%s:%d", nodeKey, index)
}

// insert binds digest to node and virtualKey across all three structures,
// keeping the position index sorted.
func (r *Ring[T]) insert(digest string, node T, virtualKey string) {
	var idx = r.searchPosition(digest)
	r.positions = append(r.positions, "")
	copy(r.positions[idx+1:], r.positions[idx:])
	r.positions[idx] = digest

	r.nodeAt[digest] = node
	r.virtualAt[digest] = virtualKey
}

// remove deletes digest from all three structures.
func (r *Ring[T]) remove(digest string) {
	var idx = r.searchPosition(digest)
	if idx < len(r.positions) && r.positions[idx] == digest {
		r.positions = append(r.positions[:idx], r.positions[idx+1:]...)
	}

	delete(r.nodeAt, digest)
	delete(r.virtualAt, digest)
}

// searchPosition returns the index of the first stored digest >= target,
// or len(positions) when every stored digest sorts before target.
func (r *Ring[T]) searchPosition(target string) int {
	return sort.Search(len(r.positions), func(i int) bool {
		return r.options.compare(r.positions[i], target) >= 0
	})
}

// rotateVirtualKey derives successive "_rotate<n>" variants of virtualKey
// until one hashes to an unoccupied digest accepted by check, or the
// attempt cap runs out. A nil check accepts any free digest.
func (r *Ring[T]) rotateVirtualKey(virtualKey string, check func(digest string) bool) (string, string, bool) {
	for attempt := 1; attempt <= r.options.maxRotationAttempts; attempt++ {
		var (
			rotated = fmt.Sprintf("%s_rotate%d", virtualKey, attempt)
			digest  = r.options.digest(rotated)
		)
		if _, occupied := r.nodeAt[digest]; occupied {
			continue
		}
		if check != nil && !check(digest) {
			continue
		}
		return rotated, digest, true
	}

	return "", "", false
}
