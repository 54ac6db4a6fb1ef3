package hashring

import (
	"fmt"
	"sort"
	"strings"
)

// ValidateDistribution checks the ring against its configured shape.
// IsValid holds iff there are zero adjacent same-node pairs and every node
// owns exactly the configured number of replicas. Residual repair
// diagnostics from the last mutation are carried into Issues.
func (r *Ring[T]) ValidateDistribution() Validation {
	var (
		pairs  = r.FindAdjacentReplicas()
		counts = make(map[string]int)
		issues = make([]string, 0)
	)
	for _, digest := range r.positions {
		counts[r.options.nodeKey(r.nodeAt[digest])]++
	}

	if len(pairs) > 0 {
		issues = append(issues, fmt.Sprintf("%d adjacent same-node pair(s) on the ring", len(pairs)))
	}

	var countsMatch = true
	for _, key := range sortedKeys(counts) {
		if counts[key] != r.options.replicas {
			countsMatch = false
			issues = append(issues, fmt.Sprintf(
				"node %q owns %d position(s), want %d", key, counts[key], r.options.replicas))
		}
	}

	issues = append(issues, r.repairLog...)

	return Validation{
		IsValid:       len(pairs) == 0 && countsMatch,
		AdjacentPairs: len(pairs),
		ReplicaCounts: counts,
		Issues:        issues,
	}
}

// String returns a visual representation of the ring state.
func (r *Ring[T]) String() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Nodes: %d | Positions: %d | Replicas per node: %d\n",
		r.GetNodesCount(), len(r.positions), r.options.replicas))

	if len(r.positions) == 0 {
		b.WriteString("\n[Empty Ring]\n")
		return b.String()
	}

	b.WriteString("\nRing Topology:\n")
	var n = len(r.positions)
	for i, digest := range r.positions {
		var (
			owner = r.options.nodeKey(r.nodeAt[digest])
			start = r.positions[(i-1+n)%n]
		)
		b.WriteString(fmt.Sprintf("  @%-14s %-20s (%s..%s]\n",
			shortDigest(digest), owner, shortDigest(start), shortDigest(digest)))
	}

	b.WriteString("\nNode Summary:\n")
	var distribution = r.GetNodeDistribution()
	for _, key := range sortedKeys(distribution) {
		b.WriteString(fmt.Sprintf("  %-20s positions: %d\n", key, len(distribution[key].Digests)))
	}

	return b.String()
}

// shortDigest truncates long digests for display.
func shortDigest(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}

func sortedKeys[V any](m map[string]V) []string {
	var keys = make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
