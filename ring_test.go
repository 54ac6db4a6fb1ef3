package hashring

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableDigest builds a digest function from a fixed mapping. Unknown keys
// fall back to the key itself, which sorts into the top region of the
// two-digit rings the tests use.
func tableDigest(table map[string]string) DigestFunc {
	return func(key string) string {
		if digest, ok := table[key]; ok {
			return digest
		}
		return key
	}
}

func TestRing(t *testing.T) {
	t.Run("should create new ring with correct defaults", func(t *testing.T) {
		// Arrange & Act
		var sut = NewRing[string](nil)

		// Assert
		require.NotNil(t, sut)
		assert.Equal(t, 50, sut.options.replicas)
		assert.Equal(t, 128, sut.options.maxRotationAttempts)
		assert.Empty(t, sut.positions)
		assert.Zero(t, sut.GetNodesCount())
	})

	t.Run("should return absence for lookup on empty ring", func(t *testing.T) {
		// Arrange
		var sut = NewRing[string](nil)

		// Act
		var _, found = sut.GetNode("anything")

		// Assert
		assert.False(t, found)
	})

	t.Run("should route every key to the only node", func(t *testing.T) {
		// Arrange
		var sut = NewRing([]string{"A"}, WithReplicas[string](5))

		// Act & Assert
		for i := 0; i < 50; i++ {
			node, found := sut.GetNode(fmt.Sprintf("key-%d", i))
			require.True(t, found)
			assert.Equal(t, "A", node)
		}
	})

	t.Run("should route deterministically for fixed ring state", func(t *testing.T) {
		// Arrange
		var (
			nodes = []string{"A", "B", "C"}
			ring1 = NewRing(nodes, WithReplicas[string](10))
			ring2 = NewRing(nodes, WithReplicas[string](10))
		)

		// Act & Assert
		for i := 0; i < 100; i++ {
			var key = fmt.Sprintf("user:%d", i)
			first, found1 := ring1.GetNode(key)
			repeat, _ := ring1.GetNode(key)
			other, found2 := ring2.GetNode(key)

			require.True(t, found1)
			require.True(t, found2)
			assert.Equal(t, first, repeat, "repeated lookup must not move key %s", key)
			assert.Equal(t, first, other, "identical ring contents must route key %s identically", key)
		}
	})

	t.Run("should distribute keys across all nodes", func(t *testing.T) {
		// Arrange
		var (
			sut          = NewRing([]string{"A", "B", "C"}, WithReplicas[string](10))
			distribution = make(map[string]int)
			numKeys      = 1000
		)

		// Act
		for i := 0; i < numKeys; i++ {
			node, found := sut.GetNode(fmt.Sprintf("key-%d", i))
			require.True(t, found)
			distribution[node]++
		}

		// Assert
		assert.Len(t, distribution, 3, "every node should own some keys")
		for node, count := range distribution {
			var percentage = float64(count) / float64(numKeys) * 100
			assert.Less(t, percentage, 90.0, "node %s owns too large a share", node)
		}
	})

	t.Run("should track distinct node count through churn", func(t *testing.T) {
		// Arrange
		var sut = NewRing([]string{"A", "B", "C"}, WithReplicas[string](10))
		require.Equal(t, 3, sut.GetNodesCount())

		// Act & Assert
		sut.RemoveNode("B")
		assert.Equal(t, 2, sut.GetNodesCount())

		sut.RemoveNode("B") // removing an absent node is a no-op
		assert.Equal(t, 2, sut.GetNodesCount())

		sut.AddNode("D")
		assert.Equal(t, 3, sut.GetNodesCount())
	})

	t.Run("should route orphaned keys to surviving nodes after removal", func(t *testing.T) {
		// Arrange
		var (
			sut    = NewRing([]string{"A", "B", "C"}, WithReplicas[string](10))
			before = make(map[string]string)
		)
		for i := 0; i < 500; i++ {
			var key = fmt.Sprintf("key-%d", i)
			node, found := sut.GetNode(key)
			require.True(t, found)
			before[key] = node
		}

		// Act
		sut.RemoveNode("B")

		// Assert
		assert.Equal(t, 2, sut.GetNodesCount())
		for key, previous := range before {
			node, found := sut.GetNode(key)
			require.True(t, found, "non-empty ring must own every key")
			assert.Contains(t, []string{"A", "C"}, node)
			if previous == "B" {
				assert.NotEqual(t, "B", node, "keys owned by the removed node must move")
			}
		}
	})

	t.Run("should keep unrelated keys in place when a node leaves", func(t *testing.T) {
		// Arrange: positions laid out so removal cannot trigger rebalancing.
		var digest = tableDigest(map[string]string{
			"a:0": "10", "a:1": "30",
			"b:0": "20", "b:1": "40",
			"c:0": "15", "c:1": "35",
		})
		var sut = NewRing([]string{"a", "b", "c"},
			WithReplicas[string](2),
			WithDigestFunc[string](digest),
		)

		var keys = []string{"05", "12", "17", "28", "33", "99"}
		var before = make(map[string]string)
		for _, key := range keys {
			node, found := sut.GetNode(key)
			require.True(t, found)
			before[key] = node
		}
		require.Equal(t, "b", before["17"])

		// Act
		sut.RemoveNode("b")

		// Assert: only keys previously routed to b may move.
		for _, key := range keys {
			node, found := sut.GetNode(key)
			require.True(t, found)
			if before[key] != "b" {
				assert.Equal(t, before[key], node, "key %s moved despite its owner surviving", key)
			} else {
				assert.NotEqual(t, "b", node)
			}
		}
	})

	t.Run("should duplicate replicas when re-adding a present node", func(t *testing.T) {
		// Arrange
		var sut = NewRing([]string{"A"}, WithReplicas[string](5))
		require.Len(t, sut.positions, 5)

		// Act: duplicate virtual keys collide and rotate to fresh digests.
		sut.AddNode("A")

		// Assert
		assert.Len(t, sut.positions, 10)
		assert.Equal(t, 1, sut.GetNodesCount())
	})

	t.Run("should never clobber a binding on digest collision", func(t *testing.T) {
		// Arrange: every unrotated virtual key collides on one digest.
		var digest = func(key string) string {
			if strings.Contains(key, "_rotate") {
				return MD5Digest(key)
			}
			return "00collide"
		}
		// Act
		var sut = NewRing([]string{"A"},
			WithReplicas[string](3),
			WithDigestFunc[string](digest),
		)

		// Assert
		require.Len(t, sut.positions, 3)
		for _, position := range sut.GetOrderedNodes() {
			assert.Equal(t, "A", position.Node)
		}
	})

	t.Run("should support numeric digests via injected comparator", func(t *testing.T) {
		// Arrange
		var sut = NewRing([]string{"A", "B"},
			WithReplicas[string](10),
			WithDigestFunc[string](Murmur3Digest),
			WithCompareFunc[string](NumericCompare),
		)

		// Act & Assert
		assert.Equal(t, 2, sut.GetNodesCount())
		for i := 0; i < 100; i++ {
			var key = fmt.Sprintf("key-%d", i)
			first, found := sut.GetNode(key)
			require.True(t, found)
			repeat, _ := sut.GetNode(key)
			assert.Equal(t, first, repeat)
		}
	})

	t.Run("should identify physical nodes by injected node key", func(t *testing.T) {
		// Arrange
		type server struct {
			ID   string
			Addr string
		}
		var sut = NewRing([]server{{ID: "s1", Addr: "10.0.0.1:6379"}},
			WithReplicas[server](5),
			WithNodeKeyFunc(func(s server) string { return s.ID }),
		)
		require.Equal(t, 1, sut.GetNodesCount())

		// Act: same ID, different value. Identity comes from the key alone.
		sut.RemoveNode(server{ID: "s1", Addr: "10.0.0.2:6379"})

		// Assert
		assert.Zero(t, sut.GetNodesCount())
		assert.Empty(t, sut.positions)
	})

	t.Run("should place replicas with spread hashing when enabled", func(t *testing.T) {
		// Arrange & Act
		var sut = NewRing([]string{"A", "B"},
			WithReplicas[string](8),
			WithSpreadGroups[string](4),
		)

		// Assert
		var validation = sut.ValidateDistribution()
		assert.Equal(t, 8, validation.ReplicaCounts["A"])
		assert.Equal(t, 8, validation.ReplicaCounts["B"])
		for _, position := range sut.GetOrderedNodes() {
			assert.GreaterOrEqual(t, position.ReplicaIndex, 0)
			assert.Less(t, position.ReplicaIndex, 8)
		}
	})
}
