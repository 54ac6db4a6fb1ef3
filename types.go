package hashring

type (
	// DigestFunc maps a key to its ring position. It must be deterministic
	// and pure; the ring recomputes digests rather than caching them.
	DigestFunc func(key string) string

	// CompareFunc orders two digests. It returns a negative value when
	// a sorts before b, zero when they are equal, and a positive value
	// when a sorts after b.
	CompareFunc func(a, b string) int

	// NodeKeyFunc maps a physical node to its stable string identity.
	// Two node values are the same physical node iff their keys are equal.
	NodeKeyFunc[T any] func(node T) string
)

// Ring maps string keys onto a dynamic set of physical nodes using
// consistent hashing with virtual replicas. Adding or removing a node only
// remaps the keys on the arcs that node occupied.
//
// A Ring is not safe for concurrent use. Callers must serialize mutations
// and keep reads out of mutation windows.
type Ring[T any] struct {
	positions []string          // Sorted digests of all virtual nodes
	nodeAt    map[string]T      // Digest -> owning physical node
	virtualAt map[string]string // Digest -> virtual key that produced it
	repairLog []string          // Diagnostics recorded by the last mutation
	options   options[T]
}

// Range is the arc (Start, End] owned by one virtual node. Start is the
// digest of the ring predecessor, wrapping to the maximum digest when End
// holds the minimum position.
type Range struct {
	Start string
	End   string
}

// OrderedNode is one ring position in ascending digest order.
type OrderedNode[T any] struct {
	Digest       string
	Node         T
	ReplicaIndex int
}

// AdjacentPair records two circularly consecutive ring positions owned by
// the same physical node.
type AdjacentPair[T any] struct {
	Node         T
	NodeKey      string
	FirstDigest  string
	SecondDigest string
	FirstIndex   int
	SecondIndex  int
}

// NodeDigests groups the ring positions owned by one physical node.
type NodeDigests[T any] struct {
	Node    T
	Digests []string
}

// Validation reports ring health as seen by ValidateDistribution.
type Validation struct {
	IsValid       bool
	AdjacentPairs int
	ReplicaCounts map[string]int
	Issues        []string
}
