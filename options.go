package hashring

import (
	"io"
	"log/slog"
	"strings"

	"github.com/zeromicro/go-zero/core/lang"
)

// options configures the Ring behavior (internal only).
type options[T any] struct {
	replicas            int
	maxRotationAttempts int
	spreadGroups        int
	digest              DigestFunc
	compare             CompareFunc
	nodeKey             NodeKeyFunc[T]
	logger              *slog.Logger
}

// defaultOptions returns sensible defaults.
func defaultOptions[T any]() options[T] {
	return options[T]{
		replicas:            50,
		maxRotationAttempts: 128,
		digest:              MD5Digest,
		compare:             strings.Compare,
		nodeKey:             func(node T) string { return lang.Repr(node) },
		logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option is a functional option for configuring a Ring.
type Option[T any] func(*options[T])

// WithReplicas sets the number of virtual nodes per physical node.
// DEFAULT: 50
func WithReplicas[T any](count int) Option[T] {
	return func(o *options[T]) {
		if count > 0 {
			o.replicas = count
		}
	}
}

// WithDigestFunc sets the digest function used for virtual keys and lookups.
// The function must be deterministic and pure. Digest functions whose output
// does not order lexicographically (e.g. decimal strings) must be paired
// with a matching comparator via WithCompareFunc.
// DEFAULT: MD5Digest
func WithDigestFunc[T any](fn DigestFunc) Option[T] {
	return func(o *options[T]) {
		if fn != nil {
			o.digest = fn
		}
	}
}

// WithCompareFunc sets the digest ordering.
// DEFAULT: lexicographic (strings.Compare)
func WithCompareFunc[T any](fn CompareFunc) Option[T] {
	return func(o *options[T]) {
		if fn != nil {
			o.compare = fn
		}
	}
}

// WithNodeKeyFunc sets the node-to-key function that identifies physical
// nodes. The ring never compares node values directly.
// DEFAULT: structural stringification (lang.Repr)
func WithNodeKeyFunc[T any](fn NodeKeyFunc[T]) Option[T] {
	return func(o *options[T]) {
		if fn != nil {
			o.nodeKey = fn
		}
	}
}

// WithMaxRotationAttempts caps the rotation-suffix retries used when
// relocating a replica or resolving a digest collision. Exhausting the cap
// is reported through ValidateDistribution rather than failing.
// DEFAULT: 128
func WithMaxRotationAttempts[T any](attempts int) Option[T] {
	return func(o *options[T]) {
		if attempts > 0 {
			o.maxRotationAttempts = attempts
		}
	}
}

// WithSpreadGroups enables spread hashing for initial replica placement:
// replica indices are split into groups synthetic sub-groups before hashing,
// which decorrelates consecutive indices of the same node. Values below 2
// disable spreading.
// DEFAULT: disabled
func WithSpreadGroups[T any](groups int) Option[T] {
	return func(o *options[T]) {
		o.spreadGroups = groups
	}
}

// WithLogger sets the logger for the ring.
// If the logger is nil, the ring will use a no-op logger.
// DEFAULT: A no-op logger
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(o *options[T]) {
		if logger == nil {
			o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			return
		}

		o.logger = logger
	}
}
