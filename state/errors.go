package state

import "errors"

// Named rejection kinds for the edge-insertion protocol and the
// neighbor-array primitives. Callers match them with errors.Is; the
// wrapped message carries the offending values.
var (
	// ErrInvalidLength reports a neighbor array whose length is not the
	// padded length derived from the maximum degree.
	ErrInvalidLength = errors.New("invalid neighbor array length")
	// ErrArrayValidationFailed reports a neighbor array violating the
	// padding or strict-ascending-order invariants.
	ErrArrayValidationFailed = errors.New("neighbor array validation failed")
	// ErrSelfLoop reports an edge with identical endpoints.
	ErrSelfLoop = errors.New("self loop")
	// ErrVertexOutOfRange reports a vertex id of zero or beyond the tree's
	// key space.
	ErrVertexOutOfRange = errors.New("vertex id out of range")
	// ErrDegreeIncrementInvalid reports a transition where an endpoint's
	// degree does not grow by exactly one.
	ErrDegreeIncrementInvalid = errors.New("degree must increase by exactly one")
	// ErrDegreeExceedsMax reports a new degree beyond the maximum.
	ErrDegreeExceedsMax = errors.New("degree exceeds maximum")
	// ErrDuplicateEdge reports an edge whose endpoints already list each
	// other as neighbors.
	ErrDuplicateEdge = errors.New("edge already present")
	// ErrInconsistentProof reports a sibling path that does not reconcile
	// with the claimed root and leaf value.
	ErrInconsistentProof = errors.New("merkle proof does not match root")
	// ErrVertexAlreadyExists reports an AddVertex for a seeded vertex.
	ErrVertexAlreadyExists = errors.New("vertex already exists")
	// ErrVertexNotFound reports an edge endpoint that was never seeded.
	ErrVertexNotFound = errors.New("vertex not found")
)
