package types

const (
	// GraphTreeMaxLevels is the depth of the graph state tree. Vertex ids
	// live in [1, 2^GraphTreeMaxLevels - 1]; id 0 is reserved for the empty
	// leaf and must never be used as a key or a neighbor value.
	GraphTreeMaxLevels = 32

	// HashBlockSize is the number of neighbor slots consumed by each
	// Poseidon-16 round. The first round also carries the degree (and, for
	// the node-hash layout, the vertex id), subsequent rounds carry the
	// previous accumulator.
	HashBlockSize = 15

	// MaxDegree is the default per-vertex degree bound. It matches the
	// bound the paired circuit was compiled with.
	MaxDegree = 60

	// EdgesPerBatch is the number of edge insertions aggregated into a
	// single batch commitment.
	EdgesPerBatch = 16
)
