package state

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/tokamak-network/syb-circuits/crypto/hash/poseidon"
	"github.com/tokamak-network/syb-circuits/types"
)

// FieldPrime is the scalar field modulus every commitment is computed over.
// All inputs are reduced to their canonical representative in [0, P) before
// hashing or comparison, so x and x+k*P commit identically.
var FieldPrime = fr.Modulus()

// HashScheme names one of the two chunked commitment layouts. They are not
// bit-compatible; a deployment picks exactly one.
type HashScheme int

const (
	// SchemeNbrHash commits (degree, neighbors): the first block is
	// [d, n0..n14] and each later block chains the accumulator with 15
	// further neighbor slots. This is the canonical scheme.
	SchemeNbrHash HashScheme = iota
	// SchemeNodeHash additionally binds the vertex id: the first block is
	// [v, d, n0..n13], leaving 14 neighbor slots in the first round.
	SchemeNodeHash
)

func (s HashScheme) String() string {
	switch s {
	case SchemeNbrHash:
		return "nbrhash"
	case SchemeNodeHash:
		return "nodehash"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// PadLen returns the fixed neighbor-array length for the scheme and the
// given maximum degree. It is always sized so that the chunked rounds
// consume the array exactly.
func (s HashScheme) PadLen(maxDegree uint64) int {
	if s == SchemeNodeHash {
		// 14 slots in the first block, 15 per additional block
		if maxDegree <= 14 {
			return 14
		}
		groups := (maxDegree - 14 + 14) / 15
		return int(14 + 15*groups)
	}
	// 15 slots per block, at least one block
	if maxDegree == 0 {
		return types.HashBlockSize
	}
	groups := (maxDegree + 14) / 15
	return int(types.HashBlockSize * groups)
}

// Hasher computes the chunked commitment of a vertex's degree and sorted
// neighbor array. The 16-ary permutation is injectable so the accumulator
// can be checked against reference vectors.
type Hasher struct {
	scheme    HashScheme
	maxDegree uint64
	permuter  poseidon.Permuter
}

// NewHasher returns a Hasher for the given scheme and maximum degree,
// backed by the production Poseidon permutation.
func NewHasher(scheme HashScheme, maxDegree uint64) *Hasher {
	return &Hasher{
		scheme:    scheme,
		maxDegree: maxDegree,
		permuter:  poseidon.Poseidon16{},
	}
}

// WithPermuter replaces the 16-ary permutation, for vector cross-checks.
func (h *Hasher) WithPermuter(p poseidon.Permuter) *Hasher {
	h.permuter = p
	return h
}

// Scheme returns the hasher's commitment layout.
func (h *Hasher) Scheme() HashScheme { return h.scheme }

// MaxDegree returns the maximum degree the hasher is sized for.
func (h *Hasher) MaxDegree() uint64 { return h.maxDegree }

// PadLen returns the neighbor-array length the hasher expects.
func (h *Hasher) PadLen() int { return h.scheme.PadLen(h.maxDegree) }

// Hash commits (degree, neighbors) under SchemeNbrHash, or
// (vertex, degree, neighbors) under SchemeNodeHash; the vertex id is
// ignored by SchemeNbrHash. The neighbor slice must have length PadLen and
// pass validation against the degree after canonical reduction.
func (h *Hasher) Hash(vertex types.VertexID, degree uint64, neighbors []*big.Int) (*big.Int, error) {
	padLen := h.PadLen()
	if len(neighbors) != padLen {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidLength, len(neighbors), padLen)
	}
	reduced := reduceAll(neighbors)
	if err := ValidateNeighborArray(degree, reduced); err != nil {
		return nil, err
	}

	block := make([]*big.Int, poseidon.MaxInputs)
	var offset int
	switch h.scheme {
	case SchemeNodeHash:
		block[0] = new(big.Int).Mod(vertex.BigInt(), FieldPrime)
		block[1] = new(big.Int).SetUint64(degree)
		copy(block[2:], reduced[:14])
		offset = 14
	default:
		block[0] = new(big.Int).SetUint64(degree)
		copy(block[1:], reduced[:15])
		offset = 15
	}

	acc, err := h.permuter.Permute16(block)
	if err != nil {
		return nil, fmt.Errorf("hash round 0: %w", err)
	}
	for round := 1; offset < padLen; round++ {
		block[0] = acc
		copy(block[1:], reduced[offset:offset+15])
		if acc, err = h.permuter.Permute16(block); err != nil {
			return nil, fmt.Errorf("hash round %d: %w", round, err)
		}
		offset += 15
	}
	return acc, nil
}

// PadNeighbors converts a sorted adjacency list to the padded big.Int
// array the hasher consumes.
func (h *Hasher) PadNeighbors(nbrs []uint64) ([]*big.Int, error) {
	padLen := h.PadLen()
	if len(nbrs) > padLen {
		return nil, fmt.Errorf("%w: %d neighbors exceed padded length %d",
			ErrInvalidLength, len(nbrs), padLen)
	}
	out := make([]*big.Int, padLen)
	for i := range out {
		if i < len(nbrs) {
			out[i] = new(big.Int).SetUint64(nbrs[i])
		} else {
			out[i] = new(big.Int)
		}
	}
	return out, nil
}

// HashNeighborArray commits (degree, neighbors) under the canonical
// SchemeNbrHash layout sized for maxDegree.
func HashNeighborArray(degree uint64, neighbors []*big.Int, maxDegree uint64) (*big.Int, error) {
	return NewHasher(SchemeNbrHash, maxDegree).Hash(0, degree, neighbors)
}

func reduceAll(values []*big.Int) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = new(big.Int).Mod(v, FieldPrime)
	}
	return out
}
