package state

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/tokamak-network/syb-circuits/crypto/hash/poseidon"
)

func paddedNeighbors(c *qt.C, h *Hasher, nbrs ...uint64) []*big.Int {
	c.TB.Helper()
	out, err := h.PadNeighbors(nbrs)
	c.Assert(err, qt.IsNil)
	return out
}

func TestPadLen(t *testing.T) {
	c := qt.New(t)

	for maxDeg, want := range map[uint64]int{0: 15, 1: 15, 14: 15, 15: 15, 16: 30, 30: 30, 31: 45, 60: 60} {
		c.Assert(SchemeNbrHash.PadLen(maxDeg), qt.Equals, want,
			qt.Commentf("nbrhash maxDeg=%d", maxDeg))
	}
	for maxDeg, want := range map[uint64]int{1: 14, 14: 14, 15: 29, 30: 44, 59: 59, 60: 74} {
		c.Assert(SchemeNodeHash.PadLen(maxDeg), qt.Equals, want,
			qt.Commentf("nodehash maxDeg=%d", maxDeg))
	}
}

func TestHashDeterminismAndReduction(t *testing.T) {
	c := qt.New(t)
	h := NewHasher(SchemeNbrHash, 15)

	nbrs := paddedNeighbors(c, h, 3, 7, 9)
	h1, err := h.Hash(0, 3, nbrs)
	c.Assert(err, qt.IsNil)
	h2, err := h.Hash(0, 3, nbrs)
	c.Assert(err, qt.IsNil)
	c.Assert(h1.Cmp(h2), qt.Equals, 0)

	// values beyond the field must hash as their canonical reduction:
	// 2P+1 is the same neighbor as 1
	shifted := paddedNeighbors(c, h, 0, 7, 9)
	shifted[0] = new(big.Int).Add(big.NewInt(1), new(big.Int).Mul(FieldPrime, big.NewInt(2)))
	canonical := paddedNeighbors(c, h, 1, 7, 9)
	hShifted, err := h.Hash(0, 3, shifted)
	c.Assert(err, qt.IsNil)
	hCanonical, err := h.Hash(0, 3, canonical)
	c.Assert(err, qt.IsNil)
	c.Assert(hShifted.Cmp(hCanonical), qt.Equals, 0)
}

func TestHashInvalidLength(t *testing.T) {
	c := qt.New(t)
	h := NewHasher(SchemeNbrHash, 15)

	_, err := h.Hash(0, 0, make([]*big.Int, 14))
	c.Assert(err, qt.ErrorIs, ErrInvalidLength)

	_, err = h.Hash(0, 2, paddedNeighbors(c, h, 5, 5))
	c.Assert(err, qt.ErrorIs, ErrArrayValidationFailed)
}

// A degree exactly filling the block boundary must hash identically via the
// one-shot function and via explicit round-by-round accumulation.
func TestHashBlockBoundaries(t *testing.T) {
	c := qt.New(t)
	permuter := poseidon.Poseidon16{}

	for _, degree := range []uint64{15, 30, 60} {
		h := NewHasher(SchemeNbrHash, degree)
		adj := make([]uint64, degree)
		for i := range adj {
			adj[i] = uint64(i + 1)
		}
		nbrs := paddedNeighbors(c, h, adj...)

		got, err := h.Hash(0, degree, nbrs)
		c.Assert(err, qt.IsNil)

		// explicit accumulation
		block := make([]*big.Int, 16)
		block[0] = new(big.Int).SetUint64(degree)
		copy(block[1:], nbrs[:15])
		acc, err := permuter.Permute16(block)
		c.Assert(err, qt.IsNil)
		for offset := 15; offset < len(nbrs); offset += 15 {
			block[0] = acc
			copy(block[1:], nbrs[offset:offset+15])
			acc, err = permuter.Permute16(block)
			c.Assert(err, qt.IsNil)
		}
		c.Assert(got.Cmp(acc), qt.Equals, 0, qt.Commentf("degree=%d", degree))
	}
}

// The two layouts bind different first blocks and must not collide on the
// same inputs.
func TestHashSchemesDiffer(t *testing.T) {
	c := qt.New(t)

	nbr := NewHasher(SchemeNbrHash, 15)
	node := NewHasher(SchemeNodeHash, 14)

	hNbr, err := nbr.Hash(5, 2, paddedNeighbors(c, nbr, 3, 4))
	c.Assert(err, qt.IsNil)
	hNode, err := node.Hash(5, 2, paddedNeighbors(c, node, 3, 4))
	c.Assert(err, qt.IsNil)
	c.Assert(hNbr.Cmp(hNode), qt.Not(qt.Equals), 0)

	// the vertex id changes the nodehash commitment but not the nbrhash one
	hNode2, err := node.Hash(6, 2, paddedNeighbors(c, node, 3, 4))
	c.Assert(err, qt.IsNil)
	c.Assert(hNode.Cmp(hNode2), qt.Not(qt.Equals), 0)

	hNbr2, err := nbr.Hash(6, 2, paddedNeighbors(c, nbr, 3, 4))
	c.Assert(err, qt.IsNil)
	c.Assert(hNbr.Cmp(hNbr2), qt.Equals, 0)
}

func TestHashNeighborArray(t *testing.T) {
	c := qt.New(t)
	h := NewHasher(SchemeNbrHash, 60)

	nbrs := paddedNeighbors(c, h, 2, 4, 6)
	viaHasher, err := h.Hash(0, 3, nbrs)
	c.Assert(err, qt.IsNil)
	viaFunc, err := HashNeighborArray(3, nbrs, 60)
	c.Assert(err, qt.IsNil)
	c.Assert(viaFunc.Cmp(viaHasher), qt.Equals, 0)
}
