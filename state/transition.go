package state

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/tokamak-network/syb-circuits/types"
)

// Params are the static parameters of the edge-insertion protocol.
type Params struct {
	// NLevels is the graph tree depth; vertex ids live in [1, 2^NLevels).
	NLevels int
	// MaxDegree bounds the degree of every vertex.
	MaxDegree uint64
	// Scheme selects the commitment layout.
	Scheme HashScheme
}

// DefaultParams returns the deployment's production parameters.
func DefaultParams() Params {
	return Params{
		NLevels:   types.GraphTreeMaxLevels,
		MaxDegree: types.MaxDegree,
		Scheme:    SchemeNbrHash,
	}
}

// PadLen returns the neighbor-array length implied by the parameters.
func (p Params) PadLen() int { return p.Scheme.PadLen(p.MaxDegree) }

// EdgeInsertion carries every input of one edge-insertion transition: the
// endpoints, their declared degree changes and neighbor arrays, the sibling
// paths, and the root being transitioned from.
//
// SiblingsU proves U's leaf under OldRoot. SiblingsV must prove V's leaf
// under the intermediate root produced by U's update, not under OldRoot,
// since updating U can change nodes along V's path.
type EdgeInsertion struct {
	U, V types.VertexID

	OldDegU, OldDegV uint64
	NewDegU, NewDegV uint64

	OldNbrU, OldNbrV []*big.Int
	NewNbrU, NewNbrV []*big.Int

	SiblingsU, SiblingsV []*big.Int

	OldRoot *big.Int
}

// ApplyEdgeInsertion runs the edge-insertion protocol: the ordered
// precondition checks, the four neighbor-array commitments, and the two
// chained single-leaf updates (U first, then V against the intermediate
// root). On success it returns the new root; on any violation it returns
// one of the named error kinds and leaves no side effects.
//
// The protocol checks structural consistency only. It does not verify that
// the new arrays are exactly the old arrays plus the counterpart vertex;
// constructing that delta correctly (see InsertNeighbor) is the caller's
// responsibility.
func ApplyEdgeInsertion(in *EdgeInsertion, params Params) (*big.Int, error) {
	if in.U == in.V {
		return nil, fmt.Errorf("%w: vertex %d", ErrSelfLoop, in.U)
	}
	if !in.U.Valid(params.NLevels) {
		return nil, fmt.Errorf("%w: u=%d with %d levels", ErrVertexOutOfRange, in.U, params.NLevels)
	}
	if !in.V.Valid(params.NLevels) {
		return nil, fmt.Errorf("%w: v=%d with %d levels", ErrVertexOutOfRange, in.V, params.NLevels)
	}
	if in.NewDegU != in.OldDegU+1 {
		return nil, fmt.Errorf("%w: u degree %d -> %d", ErrDegreeIncrementInvalid, in.OldDegU, in.NewDegU)
	}
	if in.NewDegV != in.OldDegV+1 {
		return nil, fmt.Errorf("%w: v degree %d -> %d", ErrDegreeIncrementInvalid, in.OldDegV, in.NewDegV)
	}
	if in.NewDegU > params.MaxDegree {
		return nil, fmt.Errorf("%w: u degree %d > %d", ErrDegreeExceedsMax, in.NewDegU, params.MaxDegree)
	}
	if in.NewDegV > params.MaxDegree {
		return nil, fmt.Errorf("%w: v degree %d > %d", ErrDegreeExceedsMax, in.NewDegV, params.MaxDegree)
	}
	if n := CountOccurrences(in.OldNbrU, in.V.BigInt()); n != 0 {
		return nil, fmt.Errorf("%w: %d already a neighbor of %d (%d times)", ErrDuplicateEdge, in.V, in.U, n)
	}
	if n := CountOccurrences(in.OldNbrV, in.U.BigInt()); n != 0 {
		return nil, fmt.Errorf("%w: %d already a neighbor of %d (%d times)", ErrDuplicateEdge, in.U, in.V, n)
	}

	hasher := NewHasher(params.Scheme, params.MaxDegree)
	oldHashU, err := hasher.Hash(in.U, in.OldDegU, in.OldNbrU)
	if err != nil {
		return nil, fmt.Errorf("old array of u: %w", err)
	}
	oldHashV, err := hasher.Hash(in.V, in.OldDegV, in.OldNbrV)
	if err != nil {
		return nil, fmt.Errorf("old array of v: %w", err)
	}
	newHashU, err := hasher.Hash(in.U, in.NewDegU, in.NewNbrU)
	if err != nil {
		return nil, fmt.Errorf("new array of u: %w", err)
	}
	newHashV, err := hasher.Hash(in.V, in.NewDegV, in.NewNbrV)
	if err != nil {
		return nil, fmt.Errorf("new array of v: %w", err)
	}

	intermediateRoot, err := UpdateRoot(in.OldRoot, in.SiblingsU,
		in.U.BigInt(), oldHashU, newHashU, params.NLevels)
	if err != nil {
		return nil, fmt.Errorf("update of u: %w", err)
	}
	newRoot, err := UpdateRoot(intermediateRoot, in.SiblingsV,
		in.V.BigInt(), oldHashV, newHashV, params.NLevels)
	if err != nil {
		return nil, fmt.Errorf("update of v: %w", err)
	}
	return newRoot, nil
}

// InsertNeighbor returns a copy of the sorted adjacency list with v
// inserted in its ascending position. It rejects values already present.
func InsertNeighbor(nbrs []uint64, v uint64) ([]uint64, error) {
	pos, found := slices.BinarySearch(nbrs, v)
	if found {
		return nil, fmt.Errorf("%w: %d already present", ErrDuplicateEdge, v)
	}
	return slices.Insert(slices.Clone(nbrs), pos, v), nil
}
