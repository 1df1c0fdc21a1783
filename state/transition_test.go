package state

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/tokamak-network/syb-circuits/types"
)

// testParams keeps the rejection tests small: a shallow tree and one hash
// block of neighbors.
func testParams() Params {
	return Params{NLevels: 32, MaxDegree: 15, Scheme: SchemeNbrHash}
}

func validInsertion(c *qt.C) *EdgeInsertion {
	c.TB.Helper()
	h := NewHasher(SchemeNbrHash, 15)
	return &EdgeInsertion{
		U:       1,
		V:       2,
		OldDegU: 0, NewDegU: 1,
		OldDegV: 0, NewDegV: 1,
		OldNbrU: paddedNeighbors(c, h),
		OldNbrV: paddedNeighbors(c, h),
		NewNbrU: paddedNeighbors(c, h, 2),
		NewNbrV: paddedNeighbors(c, h, 1),
		OldRoot: big.NewInt(0),
	}
}

func TestApplyEdgeInsertionRejections(t *testing.T) {
	c := qt.New(t)
	params := testParams()

	tests := []struct {
		name    string
		mutate  func(in *EdgeInsertion)
		wantErr error
	}{
		{
			"self loop",
			func(in *EdgeInsertion) { in.V = in.U },
			ErrSelfLoop,
		},
		{
			"zero vertex",
			func(in *EdgeInsertion) { in.U = 0; in.V = 2 },
			ErrVertexOutOfRange,
		},
		{
			"vertex beyond key space",
			func(in *EdgeInsertion) { in.V = types.VertexID(1) << 32 },
			ErrVertexOutOfRange,
		},
		{
			"degree jump of two",
			func(in *EdgeInsertion) { in.NewDegU = in.OldDegU + 2 },
			ErrDegreeIncrementInvalid,
		},
		{
			"degree decrease",
			func(in *EdgeInsertion) { in.NewDegV = in.OldDegV },
			ErrDegreeIncrementInvalid,
		},
		{
			"degree beyond maximum",
			func(in *EdgeInsertion) {
				h := NewHasher(SchemeNbrHash, 15)
				adj := make([]uint64, 15)
				for i := range adj {
					adj[i] = uint64(i + 3)
				}
				in.OldDegU = 15
				in.NewDegU = 16
				in.OldNbrU = paddedNeighbors(c, h, adj...)
			},
			ErrDegreeExceedsMax,
		},
		{
			"duplicate edge in u",
			func(in *EdgeInsertion) {
				h := NewHasher(SchemeNbrHash, 15)
				in.OldDegU = 1
				in.NewDegU = 2
				in.OldNbrU = paddedNeighbors(c, h, 2) // v already a neighbor
			},
			ErrDuplicateEdge,
		},
		{
			"repeated value in new array",
			func(in *EdgeInsertion) {
				h := NewHasher(SchemeNbrHash, 15)
				in.OldDegU = 1
				in.NewDegU = 2
				in.OldNbrU = paddedNeighbors(c, h, 7)
				in.NewNbrU = paddedNeighbors(c, h, 7, 7)
			},
			ErrArrayValidationFailed,
		},
		{
			"wrong array length",
			func(in *EdgeInsertion) { in.NewNbrV = in.NewNbrV[:14] },
			ErrInvalidLength,
		},
	}
	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			in := validInsertion(c)
			test.mutate(in)
			_, err := ApplyEdgeInsertion(in, params)
			c.Assert(err, qt.ErrorIs, test.wantErr)
		})
	}
}

func TestInsertNeighbor(t *testing.T) {
	c := qt.New(t)

	adj, err := InsertNeighbor(nil, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(adj, qt.DeepEquals, []uint64{5})

	adj, err = InsertNeighbor([]uint64{2, 9}, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(adj, qt.DeepEquals, []uint64{2, 5, 9})

	adj, err = InsertNeighbor([]uint64{2, 9}, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(adj, qt.DeepEquals, []uint64{1, 2, 9})

	_, err = InsertNeighbor([]uint64{2, 9}, 9)
	c.Assert(err, qt.ErrorIs, ErrDuplicateEdge)
}
