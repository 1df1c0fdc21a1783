package state

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/davinci-node/db/metadb"

	"github.com/tokamak-network/syb-circuits/types"
)

func newTestState(t *testing.T) *State {
	st, err := New(metadb.NewTest(t), DefaultParams())
	qt.Assert(t, err, qt.IsNil)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedVertices(c *qt.C, st *State, vertices ...types.VertexID) {
	c.TB.Helper()
	for _, v := range vertices {
		_, err := st.AddVertex(v)
		c.Assert(err, qt.IsNil)
	}
}

// A tree holding a single leaf collapses to that leaf's hash.
func TestSingleLeafRoot(t *testing.T) {
	c := qt.New(t)
	st := newTestState(t)

	seedVertices(c, st, 1)
	value, err := st.VertexHash(1)
	c.Assert(err, qt.IsNil)
	leaf, err := LeafHash(big.NewInt(1), value)
	c.Assert(err, qt.IsNil)
	root, err := st.RootAsBigInt()
	c.Assert(err, qt.IsNil)
	c.Assert(root.Cmp(leaf), qt.Equals, 0)
}

// UpdateRoot must reproduce the root the tree itself computes for an
// in-place leaf update.
func TestUpdateRootMatchesTree(t *testing.T) {
	c := qt.New(t)
	st := newTestState(t)

	seedVertices(c, st, 1, 2, 3, 7)

	at, err := ArboTransitionFromAddOrUpdate(st, big.NewInt(3), big.NewInt(12345))
	c.Assert(err, qt.IsNil)
	c.Assert(at.Fnc0, qt.Equals, 0)
	c.Assert(at.Fnc1, qt.Equals, 1) // UPDATE

	got, err := UpdateRoot(at.OldRoot, at.Siblings,
		at.OldKey, at.OldValue, at.NewValue, types.GraphTreeMaxLevels)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Cmp(at.NewRoot), qt.Equals, 0)
}

func TestUpdateRootInconsistencies(t *testing.T) {
	c := qt.New(t)
	st := newTestState(t)

	seedVertices(c, st, 1, 2, 3)

	at, err := ArboTransitionFromAddOrUpdate(st, big.NewInt(2), big.NewInt(777))
	c.Assert(err, qt.IsNil)

	// tampered sibling
	tampered := make([]*big.Int, len(at.Siblings))
	copy(tampered, at.Siblings)
	for i, s := range tampered {
		if s.Sign() != 0 {
			tampered[i] = new(big.Int).Add(s, big.NewInt(1))
			break
		}
	}
	_, err = UpdateRoot(at.OldRoot, tampered,
		at.OldKey, at.OldValue, at.NewValue, types.GraphTreeMaxLevels)
	c.Assert(err, qt.ErrorIs, ErrInconsistentProof)

	// wrong claimed old value
	_, err = UpdateRoot(at.OldRoot, at.Siblings,
		at.OldKey, big.NewInt(1), at.NewValue, types.GraphTreeMaxLevels)
	c.Assert(err, qt.ErrorIs, ErrInconsistentProof)

	// wrong old root
	_, err = UpdateRoot(big.NewInt(42), at.Siblings,
		at.OldKey, at.OldValue, at.NewValue, types.GraphTreeMaxLevels)
	c.Assert(err, qt.ErrorIs, ErrInconsistentProof)

	// key outside the tree's key space
	_, err = UpdateRoot(at.OldRoot, at.Siblings,
		big.NewInt(0), at.OldValue, at.NewValue, types.GraphTreeMaxLevels)
	c.Assert(err, qt.ErrorIs, ErrVertexOutOfRange)
}
