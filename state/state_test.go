package state

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/davinci-node/db/metadb"

	"github.com/tokamak-network/syb-circuits/types"
)

func mustEdge(c *qt.C, u, v types.VertexID) types.Edge {
	c.TB.Helper()
	e, err := types.NewEdge(u, v)
	c.Assert(err, qt.IsNil)
	return e
}

func TestAddVertex(t *testing.T) {
	c := qt.New(t)
	st := newTestState(t)

	at, err := st.AddVertex(1)
	c.Assert(err, qt.IsNil)
	c.Assert(at.Fnc0, qt.Equals, 1)
	c.Assert(at.Fnc1, qt.Equals, 0) // INSERT

	_, err = st.AddVertex(1)
	c.Assert(err, qt.ErrorIs, ErrVertexAlreadyExists)
	_, err = st.AddVertex(0)
	c.Assert(err, qt.ErrorIs, ErrVertexOutOfRange)

	deg, err := st.Degree(1)
	c.Assert(err, qt.IsNil)
	c.Assert(deg, qt.Equals, uint64(0))

	// the stored leaf commits to degree zero and an all-zero array
	hasher := NewHasher(st.Params().Scheme, st.Params().MaxDegree)
	empty, err := hasher.PadNeighbors(nil)
	c.Assert(err, qt.IsNil)
	expected, err := hasher.Hash(1, 0, empty)
	c.Assert(err, qt.IsNil)
	stored, err := st.VertexHash(1)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Cmp(expected), qt.Equals, 0)
}

// The concrete two-vertex scenario: seed vertices 1 and 2 with degree zero,
// insert the edge {1,2}, and check the witness replays to the same root the
// tree reached.
func TestAddEdgeScenario(t *testing.T) {
	c := qt.New(t)
	st := newTestState(t)

	seedVertices(c, st, 1, 2)
	c.Assert(st.StartBatch(), qt.IsNil)

	w, err := st.AddEdge(mustEdge(c, 1, 2))
	c.Assert(err, qt.IsNil)

	root, err := st.RootAsBigInt()
	c.Assert(err, qt.IsNil)
	c.Assert(w.NewRoot.Cmp(root), qt.Equals, 0)

	// the chained transitions share the intermediate root
	c.Assert(w.TransitionU.OldRoot.Cmp(w.Insertion.OldRoot), qt.Equals, 0)
	c.Assert(w.TransitionU.NewRoot.Cmp(w.TransitionV.OldRoot), qt.Equals, 0)
	c.Assert(w.TransitionV.NewRoot.Cmp(w.NewRoot), qt.Equals, 0)

	// independent replay of the pure protocol on the witness inputs
	replayed, err := ApplyEdgeInsertion(w.Insertion, st.Params())
	c.Assert(err, qt.IsNil)
	c.Assert(replayed.Cmp(w.NewRoot), qt.Equals, 0)

	c.Assert(st.EndBatch(), qt.IsNil)

	// adjacency is symmetric and persisted
	nbrs, err := st.Neighbors(1)
	c.Assert(err, qt.IsNil)
	c.Assert(nbrs, qt.DeepEquals, []uint64{2})
	nbrs, err = st.Neighbors(2)
	c.Assert(err, qt.IsNil)
	c.Assert(nbrs, qt.DeepEquals, []uint64{1})
}

func TestAddEdgeRejections(t *testing.T) {
	c := qt.New(t)
	st := newTestState(t)

	seedVertices(c, st, 1, 2, 3)

	_, err := st.AddEdge(mustEdge(c, 1, 2))
	c.Assert(err, qt.ErrorIs, ErrNoBatch)

	c.Assert(st.StartBatch(), qt.IsNil)

	_, err = st.AddEdge(mustEdge(c, 1, 9)) // 9 never seeded
	c.Assert(err, qt.ErrorIs, ErrVertexNotFound)

	_, err = st.AddEdge(mustEdge(c, 1, 2))
	c.Assert(err, qt.IsNil)
	_, err = st.AddEdge(mustEdge(c, 2, 1))
	c.Assert(err, qt.ErrorIs, ErrDuplicateEdge)

	// a second edge within the same batch sees the pending adjacency
	_, err = st.AddEdge(mustEdge(c, 2, 3))
	c.Assert(err, qt.IsNil)
	c.Assert(st.Edges(), qt.HasLen, 2)
	c.Assert(st.Witnesses(), qt.HasLen, 2)

	c.Assert(st.EndBatch(), qt.IsNil)
	c.Assert(st.EndBatch(), qt.ErrorIs, ErrNoBatch)

	deg, err := st.Degree(2)
	c.Assert(err, qt.IsNil)
	c.Assert(deg, qt.Equals, uint64(2))
}

// Feeding V's update a proof computed against the original root instead of
// the intermediate one must be rejected: updating U changes nodes along
// V's path.
func TestChainingRegression(t *testing.T) {
	c := qt.New(t)
	st := newTestState(t)

	seedVertices(c, st, 1, 2)
	staleProofV, err := st.GenArboProof(big.NewInt(2))
	c.Assert(err, qt.IsNil)

	c.Assert(st.StartBatch(), qt.IsNil)
	w, err := st.AddEdge(mustEdge(c, 1, 2))
	c.Assert(err, qt.IsNil)
	c.Assert(st.EndBatch(), qt.IsNil)

	stale := *w.Insertion
	stale.SiblingsV = staleProofV.Siblings
	_, err = ApplyEdgeInsertion(&stale, st.Params())
	c.Assert(err, qt.ErrorIs, ErrInconsistentProof)
}

// A NOP transition keeps the root and encodes the (0, 0) function pair.
func TestNoopTransition(t *testing.T) {
	c := qt.New(t)
	st := newTestState(t)

	seedVertices(c, st, 1, 2)
	root, err := st.RootAsBigInt()
	c.Assert(err, qt.IsNil)

	at, err := ArboTransitionFromNoop(st)
	c.Assert(err, qt.IsNil)
	c.Assert(at.Fnc0, qt.Equals, 0)
	c.Assert(at.Fnc1, qt.Equals, 0)
	c.Assert(at.OldRoot.Cmp(root), qt.Equals, 0)
	c.Assert(at.NewRoot.Cmp(root), qt.Equals, 0)
}

func TestLoadOnRoot(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)

	st, err := New(database, DefaultParams())
	c.Assert(err, qt.IsNil)
	seedVertices(c, st, 1, 2, 3)

	c.Assert(st.StartBatch(), qt.IsNil)
	w1, err := st.AddEdge(mustEdge(c, 1, 2))
	c.Assert(err, qt.IsNil)
	c.Assert(st.EndBatch(), qt.IsNil)

	c.Assert(st.StartBatch(), qt.IsNil)
	_, err = st.AddEdge(mustEdge(c, 1, 3))
	c.Assert(err, qt.IsNil)
	c.Assert(st.EndBatch(), qt.IsNil)
	c.Assert(st.Close(), qt.IsNil)

	// reopen on the snapshot after the first edge
	reloaded, err := LoadOnRoot(database, DefaultParams(), w1.NewRoot)
	c.Assert(err, qt.IsNil)
	root, err := reloaded.RootAsBigInt()
	c.Assert(err, qt.IsNil)
	c.Assert(root.Cmp(w1.NewRoot), qt.Equals, 0)

	// vertex 1's leaf on that snapshot commits to the single neighbor 2
	hasher := NewHasher(DefaultParams().Scheme, DefaultParams().MaxDegree)
	padded, err := hasher.PadNeighbors([]uint64{2})
	c.Assert(err, qt.IsNil)
	expected, err := hasher.Hash(1, 1, padded)
	c.Assert(err, qt.IsNil)
	stored, err := reloaded.VertexHash(1)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Cmp(expected), qt.Equals, 0)
}
