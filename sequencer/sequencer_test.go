package sequencer

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	dvotemetadb "github.com/vocdoni/davinci-node/db/metadb"

	"github.com/tokamak-network/syb-circuits/db/metadb"
	"github.com/tokamak-network/syb-circuits/state"
	"github.com/tokamak-network/syb-circuits/storage"
	"github.com/tokamak-network/syb-circuits/types"
)

func newTestSequencer(t *testing.T) (*Sequencer, *storage.Storage, *state.State) {
	c := qt.New(t)
	stg := storage.New(metadb.NewTest(t))
	st, err := state.New(dvotemetadb.NewTest(t), state.DefaultParams())
	c.Assert(err, qt.IsNil)
	s, err := New(stg, st, time.Minute)
	c.Assert(err, qt.IsNil)
	return s, stg, st
}

func pushEdge(c *qt.C, stg *storage.Storage, u, v types.VertexID) types.Edge {
	c.TB.Helper()
	e, err := types.NewEdge(u, v)
	c.Assert(err, qt.IsNil)
	c.Assert(stg.PushEdge(e), qt.IsNil)
	return e
}

func TestSealPendingBatch(t *testing.T) {
	c := qt.New(t)
	s, stg, st := newTestSequencer(t)

	_, err := s.SealPendingBatch()
	c.Assert(err, qt.ErrorIs, ErrEmptyBatch)

	for _, v := range []types.VertexID{1, 2, 3} {
		_, err := st.AddVertex(v)
		c.Assert(err, qt.IsNil)
	}
	e12 := pushEdge(c, stg, 1, 2)
	e13 := pushEdge(c, stg, 1, 3)
	rejected := pushEdge(c, stg, 1, 9) // vertex 9 never seeded

	batch, err := s.SealPendingBatch()
	c.Assert(err, qt.IsNil)
	c.Assert(batch.Record.BatchID, qt.Equals, uint64(0))
	c.Assert(batch.Record.StartIndex, qt.Equals, uint32(0))
	c.Assert(batch.Record.Edges, qt.DeepEquals, []types.Edge{e12, e13})
	c.Assert(batch.Witnesses, qt.HasLen, 2)
	c.Assert(batch.Assignments, qt.HasLen, 2)

	// the record's roots bracket the state transition
	root, err := st.RootAsBigInt()
	c.Assert(err, qt.IsNil)
	c.Assert(batch.Record.RootAfter.MathBigInt().Cmp(root), qt.Equals, 0)
	c.Assert(batch.Record.RootAfter.MathBigInt().Cmp(
		batch.Witnesses[1].NewRoot), qt.Equals, 0)

	// applied edges are batched, the bad one failed, the queue is empty
	status, err := stg.EdgeStatus(e12)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, storage.EdgeStatusBatched)
	status, err = stg.EdgeStatus(rejected)
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, storage.EdgeStatusError)
	pending, err := stg.CountPendingEdges()
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.Equals, 0)

	// the next batch continues the sequence
	pushEdge(c, stg, 2, 3)
	batch, err = s.SealPendingBatch()
	c.Assert(err, qt.IsNil)
	c.Assert(batch.Record.BatchID, qt.Equals, uint64(1))
	c.Assert(batch.Record.StartIndex, qt.Equals, uint32(2))

	last, err := stg.LastBatch()
	c.Assert(err, qt.IsNil)
	c.Assert(last.BatchID, qt.Equals, uint64(1))
}

func TestBatchSizeLimit(t *testing.T) {
	c := qt.New(t)
	s, stg, st := newTestSequencer(t)

	// a hub vertex connected to more spokes than fit in one batch
	for v := types.VertexID(1); v <= types.VertexID(types.EdgesPerBatch+2); v++ {
		_, err := st.AddVertex(v)
		c.Assert(err, qt.IsNil)
	}
	for v := types.VertexID(2); v <= types.VertexID(types.EdgesPerBatch+2); v++ {
		pushEdge(c, stg, 1, v)
	}

	batch, err := s.SealPendingBatch()
	c.Assert(err, qt.IsNil)
	c.Assert(batch.Record.Edges, qt.HasLen, types.EdgesPerBatch)

	pending, err := stg.CountPendingEdges()
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.Equals, 1)

	batch, err = s.SealPendingBatch()
	c.Assert(err, qt.IsNil)
	c.Assert(batch.Record.Edges, qt.HasLen, 1)
	c.Assert(batch.Record.StartIndex, qt.Equals, uint32(types.EdgesPerBatch))
}

func TestStartStop(t *testing.T) {
	c := qt.New(t)
	s, _, _ := newTestSequencer(t)

	c.Assert(s.Start(t.Context()), qt.IsNil)
	c.Assert(s.Stop(), qt.IsNil)
}
