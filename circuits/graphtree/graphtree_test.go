package graphtree

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/test"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/davinci-node/db/metadb"

	"github.com/tokamak-network/syb-circuits/state"
	"github.com/tokamak-network/syb-circuits/types"
)

// buildAssignment seeds a small graph, inserts {1,2} and then {1,3}, and
// returns the assignment for the second insertion so both endpoints enter
// it with distinct degrees.
func buildAssignment(c *qt.C, t *testing.T) *EdgeInsertionCircuit {
	params := state.DefaultParams()
	st, err := state.New(metadb.NewTest(t), params)
	c.Assert(err, qt.IsNil)
	defer func() { _ = st.Close() }()

	for _, v := range []types.VertexID{1, 2, 3} {
		_, err := st.AddVertex(v)
		c.Assert(err, qt.IsNil)
	}
	c.Assert(st.StartBatch(), qt.IsNil)
	first, err := types.NewEdge(1, 2)
	c.Assert(err, qt.IsNil)
	_, err = st.AddEdge(first)
	c.Assert(err, qt.IsNil)
	second, err := types.NewEdge(1, 3)
	c.Assert(err, qt.IsNil)
	w, err := st.AddEdge(second)
	c.Assert(err, qt.IsNil)
	c.Assert(st.EndBatch(), qt.IsNil)

	assignment, err := AssignmentFromWitness(w, params)
	c.Assert(err, qt.IsNil)
	return assignment
}

func TestEdgeInsertionCircuit(t *testing.T) {
	c := qt.New(t)
	assignment := buildAssignment(c, t)

	assert := test.NewAssert(t)
	assert.SolvingSucceeded(&EdgeInsertionCircuit{}, assignment,
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))
}

func TestEdgeInsertionCircuitRejections(t *testing.T) {
	c := qt.New(t)
	assert := test.NewAssert(t)
	opts := []test.TestingOption{test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16)}

	c.Run("degree not incremented", func(c *qt.C) {
		assignment := buildAssignment(c, t)
		assignment.NewDegU = assignment.OldDegU
		assert.SolvingFailed(&EdgeInsertionCircuit{}, assignment, opts...)
	})

	c.Run("self loop", func(c *qt.C) {
		assignment := buildAssignment(c, t)
		assignment.V = assignment.U
		assert.SolvingFailed(&EdgeInsertionCircuit{}, assignment, opts...)
	})

	c.Run("unsorted neighbor array", func(c *qt.C) {
		assignment := buildAssignment(c, t)
		assignment.NewNbrU[0], assignment.NewNbrU[1] = assignment.NewNbrU[1], assignment.NewNbrU[0]
		assert.SolvingFailed(&EdgeInsertionCircuit{}, assignment, opts...)
	})

	c.Run("wrong new root", func(c *qt.C) {
		assignment := buildAssignment(c, t)
		assignment.NewRoot = big.NewInt(42)
		assert.SolvingFailed(&EdgeInsertionCircuit{}, assignment, opts...)
	})
}
