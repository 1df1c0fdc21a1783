package graphtree

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/tokamak-network/syb-circuits/circuits/merkleproof"
	"github.com/tokamak-network/syb-circuits/state"
)

// AssignmentFromWitness builds the circuit assignment from the witness
// recorded by state.AddEdge. The state parameters must match the circuit's
// compile-time layout.
func AssignmentFromWitness(w *state.EdgeWitness, params state.Params) (*EdgeInsertionCircuit, error) {
	if params.Scheme != state.SchemeNbrHash {
		return nil, fmt.Errorf("unsupported commitment scheme %s", params.Scheme)
	}
	if params.NLevels != NLevels || params.MaxDegree != MaxDegree || params.PadLen() != PadLen {
		return nil, fmt.Errorf("parameters %+v do not match the circuit layout", params)
	}
	in := w.Insertion

	transitionU, err := merkleproof.FromArboTransition(w.TransitionU)
	if err != nil {
		return nil, fmt.Errorf("transition of u: %w", err)
	}
	transitionV, err := merkleproof.FromArboTransition(w.TransitionV)
	if err != nil {
		return nil, fmt.Errorf("transition of v: %w", err)
	}

	assignment := &EdgeInsertionCircuit{
		OldRoot:     in.OldRoot,
		NewRoot:     w.NewRoot,
		U:           in.U.BigInt(),
		V:           in.V.BigInt(),
		OldDegU:     in.OldDegU,
		NewDegU:     in.NewDegU,
		OldDegV:     in.OldDegV,
		NewDegV:     in.NewDegV,
		TransitionU: transitionU,
		TransitionV: transitionV,
	}
	if err := assignNeighbors(&assignment.OldNbrU, in.OldNbrU); err != nil {
		return nil, fmt.Errorf("old neighbors of u: %w", err)
	}
	if err := assignNeighbors(&assignment.NewNbrU, in.NewNbrU); err != nil {
		return nil, fmt.Errorf("new neighbors of u: %w", err)
	}
	if err := assignNeighbors(&assignment.OldNbrV, in.OldNbrV); err != nil {
		return nil, fmt.Errorf("old neighbors of v: %w", err)
	}
	if err := assignNeighbors(&assignment.NewNbrV, in.NewNbrV); err != nil {
		return nil, fmt.Errorf("new neighbors of v: %w", err)
	}
	return assignment, nil
}

func assignNeighbors(dst *[PadLen]frontend.Variable, src []*big.Int) error {
	if len(src) != PadLen {
		return fmt.Errorf("got %d entries, want %d", len(src), PadLen)
	}
	for i, v := range src {
		dst[i] = v
	}
	return nil
}
