// Package graphtree implements the constraint-level edge-insertion
// protocol: it re-validates the structural invariants of both endpoints'
// neighbor arrays, recomputes their chunked commitments, and chains the two
// single-leaf updates that transition the graph root.
package graphtree

import (
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/gnark-crypto-primitives/hash/bn254/poseidon"
	"github.com/vocdoni/gnark-crypto-primitives/utils"

	"github.com/tokamak-network/syb-circuits/circuits"
	"github.com/tokamak-network/syb-circuits/circuits/merkleproof"
	"github.com/tokamak-network/syb-circuits/types"
)

const (
	// NLevels is the graph tree depth.
	NLevels = types.GraphTreeMaxLevels
	// MaxDegree bounds every vertex degree.
	MaxDegree = types.MaxDegree
	// PadLen is the fixed neighbor-array length: one block of 15 slots per
	// started group of 15 degrees.
	PadLen = types.HashBlockSize * ((MaxDegree + types.HashBlockSize - 1) / types.HashBlockSize)

	// neighborBits bounds the per-entry comparisons of the ascending-order
	// check.
	neighborBits = 32
)

// HashFn is the hash function used in the circuit. It must be the
// equivalent of the one used by the state package (state.HashFn).
var HashFn = poseidon.MultiHash

// EdgeInsertionCircuit proves one edge insertion {U, V}: both endpoints'
// degrees grow by exactly one, the declared neighbor arrays are well
// formed, the leaves commit to them, and the two chained leaf updates
// (U first, then V against the intermediate root) transition OldRoot to
// NewRoot.
type EdgeInsertionCircuit struct {
	// Public inputs
	OldRoot frontend.Variable `gnark:",public"`
	NewRoot frontend.Variable `gnark:",public"`
	// Private data inputs
	U       frontend.Variable
	V       frontend.Variable
	OldDegU frontend.Variable
	NewDegU frontend.Variable
	OldDegV frontend.Variable
	NewDegV frontend.Variable
	OldNbrU [PadLen]frontend.Variable
	NewNbrU [PadLen]frontend.Variable
	OldNbrV [PadLen]frontend.Variable
	NewNbrV [PadLen]frontend.Variable
	// Private merkle transition inputs
	TransitionU merkleproof.MerkleTransition
	TransitionV merkleproof.MerkleTransition
}

func (c *EdgeInsertionCircuit) Define(api frontend.API) error {
	c.checkEndpoints(api)
	c.checkDegrees(api)
	c.checkDuplicates(api)

	validateNeighborArray(api, c.OldDegU, c.OldNbrU)
	validateNeighborArray(api, c.NewDegU, c.NewNbrU)
	validateNeighborArray(api, c.OldDegV, c.OldNbrV)
	validateNeighborArray(api, c.NewDegV, c.NewNbrV)

	oldHashU := neighborArrayHash(api, c.OldDegU, c.OldNbrU)
	newHashU := neighborArrayHash(api, c.NewDegU, c.NewNbrU)
	oldHashV := neighborArrayHash(api, c.OldDegV, c.OldNbrV)
	newHashV := neighborArrayHash(api, c.NewDegV, c.NewNbrV)

	c.verifyTransitions(api, HashFn, oldHashU, newHashU, oldHashV, newHashV)
	return nil
}

// checkEndpoints enforces u != v and 0 < u, v < 2^NLevels.
func (c *EdgeInsertionCircuit) checkEndpoints(api frontend.API) {
	api.AssertIsDifferent(c.U, c.V)
	api.AssertIsDifferent(c.U, 0)
	api.AssertIsDifferent(c.V, 0)
	// decomposing to NLevels bits constrains the range
	api.ToBinary(c.U, NLevels)
	api.ToBinary(c.V, NLevels)
}

// checkDegrees enforces the single-edge transition arithmetic: each degree
// grows by exactly one and stays within MaxDegree.
func (c *EdgeInsertionCircuit) checkDegrees(api frontend.API) {
	api.AssertIsEqual(c.NewDegU, api.Add(c.OldDegU, 1))
	api.AssertIsEqual(c.NewDegV, api.Add(c.OldDegV, 1))
	api.AssertIsLessOrEqual(c.NewDegU, MaxDegree)
	api.AssertIsLessOrEqual(c.NewDegV, MaxDegree)
}

// checkDuplicates counts the occurrences of each endpoint in the other's
// old neighbor array; any match means the edge already exists.
func (c *EdgeInsertionCircuit) checkDuplicates(api frontend.API) {
	occurrencesU := frontend.Variable(0)
	occurrencesV := frontend.Variable(0)
	for i := 0; i < PadLen; i++ {
		occurrencesU = api.Add(occurrencesU, api.IsZero(api.Sub(c.OldNbrU[i], c.V)))
		occurrencesV = api.Add(occurrencesV, api.IsZero(api.Sub(c.OldNbrV[i], c.U)))
	}
	api.AssertIsEqual(occurrencesU, 0)
	api.AssertIsEqual(occurrencesV, 0)
}

// verifyTransitions binds the four commitments to the two leaf updates and
// chains them: U transitions OldRoot to the intermediate root, V
// transitions it to NewRoot.
func (c *EdgeInsertionCircuit) verifyTransitions(api frontend.API, hFn utils.Hasher,
	oldHashU, newHashU, oldHashV, newHashV frontend.Variable,
) {
	api.AssertIsEqual(c.TransitionU.IsUpdate(api), 1)
	api.AssertIsEqual(c.TransitionV.IsUpdate(api), 1)

	c.TransitionU.VerifyKey(api, c.U)
	c.TransitionV.VerifyKey(api, c.V)

	c.TransitionU.VerifyOldLeafHash(api, hFn, oldHashU)
	c.TransitionU.VerifyNewLeafHash(api, hFn, newHashU)
	c.TransitionV.VerifyOldLeafHash(api, hFn, oldHashV)
	c.TransitionV.VerifyNewLeafHash(api, hFn, newHashV)

	intermediateRoot := c.TransitionU.Verify(api, hFn, c.OldRoot)
	newRoot := c.TransitionV.Verify(api, hFn, intermediateRoot)
	api.AssertIsEqual(newRoot, c.NewRoot)
}

// validateNeighborArray enforces the padding and ordering invariants with
// a validity mask: mask[i] is 1 for nonzero entries, the mask must be
// monotonically non-increasing, its sum must equal the degree, and
// consecutive valid entries must be strictly ascending. Neighbor ids are
// nonzero by construction, so the mask boundary is the degree boundary.
func validateNeighborArray(api frontend.API, degree frontend.Variable, arr [PadLen]frontend.Variable) {
	mask := [PadLen]frontend.Variable{}
	sum := frontend.Variable(0)
	for i := 0; i < PadLen; i++ {
		mask[i] = api.Sub(1, api.IsZero(arr[i]))
		sum = api.Add(sum, mask[i])
	}
	api.AssertIsEqual(sum, degree)
	for i := 1; i < PadLen; i++ {
		// once zero, stays zero
		api.AssertIsEqual(api.Mul(mask[i], api.Sub(1, mask[i-1])), 0)
		// strictly ascending where both entries are valid:
		// arr[i] - arr[i-1] - 1 must fit the comparison width
		gap := api.Select(mask[i], api.Sub(arr[i], arr[i-1], 1), 0)
		api.ToBinary(gap, neighborBits)
	}
}

// neighborArrayHash computes the chunked commitment: the first block hashes
// [degree, 15 neighbors], each further block hashes the previous
// accumulator with the next 15 neighbors.
func neighborArrayHash(api frontend.API, degree frontend.Variable, arr [PadLen]frontend.Variable) frontend.Variable {
	block := make([]frontend.Variable, 16)
	block[0] = degree
	copy(block[1:], arr[:15])
	acc, err := HashFn(api, block...)
	if err != nil {
		circuits.FrontendError(api, "failed to hash neighbor block: ", err)
		return 0
	}
	for offset := 15; offset < PadLen; offset += 15 {
		block[0] = acc
		copy(block[1:], arr[offset:offset+15])
		if acc, err = HashFn(api, block...); err != nil {
			circuits.FrontendError(api, "failed to hash neighbor block: ", err)
			return 0
		}
	}
	return acc
}
