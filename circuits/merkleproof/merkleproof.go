// Package merkleproof adapts the graph tree's native proofs and leaf
// transitions into the in-circuit forms consumed by the circomlib-style
// sparse Merkle tree verifier and processor.
package merkleproof

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/gnark-crypto-primitives/tree/smt"
	"github.com/vocdoni/gnark-crypto-primitives/utils"

	"github.com/tokamak-network/syb-circuits/circuits"
	"github.com/tokamak-network/syb-circuits/state"
	"github.com/tokamak-network/syb-circuits/types"
)

// MerkleProof stores the leaf, the path, and the root hash.
type MerkleProof struct {
	// Key + LeafHash hashed through Siblings path, should produce Root hash
	Root     frontend.Variable
	Siblings [types.GraphTreeMaxLevels]frontend.Variable
	Key      frontend.Variable
	LeafHash frontend.Variable
}

// FromArboProof converts an ArboProof into a MerkleProof.
func FromArboProof(p *state.ArboProof) (MerkleProof, error) {
	leafHash, err := state.LeafHash(p.Key, p.Value)
	if err != nil {
		return MerkleProof{}, err
	}
	return MerkleProof{
		Root:     p.Root,
		Siblings: padSiblings(p.Siblings),
		Key:      p.Key,
		LeafHash: leafHash,
	}, nil
}

// Verify asserts that mp.Root matches the passed root and that mp.LeafHash
// at position mp.Key belongs to it.
func (mp *MerkleProof) Verify(api frontend.API, hFn utils.Hasher, root frontend.Variable) {
	api.AssertIsEqual(root, mp.Root)
	smt.VerifierWithLeafHash(api, hFn,
		1,
		mp.Root,
		mp.Siblings[:],
		mp.Key,
		mp.LeafHash,
		0,
		mp.Key,
		mp.LeafHash,
		0, // inclusion
	)
}

// MerkleTransition stores a pair of leaves and root hashes, and a single
// path common to both proofs.
type MerkleTransition struct {
	// NewKey + NewLeafHash hashed through Siblings path, should produce NewRoot hash
	NewRoot     frontend.Variable
	Siblings    [types.GraphTreeMaxLevels]frontend.Variable
	NewKey      frontend.Variable
	NewLeafHash frontend.Variable
	// OldKey + OldLeafHash hashed through same Siblings should produce OldRoot hash
	OldRoot     frontend.Variable
	OldKey      frontend.Variable
	OldLeafHash frontend.Variable
	IsOld0      frontend.Variable
	Fnc0        frontend.Variable
	Fnc1        frontend.Variable
}

// FromArboTransition converts an ArboTransition into a MerkleTransition,
// computing the old and new leaf hashes the same way the tree does.
func FromArboTransition(at *state.ArboTransition) (MerkleTransition, error) {
	oldLeafHash, err := state.LeafHash(at.OldKey, at.OldValue)
	if err != nil {
		return MerkleTransition{}, err
	}
	newLeafHash, err := state.LeafHash(at.NewKey, at.NewValue)
	if err != nil {
		return MerkleTransition{}, err
	}
	return MerkleTransition{
		NewRoot:     at.NewRoot,
		Siblings:    padSiblings(at.Siblings),
		NewKey:      at.NewKey,
		NewLeafHash: newLeafHash,
		OldRoot:     at.OldRoot,
		OldKey:      at.OldKey,
		OldLeafHash: oldLeafHash,
		IsOld0:      at.IsOld0,
		Fnc0:        at.Fnc0,
		Fnc1:        at.Fnc1,
	}, nil
}

// Verify uses smt.Processor to verify that:
//   - mp.OldRoot matches passed oldRoot
//   - OldKey + OldLeafHash belong to OldRoot
//   - NewKey + NewLeafHash belong to NewRoot
//   - no other changes were introduced between OldRoot -> NewRoot
//
// and returns mp.NewRoot
func (mp *MerkleTransition) Verify(api frontend.API, hFn utils.Hasher, oldRoot frontend.Variable) frontend.Variable {
	api.AssertIsEqual(oldRoot, mp.OldRoot)
	root := smt.ProcessorWithLeafHash(api, hFn,
		mp.OldRoot,
		mp.Siblings[:],
		mp.OldKey,
		mp.OldLeafHash,
		mp.IsOld0,
		mp.NewKey,
		mp.NewLeafHash,
		mp.Fnc0,
		mp.Fnc1,
	)
	api.AssertIsEqual(root, mp.NewRoot)
	return mp.NewRoot
}

// VerifyOldLeafHash asserts that smt.Hash1(mp.OldKey, value) matches
// mp.OldLeafHash.
func (mp *MerkleTransition) VerifyOldLeafHash(api frontend.API, hFn utils.Hasher, value frontend.Variable) {
	api.AssertIsEqual(mp.OldLeafHash, smt.Hash1(api, hFn, mp.OldKey, value))
}

// VerifyNewLeafHash asserts that smt.Hash1(mp.NewKey, value) matches
// mp.NewLeafHash.
func (mp *MerkleTransition) VerifyNewLeafHash(api frontend.API, hFn utils.Hasher, value frontend.Variable) {
	api.AssertIsEqual(mp.NewLeafHash, smt.Hash1(api, hFn, mp.NewKey, value))
}

// VerifyKey asserts that both leaf keys match the given value.
func (mp *MerkleTransition) VerifyKey(api frontend.API, value frontend.Variable) {
	api.AssertIsEqual(mp.OldKey, value)
	api.AssertIsEqual(mp.NewKey, value)
}

// IsUpdate returns 1 when mp.Fnc0 == 0 && mp.Fnc1 == 1.
func (mp *MerkleTransition) IsUpdate(api frontend.API) frontend.Variable {
	fnc0IsZero := api.IsZero(mp.Fnc0)
	fnc1IsOne := api.Sub(1, api.IsZero(mp.Fnc1))
	return api.And(fnc0IsZero, fnc1IsOne)
}

// IsNoop returns 1 when mp.Fnc0 == 0 && mp.Fnc1 == 0.
func (mp *MerkleTransition) IsNoop(api frontend.API) frontend.Variable {
	return api.And(api.IsZero(mp.Fnc0), api.IsZero(mp.Fnc1))
}

// padSiblings pads the unpacked siblings to the tree depth, filling with 0s
// if needed.
func padSiblings(unpackedSiblings []*big.Int) [types.GraphTreeMaxLevels]frontend.Variable {
	padded := [types.GraphTreeMaxLevels]frontend.Variable{}
	for i, v := range circuits.BigIntArrayToN(unpackedSiblings, types.GraphTreeMaxLevels) {
		padded[i] = v
	}
	return padded
}
