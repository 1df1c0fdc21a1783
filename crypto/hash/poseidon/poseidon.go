// Package poseidon provides the Poseidon hash primitives used for the graph
// commitments: the fixed-arity 16-input permutation consumed by the chunked
// neighbor-array hasher, and a variadic helper that chunks arbitrary input
// counts into 16-element blocks.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// MaxInputs is the arity of the fixed-size permutation.
const MaxInputs = 16

// Permuter is the 16-ary hash strategy. It is injectable so that the
// accumulator logic can be tested against reference vectors without
// coupling to one hash library.
type Permuter interface {
	// Permute16 hashes exactly 16 field elements into one.
	Permute16(inputs []*big.Int) (*big.Int, error)
}

// Poseidon16 is the production Permuter, backed by the iden3 circomlib
// implementation over the BN254 scalar field. It matches the circuit side
// bit-for-bit.
type Poseidon16 struct{}

var _ Permuter = Poseidon16{}

// Permute16 implements Permuter. It requires exactly MaxInputs inputs.
func (Poseidon16) Permute16(inputs []*big.Int) (*big.Int, error) {
	if len(inputs) != MaxInputs {
		return nil, fmt.Errorf("poseidon16 requires %d inputs, got %d", MaxInputs, len(inputs))
	}
	return poseidon.Hash(inputs)
}

// MultiPoseidon computes the Poseidon hash of a variable number of inputs.
// Inputs are chunked into groups of 16, each chunk is hashed, and the chunk
// hashes are recursively hashed together. Returns an error if no inputs are
// provided.
//
// This is the native mirror of the hash the graph tree uses for its nodes
// and leaves (arbo.HashFunctionMultiPoseidon) and of the circuit side's
// MultiHash; the three must agree on every input.
func MultiPoseidon(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs provided")
	}

	if len(inputs) <= MaxInputs {
		return poseidon.Hash(inputs)
	}

	numChunks := (len(inputs) + MaxInputs - 1) / MaxInputs
	hashes := make([]*big.Int, 0, numChunks)
	for i := 0; i < len(inputs); i += MaxInputs {
		end := min(i+MaxInputs, len(inputs))
		hash, err := poseidon.Hash(inputs[i:end])
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}

	if len(hashes) == 1 {
		return hashes[0], nil
	}
	if len(hashes) <= MaxInputs {
		return poseidon.Hash(hashes)
	}
	return MultiPoseidon(hashes...)
}
