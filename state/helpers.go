package state

import (
	"math/big"

	"github.com/vocdoni/arbo"

	"github.com/tokamak-network/syb-circuits/types"
)

// BytesToBigInt converts an arbo-encoded byte array to a big.Int. It is a
// wrapper around the arbo.BytesToBigInt function.
func BytesToBigInt(b []byte) *big.Int {
	return arbo.BytesToBigInt(b)
}

// BigIntToBytes converts a big.Int to an arbo-encoded byte array of the
// hash function's length.
func BigIntToBytes(b *big.Int) []byte {
	return arbo.BigIntToBytes(HashFn.Len(), b)
}

// EncodeKey encodes a tree key to a byte array using the maximum key length
// for the tree depth and the hash function length.
func EncodeKey(key *big.Int) []byte {
	maxKeyLen := arbo.MaxKeyLen(types.GraphTreeMaxLevels, HashFn.Len())
	return arbo.BigIntToBytes(maxKeyLen, key)
}
