package state

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/arbo"
)

// HashFn is the hash function used in the graph tree.
var HashFn = arbo.HashFunctionMultiPoseidon

// LeafHash computes the hash of a leaf: H(key, value, 1), with the key
// encoded to the tree's key length and the value to the hash length.
func LeafHash(key, value *big.Int) (*big.Int, error) {
	bKey := EncodeKey(key)
	bValue := HashFn.SafeBigInt(value)
	leaf, err := HashFn.Hash(bKey, bValue, []byte{1})
	if err != nil {
		return nil, fmt.Errorf("failed to hash leaf: %w", err)
	}
	return arbo.BytesToBigInt(leaf), nil
}

// UpdateRoot is the single-leaf UPDATE processor: given the sibling path of
// key under oldRoot, it first checks that the leaf (key, oldValue) folds up
// to oldRoot, then returns the root obtained by folding (key, newValue)
// through the same path. A path that does not reconcile with oldRoot is
// reported as ErrInconsistentProof.
//
// Siblings are ordered root to leaf; entries below the leaf's depth are
// zero. A longer slice (the nLevels+1 form) is accepted as long as the
// excess entries are zero.
func UpdateRoot(oldRoot *big.Int, siblings []*big.Int, key, oldValue, newValue *big.Int, nLevels int) (*big.Int, error) {
	if key.Sign() <= 0 || key.BitLen() > nLevels {
		return nil, fmt.Errorf("%w: key %s with %d levels", ErrVertexOutOfRange, key, nLevels)
	}
	for i := nLevels; i < len(siblings); i++ {
		if siblings[i].Sign() != 0 {
			return nil, fmt.Errorf("%w: nonzero sibling beyond %d levels", ErrInconsistentProof, nLevels)
		}
	}

	// the leaf sits at the level below the deepest nonzero sibling
	top := -1
	for i := min(len(siblings), nLevels) - 1; i >= 0; i-- {
		if siblings[i].Sign() != 0 {
			top = i
			break
		}
	}

	fold := func(value *big.Int) (*big.Int, error) {
		acc, err := LeafHash(key, value)
		if err != nil {
			return nil, err
		}
		for i := top; i >= 0; i-- {
			var node []byte
			if key.Bit(i) == 1 {
				node, err = HashFn.Hash(BigIntToBytes(siblings[i]), BigIntToBytes(acc))
			} else {
				node, err = HashFn.Hash(BigIntToBytes(acc), BigIntToBytes(siblings[i]))
			}
			if err != nil {
				return nil, fmt.Errorf("failed to hash node at level %d: %w", i, err)
			}
			acc = arbo.BytesToBigInt(node)
		}
		return acc, nil
	}

	computedOld, err := fold(oldValue)
	if err != nil {
		return nil, err
	}
	if computedOld.Cmp(new(big.Int).Mod(oldRoot, FieldPrime)) != 0 {
		return nil, fmt.Errorf("%w: siblings of key %s produce root %s, expected %s",
			ErrInconsistentProof, key, computedOld, oldRoot)
	}
	return fold(newValue)
}
