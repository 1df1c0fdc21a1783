package state

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func bigs(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestValidateNeighborArray(t *testing.T) {
	c := qt.New(t)

	// valid: ascending before the degree, zero after
	c.Assert(ValidateNeighborArray(3, bigs(1, 5, 9, 0, 0)), qt.IsNil)
	c.Assert(ValidateNeighborArray(0, bigs(0, 0, 0)), qt.IsNil)
	c.Assert(ValidateNeighborArray(3, bigs(1, 5, 9)), qt.IsNil)

	// degree beyond the array length
	c.Assert(ValidateNeighborArray(4, bigs(1, 2, 3)), qt.ErrorIs, ErrArrayValidationFailed)

	// not strictly ascending: equal and descending pairs
	c.Assert(ValidateNeighborArray(3, bigs(1, 5, 5, 0)), qt.ErrorIs, ErrArrayValidationFailed)
	c.Assert(ValidateNeighborArray(2, bigs(9, 5, 0)), qt.ErrorIs, ErrArrayValidationFailed)

	// nonzero padding past the degree
	c.Assert(ValidateNeighborArray(1, bigs(1, 0, 7)), qt.ErrorIs, ErrArrayValidationFailed)

	// id 0 is reserved and cannot appear before the degree boundary
	c.Assert(ValidateNeighborArray(1, bigs(0, 0, 0)), qt.ErrorIs, ErrArrayValidationFailed)
	c.Assert(ValidateNeighborArray(2, bigs(0, 5, 0)), qt.ErrorIs, ErrArrayValidationFailed)
}

func TestValidateCanonicalComparison(t *testing.T) {
	c := qt.New(t)

	// x+P is the same field element as x, so padding of x+0*P... P itself
	// reduces to zero and is valid padding
	arr := bigs(1, 2, 0)
	arr[2] = new(big.Int).Set(FieldPrime)
	c.Assert(ValidateNeighborArray(2, arr), qt.IsNil)

	// P+1 reduces to 1, breaking the ascending order against 2
	arr = bigs(2, 0, 0)
	arr[1] = new(big.Int).Add(FieldPrime, big.NewInt(1))
	c.Assert(ValidateNeighborArray(2, arr), qt.ErrorIs, ErrArrayValidationFailed)

	// P reduces to zero, rejected before the degree boundary
	arr = bigs(0, 2, 0)
	arr[0] = new(big.Int).Set(FieldPrime)
	c.Assert(ValidateNeighborArray(2, arr), qt.ErrorIs, ErrArrayValidationFailed)
}

func TestCountOccurrences(t *testing.T) {
	c := qt.New(t)

	arr := bigs(1, 5, 5, 9)
	c.Assert(CountOccurrences(arr, big.NewInt(5)), qt.Equals, 2)
	c.Assert(CountOccurrences(arr, big.NewInt(2)), qt.Equals, 0)

	// membership is a field-element comparison
	c.Assert(CountOccurrences(arr, new(big.Int).Add(FieldPrime, big.NewInt(9))), qt.Equals, 1)
}
