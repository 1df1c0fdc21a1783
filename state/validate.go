package state

import (
	"fmt"
	"math/big"
)

// ValidateNeighborArray checks a neighbor array against a claimed degree:
//
//   - 0 <= degree <= len(neighbors)
//   - neighbors[0:degree] are nonzero (vertex id 0 is reserved)
//   - neighbors[0:degree] is strictly ascending (which rules out duplicates)
//   - neighbors[degree:] is all zero
//
// Comparisons are made on canonical representatives in [0, P). A violation
// is reported as ErrArrayValidationFailed naming the broken rule.
func ValidateNeighborArray(degree uint64, neighbors []*big.Int) error {
	if degree > uint64(len(neighbors)) {
		return fmt.Errorf("%w: degree %d exceeds array length %d",
			ErrArrayValidationFailed, degree, len(neighbors))
	}
	canon := func(v *big.Int) *big.Int {
		if v.Sign() >= 0 && v.Cmp(FieldPrime) < 0 {
			return v
		}
		return new(big.Int).Mod(v, FieldPrime)
	}
	for i := uint64(0); i < degree; i++ {
		if canon(neighbors[i]).Sign() == 0 {
			return fmt.Errorf("%w: zero neighbor at index %d (id 0 is reserved)",
				ErrArrayValidationFailed, i)
		}
	}
	for i := uint64(0); i+1 < degree; i++ {
		if canon(neighbors[i]).Cmp(canon(neighbors[i+1])) >= 0 {
			return fmt.Errorf("%w: not strictly ascending at index %d (%s >= %s)",
				ErrArrayValidationFailed, i, neighbors[i], neighbors[i+1])
		}
	}
	for i := degree; i < uint64(len(neighbors)); i++ {
		if canon(neighbors[i]).Sign() != 0 {
			return fmt.Errorf("%w: nonzero padding at index %d (%s)",
				ErrArrayValidationFailed, i, neighbors[i])
		}
	}
	return nil
}

// CountOccurrences returns how many entries of the array are equal to the
// given value, comparing canonical representatives. Used for the duplicate
// edge membership test.
func CountOccurrences(neighbors []*big.Int, value *big.Int) int {
	target := new(big.Int).Mod(value, FieldPrime)
	count := 0
	for _, n := range neighbors {
		if new(big.Int).Mod(n, FieldPrime).Cmp(target) == 0 {
			count++
		}
	}
	return count
}
