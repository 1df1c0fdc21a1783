// Package circuits holds the helpers shared by the constraint-level
// packages.
package circuits

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
)

// FrontendError performs a permanent in-circuit assertion failure, printing
// the message and the trace error when available.
func FrontendError(api frontend.API, msg string, trace error) {
	api.Println("in-circuit error: " + msg)
	if trace != nil {
		api.Println(fmt.Sprintf("%s: %s", msg, trace.Error()))
	}
	api.AssertIsEqual(1, 0)
}

// BigIntArrayToN pads the big.Int array to n elements, if needed, with zeros.
func BigIntArrayToN(arr []*big.Int, n int) []*big.Int {
	bigArr := make([]*big.Int, n)
	for i := range n {
		if i < len(arr) {
			bigArr[i] = arr[i]
		} else {
			bigArr[i] = big.NewInt(0)
		}
	}
	return bigArr
}
