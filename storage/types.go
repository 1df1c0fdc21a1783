package storage

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/tokamak-network/syb-circuits/crypto/storagehash"
	"github.com/tokamak-network/syb-circuits/types"
)

// EdgeStatus values track an edge through the pipeline.
const (
	EdgeStatusPending  = iota // waiting in the queue
	EdgeStatusBatched         // included in a sealed batch
	EdgeStatusSettled         // batch proof settled on chain
	EdgeStatusError           // rejected by the state transition
)

// EdgeStatusName returns the human-readable name of an edge status.
func EdgeStatusName(status int) string {
	switch status {
	case EdgeStatusPending:
		return "pending"
	case EdgeStatusBatched:
		return "batched"
	case EdgeStatusSettled:
		return "settled"
	case EdgeStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// PendingEdge is an edge waiting in the queue, with the time it arrived.
type PendingEdge struct {
	Edge     types.Edge `cbor:"0,keyasint"`
	Received int64      `cbor:"1,keyasint"`
}

// BatchRecord is a sealed batch: the edges it applied, the roots it
// transitioned between, and its position in the global edge sequence.
type BatchRecord struct {
	BatchID    uint64        `cbor:"0,keyasint"`
	StartIndex uint32        `cbor:"1,keyasint"`
	Edges      []types.Edge  `cbor:"2,keyasint"`
	RootBefore *types.BigInt `cbor:"3,keyasint"`
	RootAfter  *types.BigInt `cbor:"4,keyasint"`
	CreatedAt  int64         `cbor:"5,keyasint"`
}

// StorageHash returns the canonical commitment to the batch contents, the
// one the settlement contract recomputes.
func (b *BatchRecord) StorageHash() common.Hash {
	return storagehash.Compute(b.BatchID, b.StartIndex, b.Edges)
}

// edgeKey is the 8-byte big-endian packed form of the edge.
func edgeKey(e types.Edge) []byte {
	return e.AppendBytes(make([]byte, 0, 8))
}
