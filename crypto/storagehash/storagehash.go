// Package storagehash computes the on-chain commitment of an edge batch.
// The byte packing mirrors the ledger contract's abi.encodePacked layout and
// must stay byte-exact with it.
package storagehash

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokamak-network/syb-circuits/types"
)

// Pack serializes an edge batch as
// batchId(8) || start(4) || n(4) || ilo(4) || ihi(4) per edge,
// all big-endian.
func Pack(batchID uint64, start uint32, edges []types.Edge) []byte {
	buf := make([]byte, 0, 16+8*len(edges))
	buf = binary.BigEndian.AppendUint64(buf, batchID)
	buf = binary.BigEndian.AppendUint32(buf, start)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(edges)))
	for _, e := range edges {
		buf = e.AppendBytes(buf)
	}
	return buf
}

// Compute returns the SHA-256 commitment of the packed edge batch.
func Compute(batchID uint64, start uint32, edges []types.Edge) common.Hash {
	return common.Hash(sha256.Sum256(Pack(batchID, start, edges)))
}

// ComputeBigInt returns the commitment interpreted as a big-endian integer,
// the form consumed as a public input downstream.
func ComputeBigInt(batchID uint64, start uint32, edges []types.Edge) *big.Int {
	digest := Compute(batchID, start, edges)
	return new(big.Int).SetBytes(digest[:])
}
