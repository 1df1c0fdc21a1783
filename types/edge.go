package types

import (
	"encoding/binary"
	"fmt"
)

// Edge is an unordered pair of vertices. For wire purposes the pair is
// packed into a single 64-bit word whose high half is Ilo and low half is
// Ihi, matching the ledger contract's packing.
type Edge struct {
	Ilo uint32 `json:"ilo" cbor:"0,keyasint"`
	Ihi uint32 `json:"ihi" cbor:"1,keyasint"`
}

// NewEdge builds the canonical encoding of the unordered pair {u, v}: the
// smaller endpoint goes to Ilo, the larger to Ihi.
func NewEdge(u, v VertexID) (Edge, error) {
	if u == v {
		return Edge{}, fmt.Errorf("self-loop edge {%d, %d}", u, v)
	}
	if u == 0 || v == 0 {
		return Edge{}, fmt.Errorf("edge endpoint 0 is reserved")
	}
	if u > 1<<32-1 || v > 1<<32-1 {
		return Edge{}, fmt.Errorf("edge endpoint does not fit in 32 bits")
	}
	if u < v {
		return Edge{Ilo: uint32(u), Ihi: uint32(v)}, nil
	}
	return Edge{Ilo: uint32(v), Ihi: uint32(u)}, nil
}

// U returns the smaller endpoint.
func (e Edge) U() VertexID { return VertexID(e.Ilo) }

// V returns the larger endpoint.
func (e Edge) V() VertexID { return VertexID(e.Ihi) }

// Packed returns the 64-bit word Ilo<<32 | Ihi, the integer view of the
// big-endian wire encoding produced by AppendBytes.
func (e Edge) Packed() uint64 {
	return uint64(e.Ilo)<<32 | uint64(e.Ihi)
}

// AppendBytes appends the 8-byte big-endian wire encoding Ilo(4) || Ihi(4).
func (e Edge) AppendBytes(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, e.Ilo)
	return binary.BigEndian.AppendUint32(b, e.Ihi)
}

func (e Edge) String() string {
	return fmt.Sprintf("{%d,%d}", e.Ilo, e.Ihi)
}
