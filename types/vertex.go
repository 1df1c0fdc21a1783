package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// VertexID identifies a vertex of the vouch graph. It doubles as the key of
// the vertex's leaf in the graph state tree, so it must fit in the tree's
// key space: [1, 2^GraphTreeMaxLevels - 1].
type VertexID uint64

// Valid reports whether the id is usable as a tree key for a tree of the
// given depth. Id 0 is reserved for the empty leaf.
func (v VertexID) Valid(nLevels int) bool {
	if v == 0 {
		return false
	}
	if nLevels >= 64 {
		return true
	}
	return uint64(v) < uint64(1)<<uint(nLevels)
}

func (v VertexID) Uint64() uint64   { return uint64(v) }
func (v VertexID) BigInt() *big.Int { return new(big.Int).SetUint64(uint64(v)) }

// Bytes returns the fixed 8-byte big-endian encoding of the id.
func (v VertexID) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return b[:]
}

func (v VertexID) String() string {
	return "0x" + hex.EncodeToString(v.Bytes())
}

func (v VertexID) MarshalJSON() ([]byte, error) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return HexBytes(b[:]).MarshalJSON() // fixed 8 bytes => canonical output
}

func (v *VertexID) UnmarshalJSON(data []byte) error {
	id, err := vertexIDUnmarshalJSON(data)
	if err != nil {
		return err
	}
	*v = id
	return nil
}

// HexStringToVertexID parses a 0x-prefixed (or bare) hex string into a
// VertexID.
func HexStringToVertexID(s string) (VertexID, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if s == "" {
		return 0, fmt.Errorf("invalid VertexID: empty")
	}
	u, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid VertexID hex %q: %w", s, err)
	}
	return VertexID(u), nil
}

// BigIntToVertexID converts a non-negative big.Int into a VertexID.
func BigIntToVertexID(x *big.Int) (VertexID, error) {
	if x == nil {
		return 0, fmt.Errorf("nil big.Int")
	}
	if x.Sign() < 0 {
		return 0, fmt.Errorf("negative value")
	}
	if !x.IsUint64() {
		return 0, fmt.Errorf("overflows uint64")
	}
	return VertexID(x.Uint64()), nil
}

func vertexIDUnmarshalJSON(data []byte) (VertexID, error) {
	var hb HexBytes
	if err := hb.UnmarshalJSON(data); err != nil {
		return 0, err
	}
	if len(hb) == 0 {
		return 0, fmt.Errorf("invalid VertexID: empty")
	}
	if len(hb) > 8 {
		return 0, fmt.Errorf("invalid VertexID: too many bytes (%d)", len(hb))
	}
	var b [8]byte
	copy(b[8-len(hb):], hb) // left-pad to 8
	return VertexID(binary.BigEndian.Uint64(b[:])), nil
}
