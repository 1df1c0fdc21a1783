package types

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestVertexIDValid(t *testing.T) {
	c := qt.New(t)

	c.Assert(VertexID(0).Valid(32), qt.IsFalse)
	c.Assert(VertexID(1).Valid(32), qt.IsTrue)
	c.Assert(VertexID(1<<32-1).Valid(32), qt.IsTrue)
	c.Assert(VertexID(1<<32).Valid(32), qt.IsFalse)
	c.Assert(VertexID(1<<32).Valid(64), qt.IsTrue)
}

func TestVertexIDJSONRoundTrip(t *testing.T) {
	c := qt.New(t)

	v := VertexID(0xdeadbeef)
	data, err := json.Marshal(v)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"0x00000000deadbeef"`)

	var back VertexID
	c.Assert(json.Unmarshal(data, &back), qt.IsNil)
	c.Assert(back, qt.Equals, v)
}

func TestHexStringToVertexID(t *testing.T) {
	c := qt.New(t)

	v, err := HexStringToVertexID("0x2a")
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, VertexID(42))

	_, err = HexStringToVertexID("")
	c.Assert(err, qt.IsNotNil)

	_, err = HexStringToVertexID("0xzz")
	c.Assert(err, qt.IsNotNil)
}

func TestNewEdgeCanonicalOrder(t *testing.T) {
	c := qt.New(t)

	e, err := NewEdge(7, 3)
	c.Assert(err, qt.IsNil)
	c.Assert(e.Ilo, qt.Equals, uint32(3))
	c.Assert(e.Ihi, qt.Equals, uint32(7))
	c.Assert(e.Packed(), qt.Equals, uint64(3)<<32|7)

	_, err = NewEdge(5, 5)
	c.Assert(err, qt.IsNotNil)
	_, err = NewEdge(0, 5)
	c.Assert(err, qt.IsNotNil)
}

func TestEdgeAppendBytes(t *testing.T) {
	c := qt.New(t)

	e := Edge{Ilo: 1, Ihi: 2}
	b := e.AppendBytes(nil)
	c.Assert(b, qt.DeepEquals, []byte{0, 0, 0, 1, 0, 0, 0, 2})
}

func TestBigIntJSON(t *testing.T) {
	c := qt.New(t)

	i := new(BigInt).SetBigInt(big.NewInt(1234567890))
	data, err := json.Marshal(i)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"1234567890"`)

	var back BigInt
	c.Assert(json.Unmarshal(data, &back), qt.IsNil)
	c.Assert(back.Equal(i), qt.IsTrue)
}
