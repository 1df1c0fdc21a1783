// Package dbtest provides generic test suites that every db.Database
// backend must pass.
package dbtest

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/tokamak-network/syb-circuits/db"
	"github.com/tokamak-network/syb-circuits/db/prefixeddb"
)

// TestWriteTx exercises the basic Set/Get/Delete/Commit/Discard contract.
func TestWriteTx(t *testing.T, database db.Database) {
	c := qt.New(t)

	wTx := database.WriteTx()
	defer wTx.Discard()

	_, err := wTx.Get([]byte("a"))
	c.Assert(err, qt.Equals, db.ErrKeyNotFound)

	c.Assert(wTx.Set([]byte("a"), []byte("b")), qt.IsNil)

	v, err := wTx.Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte("b"))

	c.Assert(wTx.Commit(), qt.IsNil)

	// get from a new transaction
	rTx := database.WriteTx()
	v, err = rTx.Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte("b"))
	rTx.Discard()

	// get from the database directly
	v, err = database.Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte("b"))

	wTx = database.WriteTx()
	defer wTx.Discard()
	c.Assert(wTx.Delete([]byte("a")), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)

	_, err = database.Get([]byte("a"))
	c.Assert(err, qt.Equals, db.ErrKeyNotFound)
}

// TestIterate checks key ordering, prefix filtering and early termination.
func TestIterate(t *testing.T, database db.Database) {
	c := qt.New(t)

	prefix0 := []byte("one")
	prefix0NumKeys := 20
	prefix1 := []byte("two")
	prefix1NumKeys := 30

	wTx := database.WriteTx()
	defer wTx.Discard()
	for i := 0; i < prefix0NumKeys; i++ {
		key := append(prefix0, []byte(fmt.Sprintf("%03d", i))...)
		c.Assert(wTx.Set(key, []byte(fmt.Sprintf("%d", i))), qt.IsNil)
	}
	for i := 0; i < prefix1NumKeys; i++ {
		key := append(prefix1, []byte(fmt.Sprintf("%03d", i))...)
		c.Assert(wTx.Set(key, []byte(fmt.Sprintf("%d", i))), qt.IsNil)
	}
	c.Assert(wTx.Commit(), qt.IsNil)

	// without prefix, all keys are visited
	noPrefixKeysFound := 0
	err := database.Iterate(nil, func(_, _ []byte) bool {
		noPrefixKeysFound++
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(noPrefixKeysFound, qt.Equals, prefix0NumKeys+prefix1NumKeys)

	// with a prefix, only matching keys are visited, prefix stripped
	prefix0KeysFound := 0
	err = database.Iterate(prefix0, func(key, value []byte) bool {
		c.Assert(string(key), qt.Equals, fmt.Sprintf("%03d", prefix0KeysFound))
		c.Assert(string(value), qt.Equals, fmt.Sprintf("%d", prefix0KeysFound))
		prefix0KeysFound++
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(prefix0KeysFound, qt.Equals, prefix0NumKeys)

	// returning false stops the iteration
	maxKeys := 10
	stoppedKeysFound := 0
	err = database.Iterate(prefix1, func(_, _ []byte) bool {
		stoppedKeysFound++
		return stoppedKeysFound < maxKeys
	})
	c.Assert(err, qt.IsNil)
	c.Assert(stoppedKeysFound, qt.Equals, maxKeys)
}

// TestWriteTxApply checks that one transaction's writes can be applied
// into another before committing.
func TestWriteTxApply(t *testing.T, database db.Database) {
	c := qt.New(t)

	wTx0 := database.WriteTx()
	defer wTx0.Discard()
	c.Assert(wTx0.Set([]byte("a"), []byte("b")), qt.IsNil)

	wTx1 := database.WriteTx()
	defer wTx1.Discard()
	c.Assert(wTx1.Apply(wTx0), qt.IsNil)

	// wTx0 is not committed, so the write only lives in the transactions
	_, err := database.Get([]byte("a"))
	c.Assert(err, qt.Equals, db.ErrKeyNotFound)

	c.Assert(wTx1.Commit(), qt.IsNil)

	v, err := database.Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte("b"))
}

// TestWriteTxApplyPrefixed checks Apply across prefixed transactions.
func TestWriteTxApplyPrefixed(t *testing.T, database db.Database) {
	c := qt.New(t)

	prefix := []byte("pfx")
	wTx0 := prefixeddb.NewPrefixedWriteTx(database.WriteTx(), prefix)
	defer wTx0.Discard()
	c.Assert(wTx0.Set([]byte("a"), []byte("b")), qt.IsNil)

	wTx1 := database.WriteTx()
	defer wTx1.Discard()
	c.Assert(wTx1.Apply(wTx0), qt.IsNil)
	c.Assert(wTx1.Commit(), qt.IsNil)

	// the key is stored under the prefix
	v, err := database.Get(append(prefix, []byte("a")...))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte("b"))

	v, err = prefixeddb.NewPrefixedDatabase(database, prefix).Get([]byte("a"))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.DeepEquals, []byte("b"))
}
