package pebbledb_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/tokamak-network/syb-circuits/db"
	"github.com/tokamak-network/syb-circuits/db/internal/dbtest"
	"github.com/tokamak-network/syb-circuits/db/pebbledb"
)

func newDatabase(t *testing.T) db.Database {
	database, err := pebbledb.New(db.Options{Path: t.TempDir()})
	qt.Assert(t, err, qt.IsNil)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestWriteTx(t *testing.T) {
	dbtest.TestWriteTx(t, newDatabase(t))
}

func TestIterate(t *testing.T) {
	dbtest.TestIterate(t, newDatabase(t))
}

func TestWriteTxApply(t *testing.T) {
	dbtest.TestWriteTxApply(t, newDatabase(t))
}

func TestWriteTxApplyPrefixed(t *testing.T) {
	dbtest.TestWriteTxApplyPrefixed(t, newDatabase(t))
}

// Operations on transactions that outlive a Close must not panic.
func TestClosedDB(t *testing.T) {
	c := qt.New(t)

	database, err := pebbledb.New(db.Options{Path: t.TempDir()})
	c.Assert(err, qt.IsNil)

	wTx := database.WriteTx()
	c.Assert(wTx.Set([]byte("a"), []byte("b")), qt.IsNil)
	c.Assert(database.Close(), qt.IsNil)

	c.Assert(wTx.Set([]byte("c"), []byte("d")), qt.IsNil)
	_, err = wTx.Get([]byte("a"))
	c.Assert(err, qt.Equals, db.ErrKeyNotFound)
	c.Assert(wTx.Commit(), qt.IsNil)
	wTx.Discard()

	// new transactions after close are also inert
	wTx = database.WriteTx()
	c.Assert(wTx.Set([]byte("e"), []byte("f")), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)
	wTx.Discard()
}
