// Package metadb instantiates a db.Database from a backend type name.
package metadb

import (
	"cmp"
	"fmt"
	"os"
	"testing"

	"github.com/tokamak-network/syb-circuits/db"
	"github.com/tokamak-network/syb-circuits/db/inmemory"
	"github.com/tokamak-network/syb-circuits/db/pebbledb"
)

// New returns a database of the given type rooted at dir.
func New(typ, dir string) (db.Database, error) {
	opts := db.Options{Path: dir}
	switch typ {
	case db.TypePebble:
		return pebbledb.New(opts)
	case db.TypeInMemory:
		return inmemory.New(opts)
	default:
		return nil, fmt.Errorf("invalid dbType: %q. Available types: %q %q",
			typ, db.TypePebble, db.TypeInMemory)
	}
}

// ForTest returns the database type to use in tests, overridable with the
// DB_TYPE environment variable.
func ForTest() (typ string) {
	return cmp.Or(os.Getenv("DB_TYPE"), db.TypePebble)
}

// NewTest returns a temporary database which is cleaned up when the test
// finishes.
func NewTest(tb testing.TB) db.Database {
	database, err := New(ForTest(), tb.TempDir())
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := database.Close(); err != nil {
			tb.Error(err)
		}
	})
	return database
}
