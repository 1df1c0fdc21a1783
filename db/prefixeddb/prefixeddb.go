// Package prefixeddb wraps a db.Database so that all keys are transparently
// namespaced under a fixed prefix. It allows multiple components to share a
// single underlying database without key collisions.
package prefixeddb

import (
	"github.com/tokamak-network/syb-circuits/db"
)

// PrefixedDatabase wraps a db.Database, applying a prefix to all keys.
type PrefixedDatabase struct {
	db     db.Database
	prefix []byte
}

// check that PrefixedDatabase implements the db.Database interface
var _ db.Database = (*PrefixedDatabase)(nil)

// NewPrefixedDatabase returns a db.Database which prefixes all keys with
// prefix before passing them to the underlying database.
func NewPrefixedDatabase(database db.Database, prefix []byte) *PrefixedDatabase {
	return &PrefixedDatabase{
		db:     database,
		prefix: prefix,
	}
}

// Close is a no-op; closing the underlying database is the owner's job.
func (d *PrefixedDatabase) Close() error {
	return nil
}

// Compact calls Compact on the underlying database.
func (d *PrefixedDatabase) Compact() error {
	return d.db.Compact()
}

// Get implements db.Reader.
func (d *PrefixedDatabase) Get(key []byte) ([]byte, error) {
	return d.db.Get(append(d.prefix, key...))
}

// Iterate implements db.Reader.
func (d *PrefixedDatabase) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	return d.db.Iterate(append(d.prefix, prefix...), callback)
}

// WriteTx returns a prefixed transaction on the underlying database.
func (d *PrefixedDatabase) WriteTx() db.WriteTx {
	return NewPrefixedWriteTx(d.db.WriteTx(), d.prefix)
}

// PrefixedWriteTx wraps a db.WriteTx, applying a prefix to all keys.
type PrefixedWriteTx struct {
	tx     db.WriteTx
	prefix []byte
}

// check that PrefixedWriteTx implements the db.WriteTx interface
var _ db.WriteTx = (*PrefixedWriteTx)(nil)

// NewPrefixedWriteTx returns a db.WriteTx which prefixes all keys with
// prefix before passing them to the wrapped transaction.
func NewPrefixedWriteTx(tx db.WriteTx, prefix []byte) *PrefixedWriteTx {
	return &PrefixedWriteTx{
		tx:     tx,
		prefix: prefix,
	}
}

// Unwrap returns the wrapped transaction, for db.UnwrapWriteTx.
func (tx *PrefixedWriteTx) Unwrap() db.WriteTx {
	return tx.tx
}

// Get implements db.Reader.
func (tx *PrefixedWriteTx) Get(key []byte) ([]byte, error) {
	return tx.tx.Get(append(tx.prefix, key...))
}

// Iterate implements db.Reader.
func (tx *PrefixedWriteTx) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	return tx.tx.Iterate(append(tx.prefix, prefix...), callback)
}

// Set implements db.WriteTx.
func (tx *PrefixedWriteTx) Set(key, value []byte) error {
	return tx.tx.Set(append(tx.prefix, key...), value)
}

// Delete implements db.WriteTx.
func (tx *PrefixedWriteTx) Delete(key []byte) error {
	return tx.tx.Delete(append(tx.prefix, key...))
}

// Apply implements db.WriteTx.
func (tx *PrefixedWriteTx) Apply(other db.WriteTx) error {
	return tx.tx.Apply(other)
}

// Commit implements db.WriteTx.
func (tx *PrefixedWriteTx) Commit() error {
	return tx.tx.Commit()
}

// Discard implements db.WriteTx.
func (tx *PrefixedWriteTx) Discard() {
	tx.tx.Discard()
}
