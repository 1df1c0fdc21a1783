// Package pebbledb implements the db.Database interface on top of
// cockroachdb's pebble storage engine. This is the backend used for all
// persistent state.
package pebbledb

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/tokamak-network/syb-circuits/db"
)

// PebbleDB implements db.Database on a pebble store.
type PebbleDB struct {
	db     *pebble.DB
	closed atomic.Bool
}

// New returns a PebbleDB using the given options.
func New(opts db.Options) (*PebbleDB, error) {
	pdb, err := pebble.Open(opts.Path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open %s: %w", opts.Path, err)
	}
	return &PebbleDB{db: pdb}, nil
}

// Close closes the database. Transactions created before the close become
// no-ops; their methods return nil rather than panicking.
func (d *PebbleDB) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	return d.db.Close()
}

// Compact compacts the whole key range.
func (d *PebbleDB) Compact() error {
	if d.closed.Load() {
		return nil
	}
	// from nil to nil doesn't work, so we need to define the limits
	first, last := []byte{0x00}, bytes.Repeat([]byte{0xff}, 64)
	return d.db.Compact(first, last, true)
}

// Get implements db.Reader.
func (d *PebbleDB) Get(key []byte) ([]byte, error) {
	if d.closed.Load() {
		return nil, db.ErrKeyNotFound
	}
	return get(d.db, key)
}

// Iterate implements db.Reader.
func (d *PebbleDB) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	if d.closed.Load() {
		return nil
	}
	return iterate(d.db, prefix, callback)
}

// WriteTx returns a new write transaction backed by an indexed pebble
// batch, so that reads observe the transaction's own writes.
func (d *PebbleDB) WriteTx() db.WriteTx {
	if d.closed.Load() {
		return &WriteTx{parent: d}
	}
	return &WriteTx{parent: d, batch: d.db.NewIndexedBatch()}
}

func get(reader pebble.Reader, key []byte) ([]byte, error) {
	value, closer, err := reader.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	// value is only valid until closer.Close, so return a copy
	cpy := bytes.Clone(value)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return cpy, nil
}

func iterate(reader pebble.Reader, prefix []byte, callback func(key, value []byte) bool) error {
	iterOpts := &pebble.IterOptions{}
	if len(prefix) > 0 {
		iterOpts.LowerBound = prefix
		iterOpts.UpperBound = prefixUpperBound(prefix)
	}
	iter, err := reader.NewIter(iterOpts)
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		if !callback(iter.Key()[len(prefix):], iter.Value()) {
			break
		}
	}
	return iter.Close()
}

// prefixUpperBound returns the smallest key greater than all keys with the
// given prefix, or nil if the prefix is all 0xff bytes.
func prefixUpperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// WriteTx implements db.WriteTx on a pebble indexed batch.
type WriteTx struct {
	parent *PebbleDB
	batch  *pebble.Batch
}

// check that WriteTx implements the db.WriteTx interface
var _ db.WriteTx = (*WriteTx)(nil)

func (tx *WriteTx) gone() bool {
	return tx.batch == nil || tx.parent.closed.Load()
}

// Get implements db.Reader.
func (tx *WriteTx) Get(key []byte) ([]byte, error) {
	if tx.gone() {
		return nil, db.ErrKeyNotFound
	}
	return get(tx.batch, key)
}

// Iterate implements db.Reader.
func (tx *WriteTx) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	if tx.gone() {
		return nil
	}
	return iterate(tx.batch, prefix, callback)
}

// Set implements db.WriteTx.
func (tx *WriteTx) Set(key, value []byte) error {
	if tx.gone() {
		return nil
	}
	return tx.batch.Set(key, value, nil)
}

// Delete implements db.WriteTx.
func (tx *WriteTx) Delete(key []byte) error {
	if tx.gone() {
		return nil
	}
	return tx.batch.Delete(key, nil)
}

// Apply implements db.WriteTx.
func (tx *WriteTx) Apply(other db.WriteTx) error {
	if tx.gone() {
		return nil
	}
	otherTx, ok := db.UnwrapWriteTx(other).(*WriteTx)
	if !ok {
		return fmt.Errorf("can only apply another pebbledb.WriteTx")
	}
	if otherTx.gone() {
		return nil
	}
	return tx.batch.Apply(otherTx.batch, nil)
}

// Commit implements db.WriteTx.
func (tx *WriteTx) Commit() error {
	if tx.gone() {
		return nil
	}
	return tx.batch.Commit(pebble.Sync)
}

// Discard implements db.WriteTx.
func (tx *WriteTx) Discard() {
	if tx.gone() {
		return
	}
	// Close returns an error, but we can't do anything about it
	tx.batch.Close()
	tx.batch = nil
}
