// Package db defines the common key-value database interfaces used across
// the node, plus the options to instantiate the supported backends.
package db

import (
	"errors"
	"io"
)

var (
	// ErrKeyNotFound is returned by Get when the key does not exist.
	ErrKeyNotFound = errors.New("key not found")
	// ErrConflict is returned by Commit when the transaction conflicts
	// with a previously committed write.
	ErrConflict = errors.New("conflict")
	// ErrTxnTooBig is returned by Set or Delete when the transaction has
	// grown past the backend's limits and must be committed.
	ErrTxnTooBig = errors.New("transaction too big")
)

const (
	// TypePebble is the identifier of the pebble backend.
	TypePebble = "pebble"
	// TypeInMemory is the identifier of the ephemeral in-memory backend.
	TypeInMemory = "inmemory"
)

// Options defines generic parameters for creating a database.
type Options struct {
	Path string
}

// Database is the interface to a key-value database backend.
type Database interface {
	io.Closer
	Reader

	// WriteTx creates a new write transaction. The transaction must
	// always end with a call to Commit or Discard.
	WriteTx() WriteTx

	// Compact triggers a compaction of the underlying storage, when the
	// backend supports it.
	Compact() error
}

// Reader contains the read-only methods shared by Database and WriteTx.
type Reader interface {
	// Get retrieves the value for the given key. If the key does not
	// exist, it returns ErrKeyNotFound.
	Get(key []byte) ([]byte, error)

	// Iterate calls callback with all key-value pairs whose key starts
	// with prefix, in lexicographic key order. The prefix is stripped
	// from the keys passed to the callback. Iteration stops when the
	// callback returns false.
	//
	// The callback's byte slices are only valid for the duration of the
	// call; copy them if they must outlive it.
	Iterate(prefix []byte, callback func(key, value []byte) bool) error
}

// WriteTx is a database transaction that can both read and write.
//
// A WriteTx is not safe for concurrent use, and reads are not isolated
// from writes performed through the same transaction.
type WriteTx interface {
	Reader

	// Set stores key with the given value.
	Set(key []byte, value []byte) error

	// Delete removes the value for the given key.
	Delete(key []byte) error

	// Apply copies all the stored operations in the given transaction
	// into this one. Both must come from the same Database.
	Apply(WriteTx) error

	// Commit atomically applies all the transaction's operations to the
	// database. It returns ErrConflict if the transaction conflicts with
	// another one committed after this one began.
	Commit() error

	// Discard drops the transaction's pending operations and frees its
	// resources. Calling Discard after Commit is a safe no-op.
	Discard()
}

// UnwrapWriteTx unwraps layered transactions, such as a prefixed one, until
// reaching the backend's base transaction.
func UnwrapWriteTx(tx WriteTx) WriteTx {
	for {
		unwrapped, ok := tx.(interface{ Unwrap() WriteTx })
		if !ok {
			return tx
		}
		tx = unwrapped.Unwrap()
	}
}
