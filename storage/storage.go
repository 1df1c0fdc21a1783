/*
Package storage provides the persistent layer of the batch sequencer.

The storage uses a key-value database with prefixed namespaces:

  - e/  : edgeKey → PendingEdge (incoming edges waiting to be batched)
  - er/ : edgeKey → reservation timestamp (prevents concurrent processing)
  - es/ : edgeKey → status byte
  - ba/ : batchID → BatchRecord (sealed batches with their roots and witnesses)
  - s/  : sequencer counters (next batch id, global edge index)

edgeKey is the 8-byte big-endian packed form of the canonical edge, so the
queue is naturally deduplicated and iterates in packed order.
*/
package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/tokamak-network/syb-circuits/db"
	"github.com/tokamak-network/syb-circuits/db/prefixeddb"
)

var (
	ErrKeyAlreadyExists  = errors.New("key already exists")
	ErrNotFound          = errors.New("not found")
	ErrNoMoreElements    = errors.New("no more elements")
	ErrEdgeAlreadyExists = errors.New("edge already exists")

	// Prefixes
	edgePrefix            = []byte("e/")
	edgeReservationPrefix = []byte("er/")
	edgeStatusPrefix      = []byte("es/")
	batchPrefix           = []byte("ba/")
	countersPrefix        = []byte("s/")
)

// reservationRecord stores metadata about a reservation.
type reservationRecord struct {
	Timestamp int64
}

// Storage manages the pending edge queue and the sealed batch records.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
}

// New creates a new Storage instance over the given database.
func New(database db.Database) *Storage {
	return &Storage{db: database}
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) setReservation(prefix, key []byte) error {
	val, err := EncodeArtifact(&reservationRecord{Timestamp: time.Now().Unix()})
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedDatabase(s.db, prefix).WriteTx()
	defer wTx.Discard()
	if _, err := wTx.Get(key); err == nil {
		return ErrKeyAlreadyExists
	}
	if err := wTx.Set(key, val); err != nil {
		return err
	}
	return wTx.Commit()
}

func (s *Storage) isReserved(prefix, key []byte) bool {
	_, err := prefixeddb.NewPrefixedDatabase(s.db, prefix).Get(key)
	return err == nil
}

func (s *Storage) deleteArtifact(prefix, key []byte) error {
	wTx := prefixeddb.NewPrefixedDatabase(s.db, prefix).WriteTx()
	defer wTx.Discard()
	if _, err := wTx.Get(key); err != nil {
		return ErrNotFound
	}
	if err := wTx.Delete(key); err != nil {
		return err
	}
	return wTx.Commit()
}

// setArtifact stores any kind of artifact under prefix/key, overwriting a
// previous value.
func (s *Storage) setArtifact(prefix, key []byte, artifact any) error {
	data, err := EncodeArtifact(artifact)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedDatabase(s.db, prefix).WriteTx()
	defer wTx.Discard()
	if err := wTx.Set(key, data); err != nil {
		return err
	}
	return wTx.Commit()
}

// getArtifact retrieves the artifact stored under prefix/key and decodes it
// into out. It returns ErrNotFound if the key does not exist.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	data, err := prefixeddb.NewPrefixedDatabase(s.db, prefix).Get(key)
	if err != nil {
		return ErrNotFound
	}
	return DecodeArtifact(data, out)
}

// listArtifacts retrieves all the keys stored under a given prefix.
func (s *Storage) listArtifacts(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	if err := prefixeddb.NewPrefixedDatabase(s.db, prefix).Iterate(nil, func(k, _ []byte) bool {
		key := make([]byte, len(k))
		copy(key, k)
		keys = append(keys, key)
		return true
	}); err != nil {
		return nil, err
	}
	return keys, nil
}
