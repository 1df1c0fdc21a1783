package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/tokamak-network/syb-circuits/db/prefixeddb"
)

var countersKey = []byte("seq")

// sequencerCounters tracks the position of the next batch in the global
// edge sequence.
type sequencerCounters struct {
	NextBatchID    uint64 `cbor:"0,keyasint"`
	NextStartIndex uint32 `cbor:"1,keyasint"`
}

func batchKey(batchID uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, batchID)
}

// NextBatchSlot returns the batch id and global start index the next sealed
// batch must use.
func (s *Storage) NextBatchSlot() (uint64, uint32, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	counters, err := s.counters()
	if err != nil {
		return 0, 0, err
	}
	return counters.NextBatchID, counters.NextStartIndex, nil
}

// SealBatch stores a sealed batch record and advances the sequencer
// counters past it. The record's slot must match the counters.
func (s *Storage) SealBatch(b *BatchRecord) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	counters, err := s.counters()
	if err != nil {
		return err
	}
	if b.BatchID != counters.NextBatchID || b.StartIndex != counters.NextStartIndex {
		return fmt.Errorf("batch slot (%d, %d) does not match the sequence (%d, %d)",
			b.BatchID, b.StartIndex, counters.NextBatchID, counters.NextStartIndex)
	}

	record, err := EncodeArtifact(b)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	counters.NextBatchID = b.BatchID + 1
	counters.NextStartIndex = b.StartIndex + uint32(len(b.Edges))
	updated, err := EncodeArtifact(counters)
	if err != nil {
		return fmt.Errorf("encode counters: %w", err)
	}

	// one transaction so the record and the counters move together
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	if err := prefixeddb.NewPrefixedWriteTx(wTx, batchPrefix).Set(batchKey(b.BatchID), record); err != nil {
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(wTx, countersPrefix).Set(countersKey, updated); err != nil {
		return err
	}
	return wTx.Commit()
}

// Batch retrieves a sealed batch record by id. It returns ErrNotFound if
// the batch does not exist.
func (s *Storage) Batch(batchID uint64) (*BatchRecord, error) {
	b := new(BatchRecord)
	if err := s.getArtifact(batchPrefix, batchKey(batchID), b); err != nil {
		return nil, err
	}
	return b, nil
}

// LastBatch retrieves the most recently sealed batch. It returns
// ErrNoMoreElements if no batch has been sealed yet.
func (s *Storage) LastBatch() (*BatchRecord, error) {
	s.globalLock.Lock()
	counters, err := s.counters()
	s.globalLock.Unlock()
	if err != nil {
		return nil, err
	}
	if counters.NextBatchID == 0 {
		return nil, ErrNoMoreElements
	}
	return s.Batch(counters.NextBatchID - 1)
}

// ListBatchIDs returns the ids of all sealed batches in ascending order.
func (s *Storage) ListBatchIDs() ([]uint64, error) {
	keys, err := s.listArtifacts(batchPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(keys))
	for _, k := range keys {
		if len(k) != 8 {
			continue
		}
		ids = append(ids, binary.BigEndian.Uint64(k))
	}
	return ids, nil
}

func (s *Storage) counters() (*sequencerCounters, error) {
	counters := new(sequencerCounters)
	if err := s.getArtifact(countersPrefix, countersKey, counters); err != nil {
		if err == ErrNotFound {
			return &sequencerCounters{}, nil
		}
		return nil, err
	}
	return counters, nil
}
