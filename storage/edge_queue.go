package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/tokamak-network/syb-circuits/db/prefixeddb"
	"github.com/tokamak-network/syb-circuits/log"
	"github.com/tokamak-network/syb-circuits/types"
)

// PushEdge stores a new edge into the pending queue. It returns
// ErrEdgeAlreadyExists if the same canonical edge is already queued.
func (s *Storage) PushEdge(e types.Edge) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	key := edgeKey(e)
	val, err := EncodeArtifact(&PendingEdge{Edge: e, Received: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("encode edge: %w", err)
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), edgePrefix)
	if _, err := wTx.Get(key); err == nil {
		wTx.Discard()
		return ErrEdgeAlreadyExists
	}
	if err := wTx.Set(key, val); err != nil {
		wTx.Discard()
		return err
	}
	if err := wTx.Commit(); err != nil {
		return err
	}
	return s.setEdgeStatus(e, EdgeStatusPending)
}

// NextEdge returns the next non-reserved pending edge, creates a
// reservation, and returns it together with its queue key. If no edges are
// available it returns ErrNoMoreElements. The key is used to mark the edge
// as done or failed after processing.
func (s *Storage) NextEdge() (*PendingEdge, []byte, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	pr := prefixeddb.NewPrefixedDatabase(s.db, edgePrefix)
	var chosenKey, chosenVal []byte
	if err := pr.Iterate(nil, func(k, v []byte) bool {
		if s.isReserved(edgeReservationPrefix, k) {
			return true
		}
		chosenKey = make([]byte, len(k))
		copy(chosenKey, k)
		chosenVal = v
		return false
	}); err != nil {
		return nil, nil, fmt.Errorf("iterate edges: %w", err)
	}
	if chosenVal == nil {
		return nil, nil, ErrNoMoreElements
	}

	var pe PendingEdge
	if err := DecodeArtifact(chosenVal, &pe); err != nil {
		return nil, nil, fmt.Errorf("decode edge: %w", err)
	}
	if err := s.setReservation(edgeReservationPrefix, chosenKey); err != nil {
		return nil, nil, ErrNoMoreElements
	}
	return &pe, chosenKey, nil
}

// ReleaseEdgeReservation removes the reservation for an edge, making it
// available to NextEdge again.
func (s *Storage) ReleaseEdgeReservation(key []byte) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	if err := s.deleteArtifact(edgeReservationPrefix, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}

// MarkEdgeDone removes the edge and its reservation from the queue and
// marks it as batched.
func (s *Storage) MarkEdgeDone(key []byte) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.removeEdge(key, EdgeStatusBatched)
}

// MarkEdgeFailed removes the edge and its reservation from the queue and
// marks it as failed. Failed edges are dropped, not retried.
func (s *Storage) MarkEdgeFailed(key []byte) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.removeEdge(key, EdgeStatusError)
}

func (s *Storage) removeEdge(key []byte, status int) error {
	var pe PendingEdge
	if err := s.getArtifact(edgePrefix, key, &pe); err != nil {
		return err
	}
	if err := s.deleteArtifact(edgeReservationPrefix, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if err := s.deleteArtifact(edgePrefix, key); err != nil {
		return fmt.Errorf("delete edge: %w", err)
	}
	if err := s.setEdgeStatus(pe.Edge, status); err != nil {
		log.Warnw("failed to set edge status", "edge", pe.Edge.String(), "status", EdgeStatusName(status))
	}
	return nil
}

// CountPendingEdges returns the number of edges waiting in the queue,
// reserved or not.
func (s *Storage) CountPendingEdges() (int, error) {
	keys, err := s.listArtifacts(edgePrefix)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// EdgeStatus returns the pipeline status of an edge. It returns ErrNotFound
// for edges never pushed.
func (s *Storage) EdgeStatus(e types.Edge) (int, error) {
	data, err := prefixeddb.NewPrefixedDatabase(s.db, edgeStatusPrefix).Get(edgeKey(e))
	if err != nil || len(data) != 1 {
		return 0, ErrNotFound
	}
	return int(data[0]), nil
}

func (s *Storage) setEdgeStatus(e types.Edge, status int) error {
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), edgeStatusPrefix)
	defer wTx.Discard()
	if err := wTx.Set(edgeKey(e), []byte{byte(status)}); err != nil {
		return err
	}
	return wTx.Commit()
}
