package sequencer

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tokamak-network/syb-circuits/circuits/graphtree"
	"github.com/tokamak-network/syb-circuits/log"
	"github.com/tokamak-network/syb-circuits/state"
	"github.com/tokamak-network/syb-circuits/storage"
	"github.com/tokamak-network/syb-circuits/types"
)

// ErrEmptyBatch is returned by SealPendingBatch when the queue yields no
// applicable edge.
var ErrEmptyBatch = errors.New("no edges to batch")

// Batch is a sealed batch together with the proving material collected
// while applying it.
type Batch struct {
	Record      *storage.BatchRecord
	Witnesses   []*state.EdgeWitness
	Assignments []*graphtree.EdgeInsertionCircuit
}

// SealPendingBatch drains up to types.EdgesPerBatch edges from the queue,
// applies them to the state, and seals the resulting batch record. Edges
// rejected by the state transition are marked failed and skipped; they do
// not abort the batch.
func (s *Sequencer) SealPendingBatch() (*Batch, error) {
	s.batchLock.Lock()
	defer s.batchLock.Unlock()

	batchID, startIndex, err := s.stg.NextBatchSlot()
	if err != nil {
		return nil, fmt.Errorf("next batch slot: %w", err)
	}
	rootBefore, err := s.state.RootAsBigInt()
	if err != nil {
		return nil, fmt.Errorf("root before batch: %w", err)
	}
	if err := s.state.StartBatch(); err != nil {
		return nil, fmt.Errorf("start batch: %w", err)
	}

	var (
		edges     []types.Edge
		doneKeys  [][]byte
		witnesses []*state.EdgeWitness
	)
	for len(edges) < types.EdgesPerBatch {
		pe, key, err := s.stg.NextEdge()
		if errors.Is(err, storage.ErrNoMoreElements) {
			break
		}
		if err != nil {
			s.abortBatch(doneKeys)
			return nil, fmt.Errorf("next edge: %w", err)
		}
		w, err := s.state.AddEdge(pe.Edge)
		if err != nil {
			if errors.Is(err, state.ErrInconsistentProof) {
				s.abortBatch(append(doneKeys, key))
				return nil, fmt.Errorf("apply edge %s: %w", pe.Edge, err)
			}
			log.Warnw("edge rejected",
				"edge", pe.Edge.String(),
				"error", err.Error())
			if err := s.stg.MarkEdgeFailed(key); err != nil {
				log.Warnw("failed to mark edge failed", "error", err.Error())
			}
			continue
		}
		edges = append(edges, pe.Edge)
		doneKeys = append(doneKeys, key)
		witnesses = append(witnesses, w)
	}

	if len(edges) == 0 {
		s.abortBatch(nil)
		return nil, ErrEmptyBatch
	}
	if err := s.state.EndBatch(); err != nil {
		return nil, fmt.Errorf("end batch: %w", err)
	}

	assignments, err := s.buildAssignments(witnesses)
	if err != nil {
		return nil, fmt.Errorf("build assignments: %w", err)
	}

	rootAfter, err := s.state.RootAsBigInt()
	if err != nil {
		return nil, fmt.Errorf("root after batch: %w", err)
	}
	record := &storage.BatchRecord{
		BatchID:    batchID,
		StartIndex: startIndex,
		Edges:      edges,
		RootBefore: new(types.BigInt).SetBigInt(rootBefore),
		RootAfter:  new(types.BigInt).SetBigInt(rootAfter),
		CreatedAt:  time.Now().Unix(),
	}
	if err := s.stg.SealBatch(record); err != nil {
		return nil, fmt.Errorf("seal batch: %w", err)
	}
	for _, key := range doneKeys {
		if err := s.stg.MarkEdgeDone(key); err != nil {
			log.Warnw("failed to mark edge done", "error", err.Error())
		}
	}
	s.lastBatchTime = time.Now()

	return &Batch{
		Record:      record,
		Witnesses:   witnesses,
		Assignments: assignments,
	}, nil
}

// abortBatch rolls the tree back to the root recorded at StartBatch,
// discards the open adjacency transaction, and releases the reservations of
// the edges drained so far, so they can be retried.
func (s *Sequencer) abortBatch(keys [][]byte) {
	if root := s.state.RootHashBefore(); root != nil {
		if err := s.state.SetRootAsBigInt(root); err != nil {
			log.Warnw("failed to roll back state root", "error", err.Error())
		}
	}
	if err := s.state.Close(); err != nil {
		log.Warnw("failed to discard state batch", "error", err.Error())
	}
	for _, key := range keys {
		if err := s.stg.ReleaseEdgeReservation(key); err != nil {
			log.Warnw("failed to release edge reservation", "error", err.Error())
		}
	}
}

// buildAssignments converts the recorded witnesses into circuit
// assignments, in parallel.
func (s *Sequencer) buildAssignments(witnesses []*state.EdgeWitness) ([]*graphtree.EdgeInsertionCircuit, error) {
	assignments := make([]*graphtree.EdgeInsertionCircuit, len(witnesses))
	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for i, w := range witnesses {
		g.Go(func() error {
			assignment, err := graphtree.AssignmentFromWitness(w, s.state.Params())
			if err != nil {
				return fmt.Errorf("witness %d: %w", i, err)
			}
			assignments[i] = assignment
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assignments, nil
}
