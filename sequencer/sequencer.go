// Package sequencer drains the pending edge queue into batches, applies
// them to the graph state, and seals the resulting batch records together
// with the circuit assignments that prove them.
package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tokamak-network/syb-circuits/log"
	"github.com/tokamak-network/syb-circuits/state"
	"github.com/tokamak-network/syb-circuits/storage"
	"github.com/tokamak-network/syb-circuits/types"
	"github.com/tokamak-network/syb-circuits/util"
)

// BatchTickerInterval is the interval at which the sequencer checks for
// pending edges to batch. This value can be changed before starting the
// sequencer.
var BatchTickerInterval = 10 * time.Second

// Sequencer builds batches of up to types.EdgesPerBatch edges. A batch is
// sealed when the queue holds a full batch, or when batchTimeWindow has
// elapsed since the last sealed batch and the queue is not empty.
type Sequencer struct {
	stg    *storage.Storage
	state  *state.State
	ctx    context.Context
	cancel context.CancelFunc

	batchLock       sync.Mutex
	batchTimeWindow time.Duration
	lastBatchTime   time.Time
}

// New creates a new Sequencer over the given storage and state.
func New(stg *storage.Storage, st *state.State, batchTimeWindow time.Duration) (*Sequencer, error) {
	if stg == nil {
		return nil, fmt.Errorf("storage cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("state cannot be nil")
	}
	if batchTimeWindow <= 0 {
		return nil, fmt.Errorf("batch time window must be positive")
	}
	return &Sequencer{
		stg:             stg,
		state:           st,
		batchTimeWindow: batchTimeWindow,
		lastBatchTime:   time.Now(),
	}, nil
}

// Start begins the batch processing routine. It creates a new context
// derived from the provided one; Stop cancels it.
func (s *Sequencer) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.startBatchProcessor(BatchTickerInterval)
	return nil
}

// Stop cancels the sequencer's context and stops the processing routine.
func (s *Sequencer) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// startBatchProcessor starts a background goroutine that periodically
// checks whether a batch is ready to be sealed. It runs until the
// sequencer's context is canceled.
func (s *Sequencer) startBatchProcessor(tickerInterval time.Duration) {
	ticker := time.NewTicker(tickerInterval)

	go func() {
		defer ticker.Stop()
		log.Infow("batch processor started",
			"tickInterval", tickerInterval.String(),
			"batchTimeWindow", s.batchTimeWindow.String())

		for {
			select {
			case <-s.ctx.Done():
				log.Infow("batch processor stopped")
				return
			case <-ticker.C:
				s.processPendingEdges()
			}
		}
	}()
}

// processPendingEdges seals a batch if the queue is ready: either a full
// batch is waiting, or the time window has elapsed with a non-empty queue.
func (s *Sequencer) processPendingEdges() {
	pending, err := s.stg.CountPendingEdges()
	if err != nil {
		log.Warnw("failed to count pending edges", "error", err.Error())
		return
	}
	timeSinceLast := time.Since(s.lastBatchTime)
	if pending == 0 || (pending < types.EdgesPerBatch && timeSinceLast <= s.batchTimeWindow) {
		return
	}

	log.Debugw("batch ready",
		"pendingEdges", pending,
		"timeSinceLast", timeSinceLast.String())
	batch, err := s.SealPendingBatch()
	if err != nil {
		log.Warnw("failed to seal batch", "error", err.Error())
		return
	}
	log.Infow("batch sealed",
		"batchID", batch.Record.BatchID,
		"edges", len(batch.Record.Edges),
		"rootAfter", util.PrettyHex(batch.Record.RootAfter.MathBigInt()),
		"storageHash", batch.Record.StorageHash().Hex())
}
