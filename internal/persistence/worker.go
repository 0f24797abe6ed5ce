package persistence

import (
	"context"
	"fmt"
	"log"
	"time"

	"LottoLedger/internal/observability"
	"LottoLedger/internal/session"
)

// SaveWorker drains the save channel and writes snapshots to Postgres.
// The channel uses BLOCKING sends from the engine, so if this worker falls
// behind, the engine stalls rather than lose a mutation. Consecutive saves
// for the same session key are coalesced: only the newest snapshot matters.
type SaveWorker struct {
	store     *SnapshotStore
	inputChan <-chan session.SaveRequest
	metrics   *observability.Metrics
}

func NewSaveWorker(
	store *SnapshotStore,
	inputChan <-chan session.SaveRequest,
	metrics *observability.Metrics,
) *SaveWorker {
	return &SaveWorker{
		store:     store,
		inputChan: inputChan,
		metrics:   metrics,
	}
}

// Run starts the save loop. Blocks until ctx is cancelled or the channel
// closes; pending saves are flushed before returning.
func (sw *SaveWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			sw.drainRemaining()
			return ctx.Err()

		case req, ok := <-sw.inputChan:
			if !ok {
				return nil
			}
			req = sw.coalesce(req)
			if err := sw.writeWithRetry(ctx, req); err != nil {
				log.Printf("ERROR: snapshot save for %s failed: %v", req.Key, err)
			}
		}
	}
}

// coalesce swallows queued saves for the same key, keeping the newest.
// Saves for other keys are written immediately since ordering across keys
// does not matter.
func (sw *SaveWorker) coalesce(req session.SaveRequest) session.SaveRequest {
	for {
		select {
		case next, ok := <-sw.inputChan:
			if !ok {
				return req
			}
			if next.Key != req.Key {
				if err := sw.writeWithRetry(context.Background(), req); err != nil {
					log.Printf("ERROR: snapshot save for %s failed: %v", req.Key, err)
				}
			}
			req = next
		default:
			return req
		}
	}
}

// drainRemaining flushes whatever is still queued during shutdown.
func (sw *SaveWorker) drainRemaining() {
	for {
		select {
		case req, ok := <-sw.inputChan:
			if !ok {
				return
			}
			if err := sw.write(context.Background(), req); err != nil {
				log.Printf("ERROR: final snapshot save for %s failed: %v", req.Key, err)
			}
		default:
			return
		}
	}
}

// writeWithRetry attempts the write with exponential backoff. The worker
// never drops a snapshot — it retries until the write succeeds or the
// context is cancelled, then makes one final attempt with a background
// context so shutdown does not lose the newest state.
func (sw *SaveWorker) writeWithRetry(ctx context.Context, req session.SaveRequest) error {
	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			log.Printf("WARN: snapshot save retry attempt %d (backoff=%v, key=%s)",
				attempt, backoff, req.Key)
			select {
			case <-ctx.Done():
				if err := sw.write(context.Background(), req); err != nil {
					return fmt.Errorf("final save on shutdown failed: %w", err)
				}
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		err := sw.write(ctx, req)
		if err == nil {
			if attempt > 0 {
				log.Printf("INFO: snapshot save succeeded after %d retries", attempt)
			}
			return nil
		}
	}
}

func (sw *SaveWorker) write(ctx context.Context, req session.SaveRequest) error {
	start := time.Now()
	err := sw.store.SaveSnapshot(ctx, req.Key.String(), req.Snapshot)

	if sw.metrics != nil {
		if err != nil {
			sw.metrics.SnapshotSaveErrors.Inc()
		} else {
			sw.metrics.SnapshotSavesWritten.Inc()
			sw.metrics.SnapshotSaveDuration.Observe(time.Since(start).Seconds())
		}
	}
	return err
}
