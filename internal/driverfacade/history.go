package driverfacade

import (
	"context"
	"time"

	"klimadriver/internal/historycache"
)

// historyPollInterval is how often StartupHistory checks whether the
// current batch has filled, independent of PollingInterval.
const historyPollInterval = time.Second

// batchStallTimeout is how long StartupHistory waits for a batch to
// fill before giving up and re-requesting from the last accepted
// timestamp instead.
const batchStallTimeout = 300 * time.Second

// HistoryBatch is one drained chunk of the startup history catchup.
// Complete is set once the batch's own time span falls under five
// minutes - the station has been caught up to near-present and no
// further batches will follow.
type HistoryBatch struct {
	Records  []historycache.Record
	Complete bool
}

// StartupHistory begins a catchup run from since (or, if numRec > 0,
// the most recent numRec records regardless of since) and drains it in
// BatchSize chunks until the run completes or ctx is cancelled. If a
// batch takes longer than five minutes to fill, it is emitted as-is and
// the next batch re-requests starting from the last accepted
// timestamp rather than waiting indefinitely.
func (f *Facade) StartupHistory(ctx context.Context, since time.Time, numRec int) <-chan HistoryBatch {
	out := make(chan HistoryBatch)

	go func() {
		defer close(out)

		f.cache.StartCachingHistory(since, numRec)
		f.cache.ClearWaitAtStart()

		for {
			batchStart := time.Now()
			for f.cache.CachedCount() < f.opts.BatchSize {
				if time.Since(batchStart) > batchStallTimeout {
					break
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(historyPollInterval):
				}
			}

			records := f.cache.Records()
			if len(records) == 0 {
				return
			}

			storePeriod := records[len(records)-1].Timestamp.Sub(records[0].Timestamp)
			batch := HistoryBatch{Records: records, Complete: storePeriod < batchStallTimeout}

			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
			if batch.Complete {
				return
			}

			lastTS := records[len(records)-1].Timestamp
			f.cache.StartCachingHistory(lastTS, 0)
			f.cache.ClearWaitAtStart()
		}
	}()

	return out
}
