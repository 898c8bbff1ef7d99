package historycache

import (
	"sync"
	"time"

	"klimadriver/internal/records"
)

// TS2010 is the earliest timestamp the catchup protocol will ever accept -
// records decoding to an earlier date are corrupt reads, not real history.
var TS2010 = time.Date(2010, time.July, 1, 0, 0, 0, 0, time.UTC)

// defaultArchiveInterval is used to estimate how many records span a
// since_ts window when the station's configured history interval is not
// yet known.
const defaultArchiveInterval = 15 * time.Minute

// Record is one accepted history sample, tagged with the station channel
// grid it was decoded from.
type Record struct {
	Timestamp time.Time
	Sample    records.HistorySample
}

// Cache holds the state of one in-progress (or idle) history catchup run:
// what was requested, where the drain currently stands, and the records
// collected so far.
type Cache struct {
	mu sync.Mutex

	sinceTS time.Time
	numRec  int

	startIndex *int
	nextIndex  *int

	records              []Record
	numCachedRecords     int
	numOutstandingRecords int
	recordsSkipped       int
	lastTS               time.Time

	batchSize int

	// waitAtStart blocks the RF loop from beginning a catchup until the
	// caller has called ClearWaitAtStart, mirroring the original driver's
	// gate that holds off the very first history read until a consumer is
	// actually attached.
	waitAtStart bool
}

// New returns an idle cache gated by wait_at_start, as the original does
// on construction.
func New(batchSize int) *Cache {
	if batchSize <= 0 {
		batchSize = 1800
	}
	return &Cache{batchSize: batchSize, waitAtStart: true}
}

// ClearWaitAtStart releases the startup gate.
func (c *Cache) ClearWaitAtStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waitAtStart = false
}

// WaitAtStart reports whether the gate is still held.
func (c *Cache) WaitAtStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waitAtStart
}

// Clear resets the cache to start a fresh catchup run.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Cache) clearLocked() {
	c.sinceTS = time.Time{}
	c.numRec = 0
	c.startIndex = nil
	c.nextIndex = nil
	c.records = nil
	c.numOutstandingRecords = 0
	c.numCachedRecords = 0
	c.recordsSkipped = 0
	c.lastTS = time.Time{}
}

// StartCachingHistory begins a new catchup run: either request an explicit
// count of the most recent records (numRec > 0) or everything recorded
// since sinceTS.
func (c *Cache) StartCachingHistory(sinceTS time.Time, numRec int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.sinceTS = sinceTS
	c.numRec = numRec
}

// Records returns a copy of the records accepted so far.
func (c *Cache) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// CachedCount reports how many records have been accepted in this run.
func (c *Cache) CachedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.numCachedRecords
}

// OutstandingCount reports how many records PlanFirstRequest asked for in
// this run. It is not decremented as records arrive.
func (c *Cache) OutstandingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.numOutstandingRecords
}

// PlanFirstRequest computes the ring index to start draining from and the
// number of records to request, the first time a history frame arrives
// after StartCachingHistory. arcInterval is the station's configured
// history interval (or defaultArchiveInterval if unknown); nrec is the
// number of records the station currently reports as available
// (latestIndex - thisIndex, already ring-wrapped).
func (c *Cache) PlanFirstRequest(now time.Time, latestIndex, nrec int, arcInterval time.Duration) (startIndex, requested int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if arcInterval <= 0 {
		arcInterval = defaultArchiveInterval
	}

	var nreq int
	switch {
	case c.numRec > 0:
		nreq = c.numRec
	case !c.sinceTS.IsZero():
		span := now.Sub(c.sinceTS)
		nreq = int(span/arcInterval) + 5
		if nrec > 0 && nreq > nrec {
			nreq = nrec
		}
	default:
		nreq = nrec
	}

	if nreq > MaxRecords {
		nreq = MaxRecords
	}

	idx := GetIndex(latestIndex - nreq)
	c.startIndex = &idx
	c.nextIndex = &idx
	c.numOutstandingRecords = nreq
	return idx, nreq
}

// NextIndex reports the ring index the next history frame is expected to
// continue from, or ok=false if a catchup run has not started requesting
// yet (StartIndex still unknown).
func (c *Cache) NextIndex() (idx int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nextIndex == nil {
		return 0, false
	}
	return *c.nextIndex, true
}

// AcceptResult is the outcome of offering one decoded history position to
// the cache.
type AcceptResult int

const (
	// Accepted means the record was appended to the cache.
	Accepted AcceptResult = iota
	// SkippedTooOld means the timestamp predates TS2010 - a corrupt read.
	SkippedTooOld
	// SkippedBeforeSince means the timestamp is earlier than the
	// catchup run's requested lower bound.
	SkippedBeforeSince
	// SkippedFuture means the timestamp is more than 300s ahead of now.
	SkippedFuture
	// SkippedDuplicate means the timestamp repeats the last accepted one.
	SkippedDuplicate
	// SkippedOutOfOrder means the timestamp is older than the last
	// accepted one.
	SkippedOutOfOrder
	// SkippedBigJump means the timestamp is more than 7 days ahead of the
	// last accepted one.
	SkippedBigJump
	// DeferredBatchFull means the cache already holds batchSize records
	// for this run; the record will be picked up by the next batch.
	DeferredBatchFull
)

// Offer applies the accept/skip rules of the history-catchup protocol to
// one decoded record and, if accepted, appends it and advances last_ts.
// The check order matches the original driver: too-old, before-since,
// future, duplicate, out-of-order, big-jump, then the batch-size pause.
func (c *Cache) Offer(now time.Time, index int, ts time.Time, sample records.HistorySample) AcceptResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := index
	c.nextIndex = &next

	if ts.Before(TS2010) {
		c.recordsSkipped++
		return SkippedTooOld
	}
	if !c.sinceTS.IsZero() && ts.Before(c.sinceTS) {
		c.recordsSkipped++
		return SkippedBeforeSince
	}
	if ts.After(now.Add(300 * time.Second)) {
		c.recordsSkipped++
		return SkippedFuture
	}
	if !c.lastTS.IsZero() && ts.Equal(c.lastTS) {
		c.recordsSkipped++
		return SkippedDuplicate
	}
	if !c.lastTS.IsZero() && ts.Before(c.lastTS) {
		c.recordsSkipped++
		return SkippedOutOfOrder
	}
	if !c.lastTS.IsZero() && ts.After(c.lastTS.Add(7*24*time.Hour)) {
		c.recordsSkipped++
		return SkippedBigJump
	}
	if c.numCachedRecords >= c.batchSize {
		return DeferredBatchFull
	}

	c.records = append(c.records, Record{Timestamp: ts, Sample: sample})
	c.numCachedRecords++
	c.lastTS = ts
	return Accepted
}
