package historycache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klimadriver/internal/records"
)

func TestGetIndex_Wraps(t *testing.T) {
	assert.Equal(t, MaxRecords-100, GetIndex(-100))
	assert.Equal(t, 0, GetIndex(MaxRecords))
	assert.Equal(t, 5, GetIndex(MaxRecords+5))
	assert.Equal(t, 42, GetIndex(42))
}

func TestFirstFrameIndexQuirk(t *testing.T) {
	assert.Equal(t, 1, FirstFrameIndexQuirk(6, 13))
	assert.Equal(t, 6, FirstFrameIndexQuirk(6, 12))
	assert.Equal(t, 3, FirstFrameIndexQuirk(3, 13))
}

func TestPlanFirstRequest_FreshDeviceSinceZero(t *testing.T) {
	c := New(1800)
	c.StartCachingHistory(time.Time{}, 100)

	now := time.Now()
	startIdx, nreq := c.PlanFirstRequest(now, 0, 0, 0)
	require.Equal(t, 100, nreq)
	require.Equal(t, GetIndex(0-100), startIdx)
	assert.Equal(t, MaxRecords-100, startIdx)

	idx, ok := c.NextIndex()
	require.True(t, ok)
	assert.Equal(t, startIdx, idx)
}

func TestOffer_SkipOrderingAndMonotonicity(t *testing.T) {
	c := New(1800)
	c.StartCachingHistory(TS2010.Add(24*time.Hour), 0)
	now := TS2010.Add(48 * time.Hour)

	// Too old.
	res := c.Offer(now, 1, TS2010.Add(-time.Hour), records.HistorySample{})
	assert.Equal(t, SkippedTooOld, res)

	// Before the requested since_ts.
	res = c.Offer(now, 2, TS2010.Add(time.Hour), records.HistorySample{})
	assert.Equal(t, SkippedBeforeSince, res)

	// Future.
	res = c.Offer(now, 3, now.Add(time.Hour), records.HistorySample{})
	assert.Equal(t, SkippedFuture, res)

	// First acceptance.
	first := now.Add(-time.Hour)
	res = c.Offer(now, 4, first, records.HistorySample{})
	assert.Equal(t, Accepted, res)

	// Duplicate of last accepted.
	res = c.Offer(now, 5, first, records.HistorySample{})
	assert.Equal(t, SkippedDuplicate, res)

	// Out of order (earlier than last accepted).
	res = c.Offer(now, 6, first.Add(-time.Minute), records.HistorySample{})
	assert.Equal(t, SkippedOutOfOrder, res)

	// Big jump forward. The wall clock is moved past the candidate so the
	// future-dated check (which runs first) does not catch it.
	jump := first.Add(8 * 24 * time.Hour)
	res = c.Offer(jump.Add(time.Hour), 7, jump, records.HistorySample{})
	assert.Equal(t, SkippedBigJump, res)

	require.Equal(t, 1, c.CachedCount())
	recs := c.Records()
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Timestamp.Equal(first))
}

func TestOffer_BatchSizePause(t *testing.T) {
	c := New(1)
	now := TS2010.Add(48 * time.Hour)
	c.StartCachingHistory(time.Time{}, 0)

	res := c.Offer(now, 1, now.Add(-time.Hour), records.HistorySample{})
	require.Equal(t, Accepted, res)

	res = c.Offer(now, 2, now.Add(-30*time.Minute), records.HistorySample{})
	assert.Equal(t, DeferredBatchFull, res)
	assert.Equal(t, 1, c.CachedCount())
}
