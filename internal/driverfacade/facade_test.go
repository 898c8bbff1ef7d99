package driverfacade

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klimadriver/internal/historycache"
	"klimadriver/internal/laststat"
	"klimadriver/internal/records"
)

type fakeService struct {
	startCount int
	stopCount  int
	snapshot   records.CurrentData
}

func (f *fakeService) Start()                                  { f.startCount++ }
func (f *fakeService) Stop()                                   { f.stopCount++ }
func (f *fakeService) CurrentSnapshot() records.CurrentData     { return f.snapshot }

type fakeStat struct {
	snap laststat.Snapshot
}

func (f *fakeStat) Get() laststat.Snapshot { return f.snap }

func silentOptions() Options {
	return Options{Logger: log.New(io.Discard, "", 0)}
}

func TestCurrentObservations_EmitsOnAdvanceAndEmptyOtherwise(t *testing.T) {
	svc := &fakeService{}
	stat := &fakeStat{snap: laststat.Snapshot{LastSeenTS: time.Now()}}
	cache := historycache.New(1800)
	f := New(svc, stat, cache, Options{PollingInterval: 5 * time.Millisecond, Logger: silentOptions().Logger})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, restart := f.CurrentObservations(ctx)

	obs := <-out
	assert.True(t, obs.Empty)

	svc.snapshot = records.CurrentData{Timestamp: time.Now()}
	obs = <-out
	assert.False(t, obs.Empty)

	select {
	case <-restart:
		t.Fatal("restart fired too early")
	default:
	}
}

func TestCurrentObservations_RestartsAfterThirtyConsecutiveEmpties(t *testing.T) {
	svc := &fakeService{}
	stat := &fakeStat{}
	cache := historycache.New(1800)
	f := New(svc, stat, cache, Options{PollingInterval: time.Millisecond, Logger: silentOptions().Logger})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, restart := f.CurrentObservations(ctx)

	for i := 0; i < emptyObservationRestartThreshold; i++ {
		<-out
	}

	select {
	case <-restart:
	case <-time.After(time.Second):
		t.Fatal("restart did not fire after 30 consecutive empties")
	}
	_, ok := <-out
	assert.False(t, ok)
}

func TestStartupHistory_EmitsBatchAndCompletesOnShortSpan(t *testing.T) {
	svc := &fakeService{}
	stat := &fakeStat{}
	cache := historycache.New(3)
	f := New(svc, stat, cache, Options{BatchSize: 3, Logger: silentOptions().Logger})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out := f.StartupHistory(ctx, time.Time{}, 3)
	time.Sleep(20 * time.Millisecond)

	now := time.Now()
	for i := 0; i < 3; i++ {
		cache.Offer(now, i, now.Add(time.Duration(i)*time.Second), records.HistorySample{})
	}

	batch, ok := <-out
	require.True(t, ok)
	assert.Len(t, batch.Records, 3)
	assert.True(t, batch.Complete)

	_, ok = <-out
	assert.False(t, ok)
}
