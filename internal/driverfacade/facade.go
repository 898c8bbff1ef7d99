// Package driverfacade exposes the two caller-facing streams a running
// service produces: live current-weather observations and a startup
// history catchup drain. Callers never touch internal/service or
// internal/historycache directly.
package driverfacade

import (
	"log"
	"os"
	"time"

	"klimadriver/internal/historycache"
	"klimadriver/internal/laststat"
	"klimadriver/internal/records"
)

// Service is the subset of *service.Service the facade drives.
type Service interface {
	Start()
	Stop()
	CurrentSnapshot() records.CurrentData
}

// Stat is the subset of *laststat.Stat the facade reads for staleness
// logging.
type Stat interface {
	Get() laststat.Snapshot
}

// Cache is the subset of *historycache.Cache the facade drains.
type Cache interface {
	StartCachingHistory(sinceTS time.Time, numRec int)
	ClearWaitAtStart()
	Records() []historycache.Record
	CachedCount() int
}

// Options configures one Facade.
type Options struct {
	// PollingInterval is the gap between current-observation emissions.
	PollingInterval time.Duration
	// LogInterval governs how often staleness is logged when nothing
	// new has arrived.
	LogInterval time.Duration
	// BatchSize bounds how many history records one StartupHistory
	// batch holds before it is handed to the caller.
	BatchSize int
	// Logger receives staleness and catchup diagnostics.
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.PollingInterval <= 0 {
		o.PollingInterval = 10 * time.Second
	}
	if o.LogInterval <= 0 {
		o.LogInterval = 600 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 1800
	}
	if o.Logger == nil {
		o.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return o
}

// Facade is the caller-facing lifecycle and stream API over a running
// service.
type Facade struct {
	svc   Service
	stat  Stat
	cache Cache
	opts  Options
}

// New wraps an already-constructed service, laststat bag and history
// cache with the caller-facing stream API.
func New(svc Service, stat Stat, cache Cache, opts Options) *Facade {
	return &Facade{svc: svc, stat: stat, cache: cache, opts: opts.withDefaults()}
}

// Start begins the RF worker. Current observations are available
// immediately after; StartupHistory must be called separately to begin
// a catchup run.
func (f *Facade) Start() { f.svc.Start() }

// Stop signals the RF worker to exit and waits for it, per
// (*service.Service).Stop.
func (f *Facade) Stop() { f.svc.Stop() }
