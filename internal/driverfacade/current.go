package driverfacade

import (
	"context"
	"time"

	"klimadriver/internal/records"
)

// Observation is one tick of the current-observation stream. Empty is
// true when the service's current snapshot has not advanced since the
// last tick - the caller should treat it the way a None/empty value
// would be treated, not as an error.
type Observation struct {
	Data  records.CurrentData
	Empty bool
}

const emptyObservationRestartThreshold = 30

// CurrentObservations starts a blocking generator that emits one
// Observation every PollingInterval until ctx is cancelled. The
// returned restart channel is closed if 30 consecutive emissions came
// back empty - the caller should treat that as a request to restart
// the driver, since the station has likely gone silent or desynced.
func (f *Facade) CurrentObservations(ctx context.Context) (<-chan Observation, <-chan struct{}) {
	out := make(chan Observation)
	restart := make(chan struct{})

	go func() {
		defer close(out)

		ticker := time.NewTicker(f.opts.PollingInterval)
		defer ticker.Stop()

		var lastEmittedTS time.Time
		consecutiveEmpty := 0
		lastLogAt := time.Now()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			snap := f.svc.CurrentSnapshot()
			advanced := !snap.Timestamp.IsZero() && snap.Timestamp.After(lastEmittedTS)

			var obs Observation
			if advanced {
				lastEmittedTS = snap.Timestamp
				consecutiveEmpty = 0
				obs = Observation{Data: snap}
			} else {
				consecutiveEmpty++
				obs = Observation{Empty: true}
			}

			select {
			case out <- obs:
			case <-ctx.Done():
				return
			}

			if consecutiveEmpty >= emptyObservationRestartThreshold {
				close(restart)
				return
			}

			if time.Since(lastLogAt) >= f.opts.LogInterval {
				f.logStaleness(lastEmittedTS)
				lastLogAt = time.Now()
			}
		}
	}()

	return out, restart
}

func (f *Facade) logStaleness(lastEmittedTS time.Time) {
	now := time.Now()
	last := f.stat.Get()

	noData := lastEmittedTS.IsZero() || now.Sub(lastEmittedTS) >= 300*time.Second
	noContact := last.LastSeenTS.IsZero() || now.Sub(last.LastSeenTS) >= 300*time.Second

	if noData {
		f.opts.Logger.Printf("driverfacade: no current-weather data for %s", now.Sub(lastEmittedTS))
	}
	if noContact {
		f.opts.Logger.Printf("driverfacade: no contact with station for %s", now.Sub(last.LastSeenTS))
	}
}
