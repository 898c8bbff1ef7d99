// Package laststat tracks when the driver last heard from the station and
// what it last heard, so callers can answer "is this dongle still talking
// to us" without threading timestamps through every other package.
package laststat

import (
	"sync"
	"time"
)

// Stat holds the timestamp bag with internal synchronization. The zero
// value is ready to use: every field starts at its zero time, meaning
// "never".
type Stat struct {
	mu sync.RWMutex

	lastSeenTS         time.Time
	lastLinkQuality    int
	lastWeatherTS      time.Time
	lastHistoryTS      time.Time
	lastConfigTS       time.Time
	lastHistoryIndex   int
	latestHistoryIndex int
}

// Snapshot is a copy of the timestamp bag without the mutex, safe to pass
// around or print.
type Snapshot struct {
	LastSeenTS         time.Time
	LastLinkQuality    int
	LastWeatherTS      time.Time
	LastHistoryTS      time.Time
	LastConfigTS       time.Time
	LastHistoryIndex   int
	LatestHistoryIndex int
}

// Update applies whichever fields are given, matching the Python original's
// keyword-argument update() that only touches the fields it was called
// with: a zero SeenTS leaves last_seen alone, and every other field is
// applied only when its Has flag is set.
type Update struct {
	SeenTS             time.Time
	LinkQuality        int
	HasLinkQuality     bool
	WeatherTS          time.Time
	HasWeatherTS       bool
	HistoryTS          time.Time
	HasHistoryTS       bool
	ConfigTS           time.Time
	HasConfigTS        bool
	HistoryIndex       int
	HasHistoryIndex    bool
	LatestHistoryIndex int
	HasLatestHistoryIndex bool
}

// Update merges the given fields into the stat bag. SeenTS is applied
// whenever it is non-zero; the boolean-gated fields are applied only when
// their Has flag is set, since zero is itself a valid index or quality
// value.
func (s *Stat) Update(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !u.SeenTS.IsZero() {
		s.lastSeenTS = u.SeenTS
	}
	if u.HasLinkQuality {
		s.lastLinkQuality = u.LinkQuality
	}
	if u.HasWeatherTS {
		s.lastWeatherTS = u.WeatherTS
	}
	if u.HasHistoryTS {
		s.lastHistoryTS = u.HistoryTS
	}
	if u.HasConfigTS {
		s.lastConfigTS = u.ConfigTS
	}
	if u.HasHistoryIndex {
		s.lastHistoryIndex = u.HistoryIndex
	}
	if u.HasLatestHistoryIndex {
		s.latestHistoryIndex = u.LatestHistoryIndex
	}
}

// Get returns a consistent copy of the current stat bag.
func (s *Stat) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		LastSeenTS:         s.lastSeenTS,
		LastLinkQuality:    s.lastLinkQuality,
		LastWeatherTS:      s.lastWeatherTS,
		LastHistoryTS:      s.lastHistoryTS,
		LastConfigTS:       s.lastConfigTS,
		LastHistoryIndex:   s.lastHistoryIndex,
		LatestHistoryIndex: s.latestHistoryIndex,
	}
}
