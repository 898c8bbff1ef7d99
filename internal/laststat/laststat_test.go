package laststat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStat_UpdateOnlyTouchesGivenFields(t *testing.T) {
	var s Stat
	t0 := time.Now()

	s.Update(Update{SeenTS: t0, HasLinkQuality: true, LinkQuality: 80})
	snap := s.Get()
	assert.True(t, snap.LastSeenTS.Equal(t0))
	assert.Equal(t, 80, snap.LastLinkQuality)
	assert.True(t, snap.LastHistoryTS.IsZero())

	t1 := t0.Add(time.Minute)
	s.Update(Update{SeenTS: t1, HasHistoryIndex: true, HistoryIndex: 42})
	snap = s.Get()
	assert.True(t, snap.LastSeenTS.Equal(t1))
	assert.Equal(t, 80, snap.LastLinkQuality, "unrelated field must survive an update that doesn't name it")
	assert.Equal(t, 42, snap.LastHistoryIndex)
}

func TestStat_ZeroIndexIsDistinctFromUnset(t *testing.T) {
	var s Stat
	s.Update(Update{HasHistoryIndex: true, HistoryIndex: 5})
	s.Update(Update{HasHistoryIndex: true, HistoryIndex: 0})
	assert.Equal(t, 0, s.Get().LastHistoryIndex)
}
