package apiserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klimadriver/internal/laststat"
	"klimadriver/internal/records"
)

type fakeCurrent struct{ data records.CurrentData }

func (f fakeCurrent) CurrentSnapshot() records.CurrentData { return f.data }

type fakeStat struct{ snap laststat.Snapshot }

func (f fakeStat) Get() laststat.Snapshot { return f.snap }

func TestHandleCurrent_ReturnsProjectedFields(t *testing.T) {
	s := New(fakeCurrent{data: records.CurrentData{SignalQuality: 42}}, fakeStat{}, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/current", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rxCheckPercent")
	assert.Contains(t, rec.Body.String(), "42")
}

func TestHandleLastStat_FormatsTimestamps(t *testing.T) {
	seen := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	s := New(fakeCurrent{}, fakeStat{snap: laststat.Snapshot{LastSeenTS: seen, LastLinkQuality: 7}}, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/laststat", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2026-03-01T12:00:00Z")
}

func TestHandleHealthz_ReportsOK(t *testing.T) {
	s := New(fakeCurrent{}, fakeStat{}, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\"status\":\"ok\"")
}
