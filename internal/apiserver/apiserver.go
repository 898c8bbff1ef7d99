// Package apiserver exposes a small read-only HTTP surface over a
// running driver: the current sensor snapshot, the last-contact
// timestamps, and a liveness probe. It never drives the dongle itself
// - everything here reads state the RF worker already published.
package apiserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"klimadriver/internal/driverfacade"
	"klimadriver/internal/laststat"
	"klimadriver/internal/records"
)

// CurrentProvider is the subset of *service.Service the server reads
// current weather data from.
type CurrentProvider interface {
	CurrentSnapshot() records.CurrentData
}

// StatProvider is the subset of *laststat.Stat the server reads
// last-contact timestamps from.
type StatProvider interface {
	Get() laststat.Snapshot
}

// Server is a gin-backed HTTP server wrapping read-only access to a
// running driver's state.
type Server struct {
	engine    *gin.Engine
	http      *http.Server
	current   CurrentProvider
	stat      StatProvider
	sensorMap driverfacade.SensorMap
	startedAt time.Time
}

// New builds a Server. addr is the listen address (e.g. ":8080"); call
// Start to begin serving on it.
func New(current CurrentProvider, stat StatProvider, sensorMap driverfacade.SensorMap, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		current:   current,
		stat:      stat,
		sensorMap: sensorMap,
		startedAt: time.Now(),
	}

	api := engine.Group("/api/v1")
	{
		api.GET("/current", s.handleCurrent)
		api.GET("/laststat", s.handleLastStat)
		api.GET("/healthz", s.handleHealthz)
	}

	s.http = &http.Server{Addr: addr, Handler: engine}
	return s
}

// Start begins serving in the background. Errors other than a clean
// Shutdown are sent on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	return errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleCurrent(c *gin.Context) {
	snap := s.current.CurrentSnapshot()
	c.JSON(http.StatusOK, driverfacade.Project(snap, s.sensorMap))
}

func (s *Server) handleLastStat(c *gin.Context) {
	last := s.stat.Get()
	c.JSON(http.StatusOK, gin.H{
		"lastSeenTs":         formatTime(last.LastSeenTS),
		"lastLinkQuality":    last.LastLinkQuality,
		"lastWeatherTs":      formatTime(last.LastWeatherTS),
		"lastHistoryTs":      formatTime(last.LastHistoryTS),
		"lastConfigTs":       formatTime(last.LastConfigTS),
		"lastHistoryIndex":   last.LastHistoryIndex,
		"latestHistoryIndex": last.LatestHistoryIndex,
	})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startedAt).String(),
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
