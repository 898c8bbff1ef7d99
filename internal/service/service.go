// Package service implements the communication state machine that decides
// how to answer each frame the station sends and paces the RF worker loop
// that drives it.
package service

import (
	"log"
	"os"
	"sync"
	"time"

	"klimadriver/internal/historycache"
	"klimadriver/internal/laststat"
	"klimadriver/internal/records"
)

// Dongle is the subset of *transceiver.Device the service needs to drive
// one frame exchange. Defined here so tests can inject a fake without
// pulling in real USB machinery.
type Dongle interface {
	SetTX() error
	SetRX() error
	GetState() ([2]byte, error)
	SetFrame(data []byte) error
	GetFrame() ([]byte, error)
	Execute(command byte) error
	SetPreamblePattern(pattern byte) error
	SetState(state byte) error
}

// Identity is what pairing bootstrap discovered about the attached dongle -
// the same information transceiver.Settings carries, kept as a separate
// type here so this package doesn't need to import transceiver.
type Identity struct {
	DeviceID     uint16
	SerialNumber string
}

// Options configures one Service.
type Options struct {
	// CommModeInterval is the station's communication interval in seconds,
	// echoed back in every ACK frame.
	CommModeInterval byte
	// LoggerChannel is the 1-based logger channel (1..8); stored
	// internally as LoggerChannel-1.
	LoggerChannel byte
	// Labels, if non-nil, renames sensor channels 0..8 on the next config
	// push (station memory permitting - channel 0 and unplugged slots
	// cannot be renamed, see records.StationConfig.SetLabel).
	Labels map[int]string
	// BatchSize bounds how many history records the cache holds before a
	// batch must be drained by the caller; 0 uses historycache's default.
	BatchSize int
	// Logger receives the loop's diagnostic output; nil uses a logger
	// writing to stderr with a "service: " prefix already applied by
	// call sites.
	Logger *log.Logger
}

// Service is the mutex-guarded communication state machine: pairing,
// decode, response construction, and the shared snapshots both the RF
// worker and the caller-facing facade read.
type Service struct {
	mu sync.Mutex

	dongle Dongle
	stat   *laststat.Stat
	cache  *historycache.Cache

	identity         Identity
	loggerID         byte
	commModeInterval byte
	labels           map[int]string

	registeredDeviceID *uint16

	lastCommand  *Action
	stationConfig records.StationConfig
	current       records.CurrentData
	recordsSkipped int
	lastAcceptedTS time.Time

	// pendingConfigWrite is set while a REQ_SET_CONFIG frame built by
	// buildConfigFrame is outstanding, so the next responseDataWritten
	// knows a config write (not a SET_TIME write) just round-tripped.
	pendingConfigWrite bool

	firstSleep time.Duration
	nextSleep  time.Duration
	pollCount  int

	logger *log.Logger

	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New builds a Service around an already-opened dongle. Call SetIdentity
// once pairing bootstrap (transceiver.Device.Init) has run.
func New(dongle Dongle, stat *laststat.Stat, cache *historycache.Cache, opts Options) *Service {
	commInterval := opts.CommModeInterval
	if commInterval == 0 {
		commInterval = 8
	}
	loggerID := byte(0)
	if opts.LoggerChannel > 0 {
		loggerID = opts.LoggerChannel - 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Service{
		dongle:           dongle,
		stat:             stat,
		cache:            cache,
		loggerID:         loggerID,
		commModeInterval: commInterval,
		labels:           opts.Labels,
		firstSleep:       300 * time.Millisecond,
		nextSleep:        10 * time.Millisecond,
		logger:           logger,
	}
}

// SetIdentity records the dongle's pairing identity, discovered once at
// startup by transceiver.Device.Init.
func (s *Service) SetIdentity(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
}

// CurrentSnapshot returns the most recently decoded current-data frame.
func (s *Service) CurrentSnapshot() records.CurrentData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ConfigSnapshot returns the most recently decoded station configuration.
func (s *Service) ConfigSnapshot() records.StationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stationConfig
}

// setSleep updates the pacing the RF loop uses between getState polls -
// mirrors the original's diagnostic setSleep, kept for the same reason:
// the effective sleep at any moment is firstSleep + nextSleep*(pollCount-1).
func (s *Service) setSleep(first, next time.Duration) {
	s.firstSleep = first
	s.nextSleep = next
}
