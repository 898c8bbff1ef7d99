// Package config loads the caller-facing options a klimadriver run is
// configured with: RF frequency standard, pacing knobs, the dongle
// serial to pair with, sensor renaming and display labels, and history
// catchup limits. Values come from a .env file (if present) with
// environment variables taking precedence, mirroring how the rest of
// this module's ancestry loads device configuration.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SensorMap renames logical sensor field names at emission time; see
// internal/driverfacade.SensorMap, which shares this exact underlying
// type and can be produced with a plain conversion.
type SensorMap map[string]string

// Verbosity replaces the "global mutable debug flag" pattern: a value
// passed explicitly to whatever wants to branch on it, instead of a
// package-level variable every call site reaches into.
//
// Load fills both fields from the environment (DEBUG, FRAME_DUMP); no other
// package reads them, so they do not change what the service or RF loop
// logs.
type Verbosity struct {
	// Debug is the per-frame debug logging switch.
	Debug bool
	// FrameDump is the raw inbound/outbound frame dump switch.
	FrameDump bool
}

// Config is every recognized caller-facing option, its § 6 default
// already applied by Load when the corresponding environment variable
// is absent.
type Config struct {
	// TransceiverFrequency is "EU" or "US"; default "EU".
	TransceiverFrequency string
	// PollingInterval is the gap between current-observation emissions.
	PollingInterval time.Duration
	// CommInterval is the station's comm-mode window in seconds.
	CommInterval int
	// LoggerChannel identifies the paired base station, 1-based.
	LoggerChannel int
	// Serial, if non-empty, disambiguates among multiple attached dongles.
	Serial string
	// SensorMap renames logical sensor names; nil uses the built-in mapping.
	SensorMap SensorMap
	// SensorText holds up to eight 10-char display labels for channels 1..8,
	// uppercased from CHARSTR by the caller before being handed to the
	// station's config push; index 0 corresponds to sensor_text1.
	SensorText [8]string
	// MaxHistoryRecords bounds how many records one catchup run may collect.
	MaxHistoryRecords int
	// BatchSize bounds how many history records one StartupHistory batch holds.
	BatchSize int
	// Timing holds the firstSleep-after-decode setting. It is loaded here
	// but not passed to the service, whose firstSleep after a decode is a
	// fixed 300ms.
	Timing time.Duration

	Verbosity Verbosity
}

func defaults() Config {
	return Config{
		TransceiverFrequency: "EU",
		PollingInterval:      10 * time.Second,
		CommInterval:         8,
		LoggerChannel:        1,
		MaxHistoryRecords:    51200,
		BatchSize:            1800,
		Timing:               300 * time.Millisecond,
	}
}

// Load reads .env (found by walking up from the working directory to
// the nearest go.mod, the same discovery the original device config
// loader used) via godotenv, then layers environment variables and §6
// defaults on top. A missing .env file is not an error - every option
// already has a usable default.
func Load() (Config, error) {
	cfg := defaults()

	envPath := filepath.Join(findProjectRoot(), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("TRANSCEIVER_FREQUENCY"); v != "" {
		cfg.TransceiverFrequency = strings.ToUpper(v)
	}
	if v, ok := envDuration("POLLING_INTERVAL"); ok {
		cfg.PollingInterval = v
	}
	if v, ok := envInt("COMM_INTERVAL"); ok {
		cfg.CommInterval = v
	}
	if v, ok := envInt("LOGGER_CHANNEL"); ok {
		cfg.LoggerChannel = v
	}
	if v := os.Getenv("SERIAL"); v != "" {
		cfg.Serial = v
	}
	if v, ok := envInt("MAX_HISTORY_RECORDS"); ok {
		cfg.MaxHistoryRecords = v
	}
	if v, ok := envInt("BATCH_SIZE"); ok {
		cfg.BatchSize = v
	}
	if v, ok := envDuration("TIMING"); ok {
		cfg.Timing = v
	}
	for i := 0; i < 8; i++ {
		key := "SENSOR_TEXT" + strconv.Itoa(i+1)
		if v := os.Getenv(key); v != "" {
			cfg.SensorText[i] = strings.ToUpper(v)
		}
	}
	cfg.SensorMap = parseSensorMap(os.Getenv("SENSOR_MAP"))
	cfg.Verbosity = Verbosity{
		Debug:     envBool("DEBUG"),
		FrameDump: envBool("FRAME_DUMP"),
	}

	return cfg, nil
}

// parseSensorMap reads a comma-separated logical=renamed list, e.g.
// "temp0=indoorTemp,humidity0=indoorHumidity". An empty string yields
// nil, so the built-in default mapping applies.
func parseSensorMap(raw string) SensorMap {
	if raw == "" {
		return nil
	}
	out := SensorMap{}
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			continue
		}
		out[kv[0]] = kv[1]
	}
	return out
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func findProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return cwd
		}
		cwd = parent
	}
}
