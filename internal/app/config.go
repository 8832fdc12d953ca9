package app

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration from env.
type Config struct {
	BaseURL        string // terminal endpoint, THETA_BASE_URL
	TimeoutSec     int    // per-request transport timeout
	MaxPages       int    // silent pagination safety cap
	StreamPages    bool   // scan bulk option pages incrementally
	FetchWorkers   int    // bound for the option/stock fork-join pair
	Codec          string // parquet compression codec
	LogLevel       string // debug | info | warn | error
	OutputDir      string // artifact destination for the local uploader
	SnapshotFormat string // parquet | json | csv | "" (disabled)
	SnapshotDir    string
}

// LoadConfig reads config from environment.
func LoadConfig() *Config {
	return &Config{
		BaseURL:        getEnv("THETA_BASE_URL", "http://127.0.0.1:25510/v2"),
		TimeoutSec:     getEnvInt("THETA_TIMEOUT_SEC", 60),
		MaxPages:       getEnvInt("THETA_MAX_PAGES", 100),
		StreamPages:    getEnvBool("THETA_STREAM_PAGES", true),
		FetchWorkers:   getEnvInt("FETCH_WORKERS", 2),
		Codec:          getEnv("CODEC", "snappy"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		OutputDir:      getEnv("OUTPUT_DIR", "data"),
		SnapshotFormat: os.Getenv("SNAPSHOT_FORMAT"),
		SnapshotDir:    getEnv("SNAPSHOT_DIR", "data/snapshots"),
	}
}

// Timeout returns the transport timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
