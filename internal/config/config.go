package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	minSyncInterval    = time.Minute
	maxSyncInterval    = 7 * 24 * time.Hour
	minRequestTimeout  = time.Second
	maxRequestTimeout  = 2 * time.Minute
	minRateLimit       = 0
	maxRateLimit       = 10000
	defaultOFACURL     = "https://www.treasury.gov/ofac/downloads/sanctions/1.0/sdn_advanced.xml"
	defaultEngineURL   = "http://localhost:8080"
	defaultDBPath      = "./watchlist.db"
	defaultPort        = "8080"
	defaultSyncEvery   = 12 * time.Hour
	defaultReqTimeout  = 20 * time.Second
	defaultEngineLimit = 50
)

// Config holds environment configuration shared by the CLI and the engine.
type Config struct {
	ChainID        int64
	EvmRPC         string
	EngineURL      string
	DBPath         string
	Port           string
	OFACURL        string
	SyncInterval   time.Duration
	PolicyPath     string
	RateLimit      int // requests per second on the engine, 0 disables
	RequestTimeout time.Duration
	LogLevel       string
}

// Load reads an optional .env file and then the process environment.
// A missing .env is not an error: under Docker Compose variables are injected directly.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		ChainID:        parseInt64Env("CHAIN_ID", 1),
		EvmRPC:         env("EVM_RPC_URL", ""),
		EngineURL:      strings.TrimRight(env("WATCHLIST_ENGINE_URL", defaultEngineURL), "/"),
		DBPath:         env("DB_PATH", defaultDBPath),
		Port:           env("PORT", defaultPort),
		OFACURL:        env("OFAC_URL", defaultOFACURL),
		SyncInterval:   clampDuration(parseDurEnv("SYNC_INTERVAL", defaultSyncEvery), minSyncInterval, maxSyncInterval),
		PolicyPath:     env("CLASSIFIER_POLICY", ""),
		RateLimit:      clampInt(parseIntEnv("ENGINE_RATE_LIMIT", defaultEngineLimit), minRateLimit, maxRateLimit),
		RequestTimeout: clampDuration(parseDurEnv("REQUEST_TIMEOUT", defaultReqTimeout), minRequestTimeout, maxRequestTimeout),
		LogLevel:       env("LOG_LEVEL", "info"),
	}
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) int {
	v := env(key, "")
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

func parseInt64Env(key string, def int64) int64 {
	v := env(key, "")
	if v == "" {
		return def
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	return def
}

func parseDurEnv(key string, def time.Duration) time.Duration {
	v := env(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampDuration(v, min, max time.Duration) time.Duration {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
