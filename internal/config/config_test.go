package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"CHAIN_ID", "EVM_RPC_URL", "WATCHLIST_ENGINE_URL", "DB_PATH", "PORT", "OFAC_URL",
		"SYNC_INTERVAL", "CLASSIFIER_POLICY", "ENGINE_RATE_LIMIT", "REQUEST_TIMEOUT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, int64(1), c.ChainID)
	assert.Empty(t, c.EvmRPC)
	assert.Equal(t, defaultEngineURL, c.EngineURL)
	assert.Equal(t, defaultDBPath, c.DBPath)
	assert.Equal(t, defaultPort, c.Port)
	assert.Equal(t, defaultOFACURL, c.OFACURL)
	assert.Equal(t, 12*time.Hour, c.SyncInterval)
	assert.Equal(t, defaultEngineLimit, c.RateLimit)
	assert.Equal(t, 20*time.Second, c.RequestTimeout)
	assert.Equal(t, "info", c.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CHAIN_ID", "137")
	t.Setenv("EVM_RPC_URL", " https://polygon-rpc.com ")
	t.Setenv("WATCHLIST_ENGINE_URL", "http://engine:8080/")
	t.Setenv("SYNC_INTERVAL", "30m")
	t.Setenv("ENGINE_RATE_LIMIT", "0")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	c := FromEnv()
	assert.Equal(t, int64(137), c.ChainID)
	assert.Equal(t, "https://polygon-rpc.com", c.EvmRPC)
	assert.Equal(t, "http://engine:8080", c.EngineURL)
	assert.Equal(t, 30*time.Minute, c.SyncInterval)
	assert.Equal(t, 0, c.RateLimit)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestFromEnvClampsAndIgnoresGarbage(t *testing.T) {
	t.Setenv("CHAIN_ID", "mainnet")
	t.Setenv("SYNC_INTERVAL", "1s")
	t.Setenv("ENGINE_RATE_LIMIT", "-5")
	t.Setenv("REQUEST_TIMEOUT", "forever")

	c := FromEnv()
	assert.Equal(t, int64(1), c.ChainID)
	assert.Equal(t, minSyncInterval, c.SyncInterval)
	assert.Equal(t, minRateLimit, c.RateLimit)
	assert.Equal(t, defaultReqTimeout, c.RequestTimeout)
}

func TestClampHelpers(t *testing.T) {
	assert.Equal(t, 5, clampInt(5, 0, 10))
	assert.Equal(t, 10, clampInt(50, 0, 10))
	assert.Equal(t, time.Hour, clampDuration(48*time.Hour, time.Minute, time.Hour))
}
