package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "5s", cfg.USB.RetryDelay)
	assert.Equal(t, 20.0, cfg.USB.RateLimit)
	assert.Equal(t, "patterns", cfg.PatternsDir)
	assert.Equal(t, "schedules.json", cfg.SchedulesFile)
	assert.Equal(t, "smartled", cfg.MQTT.TopicPrefix)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"server": {"port": " 9000 "},
		"usb": {"retry_delay": "2s", "command_rate_limit": 5, "command_rate_burst": 3},
		"mqtt": {"enabled": true, "broker": "tcp://broker:1883"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "2s", cfg.USB.RetryDelay)
	assert.Equal(t, 5.0, cfg.USB.RateLimit)
	assert.Equal(t, 3, cfg.USB.RateBurst)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	// Untouched sections still get defaults.
	assert.Equal(t, "homeassistant", cfg.MQTT.HADiscoveryPrefix)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
