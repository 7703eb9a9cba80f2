// Package config loads the agent configuration from a JSON file and
// applies defaults and validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ServerConfig holds the HTTP/WebSocket server settings.
type ServerConfig struct {
	Port           string   `json:"port"`
	WebFilesDir    string   `json:"web_files_dir"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// USBConfig holds the smart device transport settings.
type USBConfig struct {
	RetryDelay string  `json:"retry_delay"`
	RateLimit  float64 `json:"command_rate_limit"`
	RateBurst  int     `json:"command_rate_burst"`
}

// MQTTConfig holds the MQTT and Home Assistant Discovery settings.
type MQTTConfig struct {
	Enabled            bool   `json:"enabled"`
	Broker             string `json:"broker"` // tcp://IP:PORT
	Username           string `json:"username"`
	Password           string `json:"password"`
	ClientID           string `json:"client_id"`
	TopicPrefix        string `json:"topic_prefix"`
	HADiscoveryEnabled bool   `json:"ha_discovery_enabled"`
	HADiscoveryPrefix  string `json:"ha_discovery_prefix"`
}

// Config is the top level configuration structure.
type Config struct {
	Server ServerConfig `json:"server"`
	USB    USBConfig    `json:"usb"`
	MQTT   MQTTConfig   `json:"mqtt"`

	// File system settings
	PatternsDir   string `json:"patterns_dir"`
	SchedulesFile string `json:"schedules_file"`
}

// Load reads the file, parses the JSON and applies defaults/validation.
// A missing file is not an error; it yields the default configuration.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			cfg.setDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file '%s': %w", path, err)
	}
	defer file.Close()

	cfg := &Config{}
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	cfg.sanitize()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) sanitize() {
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	c.Server.WebFilesDir = strings.TrimSpace(c.Server.WebFilesDir)
	c.USB.RetryDelay = strings.TrimSpace(c.USB.RetryDelay)
	c.PatternsDir = strings.TrimSpace(c.PatternsDir)
	c.SchedulesFile = strings.TrimSpace(c.SchedulesFile)
}

func (c *Config) setDefaults() {
	// Server defaults
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.WebFilesDir == "" {
		c.Server.WebFilesDir = "./web"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:8080"}
	}

	// USB defaults
	if c.USB.RetryDelay == "" {
		c.USB.RetryDelay = "5s"
	}
	if c.USB.RateLimit <= 0 {
		c.USB.RateLimit = 20.0
	}
	if c.USB.RateBurst <= 0 {
		c.USB.RateBurst = 20
	}

	// File defaults
	if c.PatternsDir == "" {
		c.PatternsDir = "patterns"
	}
	if c.SchedulesFile == "" {
		c.SchedulesFile = "schedules.json"
	}

	// MQTT defaults
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "smartdevice-controller"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "smartled"
	}
	if c.MQTT.HADiscoveryPrefix == "" {
		c.MQTT.HADiscoveryPrefix = "homeassistant"
	}
}

func (c *Config) validate() error {
	if c.USB.RateLimit <= 0 {
		return fmt.Errorf("config error: 'command_rate_limit' must be positive")
	}
	return nil
}
