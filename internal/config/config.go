// Package config loads the server configuration from a YAML (or JSON) file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of threeview.yaml.
type Config struct {
	Server    Server    `yaml:"server" json:"server"`
	WebSocket WebSocket `yaml:"websocket" json:"websocket"`
	Log       Log       `yaml:"log" json:"log"`
	Redis     Redis     `yaml:"redis" json:"redis"`
	Metrics   Metrics   `yaml:"metrics" json:"metrics"`
	MCP       MCP       `yaml:"mcp" json:"mcp"`
	Demo      Demo      `yaml:"demo" json:"demo"`
}

type Server struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

type WebSocket struct {
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval" json:"ping_interval"`
	Buffer         int           `yaml:"buffer" json:"buffer"`
	AllowedOrigins []string      `yaml:"allowed_origins" json:"allowed_origins"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Redis enables the distributed page lock and cluster presence when Addr is set.
type Redis struct {
	Addr        string        `yaml:"addr" json:"addr"`
	Password    string        `yaml:"password" json:"password"`
	DB          int           `yaml:"db" json:"db"`
	Prefix      string        `yaml:"prefix" json:"prefix"`
	LockTTL     time.Duration `yaml:"lock_ttl" json:"lock_ttl"`
	PresenceTTL time.Duration `yaml:"presence_ttl" json:"presence_ttl"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type MCP struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}

type Demo struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Animate  bool          `yaml:"animate" json:"animate"`
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		WebSocket: WebSocket{
			WriteTimeout: 10 * time.Second,
			PingInterval: 30 * time.Second,
			Buffer:       256,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Redis: Redis{
			Prefix:      "threeview:",
			LockTTL:     30 * time.Second,
			PresenceTTL: time.Minute,
		},
		Metrics: Metrics{Enabled: true},
		Demo: Demo{
			Enabled:  true,
			Interval: 50 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Files ending in .json are parsed as JSON, anything else as YAML.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.WebSocket.Buffer < 1 {
		return fmt.Errorf("websocket.buffer must be positive, got %d", c.WebSocket.Buffer)
	}
	if c.Demo.Animate && c.Demo.Interval <= 0 {
		return fmt.Errorf("demo.interval must be positive when demo.animate is set")
	}
	return nil
}
