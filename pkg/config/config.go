package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
)

const (
	IntakeGateway = "gateway"
	IntakeHTTP    = "http"
)

type Config struct {
	Discord DiscordConfig `json:"discord" label:"Discord"`
	Intake  IntakeConfig  `json:"intake" label:"Interaction Intake"`
	Sync    SyncConfig    `json:"sync" label:"Command Sync"`
	Log     LogConfig     `json:"log" label:"Logging"`
	Tracing TracingConfig `json:"tracing" label:"Tracing"`
	mu      sync.RWMutex
}

type DiscordConfig struct {
	Token         string `json:"token" label:"Token" env:"PICOSLASH_DISCORD_TOKEN"`
	ApplicationID string `json:"application_id" label:"Application ID" env:"PICOSLASH_DISCORD_APPLICATION_ID"`
	// GuildID scopes command registration to one guild. Empty registers globally.
	GuildID   string `json:"guild_id" label:"Guild ID" env:"PICOSLASH_DISCORD_GUILD_ID"`
	Owner     string `json:"owner" label:"Owner" env:"PICOSLASH_DISCORD_OWNER"`
	PublicKey string `json:"public_key" label:"Public Key" env:"PICOSLASH_DISCORD_PUBLIC_KEY"`
}

type IntakeConfig struct {
	Mode string     `json:"mode" label:"Mode" env:"PICOSLASH_INTAKE_MODE"` // gateway or http
	HTTP HTTPConfig `json:"http" label:"HTTP Endpoint"`
}

type HTTPConfig struct {
	Host string `json:"host" label:"Host" env:"PICOSLASH_INTAKE_HTTP_HOST"`
	Port int    `json:"port" label:"Port" env:"PICOSLASH_INTAKE_HTTP_PORT"`
	Path string `json:"path" label:"Path" env:"PICOSLASH_INTAKE_HTTP_PATH"`
}

type SyncConfig struct {
	Enabled bool `json:"enabled" label:"Enabled" env:"PICOSLASH_SYNC_ENABLED"`
}

type LogConfig struct {
	Level string `json:"level" label:"Level" env:"PICOSLASH_LOG_LEVEL"`
	File  string `json:"file" label:"File" env:"PICOSLASH_LOG_FILE"`
	// Redact masks the bot token and interaction tokens in log output.
	Redact bool `json:"redact" label:"Redact Secrets" env:"PICOSLASH_LOG_REDACT"`
}

type TracingConfig struct {
	Endpoint    string `json:"endpoint" label:"OTLP Endpoint" env:"PICOSLASH_TRACING_ENDPOINT"`
	ServiceName string `json:"service_name" label:"Service Name" env:"PICOSLASH_TRACING_SERVICE_NAME"`
}

func DefaultConfig() *Config {
	return &Config{
		Intake: IntakeConfig{
			Mode: IntakeGateway,
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 18795,
				Path: "/interactions",
			},
		},
		Sync: SyncConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Redact: true,
		},
		Tracing: TracingConfig{
			ServiceName: "picoslash",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Intake.Mode)) {
	case "", IntakeGateway:
		c.Intake.Mode = IntakeGateway
	case IntakeHTTP:
		c.Intake.Mode = IntakeHTTP
		if c.Intake.HTTP.Port < 0 || c.Intake.HTTP.Port > 65535 {
			return fmt.Errorf("intake http port out of range: %d", c.Intake.HTTP.Port)
		}
		if !strings.HasPrefix(c.Intake.HTTP.Path, "/") {
			return fmt.Errorf("intake http path must start with '/': %q", c.Intake.HTTP.Path)
		}
	default:
		return fmt.Errorf("unknown intake mode %q (want %q or %q)", c.Intake.Mode, IntakeGateway, IntakeHTTP)
	}
	return nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func (c *Config) RLock()   { c.mu.RLock() }
func (c *Config) RUnlock() { c.mu.RUnlock() }

func (c *Config) LogFilePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Log.File)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
