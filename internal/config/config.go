package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig   `json:"basic_config"`
	Remote      RemoteConfig  `json:"remote"`
	Session     SessionConfig `json:"session"`
	Debug       bool          `json:"debug" env:"CAMPUS_DEBUG"`
}

type BasicConfig struct {
	ServerAddress  string   `json:"server_address" env:"CAMPUS_SERVER_ADDRESS"`
	AllowedOrigins []string `json:"allowed_origins" env:"CAMPUS_ALLOWED_ORIGINS" envSeparator:","`
	MaxUploadBytes int64    `json:"max_upload_bytes" env:"CAMPUS_MAX_UPLOAD_BYTES"`
}

type RemoteConfig struct {
	BaseURL         string   `json:"base_url" env:"CAMPUS_API_BASE_URL"`
	OfflineFallback bool     `json:"offline_fallback" env:"CAMPUS_OFFLINE_FALLBACK"`
	HTTPTimeout     Duration `json:"http_timeout" env:"CAMPUS_HTTP_TIMEOUT"`
}

type SessionConfig struct {
	SummaryMaxLength int      `json:"summary_max_length" env:"CAMPUS_SUMMARY_MAX_LENGTH"`
	TTL              Duration `json:"ttl" env:"CAMPUS_SESSION_TTL"`
	JanitorInterval  Duration `json:"janitor_interval" env:"CAMPUS_JANITOR_INTERVAL"`
}

// Duration reads "90s" style values from both JSON and the environment.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		BasicConfig: BasicConfig{
			ServerAddress:  ":8090",
			AllowedOrigins: []string{"http://localhost:5173"},
			MaxUploadBytes: 20 << 20,
		},
		Remote: RemoteConfig{
			BaseURL:         "http://localhost:5000/api",
			OfflineFallback: true,
		},
		Session: SessionConfig{
			SummaryMaxLength: 800,
			TTL:              Duration(2 * time.Hour),
			JanitorInterval:  Duration(10 * time.Minute),
		},
	}
}

// Load layers configuration: defaults, then the optional JSON file at path,
// then a .env file, then CAMPUS_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		file, err := os.Open(absPath)
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", absPath, err)
		}
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("remote base_url must be an absolute http(s) URL, got %q", c.Remote.BaseURL)
	}
	if c.Session.SummaryMaxLength <= 0 {
		return fmt.Errorf("summary_max_length must be positive")
	}
	if c.BasicConfig.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.BasicConfig.ServerAddress == "" {
		return fmt.Errorf("server_address must be configured")
	}
	return nil
}
