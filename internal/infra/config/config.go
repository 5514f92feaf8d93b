// Package config provides configuration loading from YAML files.
package config

import (
	"net/url"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Player   PlayerConfig   `yaml:"player"`
	Footer   FooterConfig   `yaml:"footer"`
	Recorder RecorderConfig `yaml:"recorder"`
}

// PlayerConfig represents audio player configuration.
type PlayerConfig struct {
	ReadinessThreshold int `yaml:"readiness_threshold" default:"2" validate:"gte=1,lte=4"`
	PlayTimeoutMs      int `yaml:"play_timeout_ms" validate:"gte=0,lte=60000"`
}

// FooterConfig represents footer visibility configuration.
type FooterConfig struct {
	GracePeriodMs int     `yaml:"grace_period_ms" default:"8000" validate:"gte=0"`
	HideDelayMs   int     `yaml:"hide_delay_ms" default:"250" validate:"gte=0,lte=5000"`
	NearBottomPx  float64 `yaml:"near_bottom_px" default:"50" validate:"gte=0"`
}

// RecorderConfig represents stream recorder configuration.
type RecorderConfig struct {
	StreamURL   string `yaml:"stream_url" default:"http://northumberland.serverroom.net:8850/" validate:"omitempty,url"`
	DurationSec int    `yaml:"duration_sec" default:"4444" validate:"gte=1"`
	ChunkSize   int    `yaml:"chunk_size" default:"8192" validate:"gte=512"`
	OutputDir   string `yaml:"output_dir" default:"."`
	FilePrefix  string `yaml:"file_prefix" default:"bass_station" validate:"required"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses YAML configuration, applies environment overrides and
// defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns the configuration used without a config file: defaults
// with environment overrides applied, validated.
func Default() (*Config, error) {
	return Parse(nil)
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("BASSSTATION_STREAM_URL"); v != "" {
		c.Recorder.StreamURL = v
	}
	if v := os.Getenv("BASSSTATION_OUTPUT_DIR"); v != "" {
		c.Recorder.OutputDir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Recorder.StreamURL != "" {
		u, err := url.Parse(c.Recorder.StreamURL)
		if err != nil {
			return errors.Wrap(err, "failed to parse stream_url")
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.Newf("stream_url scheme must be http or https, got %q", u.Scheme)
		}
	}

	return nil
}

// PlayTimeout returns the play request timeout.
func (c *PlayerConfig) PlayTimeout() time.Duration {
	return time.Duration(c.PlayTimeoutMs) * time.Millisecond
}

// GracePeriod returns the footer grace window.
func (c *FooterConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodMs) * time.Millisecond
}

// HideDelay returns the footer hide debounce.
func (c *FooterConfig) HideDelay() time.Duration {
	return time.Duration(c.HideDelayMs) * time.Millisecond
}

// Duration returns the recording length.
func (c *RecorderConfig) Duration() time.Duration {
	return time.Duration(c.DurationSec) * time.Second
}
