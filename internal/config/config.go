package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source kinds for the meeting boundary.
const (
	SourceAPI = "api"
	SourceICS = "ics"
)

// SourceConfig describes where meetings are fetched from.
type SourceConfig struct {
	// Kind is "api" (REST meetings endpoint) or "ics" (calendar feed).
	Kind string `yaml:"kind" json:"kind"`
	// URL is the API base URL (".../api") or the ICS feed URL.
	URL string `yaml:"url" json:"url"`
	// Token is sent as a Bearer token to the API.
	Token string `yaml:"token,omitempty" json:"-"`
	// Path is a local ICS file, used instead of URL when set.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// BackfillDays / HorizonDays bound recurrence expansion for ICS feeds.
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`

	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the dashboard and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is used for display timestamps only. Calendar days, including
	// "today", are always UTC.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// DayStartHour..DayEndHour are the hour rows of day and week grids.
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`

	// PixelsPerHour scales meeting card heights; CompactPixelsPerHour is
	// used for narrow screens.
	PixelsPerHour        int `yaml:"pixels_per_hour" json:"pixels_per_hour"`
	CompactPixelsPerHour int `yaml:"compact_pixels_per_hour" json:"compact_pixels_per_hour"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	Source SourceConfig `yaml:"source" json:"source"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:               "127.0.0.1:8080",
		Timezone:             "UTC",
		WeekStart:            "sunday",
		DayStartHour:         8,
		DayEndHour:           18,
		PixelsPerHour:        80,
		CompactPixelsPerHour: 60,
		LogLevel:             "info",
		Source: SourceConfig{
			Kind:           SourceAPI,
			URL:            "http://localhost:5000/api",
			BackfillDays:   31,
			HorizonDays:    93,
			TimeoutSeconds: 15,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch strings.ToLower(c.WeekStart) {
	case "sunday", "monday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		c.WeekStart = def.WeekStart
	}
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		c.DayStartHour = def.DayStartHour
	}
	if c.DayEndHour <= 0 || c.DayEndHour > 23 || c.DayEndHour < c.DayStartHour {
		c.DayEndHour = def.DayEndHour
		if c.DayEndHour < c.DayStartHour {
			c.DayEndHour = 23
		}
	}
	if c.PixelsPerHour <= 0 {
		c.PixelsPerHour = def.PixelsPerHour
	}
	if c.CompactPixelsPerHour <= 0 {
		c.CompactPixelsPerHour = def.CompactPixelsPerHour
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	switch c.Source.Kind {
	case SourceAPI, SourceICS:
	case "":
		c.Source.Kind = def.Source.Kind
	default:
		c.Source.Kind = SourceAPI
	}
	if c.Source.URL == "" && c.Source.Path == "" {
		c.Source.URL = def.Source.URL
	}
	c.Source.URL = strings.TrimRight(c.Source.URL, "/")
	if c.Source.BackfillDays < 0 {
		c.Source.BackfillDays = 0
	}
	if c.Source.HorizonDays <= 0 {
		c.Source.HorizonDays = def.Source.HorizonDays
	}
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = def.Source.TimeoutSeconds
	}
}

// Weekday returns the configured first day of the week.
func (c *Config) Weekday() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}

// ApplyEnv loads a .env file from the working directory (if any) and
// lets MEETCAL_* variables override file values.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("MEETCAL_API_URL"); v != "" {
		c.Source.URL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("MEETCAL_API_TOKEN"); v != "" {
		c.Source.Token = v
	}
	if v := os.Getenv("MEETCAL_LISTEN"); v != "" {
		c.Listen = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions, creating the parent directory as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".meetcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
