package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single calendar feed. Each feed becomes a band
// named "ics:<id>".
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// AvailabilityConfig is a recurring window, e.g. office hours. It becomes
// a band named "avail:<name>".
type AvailabilityConfig struct {
	Name            string `yaml:"name" json:"name"`
	RRule           string `yaml:"rrule" json:"rrule"`
	DurationMinutes int    `yaml:"duration_minutes" json:"duration_minutes"`
}

func (a AvailabilityConfig) Duration() time.Duration {
	return time.Duration(a.DurationMinutes) * time.Minute
}

// DatasetConfig lists the years available for one city.
type DatasetConfig struct {
	CityName string `yaml:"city_name" json:"city_name"`
	Slug     string `yaml:"slug" json:"slug"`
	Years    []int  `yaml:"years" json:"years"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used for calendar feeds and availability
	// rules. Datasets carry their own offset.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DataSource is a directory or http(s) base URL holding
	// panchanga_json/panchanga_<slug>_<year>.json and the rules file.
	DataSource string `yaml:"data_source" json:"data_source"`
	// RulesPath is the rules file, relative to DataSource unless absolute.
	RulesPath string `yaml:"rules_path" json:"rules_path"`

	// City and Year select the dataset loaded at startup when no saved
	// state names one.
	City string `yaml:"city" json:"city"`
	Year int    `yaml:"year" json:"year"`

	Datasets []DatasetConfig `yaml:"datasets" json:"datasets"`

	// RefreshCron is a cron schedule (e.g. "0 */6 * * *") for reloading the
	// dataset, rules and feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	WindowDays float64 `yaml:"window_days" json:"window_days"`
	// FoldMode is the default fold mode: all, any or sequence.
	FoldMode string `yaml:"fold_mode" json:"fold_mode"`
	LogLevel string `yaml:"log_level" json:"log_level"`

	// StateDir holds the compose state database.
	StateDir string `yaml:"state_dir" json:"state_dir"`
	// CacheDir holds cached HTTP responses.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	ICS          []ICSConfig          `yaml:"ics" json:"ics"`
	Availability []AvailabilityConfig `yaml:"availability" json:"availability"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing/zero values with defaults so partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Kolkata"
	}
	if c.DataSource == "" {
		c.DataSource = "./data"
	}
	if c.RulesPath == "" {
		c.RulesPath = "rules.json"
	}
	if len(c.Datasets) == 0 {
		c.Datasets = []DatasetConfig{{CityName: "Bangalore", Slug: "bangalore", Years: []int{2025, 2026, 2027}}}
	}
	if c.City == "" {
		c.City = c.Datasets[0].Slug
	}
	if c.Year <= 0 {
		if ds, ok := c.Dataset(c.City); ok && len(ds.Years) > 0 {
			c.Year = ds.Years[0]
		} else {
			c.Year = time.Now().Year()
		}
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 */6 * * *"
	}
	if c.WindowDays <= 0 {
		c.WindowDays = 30
	}
	switch strings.ToLower(c.FoldMode) {
	case "all", "any", "sequence":
		c.FoldMode = strings.ToLower(c.FoldMode)
	default:
		c.FoldMode = "all"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.StateDir == "" {
		c.StateDir = "./var/state"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/cache"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Availability == nil {
		c.Availability = []AvailabilityConfig{}
	}
}

// Dataset finds the dataset entry for a city slug.
func (c *Config) Dataset(slug string) (DatasetConfig, bool) {
	for _, d := range c.Datasets {
		if d.Slug == slug {
			return d, true
		}
	}
	return DatasetConfig{}, false
}

// HasDataset reports whether slug/year is one of the configured datasets.
func (c *Config) HasDataset(slug string, year int) bool {
	d, ok := c.Dataset(slug)
	return ok && slices.Contains(d.Years, year)
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate reports configuration the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	seen := map[string]bool{}
	for i, f := range c.ICS {
		if f.ID == "" || f.URL == "" {
			errs = append(errs, fmt.Errorf("config: ics[%d]: id and url are required", i))
			continue
		}
		if seen[f.ID] {
			errs = append(errs, fmt.Errorf("config: ics[%d]: duplicate id %q", i, f.ID))
		}
		seen[f.ID] = true
	}
	for i, a := range c.Availability {
		if a.Name == "" || a.RRule == "" || a.DurationMinutes <= 0 {
			errs = append(errs, fmt.Errorf("config: availability[%d]: name, rrule and duration_minutes are required", i))
		}
	}
	return errors.Join(errs...)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, write a default config with 0600 perms
//     and return it.
//   - Otherwise read YAML into Config and normalize defaults.
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
// 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".muhurta-config-*.tmp")
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

func (c *Config) Save(path string) error {
	return Save(path, c)
}
