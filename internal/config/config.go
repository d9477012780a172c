// Package config loads ghlens settings from a YAML file with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robby/ghlens/internal/filter"
	"github.com/robby/ghlens/internal/query"
	"github.com/robby/ghlens/internal/view"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when neither a path nor GHLENS_CONFIG is given.
const DefaultPath = "ghlens.yaml"

// Defaults.
const (
	DefaultPollInterval = 5 * time.Minute
	DefaultItemLimit    = 500
	DefaultLogLevel     = "info"
)

// DefaultViewFields is the field list used when none is configured.
var DefaultViewFields = []string{"title", "reporter", "state", "assignees", "status", "warnings", "suggestions", "labels"}

var errMissing = errors.New("required setting missing")

// unsetLimit marks an item limit that neither the file nor the environment
// set, so an explicit 0 ("no limit") survives defaulting.
const unsetLimit = math.MinInt

// Config is the ghlens configuration.
type Config struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Token string `yaml:"token"`

	PollInterval        time.Duration `yaml:"poll_interval"`
	ItemLimit           int           `yaml:"item_limit"` // 0 means no limit
	RecommendationsPath string        `yaml:"recommendations_path"`

	ViewFields []string       `yaml:"view_fields"`
	Filters    []query.Clause `yaml:"filters"`
	Search     string         `yaml:"search"`

	LogLevel string `yaml:"log_level"`
}

// Load reads the config file at path (or GHLENS_CONFIG, or DefaultPath),
// applies environment overrides and defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Config{ItemLimit: unsetLimit}

	if path == "" {
		path = DefaultPath
		if envPath := os.Getenv("GHLENS_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	// Env vars override YAML values
	envOverride(&cfg.Owner, "GITHUB_OWNER")
	envOverride(&cfg.Repo, "GITHUB_REPO")
	envOverride(&cfg.RecommendationsPath, "GHLENS_RECOMMENDATIONS")
	envOverride(&cfg.LogLevel, "GHLENS_LOG_LEVEL")
	if err := envOverrideInt(&cfg.ItemLimit, "GHLENS_ITEM_LIMIT"); err != nil {
		return Config{}, err
	}

	// GITHUB_REPO may carry the owner too.
	if owner, name, ok := strings.Cut(cfg.Repo, "/"); ok && cfg.Owner == "" {
		cfg.Owner, cfg.Repo = owner, name
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ItemLimit == unsetLimit {
		c.ItemLimit = DefaultItemLimit
	}
	if len(c.ViewFields) == 0 {
		c.ViewFields = append([]string(nil), DefaultViewFields...)
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks the settings needed to talk to GitHub.
func (c Config) Validate() error {
	required := []struct{ name, val string }{
		{"owner", c.Owner},
		{"repo", c.Repo},
	}
	for _, r := range required {
		if r.val == "" {
			return fmt.Errorf("%w: %s", errMissing, r.name)
		}
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll_interval %s is below 1s", c.PollInterval)
	}
	if c.ItemLimit < 0 {
		return fmt.Errorf("item_limit must not be negative, got %d", c.ItemLimit)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Check validates the static filter clauses and view fields against the
// registries in use.
func (c Config) Check(filters *filter.Registry, viewer *view.Viewer) error {
	if err := filters.Validate(c.Filters); err != nil {
		return fmt.Errorf("filters: %w", err)
	}
	if err := viewer.Validate(c.ViewFields); err != nil {
		return fmt.Errorf("view_fields: %w", err)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
