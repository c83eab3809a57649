// Package config handles loading and managing trialscope configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/trialscope/trialscope/pkg/dashboard"
	"github.com/trialscope/trialscope/pkg/hierarchy"
	"github.com/trialscope/trialscope/pkg/scoring"
	"github.com/trialscope/trialscope/pkg/trend"
)

// Config is the top-level configuration for trialscope.
type Config struct {
	Scoring ScoringConfig `yaml:"scoring"`
	Ranking RankingConfig `yaml:"ranking"`
	Trends  TrendsConfig  `yaml:"trends"`
	Source  SourceConfig  `yaml:"source"`
	Server  ServerConfig  `yaml:"server"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScoringConfig selects the composite profile and readiness ladder.
type ScoringConfig struct {
	Profile        string         `yaml:"profile"` // standard | decomposed
	Ladder         string         `yaml:"ladder"`  // standard | lenient
	LadderOverride LadderOverride `yaml:"ladder_override"`
}

// LadderOverride replaces individual ladder thresholds. Zero keeps the
// named ladder's value.
type LadderOverride struct {
	OpenSAECeiling  int     `yaml:"open_sae_ceiling"`
	ResolutionFloor float64 `yaml:"resolution_floor"`
}

// RankingConfig controls the top/bottom site lists.
type RankingConfig struct {
	Policy string `yaml:"policy"` // overlap | cap_half
	Size   int    `yaml:"size"`
}

// TrendsConfig controls the history window.
type TrendsConfig struct {
	HistoryLength int `yaml:"history_length"`
	IntervalDays  int `yaml:"interval_days"`
}

// SourceConfig locates the raw snapshot.
type SourceConfig struct {
	Kind     string `yaml:"kind"` // file | s3 | gcs
	Path     string `yaml:"path"` // base directory for kind=file
	Bucket   string `yaml:"bucket"`
	Key      string `yaml:"key"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // S3-compatible endpoint override
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

// HistoryConfig enables the KPI history database.
type HistoryConfig struct {
	DatabaseURL string `yaml:"database_url"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Profile: scoring.ProfileStandard,
			Ladder:  scoring.LadderStandard,
		},
		Ranking: RankingConfig{
			Policy: string(hierarchy.PolicyOverlap),
			Size:   hierarchy.DefaultRankSize,
		},
		Trends: TrendsConfig{
			HistoryLength: trend.DefaultHistoryLength,
			IntervalDays:  trend.DefaultIntervalDays,
		},
		Source: SourceConfig{
			Kind: "file",
			Path: CacheDir(),
			Key:  "snapshots/latest.json",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := scoring.ProfileByName(c.Scoring.Profile); err != nil {
		return fmt.Errorf("scoring.profile: %w", err)
	}
	if _, err := scoring.LadderByName(c.Scoring.Ladder); err != nil {
		return fmt.Errorf("scoring.ladder: %w", err)
	}
	if _, err := hierarchy.ParsePolicy(c.Ranking.Policy); err != nil {
		return fmt.Errorf("ranking.policy: %w", err)
	}
	switch c.Source.Kind {
	case "", "file", "s3", "gcs":
	default:
		return fmt.Errorf("source.kind: unknown kind %q", c.Source.Kind)
	}
	return nil
}

// DashboardOptions resolves the engine options the config selects.
func (c *Config) DashboardOptions() (dashboard.Options, error) {
	profile, err := scoring.ProfileByName(c.Scoring.Profile)
	if err != nil {
		return dashboard.Options{}, err
	}
	ladder, err := scoring.LadderByName(c.Scoring.Ladder)
	if err != nil {
		return dashboard.Options{}, err
	}
	policy, err := hierarchy.ParsePolicy(c.Ranking.Policy)
	if err != nil {
		return dashboard.Options{}, err
	}

	return dashboard.Options{
		Profile: profile,
		Ladder:  ladder.WithOverride(c.Scoring.LadderOverride.OpenSAECeiling, c.Scoring.LadderOverride.ResolutionFloor),
		Ranking: hierarchy.Options{
			Policy: policy,
			Size:   c.Ranking.Size,
		},
		HistoryLength: c.Trends.HistoryLength,
		IntervalDays:  c.Trends.IntervalDays,
	}, nil
}

// ApplyEnv overrides selected keys from environment variables: PORT,
// DATABASE_URL, SNAPSHOT_BUCKET and TRIALSCOPE_API_KEY. A bucket switches
// the source kind to s3 unless gcs is already selected.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.History.DatabaseURL = v
	}
	if v := getenv("SNAPSHOT_BUCKET"); v != "" {
		c.Source.Bucket = v
		if c.Source.Kind != "gcs" {
			c.Source.Kind = "s3"
		}
	}
	if v := getenv("TRIALSCOPE_API_KEY"); v != "" {
		c.Server.APIKey = v
	}
}

// FindConfigFile looks for .trialscope/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".trialscope", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// CacheDir returns the default local snapshot directory, ~/.cache/trialscope.
func CacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to temp dir if HOME isn't available
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "trialscope")
}
