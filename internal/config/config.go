package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the spyglass service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Search     SearchConfig     `yaml:"search"`
	Sources    SourcesConfig    `yaml:"sources"`
	Duplicates DuplicatesConfig `yaml:"duplicates"`
	Gaps       GapsConfig       `yaml:"gaps"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	Threshold         float64     `yaml:"threshold"`          // min vector similarity for a primary hit
	DefaultLimit      int         `yaml:"default_limit"`      // result limit when the caller passes none
	MaxLimit          int         `yaml:"max_limit"`          // upper bound on caller-supplied limits
	SourceTimeoutMS   int         `yaml:"source_timeout_ms"`  // per-source search budget
	FallbackDampening float64     `yaml:"fallback_dampening"` // scale applied to lexical-only scores, in (0,1)
	Cache             CacheConfig `yaml:"cache"`
}

// CacheConfig holds result cache settings. Disabled when MaxEntries is 0.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
	TTLSec     int `yaml:"ttl_sec"`
}

// SourcesConfig holds content source settings.
type SourcesConfig struct {
	Enabled   []string `yaml:"enabled"` // keyword, post, cluster, opportunity
	KeyPrefix string   `yaml:"key_prefix"`
}

// DuplicatesConfig holds duplicate detection settings. KeywordThreshold is
// the near-exact bar for keyword batches; Threshold covers every other
// variant.
type DuplicatesConfig struct {
	Threshold        float64 `yaml:"threshold"`
	KeywordThreshold float64 `yaml:"keyword_threshold"`
	MaxResults       int     `yaml:"max_results"`
	MaxBatchSize     int     `yaml:"max_batch_size"`
}

// GapsConfig holds gap analysis settings.
type GapsConfig struct {
	DemandCeiling float64 `yaml:"demand_ceiling"` // raw demand mapped to 1.0
	PenaltyFloor  float64 `yaml:"penalty_floor"`  // lower bound of the coverage penalty, in (0,1)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 24 * 3600
	}
	if c.Search.Threshold <= 0 {
		c.Search.Threshold = 0.7
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 100
	}
	if c.Search.SourceTimeoutMS <= 0 {
		c.Search.SourceTimeoutMS = 2000
	}
	if c.Search.FallbackDampening <= 0 {
		c.Search.FallbackDampening = 0.6
	}
	if c.Search.Cache.TTLSec <= 0 {
		c.Search.Cache.TTLSec = 60
	}
	if len(c.Sources.Enabled) == 0 {
		c.Sources.Enabled = []string{"keyword", "post", "cluster", "opportunity"}
	}
	if c.Sources.KeyPrefix == "" {
		c.Sources.KeyPrefix = "spyglass:"
	}
	if c.Duplicates.Threshold <= 0 {
		c.Duplicates.Threshold = 0.5
	}
	if c.Duplicates.KeywordThreshold <= 0 {
		c.Duplicates.KeywordThreshold = 0.9
	}
	if c.Duplicates.MaxResults <= 0 {
		c.Duplicates.MaxResults = 10
	}
	if c.Duplicates.MaxBatchSize <= 0 {
		c.Duplicates.MaxBatchSize = 500
	}
	if c.Gaps.DemandCeiling <= 0 {
		c.Gaps.DemandCeiling = 100000
	}
	if c.Gaps.PenaltyFloor <= 0 {
		c.Gaps.PenaltyFloor = 0.2
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.Threshold > 1 {
		return fmt.Errorf("search.threshold must be in (0,1], got %g", c.Search.Threshold)
	}
	if c.Search.FallbackDampening >= 1 {
		return fmt.Errorf("search.fallback_dampening must be below 1, got %g", c.Search.FallbackDampening)
	}
	if c.Duplicates.Threshold > 1 {
		return fmt.Errorf("duplicates.threshold must be in (0,1], got %g", c.Duplicates.Threshold)
	}
	if c.Duplicates.KeywordThreshold > 1 {
		return fmt.Errorf("duplicates.keyword_threshold must be in (0,1], got %g", c.Duplicates.KeywordThreshold)
	}
	if c.Gaps.PenaltyFloor >= 1 {
		return fmt.Errorf("gaps.penalty_floor must be below 1, got %g", c.Gaps.PenaltyFloor)
	}
	for _, s := range c.Sources.Enabled {
		switch s {
		case "keyword", "post", "cluster", "opportunity":
		default:
			return fmt.Errorf("sources.enabled contains unknown source %q", s)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
