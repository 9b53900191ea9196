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

// Config holds the geocore engine configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Reco       RecoConfig       `yaml:"reco"`
	Search     SearchConfig     `yaml:"search"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
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
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds keyspace settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// ScopeConfig holds DBSCAN parameters for one clustering scope.
type ScopeConfig struct {
	EpsDegrees float64 `yaml:"eps_degrees"`
	MinSamples int     `yaml:"min_samples"`
}

// ClusteringConfig holds per-scope clustering parameters.
type ClusteringConfig struct {
	Scopes map[string]ScopeConfig `yaml:"scopes"`
}

// RecoConfig holds recommendation scoring constants. The defaults are the
// v1 heuristics; they are configuration, not invariants.
type RecoConfig struct {
	BaseScore       float64 `yaml:"base_score"`
	TagWeight       float64 `yaml:"tag_weight"`
	ProximityBonus  float64 `yaml:"proximity_bonus"`
	ProximityMeters float64 `yaml:"proximity_threshold_m"`
	PoolCap         int     `yaml:"pool_cap"`
	TopN            int     `yaml:"top_n"`
	AlgoVersion     string  `yaml:"algo_version"`
	Workers         int     `yaml:"workers"`
}

// SearchConfig holds proximity search defaults.
type SearchConfig struct {
	DefaultRadiusKm    float64 `yaml:"default_radius_km"`
	DefaultWindowHours float64 `yaml:"default_window_hours"`
}

// SchedulerConfig holds batch job intervals. Zero disables a job.
type SchedulerConfig struct {
	ClusteringIntervalSec int `yaml:"clustering_interval_sec"`
	RecoIntervalSec       int `yaml:"reco_interval_sec"`
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
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "geocore:"
	}
	if c.Clustering.Scopes == nil {
		c.Clustering.Scopes = map[string]ScopeConfig{
			"places": {EpsDegrees: 0.01, MinSamples: 2},
			"venues": {EpsDegrees: 0.01, MinSamples: 2},
		}
	}
	for scope, sc := range c.Clustering.Scopes {
		if sc.EpsDegrees <= 0 {
			sc.EpsDegrees = 0.01
		}
		if sc.MinSamples <= 0 {
			sc.MinSamples = 2
		}
		c.Clustering.Scopes[scope] = sc
	}
	if c.Reco.BaseScore <= 0 {
		c.Reco.BaseScore = 0.5
	}
	if c.Reco.TagWeight <= 0 {
		c.Reco.TagWeight = 0.3
	}
	if c.Reco.ProximityBonus <= 0 {
		c.Reco.ProximityBonus = 0.2
	}
	if c.Reco.ProximityMeters <= 0 {
		c.Reco.ProximityMeters = 5000
	}
	if c.Reco.PoolCap <= 0 {
		c.Reco.PoolCap = 50
	}
	if c.Reco.TopN <= 0 {
		c.Reco.TopN = 20
	}
	if c.Reco.AlgoVersion == "" {
		c.Reco.AlgoVersion = "v1.0"
	}
	if c.Reco.Workers <= 0 {
		c.Reco.Workers = 8
	}
	if c.Search.DefaultRadiusKm <= 0 {
		c.Search.DefaultRadiusKm = 2
	}
	if c.Search.DefaultWindowHours <= 0 {
		c.Search.DefaultWindowHours = 2
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
	switch c.Database.Driver {
	case "valkey", "redis":
		// ok
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	for scope, sc := range c.Clustering.Scopes {
		if sc.MinSamples < 2 {
			return fmt.Errorf("clustering.scopes.%s.min_samples must be >= 2, got %d", scope, sc.MinSamples)
		}
	}
	if c.Reco.TopN > c.Reco.PoolCap {
		return fmt.Errorf("reco.top_n (%d) must not exceed reco.pool_cap (%d)", c.Reco.TopN, c.Reco.PoolCap)
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
