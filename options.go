package geocore

import (
	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	keyPrefix string

	scopes  map[string]ScopeParams
	scoring *ScoringConfig

	searchRadiusKm    float64
	searchWindowHours float64

	logger *zap.Logger
}

// ScopeParams holds the clustering parameters for one scope.
type ScopeParams struct {
	EpsDegrees float64
	MinSamples int
}

// ScoringConfig holds the recommendation scoring constants and batch caps.
type ScoringConfig struct {
	BaseScore       float64
	TagWeight       float64
	ProximityBonus  float64
	ProximityMeters float64
	PoolCap         int
	TopN            int
	AlgoVersion     string
	Workers         int
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithKeyPrefix overrides the default shared keyspace prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithScope overrides the clustering parameters for one scope. Scopes not
// configured keep the defaults (eps 0.01 degrees, min 2 samples).
func WithScope(scope string, params ScopeParams) Option {
	return func(c *clientConfig) {
		c.scopes[scope] = params
	}
}

// WithScoring overrides the recommendation scoring constants.
func WithScoring(cfg ScoringConfig) Option {
	return func(c *clientConfig) {
		c.scoring = &cfg
	}
}

// WithSearchDefaults overrides the nearby search defaults (2 km, 2 h).
func WithSearchDefaults(radiusKm, windowHours float64) Option {
	return func(c *clientConfig) {
		c.searchRadiusKm = radiusKm
		c.searchWindowHours = windowHours
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
