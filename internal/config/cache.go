package config

import "time"

// KeyStrategy selects the request parts hashed into a cache key.
type KeyStrategy string

const (
	KeyRoute      KeyStrategy = "route"       // path only
	KeyRouteQuery KeyStrategy = "route_query" // path and raw query string
)

// CacheConfig controls the cache in front of the reading history routes.
// Readings arrive every few seconds, so TTL stays in that range.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	KeyStrategy  KeyStrategy
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.  An unknown strategy falls
// back to route_query so date filters never share an entry.
func LoadCacheConfig() CacheConfig {
	strategy := KeyStrategy(envStr("CACHE_KEY_STRATEGY", string(KeyRouteQuery)))
	if strategy != KeyRoute {
		strategy = KeyRouteQuery
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 5*time.Second),
		KeyStrategy:  strategy,
		Prefix:       envStr("CACHE_PREFIX", "ww:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
