package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching will be disabled.
// Methods lists the HTTP methods to cache (e.g. GET, HEAD) as a comma separated
// string.  TTL defines the lifetime of cache entries.  KeyStrategy determines
// which parts of the request contribute to the cache key.  Prefix and
// MaxBodyBytes allow control over namespacing and the maximum size of
// responses to cache.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled" env:"CACHE_ENABLED" env-default:"true"`
	Methods      string        `yaml:"methods" env:"CACHE_METHODS" env-default:"GET"`
	TTL          time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"30s"`
	KeyStrategy  string        `yaml:"key_strategy" env:"CACHE_KEY_STRATEGY" env-default:"route_query"`
	Prefix       string        `yaml:"prefix" env:"CACHE_PREFIX" env-default:"cache"`
	MaxBodyBytes int           `yaml:"max_body_bytes" env:"CACHE_MAX_BODY_BYTES" env-default:"1048576"`
}

// MethodSet returns the configured methods upper-cased as a lookup set.
func (c CacheConfig) MethodSet() map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(c.Methods, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
