package recurrence

import (
	"log/slog"
	"time"
)

// EngineConfig holds tuning options for the recurrence engine.
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	// MaxWalkOccurrences caps how many occurrences a single
	// OccurrencesBetween walk may visit before the expansion is truncated
	// (0 = unlimited). Truncation is logged, never an error.
	MaxWalkOccurrences int

	// Logger receives truncation and abort diagnostics; slog.Default()
	// when nil.
	Logger *slog.Logger
}

// DefaultEngineConfig provides sensible defaults for production use.
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	MaxWalkOccurrences: 5000,
}

// HighPerformanceConfig is optimized for high-traffic scenarios.
var HighPerformanceConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute,
		MaxEntries:      5000,
		CleanupInterval: 10 * time.Minute,
	},

	MaxWalkOccurrences: 1000,
}

// LowMemoryConfig is optimized for memory-constrained environments.
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 2 * time.Minute,
	},

	MaxWalkOccurrences: 5000,
}

// DisabledCacheConfig turns off caching entirely, keeping the engine free of
// shared mutable state.
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,

	MaxWalkOccurrences: 10000,
}
