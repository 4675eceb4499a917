package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Favorites FavoritesConfig `mapstructure:"favorites"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	// File is the config file that was read, empty when running on defaults
	File string `mapstructure:"-"`
}

// APIConfig holds the movie backend connection details
type APIConfig struct {
	// URL falls back to the client default when empty
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is requests per second, 0 disables limiting
	RateLimit float64 `mapstructure:"rate_limit"`
}

// CacheConfig controls query freshness and idle eviction
type CacheConfig struct {
	StaleTime time.Duration `mapstructure:"stale_time"`
	GCTime    time.Duration `mapstructure:"gc_time"`
}

// FavoritesConfig controls where favorites are persisted
type FavoritesConfig struct {
	Path string `mapstructure:"path"`
	Key  string `mapstructure:"key"`
}

// FilterConfig contains named filter presets
type FilterConfig struct {
	Presets map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
