package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. MARQUEE_API_URL
const EnvPrefix = "MARQUEE"

// Load loads the configuration. An explicit configPath must exist; when it
// is empty the standard locations are searched and a missing file just
// means defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".marquee"))
		}
		v.AddConfigPath("/etc/marquee/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Favorites.Path = expandHome(cfg.Favorites.Path)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Empty means the API client's built-in default
	v.SetDefault("api.url", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.rate_limit", 0)

	v.SetDefault("cache.stale_time", 5*time.Minute)
	v.SetDefault("cache.gc_time", 10*time.Minute)

	v.SetDefault("favorites.path", filepath.Join("~", ".marquee", "favorites.db"))
	v.SetDefault("favorites.key", "movie_favorites")

	v.SetDefault("filter.presets", map[string]string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// bindEnv wires MARQUEE_* overrides. The backend URL also honors the
// REST_API_URL variable the web frontend uses.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("api.url", EnvPrefix+"_API_URL", "REST_API_URL")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative: %s", cfg.API.Timeout)
	}
	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative: %v", cfg.API.RateLimit)
	}
	if cfg.Cache.StaleTime < 0 {
		return fmt.Errorf("cache.stale_time must not be negative: %s", cfg.Cache.StaleTime)
	}
	if cfg.Cache.GCTime < 0 {
		return fmt.Errorf("cache.gc_time must not be negative: %s", cfg.Cache.GCTime)
	}
	if strings.TrimSpace(cfg.Favorites.Key) == "" {
		return fmt.Errorf("favorites.key is required")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
