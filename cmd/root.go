package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/config"
	"github.com/s0up4200/marquee/favorites"
	"github.com/s0up4200/marquee/filter"
	"github.com/s0up4200/marquee/movies"
	"github.com/s0up4200/marquee/query"
)

var (
	cfgFile   string
	noPersist bool

	cfg            *config.Config
	logger         zerolog.Logger
	registry       *prometheus.Registry
	queryClient    *query.Client
	movieService   *movies.Service
	favoriteStore  *favorites.Store
	boltStorage    *favorites.BoltStorage
	filterCompiler *filter.ExprCompiler
	presets        *filter.Manager
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "marquee",
	Short: "Browse and search movies and keep a list of favorites",
	Long: `marquee is a CLI client for the movie catalog API. It lists and searches
movies page by page, caches results for a few minutes, and keeps a local
set of favorite movies.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}

// errorMessage prefers the user-facing message of backend errors
func errorMessage(err error) string {
	if apiErr := api.AsError(err); apiErr != nil {
		return apiErr.Message
	}
	return err.Error()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noPersist, "no-persist", false, "keep favorites in memory only")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads configuration and wires the clients every command shares
func initializeApp(cmd *cobra.Command, args []string) error {
	// A command that failed skipped shutdownApp
	if boltStorage != nil {
		_ = boltStorage.Close()
		boltStorage = nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)
	if cfg.File != "" {
		logger.Debug().Str("file", cfg.File).Msg("Loaded config")
	}

	apiClient := api.NewClient(cfg.API.URL, logger,
		api.WithTimeout(cfg.API.Timeout),
		api.WithRateLimit(cfg.API.RateLimit),
	)

	registry = prometheus.NewRegistry()
	queryClient = query.NewClient(query.Options{
		StaleTime: cfg.Cache.StaleTime,
		GCTime:    cfg.Cache.GCTime,
	}, logger, query.WithMetrics(query.NewMetrics(registry)))

	movieService = movies.NewService(apiClient, queryClient, logger)

	var storage favorites.Storage
	if noPersist {
		storage = favorites.NewMemoryStorage()
	} else {
		boltStorage, err = favorites.OpenBoltStorage(cfg.Favorites.Path)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.Favorites.Path).Msg("Failed to open favorites database, keeping favorites in memory")
			storage = favorites.NewMemoryStorage()
		} else {
			storage = boltStorage
		}
	}
	favoriteStore = favorites.NewStore(storage, logger, favorites.WithKey(cfg.Favorites.Key))

	filterCompiler = filter.NewExprCompiler(
		filter.WithCache(filter.DefaultCacheSize),
		filter.WithFavorites(favoriteStore.IsFavorite),
	)
	presets = filter.NewManager(filterCompiler)
	if err := presets.RegisterFilters(cfg.Filter.Presets); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	return nil
}

// shutdownApp releases resources and logs cache activity at debug level
func shutdownApp(cmd *cobra.Command, args []string) error {
	if queryClient != nil {
		queryClient.Close()
	}
	if registry != nil && logger.GetLevel() <= zerolog.DebugLevel {
		logCacheStats(registry)
	}
	if boltStorage != nil {
		err := boltStorage.Close()
		boltStorage = nil
		if err != nil {
			return fmt.Errorf("failed to close favorites database: %w", err)
		}
	}
	return nil
}

func logCacheStats(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to gather cache metrics")
		return
	}

	event := logger.Debug()
	for _, family := range families {
		for _, m := range family.GetMetric() {
			name := strings.TrimPrefix(family.GetName(), "marquee_")
			for _, label := range m.GetLabel() {
				name += "." + label.GetValue()
			}
			event = event.Float64(name, m.GetCounter().GetValue())
		}
	}
	event.Msg("Cache stats")
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// resolveFilter picks --filter over --preset; neither means no filtering
func resolveFilter(expression, preset string) (filter.Filter, error) {
	if expression != "" {
		f, err := filterCompiler.Compile(expression)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		return f, nil
	}

	if preset != "" {
		f, ok := presets.GetFilter(preset)
		if !ok {
			return nil, fmt.Errorf("%w: %s", filter.ErrUnknownPreset, preset)
		}
		return f, nil
	}

	return nil, nil
}
