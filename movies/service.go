package movies

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/marquee/query"
)

// PrefetchConcurrency limits how many pages Prefetch loads at once
const PrefetchConcurrency = 4

// Service runs the movie queries through a shared query cache
type Service struct {
	fetcher Fetcher
	cache   *query.Client
	logger  zerolog.Logger
}

// NewService creates a movie service backed by fetcher and cache
func NewService(fetcher Fetcher, cache *query.Client, logger zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger.With().Str("component", "movies").Logger(),
	}
}

// Cache returns the query cache the service reads through
func (s *Service) Cache() *query.Client {
	return s.cache
}

// ListMovies returns one page of the movie listing
func (s *Service) ListMovies(ctx context.Context, page int) (*MoviesResponse, error) {
	resp, err := query.Fetch(ctx, s.cache, ListMovies(s.fetcher, page))
	if err != nil {
		s.logger.Debug().Err(err).Int("page", normalizePage(page)).Msg("Failed to list movies")
		return nil, err
	}
	return resp, nil
}

// SearchMovies returns movies whose title matches title
func (s *Service) SearchMovies(ctx context.Context, title string, opts ...SearchOption) (*MoviesResponse, error) {
	resp, err := query.Fetch(ctx, s.cache, SearchMovies(s.fetcher, title, opts...))
	if err != nil {
		s.logger.Debug().Err(err).Str("title", title).Msg("Failed to search movies")
		return nil, err
	}
	return resp, nil
}

// Prefetch warms the cache for the given listing pages concurrently.
// It returns the first failure; pages that loaded stay cached.
func (s *Service) Prefetch(ctx context.Context, pages []int) error {
	if len(pages) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(PrefetchConcurrency)

	for _, page := range pages {
		g.Go(func() error {
			if err := query.Prefetch(ctx, s.cache, ListMovies(s.fetcher, page)); err != nil {
				s.logger.Warn().
					Err(err).
					Int("page", page).
					Msg("Failed to prefetch page")
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

// WatchListMovies calls fn whenever the cached listing page changes. The
// returned function stops watching.
func (s *Service) WatchListMovies(page int, fn func(query.Entry)) func() {
	return s.cache.Subscribe(ListMoviesKey(page), fn)
}
