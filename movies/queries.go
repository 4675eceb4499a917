package movies

import (
	"context"
	"strconv"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/query"
)

// Backend endpoints
const (
	EndpointMovies = "/movies"
	EndpointSearch = "/search"
)

// Cache key names
const (
	KeyMovies       = "movies"
	KeySearchMovies = "search-movies"
)

// Fetcher is the part of api.Client the queries need
type Fetcher interface {
	Get(ctx context.Context, path string, opts *api.RequestOptions, out any) error
}

// normalizePage maps missing or invalid page numbers to the first page
func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ListMoviesKey returns the cache key for one listing page
func ListMoviesKey(page int) query.Key {
	return query.NewKey(KeyMovies, map[string]any{"page": normalizePage(page)})
}

// ListMovies defines the query for GET /movies?page={page}
func ListMovies(f Fetcher, page int) query.Query[*MoviesResponse] {
	page = normalizePage(page)

	return query.Query[*MoviesResponse]{
		Key: ListMoviesKey(page),
		Fetch: func(ctx context.Context) (*MoviesResponse, error) {
			var resp MoviesResponse
			err := f.Get(ctx, EndpointMovies, &api.RequestOptions{
				Params: map[string]string{"page": strconv.Itoa(page)},
			}, &resp)
			if err != nil {
				return nil, err
			}
			return &resp, nil
		},
	}
}

// SearchOption configures a search query
type SearchOption func(*searchParams)

// searchParams is encoded with go-querystring. A nil Page is left out of
// both the request and the cache key.
type searchParams struct {
	Title string `url:"Title"`
	Page  *int   `url:"page,omitempty"`
}

// WithPage requests a specific page of search results
func WithPage(page int) SearchOption {
	return func(p *searchParams) {
		n := normalizePage(page)
		p.Page = &n
	}
}

func newSearchParams(title string, opts []SearchOption) searchParams {
	params := searchParams{Title: title}
	for _, opt := range opts {
		opt(&params)
	}
	return params
}

func (p searchParams) key() query.Key {
	params := map[string]any{"Title": p.Title}
	if p.Page != nil {
		params["page"] = *p.Page
	}
	return query.NewKey(KeySearchMovies, params)
}

// SearchMoviesKey returns the cache key for a search. The page is only part
// of the key when WithPage was given, so title-only and paged searches are
// cached separately.
func SearchMoviesKey(title string, opts ...SearchOption) query.Key {
	return newSearchParams(title, opts).key()
}

// SearchMovies defines the query for GET /search?Title={title}[&page={page}]
func SearchMovies(f Fetcher, title string, opts ...SearchOption) query.Query[*MoviesResponse] {
	params := newSearchParams(title, opts)

	return query.Query[*MoviesResponse]{
		Key: params.key(),
		Fetch: func(ctx context.Context) (*MoviesResponse, error) {
			var resp MoviesResponse
			if err := f.Get(ctx, EndpointSearch, &api.RequestOptions{Params: params}, &resp); err != nil {
				return nil, err
			}
			return &resp, nil
		},
	}
}
