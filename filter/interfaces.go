package filter

import "github.com/s0up4200/marquee/movies"

// Filter decides whether a movie should be kept
type Filter interface {
	// Evaluate checks if a movie matches the filter criteria
	Evaluate(movie movies.MovieItem) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// FavoriteLookup reports whether a movie ID is a favorite
type FavoriteLookup func(imdbID string) bool

// Apply returns the items f matches, in their original order. A nil
// filter matches everything.
func Apply(f Filter, items []movies.MovieItem) []movies.MovieItem {
	if f == nil {
		return items
	}

	matches := make([]movies.MovieItem, 0, len(items))
	for _, item := range items {
		if f.Evaluate(item) {
			matches = append(matches, item)
		}
	}
	return matches
}
