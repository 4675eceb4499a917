package movies

import (
	"errors"
	"fmt"
)

// ErrNoMorePages is returned by a Pager once the last page has been loaded
var ErrNoMorePages = errors.New("no more pages")

// MovieItem is a single movie as returned by the backend
type MovieItem struct {
	ImdbID string `json:"imdbID"`
	Title  string `json:"Title"`
	Year   int    `json:"Year"`
}

// String returns "Title (Year)"
func (m MovieItem) String() string {
	if m.Year == 0 {
		return m.Title
	}
	return fmt.Sprintf("%s (%d)", m.Title, m.Year)
}

// MoviesResponse is one page of movies. It is returned exactly as the
// backend sent it; nothing here validates the invariants
// len(Data) <= PerPage or Page <= TotalPages.
type MoviesResponse struct {
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       []MovieItem `json:"data"`
}

// HasMorePages checks if there are pages after this one
func (r *MoviesResponse) HasMorePages() bool {
	return r.Page < r.TotalPages
}

// NextPage returns the next page number
func (r *MoviesResponse) NextPage() (int, error) {
	if !r.HasMorePages() {
		return 0, fmt.Errorf("%w: page %d of %d", ErrNoMorePages, r.Page, r.TotalPages)
	}
	return r.Page + 1, nil
}
