package movies

import (
	"context"
	"errors"
)

// pageLoader loads a single page
type pageLoader func(ctx context.Context, page int) (*MoviesResponse, error)

// Pager walks successive pages of a listing or search, accumulating the
// items it has seen. It is not safe for concurrent use.
type Pager struct {
	load  pageLoader
	next  int
	done  bool
	last  *MoviesResponse
	items []MovieItem
	seen  map[string]struct{}
}

// NewListPager pages through the full movie listing
func NewListPager(svc *Service) *Pager {
	return newPager(func(ctx context.Context, page int) (*MoviesResponse, error) {
		return svc.ListMovies(ctx, page)
	})
}

// NewSearchPager pages through the results of a title search
func NewSearchPager(svc *Service, title string) *Pager {
	return newPager(func(ctx context.Context, page int) (*MoviesResponse, error) {
		return svc.SearchMovies(ctx, title, WithPage(page))
	})
}

func newPager(load pageLoader) *Pager {
	return &Pager{
		load: load,
		next: 1,
		seen: make(map[string]struct{}),
	}
}

// Next loads the next page and returns the items it added. After the last
// page it returns ErrNoMorePages. A failed load can be retried by calling
// Next again.
func (p *Pager) Next(ctx context.Context) ([]MovieItem, error) {
	if p.done {
		return nil, ErrNoMorePages
	}

	resp, err := p.load(ctx, p.next)
	if err != nil {
		return nil, err
	}
	p.last = resp

	added := make([]MovieItem, 0, len(resp.Data))
	for _, item := range resp.Data {
		if _, dup := p.seen[item.ImdbID]; dup {
			continue
		}
		p.seen[item.ImdbID] = struct{}{}
		p.items = append(p.items, item)
		added = append(added, item)
	}

	if len(resp.Data) == 0 || !resp.HasMorePages() {
		p.done = true
	} else {
		p.next = max(resp.Page, p.next) + 1
	}

	return added, nil
}

// All loads every remaining page and returns all accumulated items
func (p *Pager) All(ctx context.Context) ([]MovieItem, error) {
	for {
		if _, err := p.Next(ctx); err != nil {
			if errors.Is(err, ErrNoMorePages) {
				return p.Items(), nil
			}
			return p.Items(), err
		}
	}
}

// Items returns every item loaded so far, in load order
func (p *Pager) Items() []MovieItem {
	out := make([]MovieItem, len(p.items))
	copy(out, p.items)
	return out
}

// HasMore reports whether Next may return more items
func (p *Pager) HasMore() bool {
	return !p.done
}

// Last returns the most recently loaded page, or nil
func (p *Pager) Last() *MoviesResponse {
	return p.last
}
