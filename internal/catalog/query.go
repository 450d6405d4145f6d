package catalog

import (
	"strings"
	"sync/atomic"

	"github.com/five82/folio/internal/bookshelf"
)

// PageSize is the fixed number of books per list page.
const PageSize = 9

// ListQuery is the book list's filter state.
type ListQuery struct {
	Page   int
	Search string
	Genre  string
	Sort   SortKey
}

// DefaultQuery is the list's initial state.
func DefaultQuery() ListQuery {
	return ListQuery{Page: 1}
}

// Normalized trims text fields and clamps the page to at least 1.
func (q ListQuery) Normalized() ListQuery {
	q.Search = strings.TrimSpace(q.Search)
	q.Genre = strings.TrimSpace(q.Genre)
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Params converts the query into request parameters.
func (q ListQuery) Params() bookshelf.ListQuery {
	q = q.Normalized()
	return bookshelf.ListQuery{
		Page:   q.Page,
		Limit:  PageSize,
		Search: q.Search,
		Genre:  q.Genre,
		Sort:   string(q.Sort),
	}
}

// WithFilters returns q with new filters. Any change to the filters goes
// back to page 1.
func (q ListQuery) WithFilters(search, genre string, sort SortKey) ListQuery {
	next := ListQuery{Page: q.Page, Search: search, Genre: genre, Sort: sort}.Normalized()
	cur := q.Normalized()
	if next.Search != cur.Search || next.Genre != cur.Genre || next.Sort != cur.Sort {
		next.Page = 1
	}
	return next
}

// WithPage returns q on another page.
func (q ListQuery) WithPage(page int) ListQuery {
	q.Page = page
	return q.Normalized()
}

// Cleared resets every filter and returns to page 1.
func (q ListQuery) Cleared() ListQuery {
	return DefaultQuery()
}

// NeedsFetch reports whether moving from prev to next should issue a request.
func NeedsFetch(prev, next ListQuery) bool {
	return prev.Normalized() != next.Normalized()
}

// Generations tags list requests so only the latest response is applied.
// It is safe for concurrent use.
type Generations struct {
	current atomic.Uint64
}

// Next issues a new generation; earlier ones become stale.
func (g *Generations) Next() uint64 {
	return g.current.Add(1)
}

// Current reports whether gen is still the latest issued.
func (g *Generations) Current(gen uint64) bool {
	return g.current.Load() == gen
}
