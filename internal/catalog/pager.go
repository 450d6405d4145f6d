package catalog

import (
	"fmt"

	"github.com/five82/folio/internal/bookshelf"
)

// Pager is the list's pagination cursor, rebuilt from every response.
type Pager struct {
	CurrentPage int
	TotalPages  int
}

// PagerFrom builds a Pager from a list response.
func PagerFrom(page bookshelf.BookPage) Pager {
	return Pager{CurrentPage: page.CurrentPage, TotalPages: page.TotalPages}
}

// Visible reports whether pagination controls render at all.
func (p Pager) Visible() bool {
	return p.TotalPages > 1
}

// HasPrev reports whether "Previous" is enabled.
func (p Pager) HasPrev() bool {
	return p.Visible() && p.CurrentPage > 1
}

// HasNext reports whether "Next" is enabled.
func (p Pager) HasNext() bool {
	return p.Visible() && p.CurrentPage < p.TotalPages
}

// Prev returns the previous page number, or the current one when disabled.
func (p Pager) Prev() int {
	if !p.HasPrev() {
		return p.CurrentPage
	}
	return p.CurrentPage - 1
}

// Next returns the next page number, or the current one when disabled.
func (p Pager) Next() int {
	if !p.HasNext() {
		return p.CurrentPage
	}
	return p.CurrentPage + 1
}

// Label renders "Page X of Y".
func (p Pager) Label() string {
	return fmt.Sprintf("Page %d of %d", p.CurrentPage, p.TotalPages)
}
