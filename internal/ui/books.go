package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
)

// booksState is the book list screen.
type booksState struct {
	query    catalog.ListQuery
	gens     *catalog.Generations
	items    []bookshelf.Book
	pager    catalog.Pager
	loading  bool
	selected int

	search    textinput.Model
	searching bool
}

func newBooksState() booksState {
	return booksState{
		query:  catalog.DefaultQuery(),
		gens:   &catalog.Generations{},
		search: newTextInput("Search by title or author", 40),
	}
}

// newTextInput builds a single-line input with a steady cursor.
func newTextInput(placeholder string, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.Width = width
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// enterBooks refetches the current query on every visit.
func (m Model) enterBooks() (Model, tea.Cmd) {
	m.books.searching = false
	m.books.search.Blur()
	return m.fetchBooks()
}

func (m Model) fetchBooks() (Model, tea.Cmd) {
	m.books.loading = true
	gen := m.books.gens.Next()
	return m, listBooksCmd(m.ctx, m.client, gen, m.books.query)
}

// applyQuery moves to next and fetches only when the request would differ.
func (m Model) applyQuery(next catalog.ListQuery) (Model, tea.Cmd) {
	prev := m.books.query
	m.books.query = next
	if !catalog.NeedsFetch(prev, next) {
		return m, nil
	}
	m.books.selected = 0
	return m.fetchBooks()
}

func (m Model) handleBooksLoaded(msg booksLoadedMsg) Model {
	if !m.books.gens.Current(msg.gen) {
		m.logger.Debug("dropping stale book list response", zap.Uint64("generation", msg.gen))
		return m
	}
	m.books.loading = false
	if msg.err != nil {
		m.logger.Warn("list books failed", zap.Error(msg.err))
		m.books.items = nil
		m.books.pager = catalog.Pager{}
		return m
	}
	m.books.items = msg.page.Data
	m.books.pager = catalog.PagerFrom(msg.page)
	m.books.selected = clamp(m.books.selected, 0, len(m.books.items)-1)
	return m
}

func (m Model) handleBooksKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	b := &m.books
	if b.searching {
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc {
			b.searching = false
			b.search.Blur()
			return m, nil
		}
		var cmd, fetch tea.Cmd
		b.search, cmd = b.search.Update(msg)
		next := b.query.WithFilters(b.search.Value(), b.query.Genre, b.query.Sort)
		m, fetch = m.applyQuery(next)
		return m, tea.Batch(cmd, fetch)
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		b.searching = true
		b.search.Focus()
		return m, nil
	case key.Matches(msg, m.keys.Genre):
		return m.applyQuery(b.query.WithFilters(b.query.Search, catalog.NextGenre(b.query.Genre), b.query.Sort))
	case key.Matches(msg, m.keys.Sort):
		return m.applyQuery(b.query.WithFilters(b.query.Search, b.query.Genre, catalog.NextSort(b.query.Sort)))
	case key.Matches(msg, m.keys.Clear):
		b.search.SetValue("")
		return m.applyQuery(b.query.Cleared())
	case key.Matches(msg, m.keys.PrevPage):
		if b.pager.HasPrev() {
			return m.applyQuery(b.query.WithPage(b.pager.Prev()))
		}
	case key.Matches(msg, m.keys.NextPage):
		if b.pager.HasNext() {
			return m.applyQuery(b.query.WithPage(b.pager.Next()))
		}
	case key.Matches(msg, m.keys.Up):
		if b.selected > 0 {
			b.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if b.selected < len(b.items)-1 {
			b.selected++
		}
	case key.Matches(msg, m.keys.Open):
		if b.selected < len(b.items) {
			return m.navigate(route{screen: screenDetail, bookID: b.items[b.selected].ID})
		}
	}
	return m, nil
}

func (m Model) renderBooks() string {
	styles := m.theme.Styles()
	b := m.books
	var out strings.Builder

	searchStyle := styles.Input
	if b.searching {
		searchStyle = styles.InputFocused
	}
	genre := b.query.Genre
	if genre == "" {
		genre = "All Genres"
	}
	filters := fmt.Sprintf("%s  %s %s  %s %s",
		searchStyle.Render(b.search.View()),
		styles.MutedText.Render("Genre:"), styles.AccentText.Render(genre),
		styles.MutedText.Render("Sort:"), styles.AccentText.Render(b.query.Sort.Label()),
	)
	out.WriteString(filters)
	out.WriteString("\n\n")

	switch {
	case b.loading && len(b.items) == 0:
		out.WriteString(styles.MutedText.Render("Loading books…"))
		return out.String()
	case len(b.items) == 0:
		out.WriteString(styles.MutedText.Render("No books found. Try adjusting your search."))
		return out.String()
	}

	// Rows: title, author, genre badge, year, rating.
	rows := m.contentHeight() - 6
	start := 0
	if rows > 0 && b.selected >= rows {
		start = b.selected - rows + 1
	}
	titleWidth := maxInt(m.width/3, 20)
	for i := start; i < len(b.items) && (rows <= 0 || i < start+rows); i++ {
		out.WriteString(m.renderBookRow(b.items[i], i == b.selected, titleWidth))
		out.WriteString("\n")
	}

	if b.pager.Visible() {
		out.WriteString("\n")
		out.WriteString(m.renderPager())
	}
	if b.loading {
		out.WriteString("  ")
		out.WriteString(styles.FaintText.Render("refreshing…"))
	}
	return out.String()
}

func (m Model) renderBookRow(book bookshelf.Book, selected bool, titleWidth int) string {
	styles := m.theme.Styles()
	marker := "  "
	if selected {
		marker = "▸ "
	}
	title := padRight(truncate(book.Title, titleWidth), titleWidth)
	parts := []string{marker + title}
	if m.width >= LayoutCompactWidth {
		parts = append(parts, padRight(truncate(book.Author, 22), 22))
	}
	if book.PublishedYear > 0 {
		parts = append(parts, fmt.Sprintf("%4d", book.PublishedYear))
	}
	line := strings.Join(parts, "  ")
	if selected {
		line = styles.Selected.Render(line)
	} else {
		line = styles.Text.Render(line)
	}
	line += " " + styles.GenreStyle(book.Genre).Render(book.Genre)
	if summary := ratingSummary(book); summary != "" {
		line += " " + styles.WarningText.Render(summary)
	}
	return line
}

func (m Model) renderPager() string {
	styles := m.theme.Styles()
	p := m.books.pager
	prev := styles.FaintText.Render("‹ Previous")
	if p.HasPrev() {
		prev = styles.AccentText.Render("‹ Previous")
	}
	next := styles.FaintText.Render("Next ›")
	if p.HasNext() {
		next = styles.AccentText.Render("Next ›")
	}
	return prev + "  " + styles.Text.Render(p.Label()) + "  " + next
}
