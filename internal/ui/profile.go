package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
)

type profileTab int

const (
	tabMyBooks profileTab = iota
	tabMyReviews
)

// profileState is the profile screen. The two lists load independently and
// keep their own error so one failing does not hide the other. Both loads
// carry the generation issued when the screen was entered; gens is shared
// across model copies like the book list's.
type profileState struct {
	gens     *catalog.Generations
	tab      profileTab
	selected int

	books        []bookshelf.Book
	booksLoading bool
	booksErr     string

	reviews        []bookshelf.Review
	reviewsLoading bool
	reviewsErr     string

	del catalog.DeleteFlow
}

func (m Model) enterProfile() (Model, tea.Cmd) {
	gens := m.profile.gens
	if gens == nil {
		gens = &catalog.Generations{}
	}
	gen := gens.Next()
	m.profile = profileState{
		gens:           gens,
		tab:            m.profile.tab,
		booksLoading:   true,
		reviewsLoading: true,
	}
	return m, tea.Batch(myBooksCmd(m.ctx, m.client, gen), myReviewsCmd(m.ctx, m.client, gen))
}

// currentProfileLoad reports whether a profile response belongs to the
// profile screen as it is mounted now. Responses from an earlier visit, or
// from before a logout, are dropped.
func (m Model) currentProfileLoad(gen uint64) bool {
	return m.route.screen == screenProfile && m.mounted &&
		m.profile.gens != nil && m.profile.gens.Current(gen)
}

func (m Model) handleMyBooks(msg myBooksMsg) Model {
	if !m.currentProfileLoad(msg.gen) {
		m.logger.Debug("dropping stale profile books response", zap.Uint64("generation", msg.gen))
		return m
	}
	p := &m.profile
	p.booksLoading = false
	if msg.err != nil {
		m.logger.Warn("load my books failed", zap.Error(msg.err))
		p.books = nil
		p.booksErr = bookshelf.ErrorMessage(msg.err, "Failed to load your books")
		return m
	}
	p.books = msg.books
	p.booksErr = ""
	p.selected = clamp(p.selected, 0, m.profileListLen()-1)
	return m
}

func (m Model) handleMyReviews(msg myReviewsMsg) Model {
	if !m.currentProfileLoad(msg.gen) {
		m.logger.Debug("dropping stale profile reviews response", zap.Uint64("generation", msg.gen))
		return m
	}
	p := &m.profile
	p.reviewsLoading = false
	if msg.err != nil {
		m.logger.Warn("load my reviews failed", zap.Error(msg.err))
		p.reviews = nil
		p.reviewsErr = bookshelf.ErrorMessage(msg.err, "Failed to load your reviews")
		return m
	}
	p.reviews = msg.reviews
	p.reviewsErr = ""
	p.selected = clamp(p.selected, 0, m.profileListLen()-1)
	return m
}

func (m Model) handleBookDeleted(msg bookDeletedMsg) Model {
	p := &m.profile
	if p.del.Phase() != catalog.DeleteExecuting || p.del.Target() != msg.bookID {
		return m
	}
	if msg.err != nil {
		text := bookshelf.ErrorMessage(msg.err, "Failed to delete book")
		p.del.Finish(text)
		return m.flashError(msg.err, "Failed to delete book", "delete book")
	}
	p.del.Finish("")
	p.books = catalog.RemoveBook(p.books, msg.bookID)
	kept := make([]bookshelf.Review, 0, len(p.reviews))
	for _, r := range p.reviews {
		if r.Book.ID != msg.bookID {
			kept = append(kept, r)
		}
	}
	p.reviews = kept
	p.selected = clamp(p.selected, 0, m.profileListLen()-1)
	m.logger.Info("book deleted", zap.String("book_id", msg.bookID))
	return m.setFlash("Book deleted successfully!", flashSuccess)
}

func (m Model) profileListLen() int {
	if m.profile.tab == tabMyReviews {
		return len(m.profile.reviews)
	}
	return len(m.profile.books)
}

func (m Model) selectedProfileBook() (bookshelf.Book, bool) {
	p := m.profile
	if p.tab != tabMyBooks || p.selected < 0 || p.selected >= len(p.books) {
		return bookshelf.Book{}, false
	}
	return p.books[p.selected], true
}

func (m Model) handleProfileKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	p := &m.profile
	switch {
	case key.Matches(msg, m.keys.SwitchTab):
		if p.tab == tabMyBooks {
			p.tab = tabMyReviews
		} else {
			p.tab = tabMyBooks
		}
		p.selected = 0
	case key.Matches(msg, m.keys.Up):
		if p.selected > 0 {
			p.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if p.selected < m.profileListLen()-1 {
			p.selected++
		}
	case key.Matches(msg, m.keys.Open):
		if book, ok := m.selectedProfileBook(); ok {
			return m.navigate(route{screen: screenDetail, bookID: book.ID})
		}
		if p.tab == tabMyReviews && p.selected < len(p.reviews) {
			if id := p.reviews[p.selected].Book.ID; id != "" {
				return m.navigate(route{screen: screenDetail, bookID: id})
			}
		}
	case key.Matches(msg, m.keys.Edit):
		if book, ok := m.selectedProfileBook(); ok {
			return m.navigate(route{screen: screenEditBook, bookID: book.ID})
		}
	case key.Matches(msg, m.keys.Delete):
		if book, ok := m.selectedProfileBook(); ok {
			p.del.Request(book.ID)
		}
	}
	return m, nil
}

// handleDeleteDialogKey owns the keyboard while the delete dialog is open.
func (m Model) handleDeleteDialogKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	p := &m.profile
	if p.del.Phase() != catalog.DeleteConfirming {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Confirm):
		if id, ok := p.del.Confirm(); ok {
			return m, deleteBookCmd(m.ctx, m.client, id)
		}
	case key.Matches(msg, m.keys.Cancel):
		p.del.Cancel()
	}
	return m, nil
}

func (m Model) renderProfile() string {
	styles := m.theme.Styles()
	p := m.profile
	snap := m.session.Snapshot()
	var b strings.Builder

	b.WriteString(styles.Title.Render(snap.User.Name))
	if snap.User.Email != "" {
		b.WriteString("  ")
		b.WriteString(styles.MutedText.Render(snap.User.Email))
	}
	b.WriteString("\n\n")

	booksTab := fmt.Sprintf("My Books (%d)", len(p.books))
	reviewsTab := fmt.Sprintf("My Reviews (%d)", len(p.reviews))
	if p.tab == tabMyBooks {
		booksTab = styles.Selected.Render(" " + booksTab + " ")
		reviewsTab = styles.MutedText.Render(" " + reviewsTab + " ")
	} else {
		booksTab = styles.MutedText.Render(" " + booksTab + " ")
		reviewsTab = styles.Selected.Render(" " + reviewsTab + " ")
	}
	b.WriteString(booksTab + "  " + reviewsTab)
	b.WriteString("\n\n")

	if p.tab == tabMyBooks {
		b.WriteString(m.renderMyBooks())
	} else {
		b.WriteString(m.renderMyReviews())
	}

	if p.del.Active() {
		return m.renderDeleteDialog()
	}
	return b.String()
}

func (m Model) renderMyBooks() string {
	styles := m.theme.Styles()
	p := m.profile
	switch {
	case p.booksLoading:
		return styles.MutedText.Render("Loading…")
	case p.booksErr != "":
		return styles.DangerText.Render(p.booksErr)
	case len(p.books) == 0:
		return styles.MutedText.Render("You haven't added any books yet.") + "\n" +
			styles.FaintText.Render("Press a to add your first book.")
	}
	titleWidth := maxInt(m.width/3, 20)
	rows := make([]string, 0, len(p.books))
	for i, book := range p.books {
		rows = append(rows, m.renderBookRow(book, i == p.selected, titleWidth))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderMyReviews() string {
	styles := m.theme.Styles()
	p := m.profile
	switch {
	case p.reviewsLoading:
		return styles.MutedText.Render("Loading…")
	case p.reviewsErr != "":
		return styles.DangerText.Render(p.reviewsErr)
	case len(p.reviews) == 0:
		return styles.MutedText.Render("You haven't written any reviews yet.")
	}
	wrap := lipgloss.NewStyle().Width(m.contentWidth() - 2)
	var b strings.Builder
	for i, r := range p.reviews {
		if i > 0 {
			b.WriteString("\n")
		}
		marker := "  "
		title := styles.Text.Bold(true).Render(r.BookTitle())
		if i == p.selected {
			marker = "▸ "
			title = styles.Selected.Render(r.BookTitle())
		}
		line := marker + title + "  " + styles.WarningText.Render(stars(r.Rating))
		if date := formatDate(r.Created()); date != "" {
			line += "  " + styles.FaintText.Render(date)
		}
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(wrap.PaddingLeft(2).Render(styles.MutedText.Render(r.ReviewText)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderDeleteDialog draws the confirmation modal centered in the content area.
func (m Model) renderDeleteDialog() string {
	styles := m.theme.Styles()
	p := m.profile

	title := ""
	for _, book := range p.books {
		if book.ID == p.del.Target() {
			title = book.Title
			break
		}
	}

	var b strings.Builder
	b.WriteString(styles.DangerText.Render("Delete Book"))
	b.WriteString("\n\n")
	if title != "" {
		b.WriteString(styles.Text.Bold(true).Render(title))
		b.WriteString("\n\n")
	}
	b.WriteString(styles.Text.Render("Are you sure? This will also delete all reviews for this book. This action cannot be undone."))
	b.WriteString("\n\n")
	switch {
	case p.del.Phase() == catalog.DeleteExecuting:
		b.WriteString(styles.MutedText.Render("Deleting…"))
	case p.del.Err() != "":
		b.WriteString(styles.DangerText.Render(p.del.Err()))
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("y to retry, n to cancel"))
	default:
		b.WriteString(styles.AccentText.Render("y") + styles.MutedText.Render(" delete   ") +
			styles.AccentText.Render("n") + styles.MutedText.Render(" cancel"))
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Danger)).
		Padding(1, 2).
		Width(52).
		Render(b.String())

	return lipgloss.Place(
		m.width,
		m.contentHeight(),
		lipgloss.Center,
		lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
	)
}
