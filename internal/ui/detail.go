package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
)

const composerHeight = 9

// detailState is the book detail screen with its review composer.
type detailState struct {
	bookID  string
	loading bool
	found   bool
	book    bookshelf.Book
	reviews []bookshelf.Review

	viewport viewport.Model
	width    int
	height   int

	composing   bool
	textFocused bool
	review      catalog.ReviewForm
	reviewText  textarea.Model
	submitting  bool
	reviewErr   string
}

func newDetailState() detailState {
	return detailState{
		viewport:   viewport.New(80, 20),
		review:     catalog.NewReviewForm(),
		reviewText: newTextArea("Share your thoughts about this book", 4),
	}
}

func newTextArea(placeholder string, height int) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.SetHeight(height)
	ta.SetWidth(60)
	ta.Cursor.SetMode(cursor.CursorStatic)
	return ta
}

func (d *detailState) resize(width, height int) {
	d.width = width
	d.height = height
	d.viewport.Width = width
	d.viewport.Height = d.viewportHeight()
	d.reviewText.SetWidth(minInt(width-4, 76))
}

func (d *detailState) viewportHeight() int {
	h := d.height
	if d.composing {
		h -= composerHeight
	}
	return maxInt(h, 3)
}

func (d *detailState) closeComposer() {
	if !d.composing {
		return
	}
	d.composing = false
	d.textFocused = false
	d.reviewText.Blur()
	d.viewport.Height = d.viewportHeight()
}

func (m Model) enterDetail(bookID string) (Model, tea.Cmd) {
	width, height := m.detail.width, m.detail.height
	m.detail = newDetailState()
	m.detail.resize(width, height)
	m.detail.bookID = bookID
	m.detail.loading = true
	m.syncDetailViewport()
	return m, loadDetailCmd(m.ctx, m.client, bookID)
}

func (m Model) handleDetailLoaded(msg detailLoadedMsg) Model {
	if m.route.screen != screenDetail || msg.bookID != m.detail.bookID {
		return m
	}
	m.detail.loading = false
	if msg.err != nil {
		m.logger.Warn("load book detail failed", zap.String("book_id", msg.bookID), zap.Error(msg.err))
		m.detail.found = false
	} else {
		m.detail.found = true
		m.detail.book = msg.book
		m.detail.reviews = msg.reviews
	}
	m.syncDetailViewport()
	return m
}

func (m Model) handleReviewSubmitted(msg reviewSubmittedMsg) Model {
	if msg.bookID != m.detail.bookID {
		return m
	}
	m.detail.submitting = false
	if msg.err != nil {
		return m.flashError(msg.err, "Failed to add review.", "create review")
	}
	review := msg.review
	if review.User.Name == "" {
		review.User.Name = m.session.Snapshot().User.Name
	}
	m.detail.book, m.detail.reviews = catalog.WithReview(m.detail.book, m.detail.reviews, review)
	m.detail.review = catalog.NewReviewForm()
	m.detail.reviewText.Reset()
	m.detail.closeComposer()
	m.syncDetailViewport()
	return m.setFlash("Review added successfully!", flashSuccess)
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	d := &m.detail
	if d.composing {
		return m.handleComposerKey(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Review):
		if !d.found {
			return m, nil
		}
		if !m.session.IsAuthenticated() {
			return m.setFlash("Please login to add a review", flashInfo), nil
		}
		d.composing = true
		d.textFocused = true
		d.reviewErr = ""
		d.reviewText.Focus()
		d.viewport.Height = d.viewportHeight()
		return m, nil
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down),
		msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		d.viewport, cmd = d.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleComposerKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	d := &m.detail
	if d.submitting {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		d.closeComposer()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submitReview()
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		d.textFocused = !d.textFocused
		if d.textFocused {
			d.reviewText.Focus()
		} else {
			d.reviewText.Blur()
		}
		return m, nil
	}

	if !d.textFocused {
		switch {
		case key.Matches(msg, m.keys.OptPrev):
			d.review.SetRating(d.review.Rating - 1)
		case key.Matches(msg, m.keys.OptNext):
			d.review.SetRating(d.review.Rating + 1)
		case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
			if n, err := strconv.Atoi(string(msg.Runes)); err == nil {
				d.review.SetRating(n)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	d.reviewText, cmd = d.reviewText.Update(msg)
	return m, cmd
}

func (m Model) submitReview() (Model, tea.Cmd) {
	d := &m.detail
	d.review.Text = d.reviewText.Value()
	if err := d.review.Validate(); err != nil {
		d.reviewErr = err.Error()
		return m, nil
	}
	d.reviewErr = ""
	d.submitting = true
	return m, createReviewCmd(m.ctx, m.client, d.review.ReviewInput(d.bookID))
}

// syncDetailViewport re-renders the scrollable part of the detail screen.
func (m *Model) syncDetailViewport() {
	m.detail.viewport.SetContent(m.detailContent())
}

func (m Model) detailContent() string {
	styles := m.theme.Styles()
	d := m.detail
	width := maxInt(d.width, 20)

	if d.loading {
		return styles.MutedText.Render("Loading…")
	}
	if !d.found {
		return styles.DangerText.Render("Book not found")
	}

	book := d.book
	wrap := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	b.WriteString(styles.Title.Render(book.Title))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("by " + book.Author))
	b.WriteString("\n\n")

	meta := []string{styles.GenreStyle(book.Genre).Render(book.Genre)}
	if book.PublishedYear > 0 {
		meta = append(meta, styles.Text.Render(fmt.Sprintf("Published %d", book.PublishedYear)))
	}
	if summary := ratingSummary(book); summary != "" {
		meta = append(meta, styles.WarningText.Render(summary))
	}
	b.WriteString(strings.Join(meta, "  "))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("Added by: " + book.AddedByName()))
	b.WriteString("\n\n")
	b.WriteString(wrap.Render(styles.Text.Render(book.Description)))
	b.WriteString("\n\n")

	b.WriteString(styles.AccentText.Bold(true).Render(fmt.Sprintf("Reviews (%d)", len(d.reviews))))
	b.WriteString("\n")
	if !m.session.IsAuthenticated() {
		b.WriteString(styles.FaintText.Render("Please login to add a review"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(d.reviews) == 0 {
		b.WriteString(styles.MutedText.Render("No reviews yet! Be the first to review."))
		return b.String()
	}
	for i, r := range d.reviews {
		if i > 0 {
			b.WriteString("\n")
		}
		header := styles.Text.Bold(true).Render(r.ReviewerName()) + "  " + styles.WarningText.Render(stars(r.Rating))
		if date := formatDate(r.Created()); date != "" {
			header += "  " + styles.FaintText.Render(date)
		}
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(wrap.Render(styles.Text.Render(r.ReviewText)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderDetail renders fresh content so session and theme changes show up
// without a resync; the scroll offset carries over.
func (m Model) renderDetail() string {
	vp := m.detail.viewport
	vp.SetContent(m.detailContent())
	if !m.detail.composing {
		return vp.View()
	}
	return vp.View() + "\n" + m.renderComposer()
}

func (m Model) renderComposer() string {
	styles := m.theme.Styles()
	d := m.detail

	ratingStyle := styles.Input
	textStyle := styles.InputFocused
	if !d.textFocused {
		ratingStyle, textStyle = styles.InputFocused, styles.Input
	}

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Write a Review"))
	b.WriteString("  ")
	b.WriteString(ratingStyle.Render(styles.WarningText.Render(stars(d.review.Rating)) + styles.MutedText.Render(fmt.Sprintf(" %d/5", d.review.Rating))))
	b.WriteString("\n")
	b.WriteString(textStyle.Render(d.reviewText.View()))
	b.WriteString("\n")
	switch {
	case d.submitting:
		b.WriteString(styles.MutedText.Render("Submitting…"))
	case d.reviewErr != "":
		b.WriteString(styles.DangerText.Render(d.reviewErr))
	default:
		b.WriteString(styles.FaintText.Render("tab switches rating/text, ←/→ or 1-5 sets rating, ctrl+s submits"))
	}
	return b.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
