package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
)

// Focus order of the book form.
const (
	fieldTitle = iota
	fieldAuthor
	fieldGenre
	fieldYear
	fieldDescription
	fieldCount
)

var bookFieldLabels = [fieldCount]string{"Title", "Author", "Genre", "Published year", "Description"}

// bookFormState is the create and edit screen. editID is empty when creating.
type bookFormState struct {
	editID     string
	loading    bool
	loadFailed bool

	title       textinput.Model
	author      textinput.Model
	year        textinput.Model
	description textarea.Model
	genre       string
	focus       int

	submitting bool
	err        string
	errField   string
}

func newBookFormState() bookFormState {
	year := newTextInput("e.g. 1965", 8)
	year.CharLimit = 4
	return bookFormState{
		title:       newTextInput("Book title", FormInputWidth),
		author:      newTextInput("Author name", FormInputWidth),
		year:        year,
		description: newTextArea("What is this book about?", 5),
	}
}

func (f *bookFormState) resize(width int) {
	f.description.SetWidth(minInt(width-4, FormInputWidth+12))
}

// values collects the typed text into a form for validation.
func (f bookFormState) values() catalog.BookForm {
	return catalog.BookForm{
		Title:       f.title.Value(),
		Author:      f.author.Value(),
		Description: f.description.Value(),
		Genre:       f.genre,
		Year:        f.year.Value(),
	}
}

func (f *bookFormState) fill(form catalog.BookForm) {
	f.title.SetValue(form.Title)
	f.author.SetValue(form.Author)
	f.description.SetValue(form.Description)
	f.genre = form.Genre
	f.year.SetValue(form.Year)
}

// setFocus moves focus to field i, blurring the rest.
func (f *bookFormState) setFocus(i int) {
	f.focus = ((i % fieldCount) + fieldCount) % fieldCount
	f.title.Blur()
	f.author.Blur()
	f.year.Blur()
	f.description.Blur()
	switch f.focus {
	case fieldTitle:
		f.title.Focus()
	case fieldAuthor:
		f.author.Focus()
	case fieldYear:
		f.year.Focus()
	case fieldDescription:
		f.description.Focus()
	}
}

func (m Model) enterBookForm(editID string) (Model, tea.Cmd) {
	f := newBookFormState()
	f.resize(m.contentWidth())
	f.editID = editID
	f.setFocus(fieldTitle)
	m.form = f
	if editID == "" {
		return m, nil
	}
	m.form.loading = true
	return m, loadBookForEditCmd(m.ctx, m.client, editID)
}

func (m Model) handleBookLoadedForEdit(msg bookLoadedForEditMsg) Model {
	if m.route.screen != screenEditBook || msg.bookID != m.form.editID {
		return m
	}
	m.form.loading = false
	if msg.err != nil {
		m.form.loadFailed = true
		m.logger.Warn("load book for edit failed", zap.String("book_id", msg.bookID), zap.Error(msg.err))
		return m
	}
	m.form.fill(catalog.FormFromBook(msg.book))
	return m
}

func (m Model) handleBookSaved(msg bookSavedMsg) (Model, tea.Cmd) {
	m.form.submitting = false
	if msg.err != nil {
		return m.flashError(msg.err, bookshelf.GenericMessage, "save book"), nil
	}
	m.logger.Info("book saved", zap.String("book_id", msg.book.ID), zap.Bool("edit", msg.editing))
	text := "Book added successfully!"
	if msg.editing {
		text = "Book updated successfully!"
	}
	m = m.setFlash(text, flashSuccess)
	return m.navigate(route{screen: screenProfile})
}

func (m Model) handleBookFormKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	f := &m.form
	if key.Matches(msg, m.keys.Back) {
		return m.back()
	}
	if f.loadFailed || f.submitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submitBookForm()
	case key.Matches(msg, m.keys.NextField):
		f.setFocus(f.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		f.setFocus(f.focus - 1)
		return m, nil
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		if msg.Type == tea.KeyEnter {
			f.setFocus(f.focus + 1)
			return m, nil
		}
		f.title, cmd = f.title.Update(msg)
	case fieldAuthor:
		if msg.Type == tea.KeyEnter {
			f.setFocus(f.focus + 1)
			return m, nil
		}
		f.author, cmd = f.author.Update(msg)
	case fieldGenre:
		switch {
		case key.Matches(msg, m.keys.OptPrev):
			f.genre = catalog.NextFormGenre(f.genre, -1)
		case key.Matches(msg, m.keys.OptNext), msg.Type == tea.KeySpace:
			f.genre = catalog.NextFormGenre(f.genre, 1)
		case msg.Type == tea.KeyEnter:
			f.setFocus(f.focus + 1)
		}
	case fieldYear:
		if msg.Type == tea.KeyEnter {
			f.setFocus(f.focus + 1)
			return m, nil
		}
		f.year, cmd = f.year.Update(msg)
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	}
	return m, cmd
}

// submitBookForm validates locally and only then sends the request.
func (m Model) submitBookForm() (Model, tea.Cmd) {
	f := &m.form
	form := f.values()
	if err := form.Validate(m.now()); err != nil {
		f.err = err.Error()
		var fe *catalog.FieldError
		if errors.As(err, &fe) {
			f.errField = fe.Field
		}
		return m, nil
	}
	f.err, f.errField = "", ""
	f.submitting = true
	return m, saveBookCmd(m.ctx, m.client, f.editID, form.BookInput())
}

func (m Model) renderBookForm() string {
	styles := m.theme.Styles()
	f := m.form
	var b strings.Builder

	heading := "Add a New Book"
	if f.editID != "" {
		heading = "Edit Book"
	}
	b.WriteString(styles.Title.Render(heading))
	b.WriteString("\n\n")

	if f.loading {
		b.WriteString(styles.MutedText.Render("Loading…"))
		return b.String()
	}
	if f.loadFailed {
		b.WriteString(styles.DangerText.Render("Book not found"))
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("esc to go back"))
		return b.String()
	}

	for i := 0; i < fieldCount; i++ {
		label := bookFieldLabels[i]
		labelStyle := styles.MutedText
		if label == f.errField {
			labelStyle = styles.DangerText
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString("\n")

		box := styles.Input
		if f.focus == i {
			box = styles.InputFocused
		}
		var field string
		switch i {
		case fieldTitle:
			field = f.title.View()
		case fieldAuthor:
			field = f.author.View()
		case fieldGenre:
			if f.genre == "" {
				field = styles.FaintText.Render("Select a genre")
			} else {
				field = styles.GenreStyle(f.genre).Render(f.genre)
			}
			field = "‹ " + field + " ›"
		case fieldYear:
			field = f.year.View()
		case fieldDescription:
			field = f.description.View()
		}
		b.WriteString(box.Render(field))
		b.WriteString("\n")
	}

	switch {
	case f.submitting:
		b.WriteString(styles.MutedText.Render("Saving…"))
	case f.err != "":
		b.WriteString(styles.DangerText.Render(f.err))
	default:
		b.WriteString(styles.FaintText.Render("tab moves between fields, ←/→ picks a genre, ctrl+s saves"))
	}
	return b.String()
}
