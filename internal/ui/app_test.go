package ui

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/mockapi"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/session"
)

type harness struct {
	srv         *mockapi.Server
	client      *bookshelf.Client
	store       *session.Store
	sessionPath string
	prefsPath   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := mockapi.New(mockapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, srv.Seed())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	h := &harness{
		srv:         srv,
		sessionPath: filepath.Join(dir, "session.toml"),
		prefsPath:   filepath.Join(dir, "prefs.toml"),
	}
	h.store = session.NewStore(h.sessionPath, nil)
	client, err := bookshelf.NewClient(ts.URL+mockapi.APIPrefix,
		bookshelf.WithTokenSource(h.store),
		bookshelf.WithUnauthorizedHandler(func() { _ = h.store.Logout() }),
	)
	require.NoError(t, err)
	h.client = client
	return h
}

// model builds a sized model without running Init.
func (h *harness) model(t *testing.T) Model {
	t.Helper()
	m := New(Options{
		Client:    h.client,
		Session:   h.store,
		PrefsPath: h.prefsPath,
		Now:       func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	return send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

// started runs Init to completion: session restored, first page loaded.
func (h *harness) started(t *testing.T) Model {
	t.Helper()
	m := h.model(t)
	return run(t, m, m.Init())
}

// run executes cmd and feeds every resulting message back through Update
// until no work remains. Batches are flattened and run in order.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 500, "commands did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, tea.QuitMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			updated, more := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	return run(t, updated.(Model), cmd)
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) Model {
	t.Helper()
	for _, msg := range msgs {
		m = send(t, m, msg)
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = send(t, m, keys(string(r)))
	}
	return m
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
)

func loginDemo(t *testing.T, m Model) Model {
	t.Helper()
	m = press(t, m, keys("l"))
	require.Equal(t, screenLogin, m.route.screen)
	m = typeText(t, m, mockapi.DemoEmail)
	m = press(t, m, keyTab)
	m = typeText(t, m, mockapi.DemoPassword)
	return press(t, m, keyEnter)
}

// loginAs fills the login form directly, for accounts other than the first.
func loginAs(t *testing.T, m Model, email, password string) Model {
	t.Helper()
	if m.route.screen != screenLogin {
		m = press(t, m, keys("l"))
	}
	m.login.inputs[loginEmail].SetValue(email)
	m.login.inputs[loginPassword].SetValue(password)
	m.login.setFocus(loginPassword)
	return press(t, m, keyEnter)
}

// collect runs cmd and returns its messages without applying them.
func collect(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var msgs []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func TestStartupLoadsFirstPage(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)

	assert.Equal(t, session.GuardUnauthenticated, m.guard)
	assert.False(t, m.books.loading)
	assert.Len(t, m.books.items, 9)
	assert.Equal(t, "Page 1 of 2", m.books.pager.Label())

	view := m.View()
	assert.Contains(t, view, "Page 1 of 2")
	assert.Contains(t, view, "Guest")
}

func TestBookListFiltersAndPaging(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)

	m = press(t, m, keys("]"))
	assert.Equal(t, 2, m.books.query.Page)
	assert.Len(t, m.books.items, 3)
	assert.False(t, m.books.pager.HasNext())

	m = press(t, m, keys("/"))
	require.True(t, m.inputFocused())
	m = typeText(t, m, "le guin")
	assert.Equal(t, 1, m.books.query.Page, "a filter change goes back to page 1")
	assert.Len(t, m.books.items, 2)
	assert.False(t, m.books.pager.Visible())

	m = press(t, m, keyEnter)
	assert.False(t, m.inputFocused())

	m = press(t, m, keys("x"))
	assert.Equal(t, "", m.books.query.Search)
	assert.Len(t, m.books.items, 9)

	m = press(t, m, keys("g"), keys("g"), keys("g"))
	assert.Equal(t, "Mystery", m.books.query.Genre)
	m = press(t, m, keys("s"))
	require.Len(t, m.books.items, 2)
	assert.Equal(t, "The Big Sleep", m.books.items[0].Title)
}

func TestBookListEmptyResult(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)

	m = press(t, m, keys("/"))
	m = typeText(t, m, "zzz")
	assert.Empty(t, m.books.items)
	assert.Contains(t, m.View(), "No books found. Try adjusting your search.")
}

func TestStaleListResponseIsDropped(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)

	older := m.books.gens.Next()
	newer := m.books.gens.Next()
	m = send(t, m, booksLoadedMsg{gen: newer, page: bookshelf.BookPage{
		Data: []bookshelf.Book{{ID: "new", Title: "Newer"}}, CurrentPage: 1, TotalPages: 1,
	}})
	m = send(t, m, booksLoadedMsg{gen: older, page: bookshelf.BookPage{
		Data: []bookshelf.Book{{ID: "old", Title: "Older"}}, CurrentPage: 1, TotalPages: 1,
	}})
	require.Len(t, m.books.items, 1)
	assert.Equal(t, "Newer", m.books.items[0].Title)
}

func TestProtectedScreenRedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)

	for _, k := range []string{"p", "a"} {
		m = press(t, m, keys(k))
		assert.Equal(t, screenLogin, m.route.screen, k)
		m = press(t, m, keyEsc)
		assert.Equal(t, screenBooks, m.route.screen)
	}
}

func TestGuardWaitsForRestore(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.Login(context.Background(), bookshelf.Credentials{Email: mockapi.DemoEmail, Password: mockapi.DemoPassword})
	require.NoError(t, err)
	require.NoError(t, session.NewStore(h.sessionPath, nil).Login(resp.Token, resp.User))

	m := h.model(t)
	require.Equal(t, session.GuardRestoring, m.guard)

	updated, cmd := m.Update(keys("p"))
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, screenProfile, m.route.screen, "no redirect while restoring")
	assert.False(t, m.mounted)
	assert.Contains(t, m.View(), "Loading…")

	m = run(t, m, restoreSessionCmd(h.store))
	assert.Equal(t, screenProfile, m.route.screen)
	assert.True(t, m.mounted)
	assert.Len(t, m.profile.books, 12)
	assert.Contains(t, m.View(), "My Books (12)")
}

func TestGuardRedirectsAfterEmptyRestore(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	updated, _ := m.Update(keys("p"))
	m = updated.(Model)
	require.False(t, m.mounted)

	m = run(t, m, restoreSessionCmd(h.store))
	assert.Equal(t, screenLogin, m.route.screen)
}

func TestLoginAndAddBook(t *testing.T) {
	h := newHarness(t)
	m := loginDemo(t, h.started(t))

	assert.Equal(t, screenBooks, m.route.screen)
	assert.True(t, h.store.IsAuthenticated())
	assert.Equal(t, "Welcome back, Demo Reader!", m.flash.text)
	assert.Equal(t, mockapi.DemoEmail, prefs.Load(h.prefsPath).LastEmail)

	m = press(t, m, keys("a"))
	require.Equal(t, screenAddBook, m.route.screen)
	m = typeText(t, m, "Test Book")
	m = press(t, m, keyTab)
	m = typeText(t, m, "Tess Ter")
	m = press(t, m, keyTab, keyRight, keyTab)
	m = typeText(t, m, "1999")
	m = press(t, m, keyTab)
	m = typeText(t, m, "A book written for tests.")
	m = press(t, m, keySave)

	assert.Equal(t, screenProfile, m.route.screen)
	assert.Equal(t, "Book added successfully!", m.flash.text)
	assert.Len(t, m.profile.books, 13)

	var found bool
	for _, b := range m.profile.books {
		if b.Title == "Test Book" {
			found = true
			assert.Equal(t, "Fiction", b.Genre)
			assert.Equal(t, 1999, b.PublishedYear)
		}
	}
	assert.True(t, found)
}

func TestBookFormValidatesBeforeSending(t *testing.T) {
	h := newHarness(t)
	m := loginDemo(t, h.started(t))

	m = press(t, m, keys("a"), keySave)
	assert.Equal(t, screenAddBook, m.route.screen)
	assert.Equal(t, "Title is required", m.form.err)
	assert.False(t, m.form.submitting)

	m = typeText(t, m, "T")
	m = press(t, m, keyTab)
	m = typeText(t, m, "A")
	m = press(t, m, keyTab, keyRight, keyTab)
	m = typeText(t, m, "2999")
	m = press(t, m, keyTab)
	m = typeText(t, m, "D")
	m = press(t, m, keySave)
	assert.Equal(t, "Published year must be between 1000 and 2026", m.form.err)
	assert.Equal(t, "Published year", m.form.errField)
}

func TestEditBookPrefillsAndSaves(t *testing.T) {
	h := newHarness(t)
	m := loginDemo(t, h.started(t))

	m = press(t, m, keys("p"))
	require.NotEmpty(t, m.profile.books)
	target := m.profile.books[0]

	m = press(t, m, keys("e"))
	require.Equal(t, screenEditBook, m.route.screen)
	assert.Equal(t, target.Title, m.form.title.Value())
	assert.Equal(t, target.Genre, m.form.genre)

	m = typeText(t, m, " (2nd ed.)")
	m = press(t, m, keySave)
	assert.Equal(t, screenProfile, m.route.screen)
	assert.Equal(t, "Book updated successfully!", m.flash.text)

	book, err := h.client.GetBook(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.Title+" (2nd ed.)", book.Title)
}

func TestDeleteBookConfirmation(t *testing.T) {
	h := newHarness(t)
	m := loginDemo(t, h.started(t))
	m = press(t, m, keys("p"))
	require.Len(t, m.profile.books, 12)
	target := m.profile.books[0].ID

	m = press(t, m, keys("d"))
	require.True(t, m.profile.del.Active())
	assert.Contains(t, m.View(), "Delete Book")

	m = press(t, m, keys("n"))
	assert.False(t, m.profile.del.Active())
	assert.Len(t, m.profile.books, 12)

	m = press(t, m, keys("d"), keys("y"))
	assert.False(t, m.profile.del.Active())
	assert.Len(t, m.profile.books, 11)
	assert.Equal(t, "Book deleted successfully!", m.flash.text)
	for _, b := range m.profile.books {
		assert.NotEqual(t, target, b.ID)
	}
}

func TestLateProfileResponsesAreDropped(t *testing.T) {
	h := newHarness(t)
	bobID, err := h.srv.Register("Bob", "bob@folio.dev", "secret1")
	require.NoError(t, err)
	h.srv.AddBook(bobID, bookshelf.BookInput{
		Title: "Bob's Book", Author: "Bob", Genre: "Fiction", PublishedYear: 2001, Description: "Mine.",
	})

	m := loginDemo(t, h.started(t))
	updated, cmd := m.Update(keys("p"))
	m = updated.(Model)
	require.Equal(t, screenProfile, m.route.screen)
	demoResponses := collect(t, cmd)
	require.Len(t, demoResponses, 2)

	// Leaving the screen drops them.
	m = press(t, m, keys("b"))
	for _, msg := range demoResponses {
		m = send(t, m, msg)
	}
	assert.Empty(t, m.profile.books)
	assert.Empty(t, m.profile.reviews)

	// So does a later visit by another user.
	m = press(t, m, keys("o"))
	m = loginAs(t, m, "bob@folio.dev", "secret1")
	require.Equal(t, "Welcome back, Bob!", m.flash.text)
	m = press(t, m, keys("p"))
	require.Len(t, m.profile.books, 1)

	for _, msg := range demoResponses {
		m = send(t, m, msg)
	}
	require.Len(t, m.profile.books, 1)
	assert.Equal(t, "Bob's Book", m.profile.books[0].Title)
	assert.Empty(t, m.profile.reviews)
	assert.False(t, m.profile.booksLoading)
	assert.Contains(t, m.View(), "My Books (1)")
}

func TestDeleteFailureKeepsDialogOpen(t *testing.T) {
	h := newHarness(t)
	m := loginDemo(t, h.started(t))
	m = press(t, m, keys("p"))

	require.True(t, m.profile.del.Request("missing"))
	m = press(t, m, keys("y"))
	assert.True(t, m.profile.del.Active())
	assert.Equal(t, "Book not found", m.profile.del.Err())
	assert.Equal(t, flashError, m.flash.kind)

	m = press(t, m, keyEsc)
	assert.False(t, m.profile.del.Active())
}

func TestReviewRequiresLoginThenSubmits(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)

	m = press(t, m, keyEnter)
	require.Equal(t, screenDetail, m.route.screen)
	require.True(t, m.detail.found)
	bookID := m.detail.bookID
	assert.Contains(t, m.View(), "Reviews (0)")
	assert.Contains(t, m.View(), "No reviews yet! Be the first to review.")

	m = press(t, m, keys("r"))
	assert.False(t, m.detail.composing)
	assert.Equal(t, "Please login to add a review", m.flash.text)

	m = loginDemo(t, m)
	m, cmd := m.navigate(route{screen: screenDetail, bookID: bookID})
	m = run(t, m, cmd)
	require.True(t, m.detail.found)

	m = press(t, m, keys("r"))
	require.True(t, m.detail.composing)
	m = press(t, m, keySave)
	assert.Equal(t, "Review is required", m.detail.reviewErr)

	m = typeText(t, m, "Loved it.")
	m = press(t, m, keyTab, keys("4"), keySave)

	assert.False(t, m.detail.composing)
	assert.Equal(t, "Review added successfully!", m.flash.text)
	require.Len(t, m.detail.reviews, 1)
	assert.Equal(t, "Demo Reader", m.detail.reviews[0].ReviewerName())
	assert.Equal(t, 4, m.detail.reviews[0].Rating)
	assert.Equal(t, 1, m.detail.book.ReviewCount)
	assert.InDelta(t, 4.0, m.detail.book.AverageRating, 0.001)
	assert.Contains(t, m.View(), "Reviews (1)")
}

func TestDetailNotFound(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)

	m, cmd := m.navigate(route{screen: screenDetail, bookID: "missing"})
	m = run(t, m, cmd)
	assert.False(t, m.detail.found)
	assert.Contains(t, m.View(), "Book not found")
	assert.NotContains(t, m.View(), "Reviews (")
}

func TestUnauthorizedResponseEndsSession(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)
	require.NoError(t, h.store.Login("revoked", bookshelf.User{ID: "u1", Name: "Ghost"}))

	m = press(t, m, keys("p"))
	assert.False(t, h.store.IsAuthenticated())
	assert.Equal(t, screenLogin, m.route.screen)
}

func TestSignupGoesToLoginWithoutSession(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)

	m = press(t, m, keys("u"))
	require.Equal(t, screenSignup, m.route.screen)
	m = typeText(t, m, "New Reader")
	m = press(t, m, keyTab)
	m = typeText(t, m, "new@folio.dev")
	m = press(t, m, keyTab)
	m = typeText(t, m, "secret1")
	m = press(t, m, keyEnter)

	assert.Equal(t, screenLogin, m.route.screen)
	assert.Equal(t, "Registration successful! Please log in with your credentials.", m.flash.text)
	assert.False(t, h.store.IsAuthenticated())
	assert.Equal(t, "new@folio.dev", m.login.value(loginEmail))

	m = typeText(t, m, "wrong-password")
	m = press(t, m, keyEnter)
	assert.Equal(t, "Invalid credentials", m.flash.text)
	assert.Equal(t, screenLogin, m.route.screen)
}

func TestSignupShortPasswordRejectedLocally(t *testing.T) {
	h := newHarness(t)
	m := press(t, h.started(t), keys("u"))
	m = typeText(t, m, "N")
	m = press(t, m, keyTab)
	m = typeText(t, m, "n@x.com")
	m = press(t, m, keyTab)
	m = typeText(t, m, "123")
	m = press(t, m, keySave)
	assert.Equal(t, "Password must be at least 6 characters", m.signup.err)
	assert.Equal(t, screenSignup, m.route.screen)
}

func TestLogoutLeavesProtectedScreen(t *testing.T) {
	h := newHarness(t)
	m := loginDemo(t, h.started(t))
	m = press(t, m, keys("p"))
	require.Equal(t, screenProfile, m.route.screen)

	m = press(t, m, keys("o"))
	assert.False(t, h.store.IsAuthenticated())
	assert.Equal(t, screenLogin, m.route.screen)

	restarted := session.NewStore(h.sessionPath, nil)
	restarted.Restore()
	assert.False(t, restarted.IsAuthenticated())
}

func TestThemeCycleAndHelp(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)

	m = press(t, m, keys("T"))
	assert.Equal(t, "Kanagawa", m.theme.Name)
	assert.Equal(t, "Kanagawa", prefs.Load(h.prefsPath).Theme)

	m = press(t, m, keys("?"))
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	m = press(t, m, keys("x"))
	assert.False(t, m.showHelp)
}

func TestQuitKeys(t *testing.T) {
	h := newHarness(t)
	m := h.started(t)

	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	m = press(t, m, keys("/"))
	_, cmd = m.Update(keys("q"))
	if cmd != nil {
		assert.NotEqual(t, tea.QuitMsg{}, cmd(), "q types into the search box")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
