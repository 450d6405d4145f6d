package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/session"
)

// screen identifies the active view.
type screen int

const (
	screenBooks screen = iota
	screenDetail
	screenLogin
	screenSignup
	screenAddBook
	screenEditBook
	screenProfile
)

func (s screen) String() string {
	switch s {
	case screenDetail:
		return "Book"
	case screenLogin:
		return "Login"
	case screenSignup:
		return "Sign Up"
	case screenAddBook:
		return "Add Book"
	case screenEditBook:
		return "Edit Book"
	case screenProfile:
		return "Profile"
	default:
		return "Books"
	}
}

// protected reports whether the screen requires a session.
func (s screen) protected() bool {
	return s == screenAddBook || s == screenEditBook || s == screenProfile
}

// route is a screen plus the book it is about, if any.
type route struct {
	screen screen
	bookID string
}

type flashKind int

const (
	flashInfo flashKind = iota
	flashSuccess
	flashError
)

// flash is a one-line notice shown in the footer until the next key press.
type flash struct {
	text string
	kind flashKind
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    bookshelf.API
	Session   *session.Store
	Logger    *zap.Logger
	ThemeName string
	PrefsPath string
	LastEmail string
	Now       func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    bookshelf.API
	session   *session.Store
	logger    *zap.Logger
	prefsPath string
	now       func() time.Time
	lastEmail string

	// UI state
	theme    Theme
	keys     keyMap
	width    int
	height   int
	ready    bool
	showHelp bool
	flash    flash

	// Routing
	route   route
	guard   session.GuardState
	mounted bool

	// Screens
	books   booksState
	detail  detailState
	form    bookFormState
	profile profileState
	login   loginState
	signup  signupState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := opts.Session
	if store == nil {
		store = session.NewStore("", logger)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}

	m := Model{
		ctx:       ctx,
		client:    opts.Client,
		session:   store,
		logger:    logger,
		prefsPath: opts.PrefsPath,
		now:       now,
		lastEmail: strings.TrimSpace(opts.LastEmail),
		theme:     GetTheme(themeName),
		keys:      DefaultKeyMap(),
		route:     route{screen: screenBooks},
		guard:     store.Snapshot().Guard(),
		mounted:   true,
		books:     newBooksState(),
		profile:   profileState{gens: &catalog.Generations{}},
		detail:    newDetailState(),
		form:      newBookFormState(),
		login:     newLoginState(""),
		signup:    newSignupState(),
	}
	m.books.loading = true
	return m
}

// Init restores the session and loads the first page of books.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		restoreSessionCmd(m.session),
		listBooksCmd(m.ctx, m.client, m.books.gens.Next(), m.books.query),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)

	case sessionMsg:
		// The guard re-check below does the work.

	case booksLoadedMsg:
		m = m.handleBooksLoaded(msg)

	case detailLoadedMsg:
		m = m.handleDetailLoaded(msg)

	case reviewSubmittedMsg:
		m = m.handleReviewSubmitted(msg)

	case bookLoadedForEditMsg:
		m = m.handleBookLoadedForEdit(msg)

	case bookSavedMsg:
		m, cmd = m.handleBookSaved(msg)

	case myBooksMsg:
		m = m.handleMyBooks(msg)

	case myReviewsMsg:
		m = m.handleMyReviews(msg)

	case bookDeletedMsg:
		m = m.handleBookDeleted(msg)

	case loginResultMsg:
		m, cmd = m.handleLoginResult(msg)

	case signupResultMsg:
		m, cmd = m.handleSignupResult(msg)
	}

	m, guardCmd := m.syncGuard()
	return m, tea.Batch(cmd, guardCmd)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderContent renders the active screen, or the guard's placeholder.
func (m Model) renderContent() string {
	var body string
	if m.route.screen.protected() && !m.mounted {
		body = m.theme.Styles().MutedText.Render("Loading…")
	} else {
		switch m.route.screen {
		case screenBooks:
			body = m.renderBooks()
		case screenDetail:
			body = m.renderDetail()
		case screenLogin:
			body = m.renderLogin()
		case screenSignup:
			body = m.renderSignup()
		case screenAddBook, screenEditBook:
			body = m.renderBookForm()
		case screenProfile:
			body = m.renderProfile()
		}
	}
	return fitHeight(body, m.contentHeight())
}

// navigate switches screens and mounts the new one.
func (m Model) navigate(r route) (Model, tea.Cmd) {
	m.route = r
	m.guard = m.session.Snapshot().Guard()
	return m.mount()
}

// mount runs the guard for the current route and, when it passes, starts
// the screen's loads. While the session is restoring the screen waits;
// without a session it redirects to login.
func (m Model) mount() (Model, tea.Cmd) {
	m.mounted = false
	if m.route.screen.protected() {
		switch m.guard {
		case session.GuardRestoring:
			return m, nil
		case session.GuardUnauthenticated:
			m.logger.Debug("redirecting to login", zap.Stringer("from", m.route.screen))
			return m.navigate(route{screen: screenLogin})
		}
	}
	m.mounted = true

	switch m.route.screen {
	case screenBooks:
		return m.enterBooks()
	case screenDetail:
		return m.enterDetail(m.route.bookID)
	case screenLogin:
		m.login = newLoginState(m.lastEmail)
		return m, nil
	case screenSignup:
		m.signup = newSignupState()
		return m, nil
	case screenAddBook:
		return m.enterBookForm("")
	case screenEditBook:
		return m.enterBookForm(m.route.bookID)
	case screenProfile:
		return m.enterProfile()
	}
	return m, nil
}

// syncGuard re-evaluates the guard whenever the session changed under the
// model: restore finishing, login, logout, or a 401 clearing the session.
func (m Model) syncGuard() (Model, tea.Cmd) {
	g := m.session.Snapshot().Guard()
	if g == m.guard && (m.mounted || !m.route.screen.protected()) {
		return m, nil
	}
	m.guard = g
	if g != session.GuardAuthenticated {
		m.detail.closeComposer()
	}
	if !m.route.screen.protected() {
		return m, nil
	}
	return m.mount()
}

// inputFocused reports whether keys should go to a text input.
func (m Model) inputFocused() bool {
	switch m.route.screen {
	case screenLogin, screenSignup:
		return true
	case screenAddBook, screenEditBook:
		return m.mounted && !m.form.loading
	case screenBooks:
		return m.books.searching
	case screenDetail:
		return m.detail.composing
	}
	return false
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	m.flash = flash{}

	if m.route.screen == screenProfile && m.profile.del.Active() {
		return m.handleDeleteDialogKey(msg)
	}
	if m.inputFocused() {
		return m.handleScreenKey(msg)
	}

	snap := m.session.Snapshot()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, m.keys.Books):
		return m.navigate(route{screen: screenBooks})
	case key.Matches(msg, m.keys.Profile):
		return m.navigate(route{screen: screenProfile})
	case key.Matches(msg, m.keys.AddBook):
		return m.navigate(route{screen: screenAddBook})
	case key.Matches(msg, m.keys.Login) && !snap.IsAuthenticated():
		return m.navigate(route{screen: screenLogin})
	case key.Matches(msg, m.keys.Signup) && !snap.IsAuthenticated():
		return m.navigate(route{screen: screenSignup})
	case key.Matches(msg, m.keys.Logout) && snap.IsAuthenticated():
		return m.logout()
	case key.Matches(msg, m.keys.Back):
		return m.back()
	}
	return m.handleScreenKey(msg)
}

func (m Model) handleScreenKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.route.screen.protected() && !m.mounted {
		return m, nil
	}
	switch m.route.screen {
	case screenBooks:
		return m.handleBooksKey(msg)
	case screenDetail:
		return m.handleDetailKey(msg)
	case screenLogin:
		return m.handleLoginKey(msg)
	case screenSignup:
		return m.handleSignupKey(msg)
	case screenAddBook, screenEditBook:
		return m.handleBookFormKey(msg)
	case screenProfile:
		return m.handleProfileKey(msg)
	}
	return m, nil
}

// back leaves the current screen for its parent.
func (m Model) back() (Model, tea.Cmd) {
	switch m.route.screen {
	case screenAddBook, screenEditBook:
		return m.navigate(route{screen: screenProfile})
	case screenBooks:
		return m, nil
	default:
		return m.navigate(route{screen: screenBooks})
	}
}

func (m Model) logout() (Model, tea.Cmd) {
	if err := m.session.Logout(); err != nil {
		m.logger.Warn("logout failed to clear stored session", zap.Error(err))
	}
	m = m.setFlash("You have been logged out.", flashInfo)
	return m.navigate(route{screen: screenLogin})
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	name := m.theme.Name
	if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
		m.logger.Warn("save theme preference failed", zap.Error(err))
	}
}

func (m Model) setFlash(text string, kind flashKind) Model {
	m.flash = flash{text: text, kind: kind}
	return m
}

// flashError logs err and shows the server's message, or fallback when the
// server did not send one.
func (m Model) flashError(err error, fallback, action string) Model {
	fields := []zap.Field{zap.Error(err)}
	if bookshelf.IsNetworkError(err) {
		fields = append(fields, zap.Bool("network", true))
	}
	m.logger.Warn(action+" failed", fields...)
	return m.setFlash(bookshelf.ErrorMessage(err, fallback), flashError)
}

// resize pushes the terminal size into sized components.
func (m *Model) resize() {
	m.detail.resize(m.contentWidth(), m.contentHeight())
	m.form.resize(m.contentWidth())
}

// fitHeight pads or trims s to exactly h lines.
func fitHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
		opts.Context = ctx
	}

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.Session != nil {
		// Send from a goroutine: the store notifies synchronously, and a
		// change made inside Update would otherwise block the event loop.
		cancel := opts.Session.Subscribe(func(s session.Snapshot) {
			go p.Send(sessionMsg(s))
		})
		defer cancel()
	}

	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
