package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
	"github.com/five82/folio/internal/session"
)

// Messages

// sessionMsg reports a session change: restore finished, login, logout or an
// invalidation after a 401.
type sessionMsg session.Snapshot

type booksLoadedMsg struct {
	gen  uint64
	page bookshelf.BookPage
	err  error
}

type detailLoadedMsg struct {
	bookID  string
	book    bookshelf.Book
	reviews []bookshelf.Review
	err     error
}

type reviewSubmittedMsg struct {
	bookID string
	review bookshelf.Review
	err    error
}

type bookLoadedForEditMsg struct {
	bookID string
	book   bookshelf.Book
	err    error
}

type bookSavedMsg struct {
	editing bool
	book    bookshelf.Book
	err     error
}

type myBooksMsg struct {
	gen   uint64
	books []bookshelf.Book
	err   error
}

type myReviewsMsg struct {
	gen     uint64
	reviews []bookshelf.Review
	err     error
}

type bookDeletedMsg struct {
	bookID string
	err    error
}

type loginResultMsg struct {
	email string
	resp  bookshelf.AuthResponse
	err   error
}

type signupResultMsg struct {
	email string
	err   error
}

// Commands

func restoreSessionCmd(store *session.Store) tea.Cmd {
	return func() tea.Msg {
		store.Restore()
		return sessionMsg(store.Snapshot())
	}
}

func listBooksCmd(ctx context.Context, api bookshelf.API, gen uint64, q catalog.ListQuery) tea.Cmd {
	params := q.Params()
	return func() tea.Msg {
		page, err := api.ListBooks(ctx, params)
		return booksLoadedMsg{gen: gen, page: page, err: err}
	}
}

// loadDetailCmd fetches a book and its reviews concurrently and joins them.
// A failure of either request fails the whole load.
func loadDetailCmd(ctx context.Context, api bookshelf.API, bookID string) tea.Cmd {
	return func() tea.Msg {
		var (
			book    bookshelf.Book
			reviews []bookshelf.Review
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			book, err = api.GetBook(gctx, bookID)
			return err
		})
		g.Go(func() error {
			var err error
			reviews, err = api.BookReviews(gctx, bookID)
			return err
		})
		if err := g.Wait(); err != nil {
			return detailLoadedMsg{bookID: bookID, err: err}
		}
		return detailLoadedMsg{bookID: bookID, book: book, reviews: reviews}
	}
}

func createReviewCmd(ctx context.Context, api bookshelf.API, input bookshelf.ReviewInput) tea.Cmd {
	return func() tea.Msg {
		review, err := api.CreateReview(ctx, input)
		return reviewSubmittedMsg{bookID: input.BookID, review: review, err: err}
	}
}

func loadBookForEditCmd(ctx context.Context, api bookshelf.API, bookID string) tea.Cmd {
	return func() tea.Msg {
		book, err := api.GetBook(ctx, bookID)
		return bookLoadedForEditMsg{bookID: bookID, book: book, err: err}
	}
}

func saveBookCmd(ctx context.Context, api bookshelf.API, editID string, input bookshelf.BookInput) tea.Cmd {
	return func() tea.Msg {
		if editID == "" {
			book, err := api.CreateBook(ctx, input)
			return bookSavedMsg{book: book, err: err}
		}
		book, err := api.UpdateBook(ctx, editID, input)
		return bookSavedMsg{editing: true, book: book, err: err}
	}
}

func myBooksCmd(ctx context.Context, api bookshelf.API, gen uint64) tea.Cmd {
	return func() tea.Msg {
		books, err := api.MyBooks(ctx)
		return myBooksMsg{gen: gen, books: books, err: err}
	}
}

func myReviewsCmd(ctx context.Context, api bookshelf.API, gen uint64) tea.Cmd {
	return func() tea.Msg {
		reviews, err := api.MyReviews(ctx)
		return myReviewsMsg{gen: gen, reviews: reviews, err: err}
	}
}

func deleteBookCmd(ctx context.Context, api bookshelf.API, bookID string) tea.Cmd {
	return func() tea.Msg {
		return bookDeletedMsg{bookID: bookID, err: api.DeleteBook(ctx, bookID)}
	}
}

func loginCmd(ctx context.Context, api bookshelf.API, creds bookshelf.Credentials) tea.Cmd {
	return func() tea.Msg {
		resp, err := api.Login(ctx, creds)
		return loginResultMsg{email: creds.Email, resp: resp, err: err}
	}
}

func signupCmd(ctx context.Context, api bookshelf.API, reg bookshelf.Registration) tea.Cmd {
	return func() tea.Msg {
		return signupResultMsg{email: reg.Email, err: api.Register(ctx, reg)}
	}
}
