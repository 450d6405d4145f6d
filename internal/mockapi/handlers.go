package mockapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body bookshelf.Registration
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := s.Register(body.Name, body.Email, body.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body bookshelf.Credentials
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[s.byEmail[email]]
	if !ok || bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(body.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token := uuid.NewString()
	s.tokens[token] = acct.ID
	writeJSON(w, http.StatusOK, bookshelf.AuthResponse{
		Token: token,
		User:  bookshelf.User{ID: acct.ID, Name: acct.Name, Email: acct.Email},
	})
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := positiveInt(q.Get("page"), 1)
	limit := min(positiveInt(q.Get("limit"), defaultLimit), maxLimit)
	search := strings.ToLower(strings.TrimSpace(q.Get("search")))
	genre := strings.TrimSpace(q.Get("genre"))

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*bookRecord, 0, len(s.books))
	for _, b := range s.books {
		if genre != "" && b.Genre != genre {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Title), search) &&
			!strings.Contains(strings.ToLower(b.Author), search) {
			continue
		}
		matched = append(matched, b)
	}
	sortBooks(matched, catalog.SortKey(q.Get("sort")))

	total := len(matched)
	totalPages := (total + limit - 1) / limit
	start, end := total, total
	if page <= totalPages {
		start = (page - 1) * limit
		end = min(start+limit, total)
	}
	data := make([]bookshelf.Book, 0, end-start)
	for _, b := range matched[start:end] {
		data = append(data, s.bookView(b))
	}
	writeJSON(w, http.StatusOK, bookshelf.BookPage{
		Data:        data,
		CurrentPage: page,
		TotalPages:  totalPages,
	})
}

func sortBooks(books []*bookRecord, key catalog.SortKey) {
	sort.SliceStable(books, func(i, j int) bool {
		a, b := books[i], books[j]
		switch key {
		case catalog.SortYear:
			if a.PublishedYear != b.PublishedYear {
				return a.PublishedYear > b.PublishedYear
			}
		case catalog.SortRating:
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
		}
		return a.seq > b.seq
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": s.bookView(b)})
}

func (s *Server) handleMyBooks(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := make([]*bookRecord, 0)
	for _, b := range s.books {
		if b.OwnerID == userID {
			owned = append(owned, b)
		}
	}
	sortBooks(owned, catalog.SortDefault)
	data := make([]bookshelf.Book, 0, len(owned))
	for _, b := range owned {
		data = append(data, s.bookView(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var body bookshelf.BookInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateBook(body, s.now()); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.insertBook(body, currentUserID(r))
	writeJSON(w, http.StatusCreated, map[string]any{"data": s.bookView(b)})
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body bookshelf.BookInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateBook(body, s.now()); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}
	if b.OwnerID != currentUserID(r) {
		writeError(w, http.StatusForbidden, "Not authorized to update this book")
		return
	}
	b.Title = strings.TrimSpace(body.Title)
	b.Author = strings.TrimSpace(body.Author)
	b.Description = strings.TrimSpace(body.Description)
	b.Genre = body.Genre
	b.PublishedYear = body.PublishedYear
	writeJSON(w, http.StatusOK, map[string]any{"data": s.bookView(b)})
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}
	if b.OwnerID != currentUserID(r) {
		writeError(w, http.StatusForbidden, "Not authorized to delete this book")
		return
	}
	delete(s.books, id)
	for rid, rv := range s.reviews {
		if rv.BookID == id {
			delete(s.reviews, rid)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Book removed"})
}

func (s *Server) handleBookReviews(w http.ResponseWriter, r *http.Request) {
	bookID := mux.Vars(r)["id"]
	s.mu.RLock()
	defer s.mu.RUnlock()
	data := s.reviewViews(func(rv *reviewRecord) bool { return rv.BookID == bookID }, false)
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) handleMyReviews(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	data := s.reviewViews(func(rv *reviewRecord) bool { return rv.UserID == userID }, true)
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var body bookshelf.ReviewInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	if strings.TrimSpace(body.ReviewText) == "" {
		writeError(w, http.StatusBadRequest, "Review text is required")
		return
	}
	userID := currentUserID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[body.BookID]
	if !ok {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}
	for _, rv := range s.reviews {
		if rv.BookID == b.ID && rv.UserID == userID {
			writeError(w, http.StatusBadRequest, "You have already reviewed this book")
			return
		}
	}
	rv := &reviewRecord{
		ID:         uuid.NewString(),
		BookID:     b.ID,
		UserID:     userID,
		Rating:     body.Rating,
		ReviewText: strings.TrimSpace(body.ReviewText),
		CreatedAt:  s.now(),
		seq:        s.nextSeq(),
	}
	s.reviews[rv.ID] = rv
	b.AverageRating, b.ReviewCount = catalog.ApplyReview(b.AverageRating, b.ReviewCount, rv.Rating)
	writeJSON(w, http.StatusCreated, map[string]any{"data": s.reviewView(rv, false)})
}

// insertBook must be called with mu held.
func (s *Server) insertBook(in bookshelf.BookInput, ownerID string) *bookRecord {
	b := &bookRecord{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		Author:        strings.TrimSpace(in.Author),
		Description:   strings.TrimSpace(in.Description),
		Genre:         in.Genre,
		PublishedYear: in.PublishedYear,
		OwnerID:       ownerID,
		CreatedAt:     s.now(),
		seq:           s.nextSeq(),
	}
	s.books[b.ID] = b
	return b
}

// bookView must be called with mu held.
func (s *Server) bookView(b *bookRecord) bookshelf.Book {
	owner := bookshelf.UserRef{ID: b.OwnerID}
	if acct, ok := s.accounts[b.OwnerID]; ok {
		owner.Name = acct.Name
	}
	return bookshelf.Book{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		Genre:         b.Genre,
		PublishedYear: b.PublishedYear,
		AverageRating: b.AverageRating,
		ReviewCount:   b.ReviewCount,
		AddedBy:       owner,
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// reviewViews must be called with mu held. Results are newest first.
func (s *Server) reviewViews(keep func(*reviewRecord) bool, populateBook bool) []bookshelf.Review {
	matched := make([]*reviewRecord, 0)
	for _, rv := range s.reviews {
		if keep(rv) {
			matched = append(matched, rv)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })
	out := make([]bookshelf.Review, 0, len(matched))
	for _, rv := range matched {
		out = append(out, s.reviewView(rv, populateBook))
	}
	return out
}

// reviewView must be called with mu held.
func (s *Server) reviewView(rv *reviewRecord, populateBook bool) bookshelf.Review {
	user := bookshelf.UserRef{ID: rv.UserID}
	if acct, ok := s.accounts[rv.UserID]; ok {
		user.Name = acct.Name
	}
	book := bookshelf.BookRef{ID: rv.BookID}
	if populateBook {
		if b, ok := s.books[rv.BookID]; ok {
			book.Title = b.Title
			book.Author = b.Author
		}
	}
	return bookshelf.Review{
		ID:         rv.ID,
		Book:       book,
		User:       user,
		Rating:     rv.Rating,
		ReviewText: rv.ReviewText,
		CreatedAt:  rv.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func validateBook(in bookshelf.BookInput, now time.Time) string {
	form := catalog.BookForm{
		Title:       in.Title,
		Author:      in.Author,
		Description: in.Description,
		Genre:       in.Genre,
		Year:        strconv.Itoa(in.PublishedYear),
	}
	if err := form.Validate(now); err != nil {
		return err.Error()
	}
	return ""
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
