package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/five82/folio/internal/bookshelf"
)

// MinPublishedYear is the earliest year the book form accepts.
const MinPublishedYear = 1000

// MinPasswordLength is the shortest password signup accepts.
const MinPasswordLength = 6

// FieldError reports one form field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Message: field + " is required"}
	}
	return nil
}

// BookForm holds the create/edit form as typed text. Year stays "" until the
// user types one so an unset year is distinct from zero.
type BookForm struct {
	Title       string
	Author      string
	Description string
	Genre       string
	Year        string
}

// FormFromBook prefills the form for edit mode.
func FormFromBook(b bookshelf.Book) BookForm {
	year := ""
	if b.PublishedYear != 0 {
		year = strconv.Itoa(b.PublishedYear)
	}
	return BookForm{
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Genre:       b.Genre,
		Year:        year,
	}
}

// Validate checks every field before anything reaches the network.
func (f BookForm) Validate(now time.Time) error {
	for _, check := range []struct{ field, value string }{
		{"Title", f.Title},
		{"Author", f.Author},
		{"Description", f.Description},
		{"Genre", f.Genre},
		{"Published year", f.Year},
	} {
		if err := required(check.field, check.value); err != nil {
			return err
		}
	}
	if !ValidGenre(strings.TrimSpace(f.Genre)) {
		return &FieldError{Field: "Genre", Message: fmt.Sprintf("Genre %q is not one of the available options", f.Genre)}
	}
	year, err := strconv.Atoi(strings.TrimSpace(f.Year))
	maxYear := now.Year()
	if err != nil || year < MinPublishedYear || year > maxYear {
		return &FieldError{
			Field:   "Published year",
			Message: fmt.Sprintf("Published year must be between %d and %d", MinPublishedYear, maxYear),
		}
	}
	return nil
}

// BookInput converts a validated form into the request payload.
func (f BookForm) BookInput() bookshelf.BookInput {
	year, _ := strconv.Atoi(strings.TrimSpace(f.Year))
	return bookshelf.BookInput{
		Title:         strings.TrimSpace(f.Title),
		Author:        strings.TrimSpace(f.Author),
		Description:   strings.TrimSpace(f.Description),
		Genre:         strings.TrimSpace(f.Genre),
		PublishedYear: year,
	}
}

// ReviewForm is the review sub-form on the detail screen.
type ReviewForm struct {
	Rating int
	Text   string
}

// NewReviewForm returns the form's initial state.
func NewReviewForm() ReviewForm {
	return ReviewForm{Rating: 5}
}

// SetRating clamps r into 1..5.
func (f *ReviewForm) SetRating(r int) {
	switch {
	case r < 1:
		f.Rating = 1
	case r > 5:
		f.Rating = 5
	default:
		f.Rating = r
	}
}

// Validate requires text and a rating in range.
func (f ReviewForm) Validate() error {
	if f.Rating < 1 || f.Rating > 5 {
		return &FieldError{Field: "Rating", Message: "Rating must be between 1 and 5"}
	}
	return required("Review", f.Text)
}

// ReviewInput converts the form into the request payload.
func (f ReviewForm) ReviewInput(bookID string) bookshelf.ReviewInput {
	return bookshelf.ReviewInput{BookID: bookID, Rating: f.Rating, ReviewText: strings.TrimSpace(f.Text)}
}

// LoginForm is the login screen.
type LoginForm struct {
	Email    string
	Password string
}

// Validate requires both fields.
func (f LoginForm) Validate() error {
	if err := required("Email", f.Email); err != nil {
		return err
	}
	return required("Password", f.Password)
}

// Credentials converts the form into the request payload.
func (f LoginForm) Credentials() bookshelf.Credentials {
	return bookshelf.Credentials{Email: strings.TrimSpace(f.Email), Password: f.Password}
}

// SignupForm is the registration screen.
type SignupForm struct {
	Name     string
	Email    string
	Password string
}

// Validate requires every field and a minimum password length.
func (f SignupForm) Validate() error {
	for _, check := range []struct{ field, value string }{
		{"Name", f.Name},
		{"Email", f.Email},
		{"Password", f.Password},
	} {
		if err := required(check.field, check.value); err != nil {
			return err
		}
	}
	if len([]rune(f.Password)) < MinPasswordLength {
		return &FieldError{Field: "Password", Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

// Registration converts the form into the request payload.
func (f SignupForm) Registration() bookshelf.Registration {
	return bookshelf.Registration{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	}
}
