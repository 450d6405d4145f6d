package bookshelf

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// User is the authenticated account returned by /auth/login.
type User struct {
	ID    string `json:"id" toml:"id"`
	Name  string `json:"name" toml:"name"`
	Email string `json:"email" toml:"email"`
}

// UnmarshalJSON accepts either "id" or the document-style "_id" key.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      string `json:"id"`
		MongoID string `json:"_id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.ID = raw.ID
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	u.Name = raw.Name
	u.Email = raw.Email
	return nil
}

// UserRef points at a user. The server sends either a bare id or a
// populated {_id, name} object.
type UserRef struct {
	ID   string
	Name string
}

type userRefObject struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON decodes both reference shapes.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = UserRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = UserRef{ID: id}
		return nil
	}
	var obj userRefObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = UserRef{ID: obj.ID, Name: obj.Name}
	return nil
}

// MarshalJSON emits the populated form when a name is known.
func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.ID == "" && r.Name == "" {
		return []byte("null"), nil
	}
	if r.Name == "" {
		return json.Marshal(r.ID)
	}
	return json.Marshal(userRefObject(r))
}

// BookRef points at a book from a review. Populated form is {_id, title, author}.
type BookRef struct {
	ID     string
	Title  string
	Author string
}

type bookRefObject struct {
	ID     string `json:"_id"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}

// UnmarshalJSON decodes both reference shapes.
func (r *BookRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = BookRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = BookRef{ID: id}
		return nil
	}
	var obj bookRefObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = BookRef{ID: obj.ID, Title: obj.Title, Author: obj.Author}
	return nil
}

// MarshalJSON emits the populated form when a title is known.
func (r BookRef) MarshalJSON() ([]byte, error) {
	if r.ID == "" && r.Title == "" {
		return []byte("null"), nil
	}
	if r.Title == "" {
		return json.Marshal(r.ID)
	}
	return json.Marshal(bookRefObject(r))
}

// Book mirrors the server's book document.
type Book struct {
	ID            string  `json:"_id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Description   string  `json:"description"`
	Genre         string  `json:"genre"`
	PublishedYear int     `json:"publishedYear"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
	AddedBy       UserRef `json:"addedBy"`
	CreatedAt     string  `json:"createdAt,omitempty"`
}

// AddedByName returns the display name of the book's owner.
func (b Book) AddedByName() string {
	if name := strings.TrimSpace(b.AddedBy.Name); name != "" {
		return name
	}
	return "Unknown"
}

// HasRating reports whether the book has any reviews to average.
func (b Book) HasRating() bool {
	return b.AverageRating > 0
}

// Review is a single rating plus text written against a book.
type Review struct {
	ID         string  `json:"_id"`
	Book       BookRef `json:"bookId"`
	User       UserRef `json:"userId"`
	Rating     int     `json:"rating"`
	ReviewText string  `json:"reviewText"`
	CreatedAt  string  `json:"createdAt"`
}

// ReviewerName returns the reviewer's name, or "Anonymous" when unpopulated.
func (r Review) ReviewerName() string {
	if name := strings.TrimSpace(r.User.Name); name != "" {
		return name
	}
	return "Anonymous"
}

// BookTitle returns the reviewed book's title, or a marker when it is gone.
func (r Review) BookTitle() string {
	if title := strings.TrimSpace(r.Book.Title); title != "" {
		return title
	}
	return "Book deleted"
}

// Created parses CreatedAt.
func (r Review) Created() time.Time {
	return parseTime(r.CreatedAt)
}

// BookPage is one page of /books results.
type BookPage struct {
	Data        []Book `json:"data"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
}

// ListQuery configures /books requests.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Genre  string
	Sort   string
}

// BookInput is the payload for create and update.
type BookInput struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Description   string `json:"description"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"publishedYear"`
}

// ReviewInput is the payload for POST /reviews.
type ReviewInput struct {
	BookID     string `json:"bookId"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"reviewText"`
}

// Credentials is the payload for POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the payload for POST /auth/register.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
