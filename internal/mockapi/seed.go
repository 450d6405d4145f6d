package mockapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
)

// Register creates an account and returns its id.
func (s *Server) Register(name, email, password string) (string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return "", errors.New("Please provide name, email and password")
	}
	if len(password) < catalog.MinPasswordLength {
		return "", fmt.Errorf("Password must be at least %d characters", catalog.MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return "", errors.New("User already exists")
	}
	acct := &account{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: hash}
	s.accounts[acct.ID] = acct
	s.byEmail[email] = acct.ID
	return acct.ID, nil
}

// AddBook inserts a book owned by ownerID without going through HTTP.
func (s *Server) AddBook(ownerID string, in bookshelf.BookInput) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertBook(in, ownerID).ID
}

// DemoEmail and DemoPassword log into the account Seed creates.
const (
	DemoEmail    = "demo@folio.dev"
	DemoPassword = "bookworm"
)

var seedBooks = []bookshelf.BookInput{
	{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", PublishedYear: 1965, Description: "A desert planet, a noble family, and the spice that controls the universe."},
	{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Genre: "Science Fiction", PublishedYear: 1969, Description: "An envoy visits a world whose people have no fixed sex."},
	{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublishedYear: 1937, Description: "A reluctant hobbit joins a company of dwarves."},
	{Title: "A Wizard of Earthsea", Author: "Ursula K. Le Guin", Genre: "Fantasy", PublishedYear: 1968, Description: "A young mage unleashes a shadow upon the world."},
	{Title: "The Murder of Roger Ackroyd", Author: "Agatha Christie", Genre: "Mystery", PublishedYear: 1926, Description: "Poirot investigates a death in a quiet village."},
	{Title: "The Big Sleep", Author: "Raymond Chandler", Genre: "Mystery", PublishedYear: 1939, Description: "Philip Marlowe takes a job from a dying general."},
	{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", PublishedYear: 1813, Description: "Elizabeth Bennet and Mr. Darcy misjudge each other."},
	{Title: "Rebecca", Author: "Daphne du Maurier", Genre: "Thriller", PublishedYear: 1938, Description: "A new bride lives in the shadow of the first Mrs. de Winter."},
	{Title: "Beloved", Author: "Toni Morrison", Genre: "Fiction", PublishedYear: 1987, Description: "A former slave is haunted by her past."},
	{Title: "Silent Spring", Author: "Rachel Carson", Genre: "Non-Fiction", PublishedYear: 1962, Description: "The book that launched the environmental movement."},
	{Title: "The Diary of a Young Girl", Author: "Anne Frank", Genre: "Biography", PublishedYear: 1947, Description: "Two years in hiding in Amsterdam."},
	{Title: "Gödel, Escher, Bach", Author: "Douglas Hofstadter", Genre: "Non-Fiction", PublishedYear: 1979, Description: "Strange loops across logic, art and music."},
}

// Seed creates the demo account and a starter catalog.
func (s *Server) Seed() error {
	ownerID, err := s.Register("Demo Reader", DemoEmail, DemoPassword)
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	for _, in := range seedBooks {
		s.AddBook(ownerID, in)
	}
	return nil
}
