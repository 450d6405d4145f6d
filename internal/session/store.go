package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/five82/folio/internal/bookshelf"
)

// ErrInvalidSession is returned by Login when the token or user is missing.
var ErrInvalidSession = errors.New("session requires both token and user")

// Snapshot is a copy of the session state at one instant.
type Snapshot struct {
	Token   string
	User    bookshelf.User
	Loading bool
}

// IsAuthenticated reports whether a token is held.
func (s Snapshot) IsAuthenticated() bool {
	return s.Token != ""
}

// HasUser reports whether a user profile is held.
func (s Snapshot) HasUser() bool {
	return s.User.ID != ""
}

// Store is the single shared session. Every view, the HTTP client, and the
// header read from the same Store; writes go through Login and Logout only.
type Store struct {
	mu       sync.RWMutex
	path     string
	logger   *zap.Logger
	snapshot Snapshot
	restored bool

	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore returns a Store persisting to path. An empty path keeps the
// session in memory only. The store starts in the loading state until
// Restore runs.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:     strings.TrimSpace(path),
		logger:   logger,
		snapshot: Snapshot{Loading: true},
		subs:     make(map[int]func(Snapshot)),
	}
}

// Path returns the persistence path.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Token implements bookshelf.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Token
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

// Restore loads the persisted session once. A malformed or half-populated
// file is removed and treated as no session. Loading is cleared whatever
// happens. Calls after the first are no-ops.
func (s *Store) Restore() {
	s.mu.Lock()
	if s.restored {
		s.mu.Unlock()
		return
	}
	s.restored = true

	rec, ok := s.readRecord()
	if ok {
		s.snapshot.Token = rec.Token
		s.snapshot.User = rec.user()
	}
	s.snapshot.Loading = false
	snap := s.snapshot
	s.mu.Unlock()

	s.logger.Debug("session restored", zap.Bool("authenticated", snap.IsAuthenticated()))
	s.notify(snap)
}

// Login sets the token and user together and persists them. The in-memory
// session is updated even if writing the file fails; that error is returned.
func (s *Store) Login(token string, user bookshelf.User) error {
	token = strings.TrimSpace(token)
	if token == "" || strings.TrimSpace(user.ID) == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	s.snapshot.Token = token
	s.snapshot.User = user
	s.snapshot.Loading = false
	s.restored = true
	snap := s.snapshot
	err := s.writeRecord(record{Token: token, User: userRecord(user)})
	s.mu.Unlock()

	s.logger.Info("session started", zap.String("user_id", user.ID))
	s.notify(snap)
	if err != nil {
		s.logger.Warn("persist session failed", zap.Error(err))
		return err
	}
	return nil
}

// Logout clears the token, the user and the persisted copy.
func (s *Store) Logout() error {
	s.mu.Lock()
	wasAuthenticated := s.snapshot.Token != ""
	s.snapshot.Token = ""
	s.snapshot.User = bookshelf.User{}
	s.snapshot.Loading = false
	s.restored = true
	snap := s.snapshot
	err := s.removeRecord()
	s.mu.Unlock()

	if wasAuthenticated {
		s.logger.Info("session ended")
	}
	s.notify(snap)
	if err != nil {
		s.logger.Warn("remove session file failed", zap.Error(err))
		return err
	}
	return nil
}

// Subscribe registers fn to receive every new snapshot. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.RLock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(snap)
	}
}

type record struct {
	Token string     `toml:"token"`
	User  userRecord `toml:"user"`
}

type userRecord struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

func (r record) user() bookshelf.User {
	return bookshelf.User{ID: r.User.ID, Name: r.User.Name, Email: r.User.Email}
}

func (r record) valid() bool {
	return strings.TrimSpace(r.Token) != "" && strings.TrimSpace(r.User.ID) != ""
}

// readRecord must be called with mu held.
func (s *Store) readRecord() (record, bool) {
	if s.path == "" {
		return record{}, false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("read session file failed", zap.String("path", s.path), zap.Error(err))
		}
		return record{}, false
	}
	var rec record
	if err := toml.Unmarshal(data, &rec); err != nil || !rec.valid() {
		s.logger.Warn("discarding malformed session file", zap.String("path", s.path), zap.Error(err))
		if rmErr := s.removeRecord(); rmErr != nil {
			s.logger.Warn("remove session file failed", zap.Error(rmErr))
		}
		return record{}, false
	}
	return rec, true
}

// writeRecord must be called with mu held.
func (s *Store) writeRecord(rec record) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := toml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// removeRecord must be called with mu held.
func (s *Store) removeRecord() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
