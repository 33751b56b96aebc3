// Package session holds the client-side authentication state: the current
// user, the bearer token and the authenticated flag.
//
// Store is the only writer. Login and Logout replace all three fields in one
// step under the store's lock; nothing else can flip IsAuthenticated.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/kbchat/internal/models"
)

// ErrEmptyToken is returned by Login when no token is supplied.
var ErrEmptyToken = errors.New("session token is empty")

// Session is a point-in-time copy of the store's state.
type Session struct {
	User            *models.User
	Token           string
	IsAuthenticated bool
}

// Complete reports whether all three fields required for a protected
// destination are present.
func (s Session) Complete() bool {
	return s.IsAuthenticated && s.User != nil && s.Token != ""
}

// Store owns the session state and its persistence.
type Store struct {
	mu        sync.RWMutex
	state     Session
	loading   bool
	persister Persister
	logger    *slog.Logger
}

// NewStore creates an empty store. A nil persister keeps state in memory only.
func NewStore(p Persister, logger *slog.Logger) *Store {
	if p == nil {
		p = &MemoryStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{persister: p, logger: logger}
}

// Restore loads the persisted snapshot. Unreadable or foreign snapshots leave
// the store empty; the error is returned for logging only.
func (s *Store) Restore() error {
	data, err := s.persister.Load()
	if err != nil {
		s.logger.Warn("failed to load session", "error", err)
		return err
	}
	if len(data) == 0 {
		return nil
	}

	restored, err := Decode(data)
	if err != nil {
		s.logger.Warn("discarding persisted session", "error", err)
		return err
	}

	s.mu.Lock()
	s.state = restored
	s.mu.Unlock()

	s.logger.Debug("session restored", "authenticated", restored.IsAuthenticated)
	return nil
}

// Login sets user, token and the authenticated flag together.
func (s *Store) Login(user models.User, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	u := user
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Session{User: &u, Token: token, IsAuthenticated: true}
	s.logger.Info("session started", "user", u.Email)
	return s.persistLocked()
}

// Logout clears the session. Calling it on an empty session is a no-op apart
// from re-persisting the empty state.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsAuthenticated {
		s.logger.Info("session cleared")
	}
	s.state = Session{}
	return s.persistLocked()
}

// SetLoading toggles the busy flag used while auth calls are in flight.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// Loading reports the busy flag.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.state
	if snap.User != nil {
		u := *snap.User
		snap.User = &u
	}
	return snap
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// persistLocked writes the current state. Caller must hold the write lock so
// the file always reflects the latest mutation.
func (s *Store) persistLocked() error {
	data, err := Encode(s.state)
	if err != nil {
		return err
	}
	if err := s.persister.Save(data); err != nil {
		s.logger.Warn("failed to persist session", "error", err)
		return err
	}
	return nil
}
