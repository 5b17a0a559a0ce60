package session

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// fallbackUserID is used when the token carries no usable identity claim.
// The service keys likes and comments by user id; id 1 is the backend's
// seeded default account.
const fallbackUserID = 1

// Store persists the bearer token between runs. A nil Store gives a purely
// in-memory session.
type Store interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	DeleteToken() error
}

// Session is the viewer's authentication context. It is passed explicitly
// to every component that needs the login status or user id; nothing reads
// the token from ambient storage.
type Session struct {
	mu        sync.RWMutex
	token     string
	userID    int64
	expiresAt time.Time

	store Store
}

// New creates a Session, restoring any token the store has.
func New(store Store) (*Session, error) {
	s := &Session{store: store, userID: fallbackUserID}
	if store != nil {
		token, err := store.LoadToken()
		if err != nil {
			return nil, fmt.Errorf("load token: %w", err)
		}
		if token != "" {
			s.apply(token)
		}
	}
	return s, nil
}

// SetToken installs a bearer token and persists it.
func (s *Session) SetToken(token string) error {
	s.apply(token)
	if s.store != nil {
		if err := s.store.SaveToken(token); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
	}
	return nil
}

// Clear forgets the token, ending the session.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.userID = fallbackUserID
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.DeleteToken(); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
	}
	return nil
}

// Token returns the current bearer token, empty when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID returns the current user's id.
func (s *Session) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Authenticated reports whether a token is present and not known to be
// expired. This is the local pre-check gating mutating actions; the server
// still rejects a token it no longer accepts.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	return s.expiresAt.IsZero() || time.Now().Before(s.expiresAt)
}

func (s *Session) apply(token string) {
	userID, expiresAt := parseClaims(token)
	s.mu.Lock()
	s.token = token
	s.userID = userID
	s.expiresAt = expiresAt
	s.mu.Unlock()
}

// parseClaims decodes the token without verifying its signature. The
// server is the authority on token validity; locally we only need the user
// id and the expiry hint.
func parseClaims(token string) (int64, time.Time) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fallbackUserID, time.Time{}
	}

	userID := int64(fallbackUserID)
	for _, key := range []string{"userId", "uid", "sub"} {
		if id, ok := numericClaim(claims[key]); ok {
			userID = id
			break
		}
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	return userID, expiresAt
}

func numericClaim(v any) (int64, bool) {
	switch val := v.(type) {
	case float64:
		if val > 0 {
			return int64(val), true
		}
	case string:
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
