// Package auth holds sessions and credential checks for the HTTP gate.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/domain"
	"fintrack/internal/util"
)

const tokenBytes = 32

// SessionStore maps opaque tokens to sessions.
type SessionStore interface {
	// Create opens a session for userID.
	Create(userID int64) (*domain.Session, error)
	// Validate returns a copy of the live session for token, or util.ErrUnauthorized.
	Validate(token string) (*domain.Session, error)
	// Renew extends a session that is past half its lifetime and reports whether it did.
	Renew(token string) (*domain.Session, bool)
	// Revoke removes the session. Unknown tokens are ignored.
	Revoke(token string)
}

// MemorySessionStore keeps sessions in process memory. Sessions do not
// survive a restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewMemorySessionStore(ttl time.Duration, logger *slog.Logger) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With("component", "auth"),
	}
}

// TTL is the lifetime given to new and renewed sessions.
func (s *MemorySessionStore) TTL() time.Duration { return s.ttl }

func (s *MemorySessionStore) Create(userID int64) (*domain.Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	session := &domain.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	copied := *session
	return &copied, nil
}

func (s *MemorySessionStore) Validate(token string) (*domain.Session, error) {
	if token == "" {
		return nil, util.ErrUnauthorized
	}
	s.mu.RLock()
	session, ok := s.sessions[token]
	var copied domain.Session
	if ok {
		copied = *session
	}
	s.mu.RUnlock()

	if !ok || copied.Expired(s.now()) {
		return nil, util.ErrUnauthorized
	}
	return &copied, nil
}

func (s *MemorySessionStore) Renew(token string) (*domain.Session, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok || session.Expired(now) || session.ExpiresAt.Sub(now) >= s.ttl/2 {
		return nil, false
	}
	session.ExpiresAt = now.Add(s.ttl)
	copied := *session
	return &copied, true
}

func (s *MemorySessionStore) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemorySessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *MemorySessionStore) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("Expired sessions swept", "count", n)
			}
		}
	}
}

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
