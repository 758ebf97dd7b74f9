// internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/domain"
	"fintrack/internal/repository"
	"fintrack/internal/util"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{3,64}$`)

// AuthStatus answers whether a token belongs to a live session.
type AuthStatus struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

// AuthService defines the interface for account and session logic.
type AuthService interface {
	Signup(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.Session, *domain.User, error)
	Logout(ctx context.Context, token string)
	Status(ctx context.Context, token string) AuthStatus
	// Authenticate resolves a token to its user, or util.ErrUnauthorized.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	// Refresh extends a session past half its lifetime; ok is false when nothing changed.
	Refresh(token string) (session *domain.Session, ok bool)
}

type authService struct {
	dbExecutor repository.DBExecutor
	userRepo   repository.UserRepository
	verifier   auth.CredentialVerifier
	sessions   auth.SessionStore
	logger     *slog.Logger
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	verifier auth.CredentialVerifier,
	sessions auth.SessionStore,
	logger *slog.Logger,
) AuthService {
	return &authService{
		dbExecutor: dbExecutor,
		userRepo:   userRepo,
		verifier:   verifier,
		sessions:   sessions,
		logger:     logger.With("component", "auth"),
	}
}

// Signup registers a new identity with a hashed password.
func (s *authService) Signup(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, util.ValidationError("username must be 3-64 letters, digits, '.', '_' or '-'")
	}
	if len(password) < minPasswordLen {
		return nil, util.ValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if len(password) > maxPasswordLen {
		return nil, util.ValidationError(fmt.Sprintf("password must be at most %d bytes", maxPasswordLen))
	}

	_, err := s.userRepo.GetUserByUsername(ctx, s.dbExecutor, username)
	if err == nil {
		return nil, util.ErrConflict
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, util.StorageError("signup: failed to check username", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	user := domain.NewUser(username, hash)
	if err := s.userRepo.CreateUser(ctx, s.dbExecutor, user); err != nil {
		if errors.Is(err, util.ErrConflict) {
			return nil, util.ErrConflict
		}
		return nil, util.StorageError("signup: failed to create user", err)
	}

	s.logger.InfoContext(ctx, "User signed up", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and opens a session.
func (s *authService) Login(ctx context.Context, username, password string) (*domain.Session, *domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil, util.ErrInvalidCredentials
	}

	user, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredentials) {
			return nil, nil, err
		}
		return nil, nil, util.StorageError("login: failed to verify credentials", err)
	}

	session, err := s.sessions.Create(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	s.logger.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return session, user, nil
}

func (s *authService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	s.sessions.Revoke(token)
}

func (s *authService) Status(ctx context.Context, token string) AuthStatus {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return AuthStatus{}
	}
	return AuthStatus{Authenticated: true, User: user}
}

func (s *authService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.sessions.Validate(token)
	if err != nil {
		return nil, util.ErrUnauthorized
	}

	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, session.UserID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			s.sessions.Revoke(token)
			return nil, util.ErrUnauthorized
		}
		return nil, util.StorageError("authenticate: failed to load user", err)
	}
	return user, nil
}

func (s *authService) Refresh(token string) (*domain.Session, bool) {
	return s.sessions.Renew(token)
}
