package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
	"fintrack/internal/util"
)

var hashCost = bcrypt.DefaultCost

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CredentialVerifier resolves a username and secret to an identity.
type CredentialVerifier interface {
	// Verify returns the matching user or util.ErrInvalidCredentials.
	Verify(ctx context.Context, username, password string) (*domain.User, error)
}

// PasswordVerifier checks passwords against the bcrypt hashes in the user store.
type PasswordVerifier struct {
	db     repository.DBExecutor
	users  repository.UserRepository
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewPasswordVerifier(db repository.DBExecutor, users repository.UserRepository, logger *slog.Logger) *PasswordVerifier {
	return &PasswordVerifier{db: db, users: users, logger: logger.With("component", "auth")}
}

func (v *PasswordVerifier) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := v.users.GetUserByUsername(ctx, v.db, username)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			// Unknown usernames still pay for one comparison.
			CheckPassword(password, v.dummy())
			return nil, util.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: failed to load user %q: %w", username, err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		v.logger.DebugContext(ctx, "Password mismatch", "user_id", user.ID)
		return nil, util.ErrInvalidCredentials
	}
	return user, nil
}

func (v *PasswordVerifier) dummy() string {
	v.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("fintrack-dummy-password"), hashCost)
		if err == nil {
			v.dummyHash = string(hash)
		}
	})
	return v.dummyHash
}
