package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/domain"
)

// PasswordHasher turns a plaintext password into a storable hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// CredentialStore defines the interface for users and refresh tokens.
type CredentialStore interface {
	// CreateUser hashes the password and inserts an active user.
	// Returns ErrUsernameExists when the username is taken.
	CreateUser(ctx context.Context, username, password string) (*domain.User, error)

	// GetByUsername returns the user, including its password hash, or nil if absent.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByID returns the user or nil if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// AddRefreshToken records a refresh token for the user.
	AddRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.RefreshToken, error)

	// RevokeRefreshToken deletes the token. It is a no-op when the token is
	// absent; the boolean reports whether a row was removed.
	RevokeRefreshToken(ctx context.Context, token string) (bool, error)

	// GetRefreshToken returns the stored record or nil if absent.
	GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error)

	// DeleteExpiredRefreshTokens removes tokens that expired before the cutoff.
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)

	// WithTx returns a store bound to tx.
	WithTx(tx *sql.Tx) CredentialStore
}
