package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/platform/logger"
	"github.com/phrazzld/bookshelf-api/internal/store"
)

const (
	userColumns         = `id, username, password_hash, is_active, created_at`
	refreshTokenColumns = `id, user_id, token, expires_at, created_at`
)

// PostgresCredentialStore implements store.CredentialStore.
type PostgresCredentialStore struct {
	db     store.DBTX
	hasher store.PasswordHasher
	logger *slog.Logger
}

// NewPostgresCredentialStore creates a credential store over db that hashes
// passwords with hasher. If logger is nil, a default logger will be used.
func NewPostgresCredentialStore(db store.DBTX, hasher store.PasswordHasher, logger *slog.Logger) *PostgresCredentialStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if hasher == nil {
		panic("hasher cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCredentialStore{
		db:     db,
		hasher: hasher,
		logger: logger.With(slog.String("component", "credential_store")),
	}
}

// Ensure PostgresCredentialStore implements store.CredentialStore interface
var _ store.CredentialStore = (*PostgresCredentialStore)(nil)

// WithTx implements store.CredentialStore.WithTx
func (s *PostgresCredentialStore) WithTx(tx *sql.Tx) store.CredentialStore {
	return &PostgresCredentialStore{db: tx, hasher: s.hasher, logger: s.logger}
}

// CreateUser implements store.CredentialStore.CreateUser
// The unique constraint on username is the final arbiter between
// concurrent registrations; the loser gets store.ErrUsernameExists.
func (s *PostgresCredentialStore) CreateUser(ctx context.Context, username, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	username = strings.TrimSpace(username)
	if err := domain.ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (id, username, password_hash, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING ` + userColumns
	user, err := scanUser(s.db.QueryRowContext(ctx, query, uuid.New(), username, hash))
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("username already registered")
		} else {
			log.Error("failed to create user", slog.String("error", err.Error()))
		}
		return nil, mapUniqueViolation(err, store.ErrUsernameExists)
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return user, nil
}

// GetByUsername implements store.CredentialStore.GetByUsername
func (s *PostgresCredentialStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUser(ctx, "get_by_username",
		`SELECT `+userColumns+` FROM users WHERE username = $1`, strings.TrimSpace(username))
}

// GetByID implements store.CredentialStore.GetByID
func (s *PostgresCredentialStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getUser(ctx, "get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// AddRefreshToken implements store.CredentialStore.AddRefreshToken
func (s *PostgresCredentialStore) AddRefreshToken(
	ctx context.Context,
	userID uuid.UUID,
	token string,
	expiresAt time.Time,
) (*domain.RefreshToken, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + refreshTokenColumns
	rt, err := scanRefreshToken(s.db.QueryRowContext(ctx, query, uuid.New(), userID, token, expiresAt.UTC()))
	if err != nil {
		log.Error("failed to store refresh token",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError("refresh_token", "create", "failed to store refresh token", MapError(err))
	}
	return rt, nil
}

// RevokeRefreshToken implements store.CredentialStore.RevokeRefreshToken
func (s *PostgresCredentialStore) RevokeRefreshToken(ctx context.Context, token string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		log.Error("failed to revoke refresh token", slog.String("error", err.Error()))
		return false, store.NewStoreError("refresh_token", "revoke", "failed to revoke refresh token", MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// GetRefreshToken implements store.CredentialStore.GetRefreshToken
func (s *PostgresCredentialStore) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	rt, err := scanRefreshToken(s.db.QueryRowContext(ctx,
		`SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token = $1`, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load refresh token",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("refresh_token", "get", "query failed", MapError(err))
	}
	return rt, nil
}

// DeleteExpiredRefreshTokens implements store.CredentialStore.DeleteExpiredRefreshTokens
func (s *PostgresCredentialStore) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before.UTC())
	if err != nil {
		log.Error("failed to delete expired refresh tokens", slog.String("error", err.Error()))
		return 0, store.NewStoreError("refresh_token", "delete_expired", "failed to delete expired tokens", MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		log.Info("expired refresh tokens deleted", slog.Int64("count", n))
	}
	return n, nil
}

func (s *PostgresCredentialStore) getUser(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("user query failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", op, "query failed", MapError(err))
	}
	return user, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanRefreshToken(row rowScanner) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	if err := row.Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt); err != nil {
		return nil, err
	}
	return &rt, nil
}
