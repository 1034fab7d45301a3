package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/platform/logger"
	"github.com/phrazzld/bookshelf-api/internal/service/auth"
	"github.com/phrazzld/bookshelf-api/internal/store"
)

// TokenTypeBearer is the token_type reported with every token pair.
const TokenTypeBearer = "bearer"

// TokenPair is an access token with the refresh token that can renew it.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AuthService manages user sessions.
type AuthService interface {
	// Register creates a user. A taken username yields store.ErrUsernameExists.
	Register(ctx context.Context, username, password string) (*domain.User, error)

	// Login verifies credentials and issues a new token pair.
	Login(ctx context.Context, username, password string) (*TokenPair, error)

	// Refresh rotates a refresh token: the presented token is revoked and a
	// new pair is issued in the same transaction.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)

	// Logout revokes a refresh token. Unknown tokens are not an error.
	Logout(ctx context.Context, refreshToken string) error

	// CurrentUser resolves the active user an access token was issued to.
	CurrentUser(ctx context.Context, accessToken string) (*domain.User, error)
}

type authServiceImpl struct {
	db       *sql.DB
	creds    store.CredentialStore
	jwt      auth.JWTService
	verifier auth.PasswordVerifier
	timeFunc func() time.Time
	logger   *slog.Logger
}

// NewAuthService creates an AuthService.
// It returns an error if any of the required dependencies are nil.
func NewAuthService(
	db *sql.DB,
	creds store.CredentialStore,
	jwtService auth.JWTService,
	verifier auth.PasswordVerifier,
	logger *slog.Logger,
) (AuthService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if creds == nil {
		return nil, domain.NewValidationError("creds", "cannot be nil", domain.ErrValidation)
	}
	if jwtService == nil {
		return nil, domain.NewValidationError("jwtService", "cannot be nil", domain.ErrValidation)
	}
	if verifier == nil {
		return nil, domain.NewValidationError("verifier", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &authServiceImpl{
		db:       db,
		creds:    creds,
		jwt:      jwtService,
		verifier: verifier,
		timeFunc: time.Now,
		logger:   logger.With(slog.String("component", "auth_service")),
	}, nil
}

// Register implements AuthService.Register
func (s *authServiceImpl) Register(ctx context.Context, username, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	username = strings.TrimSpace(username)

	if err := domain.ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	var user *domain.User
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		creds := s.creds.WithTx(tx)

		existing, err := creds.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return store.ErrUsernameExists
		}

		// The unique index still decides races between concurrent registrations.
		user, err = creds.CreateUser(ctx, username, password)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			log.Debug("registration rejected: username taken")
			return nil, store.ErrUsernameExists
		}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return nil, err
		}
		log.Error("failed to register user", slog.String("error", err.Error()))
		return nil, NewServiceError("auth", "register", "failed to create user", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login implements AuthService.Login
func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.creds.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		log.Error("failed to look up user for login", slog.String("error", err.Error()))
		return nil, NewServiceError("auth", "login", "failed to look up user", err)
	}
	if user == nil || !user.IsActive {
		log.Debug("login rejected")
		return nil, ErrInvalidCredentials
	}
	if err := s.verifier.Compare(user.PasswordHash, password); err != nil {
		log.Debug("login rejected", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, s.creds, user)
	if err != nil {
		log.Error("failed to issue tokens", slog.String("error", err.Error()))
		return nil, NewServiceError("auth", "login", "failed to issue tokens", err)
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	return pair, nil
}

// Refresh implements AuthService.Refresh
// Rotation is revoke-then-insert inside one transaction. A token revoked by a
// concurrent refresh fails here instead of yielding a second pair.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	claims, err := s.jwt.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		log.Debug("refresh rejected: token failed validation", slog.String("reason", err.Error()))
		return nil, ErrInvalidToken
	}

	var pair *TokenPair
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		creds := s.creds.WithTx(tx)

		record, err := creds.GetRefreshToken(ctx, refreshToken)
		if err != nil {
			return err
		}
		if record == nil || record.Expired(s.timeFunc()) || !claimsMatchRecord(claims, record) {
			return ErrInvalidToken
		}

		user, err := creds.GetByID(ctx, record.UserID)
		if err != nil {
			return err
		}
		if user == nil || !user.IsActive {
			return ErrInvalidToken
		}

		revoked, err := creds.RevokeRefreshToken(ctx, refreshToken)
		if err != nil {
			return err
		}
		if !revoked {
			return ErrInvalidToken
		}

		pair, err = s.issue(ctx, creds, user)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			log.Debug("refresh rejected: token not usable", slog.String("user_id", claims.UserID.String()))
			return nil, ErrInvalidToken
		}
		log.Error("failed to rotate refresh token", slog.String("error", err.Error()))
		return nil, NewServiceError("auth", "refresh", "failed to rotate tokens", err)
	}

	log.Info("refresh token rotated", slog.String("user_id", claims.UserID.String()))
	return pair, nil
}

// Logout implements AuthService.Logout
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	revoked, err := s.creds.RevokeRefreshToken(ctx, refreshToken)
	if err != nil {
		log.Error("failed to revoke refresh token", slog.String("error", err.Error()))
		return NewServiceError("auth", "logout", "failed to revoke token", err)
	}
	log.Debug("logout processed", slog.Bool("revoked", revoked))
	return nil
}

// CurrentUser implements AuthService.CurrentUser
func (s *authServiceImpl) CurrentUser(ctx context.Context, accessToken string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	claims, err := s.jwt.ValidateToken(ctx, accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.creds.GetByID(ctx, claims.UserID)
	if err != nil {
		log.Error("failed to load user for access token", slog.String("error", err.Error()))
		return nil, NewServiceError("auth", "current_user", "failed to load user", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// refreshExpirySkew absorbs the whole-second precision of the exp claim.
const refreshExpirySkew = time.Second

// claimsMatchRecord reports whether a refresh token's claims agree with the
// stored record on subject and expiry.
func claimsMatchRecord(claims *auth.Claims, record *domain.RefreshToken) bool {
	if claims.Subject != claims.UserID.String() || record.UserID != claims.UserID {
		return false
	}
	drift := record.ExpiresAt.Sub(claims.ExpiresAt)
	return drift >= -refreshExpirySkew && drift <= refreshExpirySkew
}

// issue signs a token pair for user and stores the refresh token through creds.
func (s *authServiceImpl) issue(ctx context.Context, creds store.CredentialStore, user *domain.User) (*TokenPair, error) {
	access, err := s.jwt.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.jwt.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if _, err := creds.AddRefreshToken(ctx, user.ID, refresh, expiresAt); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
	}, nil
}
