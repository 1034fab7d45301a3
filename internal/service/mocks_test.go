package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/service/auth"
	"github.com/phrazzld/bookshelf-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookStore mocks store.BookStore. WithTx returns the mock itself so
// expectations hold inside transactions.
type MockBookStore struct {
	mock.Mock
}

func (m *MockBookStore) Create(ctx context.Context, draft domain.BookDraft) (*domain.Book, error) {
	args := m.Called(ctx, draft)
	if fn, ok := args.Get(0).(func(context.Context, domain.BookDraft) *domain.Book); ok {
		return fn(ctx, draft), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockBookStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockBookStore) Update(ctx context.Context, patch domain.BookPatch) (*domain.Book, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockBookStore) Delete(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockBookStore) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Book, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Book), args.Error(1)
}

func (m *MockBookStore) Query(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Book), args.Error(1)
}

func (m *MockBookStore) WithTx(tx *sql.Tx) store.BookStore {
	return m
}

// MockAuthorStore mocks store.AuthorStore.
type MockAuthorStore struct {
	mock.Mock
}

func (m *MockAuthorStore) authorResult(args mock.Arguments) (*domain.Author, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Author), args.Error(1)
}

func (m *MockAuthorStore) Create(ctx context.Context, name string) (*domain.Author, error) {
	return m.authorResult(m.Called(ctx, name))
}

func (m *MockAuthorStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	return m.authorResult(m.Called(ctx, id))
}

func (m *MockAuthorStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	return m.authorResult(m.Called(ctx, id))
}

func (m *MockAuthorStore) GetByName(ctx context.Context, name string) (*domain.Author, error) {
	return m.authorResult(m.Called(ctx, name))
}

func (m *MockAuthorStore) GetByNameForShare(ctx context.Context, name string) (*domain.Author, error) {
	return m.authorResult(m.Called(ctx, name))
}

func (m *MockAuthorStore) Delete(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	return m.authorResult(m.Called(ctx, id))
}

func (m *MockAuthorStore) ListAll(ctx context.Context) ([]*domain.Author, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Author), args.Error(1)
}

func (m *MockAuthorStore) DeleteOrphaned(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuthorStore) WithTx(tx *sql.Tx) store.AuthorStore {
	return m
}

// MockCredentialStore mocks store.CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) userResult(args mock.Arguments) (*domain.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockCredentialStore) CreateUser(ctx context.Context, username, password string) (*domain.User, error) {
	return m.userResult(m.Called(ctx, username, password))
}

func (m *MockCredentialStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.userResult(m.Called(ctx, username))
}

func (m *MockCredentialStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.userResult(m.Called(ctx, id))
}

func (m *MockCredentialStore) AddRefreshToken(
	ctx context.Context,
	userID uuid.UUID,
	token string,
	expiresAt time.Time,
) (*domain.RefreshToken, error) {
	args := m.Called(ctx, userID, token, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *MockCredentialStore) RevokeRefreshToken(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *MockCredentialStore) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCredentialStore) WithTx(tx *sql.Tx) store.CredentialStore {
	return m
}

// MockJWTService mocks auth.JWTService.
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

func (m *MockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

// MockPasswordVerifier mocks auth.PasswordVerifier.
type MockPasswordVerifier struct {
	mock.Mock
}

func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	return m.Called(hashedPassword, password).Error(0)
}

// newMockDB returns a sqlmock-backed *sql.DB whose expectations are checked
// when the test ends.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}
