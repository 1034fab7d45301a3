package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/config"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/service"
	"github.com/phrazzld/bookshelf-api/internal/store"
)

// MockAuthService is a function-field implementation of service.AuthService.
type MockAuthService struct {
	RegisterFn    func(ctx context.Context, username, password string) (*domain.User, error)
	LoginFn       func(ctx context.Context, username, password string) (*service.TokenPair, error)
	RefreshFn     func(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	LogoutFn      func(ctx context.Context, refreshToken string) error
	CurrentUserFn func(ctx context.Context, accessToken string) (*domain.User, error)
}

var _ service.AuthService = (*MockAuthService)(nil)

func (m *MockAuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return m.RegisterFn(ctx, username, password)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*service.TokenPair, error) {
	return m.LoginFn(ctx, username, password)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	return m.RefreshFn(ctx, refreshToken)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	return m.LogoutFn(ctx, refreshToken)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, accessToken string) (*domain.User, error) {
	return m.CurrentUserFn(ctx, accessToken)
}

// MockCatalogService is a function-field implementation of service.CatalogService.
type MockCatalogService struct {
	CreateBookFn            func(ctx context.Context, draft domain.BookDraft) (*domain.Book, error)
	GetBookFn               func(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	UpdateBookFn            func(ctx context.Context, patch domain.BookPatch) (*domain.Book, error)
	DeleteBookFn            func(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	ListBooksFn             func(ctx context.Context, q store.BookQuery) ([]*domain.Book, error)
	ListAuthorsFn           func(ctx context.Context) ([]*domain.Author, error)
	GetAuthorFn             func(ctx context.Context, id uuid.UUID) (*domain.Author, error)
	ImportFromCSVFn         func(ctx context.Context, r io.Reader) (*service.ImportResult, error)
	ImportFromSpreadsheetFn func(ctx context.Context, r io.Reader) (*service.ImportResult, error)
}

var _ service.CatalogService = (*MockCatalogService)(nil)

func (m *MockCatalogService) CreateBook(ctx context.Context, draft domain.BookDraft) (*domain.Book, error) {
	return m.CreateBookFn(ctx, draft)
}

func (m *MockCatalogService) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	return m.GetBookFn(ctx, id)
}

func (m *MockCatalogService) UpdateBook(ctx context.Context, patch domain.BookPatch) (*domain.Book, error) {
	return m.UpdateBookFn(ctx, patch)
}

func (m *MockCatalogService) DeleteBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	return m.DeleteBookFn(ctx, id)
}

func (m *MockCatalogService) ListBooks(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	return m.ListBooksFn(ctx, q)
}

func (m *MockCatalogService) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	return m.ListAuthorsFn(ctx)
}

func (m *MockCatalogService) GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	return m.GetAuthorFn(ctx, id)
}

func (m *MockCatalogService) ImportFromCSV(ctx context.Context, r io.Reader) (*service.ImportResult, error) {
	return m.ImportFromCSVFn(ctx, r)
}

func (m *MockCatalogService) ImportFromSpreadsheet(ctx context.Context, r io.Reader) (*service.ImportResult, error) {
	return m.ImportFromSpreadsheetFn(ctx, r)
}

// newTestRouter mounts the handlers the way the server does, minus auth.
func newTestRouter(authSvc service.AuthService, catalog service.CatalogService, cfg config.CatalogConfig) http.Handler {
	r := chi.NewRouter()
	if authSvc != nil {
		h := NewAuthHandler(authSvc)
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.RefreshToken)
		r.Post("/auth/logout", h.Logout)
	}
	if catalog != nil {
		books := NewBookHandler(catalog, cfg)
		r.Get("/books", books.ListBooks)
		r.Post("/books", books.CreateBook)
		r.Post("/books/import", books.ImportBooks)
		r.Get("/books/{id}", books.GetBook)
		r.Put("/books/{id}", books.UpdateBook)
		r.Delete("/books/{id}", books.DeleteBook)

		authors := NewAuthorHandler(catalog)
		r.Get("/authors", authors.ListAuthors)
		r.Get("/authors/{id}", authors.GetAuthor)
	}
	return r
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
