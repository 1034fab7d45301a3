package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/service"
)

// CredentialsRequest is the payload of the register and login endpoints.
// Length rules live in domain.ValidateCredentials; the tags only reject
// obviously malformed bodies.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest carries a refresh token for rotation or logout.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse is the public view of a registered account.
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsActive bool      `json:"is_active"`
}

// TokenResponse is the token pair returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AuthorRequest names a book's author.
type AuthorRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateBookRequest is the payload of POST /books.
type CreateBookRequest struct {
	Title         string        `json:"title"          validate:"required"`
	PublishedYear int           `json:"published_year" validate:"required"`
	Author        AuthorRequest `json:"author"`
	Genres        []string      `json:"genres"         validate:"required,min=1"`
}

// UpdateBookRequest is the payload of PUT /books/{id}. Absent fields are left
// unchanged. The path ID wins; a body ID that disagrees is rejected.
type UpdateBookRequest struct {
	ID            *uuid.UUID     `json:"id,omitempty"`
	Title         *string        `json:"title,omitempty"`
	PublishedYear *int           `json:"published_year,omitempty"`
	Author        *AuthorRequest `json:"author,omitempty"`
	Genres        []string       `json:"genres,omitempty"`
}

// BookResponse is the public view of a book.
type BookResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	PublishedYear int       `json:"published_year"`
	AuthorID      uuid.UUID `json:"author_id"`
	Genres        []string  `json:"genres"`
}

// AuthorResponse is the public view of an author.
type AuthorResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ImportResponse reports the outcome of a bulk import.
type ImportResponse struct {
	ImportedCount int                 `json:"imported_count"`
	FailedCount   int                 `json:"failed_count"`
	FailedRows    []service.FailedRow `json:"failed_rows"`
	Books         []BookResponse      `json:"books"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, IsActive: u.IsActive}
}

func tokenPairToResponse(p *service.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
	}
}

func bookToResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		PublishedYear: b.PublishedYear,
		AuthorID:      b.AuthorID,
		Genres:        domain.GenreStrings(b.Genres),
	}
}

func booksToResponse(books []*domain.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, bookToResponse(b))
	}
	return out
}

func authorToResponse(a *domain.Author) AuthorResponse {
	return AuthorResponse{ID: a.ID, Name: a.Name}
}

func importResultToResponse(res *service.ImportResult) ImportResponse {
	failed := res.FailedRows
	if failed == nil {
		failed = []service.FailedRow{}
	}
	return ImportResponse{
		ImportedCount: res.ImportedCount,
		FailedCount:   res.FailedCount,
		FailedRows:    failed,
		Books:         booksToResponse(res.Books),
	}
}
