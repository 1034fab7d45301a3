package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/bookshelf-api/internal/api/shared"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/service"
	"github.com/phrazzld/bookshelf-api/internal/service/auth"
	"github.com/phrazzld/bookshelf-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid token", service.ErrInvalidToken, http.StatusUnauthorized},
		{"expired jwt", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"book not found", store.ErrBookNotFound, http.StatusNotFound},
		{"wrapped author not found", fmt.Errorf("get: %w", store.ErrAuthorNotFound), http.StatusNotFound},
		{"username exists", store.ErrUsernameExists, http.StatusConflict},
		{"validation", domain.NewValidationError("title", "cannot be empty", nil), http.StatusBadRequest},
		{"malformed import", domain.NewValidationError("file", "is empty", domain.ErrMalformedInput), http.StatusBadRequest},
		{"integrity violation", store.ErrInvalidEntity, http.StatusBadRequest},
		{"service failure", service.NewServiceError("catalog", "create_book", "failed", errors.New("boom")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "title cannot be empty",
		GetSafeErrorMessage(domain.NewValidationError("title", "cannot be empty", nil)))
	assert.Equal(t, "Book not found", GetSafeErrorMessage(store.ErrBookNotFound))
	assert.Equal(t, "Username already exists", GetSafeErrorMessage(store.ErrUsernameExists))
	assert.Equal(t, "Invalid username or password", GetSafeErrorMessage(service.ErrInvalidCredentials))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))

	leaky := fmt.Errorf("pq: relation \"books\" at postgres://u:p@db: %w", errors.New("boom"))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(leaky))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := shared.ValidateRequest(CredentialsRequest{Username: "reader"})
	require.Error(t, err)
	assert.Equal(t, "Invalid Password: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}

func TestHandleAPIError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/books", nil)
	HandleAPIError(rec, req, domain.NewValidationError("published_year", "must be between 1800 and 2026", nil), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "published_year", body.Field)
	assert.Contains(t, body.Error, "published_year")

	rec = httptest.NewRecorder()
	HandleAPIError(rec, req, errors.New("dial tcp 10.0.0.1:5432: refused"), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")

	rec = httptest.NewRecorder()
	HandleAPIError(rec, req, store.ErrBookNotFound, "Nothing here")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nothing here")
}
