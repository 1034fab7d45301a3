package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/store"
)

// Pagination bounds applied when the handler is built without explicit limits.
const (
	DefaultPageSize = store.DefaultPageLimit
	MaxPageSize     = 1000
)

// getPathUUID parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter. A missing or blank
// value returns nil.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an integer", domain.ErrValidation)
	}
	return &n, nil
}

// parseBookQuery reads filters, ordering and paging from the query string.
// Unknown sort values fall back to the defaults; an unknown genre is an error.
func parseBookQuery(r *http.Request, defaultLimit, maxLimit int) (store.BookQuery, error) {
	q := r.URL.Query()

	filter := store.BookFilter{
		Title:      strings.TrimSpace(q.Get("title")),
		AuthorName: strings.TrimSpace(q.Get("author")),
		Genre:      strings.TrimSpace(q.Get("genre")),
	}
	if _, _, err := filter.ParsedGenre(); err != nil {
		return store.BookQuery{}, err
	}

	var err error
	if filter.YearFrom, err = queryInt(r, "year_from"); err != nil {
		return store.BookQuery{}, err
	}
	if filter.YearTo, err = queryInt(r, "year_to"); err != nil {
		return store.BookQuery{}, err
	}

	skip, err := queryInt(r, "skip")
	if err != nil {
		return store.BookQuery{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return store.BookQuery{}, err
	}

	page := store.Page{Limit: defaultLimit}
	if skip != nil {
		page.Skip = *skip
	}
	if limit != nil && *limit > 0 {
		page.Limit = *limit
	}
	if page.Limit > maxLimit {
		page.Limit = maxLimit
	}

	return store.BookQuery{
		Filter: filter,
		Sort:   store.ParseBookSort(q.Get("sort_by"), q.Get("sort_order")),
		Page:   page.Normalize(),
	}, nil
}
