package api

import (
	"net/http"

	"github.com/phrazzld/bookshelf-api/internal/api/shared"
	"github.com/phrazzld/bookshelf-api/internal/service"
)

// AuthorHandler serves the read-only /authors endpoints.
type AuthorHandler struct {
	catalog service.CatalogService
}

// NewAuthorHandler creates a new AuthorHandler.
func NewAuthorHandler(catalog service.CatalogService) *AuthorHandler {
	return &AuthorHandler{catalog: catalog}
}

// ListAuthors handles GET /authors.
func (h *AuthorHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.catalog.ListAuthors(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	out := make([]AuthorResponse, 0, len(authors))
	for _, a := range authors {
		out = append(out, authorToResponse(a))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// GetAuthor handles GET /authors/{id}.
func (h *AuthorHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	author, err := h.catalog.GetAuthor(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, authorToResponse(author))
}
