package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/phrazzld/bookshelf-api/internal/api/shared"
	"github.com/phrazzld/bookshelf-api/internal/config"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/service"
)

// DefaultMaxImportBytes bounds an import upload when no limit is configured.
const DefaultMaxImportBytes int64 = 10 << 20

// importFormFile is the multipart field that carries the import file.
const importFormFile = "file"

// BookHandler serves the /books endpoints.
type BookHandler struct {
	catalog         service.CatalogService
	defaultPageSize int
	maxPageSize     int
	maxImportBytes  int64
}

// NewBookHandler creates a new BookHandler. Zero limits in cfg fall back to
// the package defaults.
func NewBookHandler(catalog service.CatalogService, cfg config.CatalogConfig) *BookHandler {
	h := &BookHandler{
		catalog:         catalog,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
		maxImportBytes:  cfg.MaxImportBytes,
	}
	if h.maxPageSize <= 0 {
		h.maxPageSize = MaxPageSize
	}
	if h.defaultPageSize <= 0 || h.defaultPageSize > h.maxPageSize {
		h.defaultPageSize = min(DefaultPageSize, h.maxPageSize)
	}
	if h.maxImportBytes <= 0 {
		h.maxImportBytes = DefaultMaxImportBytes
	}
	return h
}

// ListBooks handles GET /books.
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	query, err := parseBookQuery(r, h.defaultPageSize, h.maxPageSize)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	books, err := h.catalog.ListBooks(r.Context(), query)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, booksToResponse(books))
}

// GetBook handles GET /books/{id}.
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	book, err := h.catalog.GetBook(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, bookToResponse(book))
}

// CreateBook handles POST /books. An author that does not exist yet is
// created with the book.
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	genres, err := domain.ParseGenres(req.Genres)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	draft, err := domain.NewBookDraft(req.Title, req.PublishedYear, req.Author.Name, genres)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	book, err := h.catalog.CreateBook(r.Context(), draft)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, bookToResponse(book))
}

// UpdateBook handles PUT /books/{id}.
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateBookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.ID != nil && *req.ID != id {
		HandleAPIError(w, r, domain.NewValidationError("id", "does not match the path", domain.ErrInvalidID), "")
		return
	}

	patch := domain.BookPatch{
		ID:            id,
		Title:         req.Title,
		PublishedYear: req.PublishedYear,
	}
	if req.Author != nil {
		patch.AuthorName = &req.Author.Name
	}
	if req.Genres != nil {
		if patch.Genres, err = domain.ParseGenres(req.Genres); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	}

	book, err := h.catalog.UpdateBook(r.Context(), patch)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, bookToResponse(book))
}

// DeleteBook handles DELETE /books/{id}. The author goes too when this was
// their last book.
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if _, err := h.catalog.DeleteBook(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportBooks handles POST /books/import. The upload is a multipart form
// with a .csv or .xlsx file in the "file" field. Rows that fail are reported
// in the body; the request itself only fails for an unreadable file.
func (h *BookHandler) ImportBooks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImportBytes)
	if err := r.ParseMultipartForm(h.maxImportBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.RespondWithErrorAndLog(w, r, http.StatusRequestEntityTooLarge, "Import file too large", err)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(importFormFile)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "File is required", err,
			shared.WithField(importFormFile))
		return
	}
	defer func() { _ = file.Close() }()

	var result *service.ImportResult
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		result, err = h.catalog.ImportFromCSV(r.Context(), file)
	case ".xlsx":
		result, err = h.catalog.ImportFromSpreadsheet(r.Context(), file)
	default:
		shared.RespondWithError(w, r, http.StatusBadRequest, "File must be CSV or XLSX",
			shared.WithField(importFormFile))
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, importResultToResponse(result))
}
