package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/platform/logger"
	"github.com/phrazzld/bookshelf-api/internal/store"
)

// CatalogService manages books and the authors they reference.
type CatalogService interface {
	// CreateBook stores a book, creating its author when the name is new.
	CreateBook(ctx context.Context, draft domain.BookDraft) (*domain.Book, error)

	// GetBook returns the book or store.ErrBookNotFound.
	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)

	// UpdateBook applies a partial update. When the book moves to another
	// author and its previous author has no books left, that author is removed.
	UpdateBook(ctx context.Context, patch domain.BookPatch) (*domain.Book, error)

	// DeleteBook removes the book and, if it was the last one, its author.
	DeleteBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)

	// ListBooks runs a filtered, sorted, paginated query.
	ListBooks(ctx context.Context, q store.BookQuery) ([]*domain.Book, error)

	// ListAuthors returns every author ordered by name.
	ListAuthors(ctx context.Context) ([]*domain.Author, error)

	// GetAuthor returns the author or store.ErrAuthorNotFound.
	GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error)

	// ImportFromCSV creates one book per data row of a CSV document.
	ImportFromCSV(ctx context.Context, r io.Reader) (*ImportResult, error)

	// ImportFromSpreadsheet creates one book per data row of the first sheet
	// of an XLSX workbook.
	ImportFromSpreadsheet(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type catalogServiceImpl struct {
	db      *sql.DB
	books   store.BookStore
	authors store.AuthorStore
	logger  *slog.Logger
}

// NewCatalogService creates a CatalogService.
// It returns an error if any of the required dependencies are nil.
func NewCatalogService(
	db *sql.DB,
	books store.BookStore,
	authors store.AuthorStore,
	logger *slog.Logger,
) (CatalogService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if books == nil {
		return nil, domain.NewValidationError("books", "cannot be nil", domain.ErrValidation)
	}
	if authors == nil {
		return nil, domain.NewValidationError("authors", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &catalogServiceImpl{
		db:      db,
		books:   books,
		authors: authors,
		logger:  logger.With(slog.String("component", "catalog_service")),
	}, nil
}

// CreateBook implements CatalogService.CreateBook
func (s *catalogServiceImpl) CreateBook(ctx context.Context, draft domain.BookDraft) (*domain.Book, error) {
	var book *domain.Book
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		book, err = s.books.WithTx(tx).Create(ctx, draft)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "create_book", "failed to create book", err)
	}
	return book, nil
}

// GetBook implements CatalogService.GetBook
func (s *catalogServiceImpl) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(ctx, "get_book", "failed to load book", err)
	}
	if book == nil {
		return nil, store.ErrBookNotFound
	}
	return book, nil
}

// UpdateBook implements CatalogService.UpdateBook
func (s *catalogServiceImpl) UpdateBook(ctx context.Context, patch domain.BookPatch) (*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Book
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		books := s.books.WithTx(tx)
		authors := s.authors.WithTx(tx)

		previous, err := books.GetByID(ctx, patch.ID)
		if err != nil {
			return err
		}
		if previous == nil {
			return store.ErrBookNotFound
		}

		updated, err = books.Update(ctx, patch)
		if err != nil {
			return err
		}

		if updated.AuthorID != previous.AuthorID {
			removed, err := removeAuthorIfOrphaned(ctx, books, authors, previous.AuthorID)
			if err != nil {
				return err
			}
			if removed {
				log.Info("previous author removed after update",
					slog.String("author_id", previous.AuthorID.String()))
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap(ctx, "update_book", "failed to update book", err)
	}
	return updated, nil
}

// DeleteBook implements CatalogService.DeleteBook
// Book removal and the author check share one transaction, and the author
// row is locked before its remaining books are counted.
func (s *catalogServiceImpl) DeleteBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		deleted       *domain.Book
		authorRemoved bool
	)
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		books := s.books.WithTx(tx)
		authors := s.authors.WithTx(tx)

		var err error
		deleted, err = books.Delete(ctx, id)
		if err != nil {
			return err
		}

		authorRemoved, err = removeAuthorIfOrphaned(ctx, books, authors, deleted.AuthorID)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, "delete_book", "failed to delete book", err)
	}

	log.Info("book deleted",
		slog.String("book_id", id.String()),
		slog.Bool("author_removed", authorRemoved))
	return deleted, nil
}

// ListBooks implements CatalogService.ListBooks
func (s *catalogServiceImpl) ListBooks(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	books, err := s.books.Query(ctx, q)
	if err != nil {
		return nil, s.wrap(ctx, "list_books", "failed to query books", err)
	}
	return books, nil
}

// ListAuthors implements CatalogService.ListAuthors
func (s *catalogServiceImpl) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	authors, err := s.authors.ListAll(ctx)
	if err != nil {
		return nil, s.wrap(ctx, "list_authors", "failed to list authors", err)
	}
	return authors, nil
}

// GetAuthor implements CatalogService.GetAuthor
func (s *catalogServiceImpl) GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	author, err := s.authors.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(ctx, "get_author", "failed to load author", err)
	}
	if author == nil {
		return nil, store.ErrAuthorNotFound
	}
	return author, nil
}

// removeAuthorIfOrphaned deletes the author when no book references it.
// The stores must be bound to the caller's transaction.
func removeAuthorIfOrphaned(
	ctx context.Context,
	books store.BookStore,
	authors store.AuthorStore,
	authorID uuid.UUID,
) (bool, error) {
	author, err := authors.GetByIDForUpdate(ctx, authorID)
	if err != nil || author == nil {
		return false, err
	}

	remaining, err := books.ListByAuthor(ctx, authorID)
	if err != nil {
		return false, err
	}
	if len(remaining) > 0 {
		return false, nil
	}

	removed, err := authors.Delete(ctx, authorID)
	if err != nil {
		return false, err
	}
	return removed != nil, nil
}

// wrap passes expected errors through and wraps unexpected ones in a
// ServiceError after logging them.
func (s *catalogServiceImpl) wrap(ctx context.Context, op, message string, err error) error {
	if isExpected(err) {
		return err
	}
	logger.FromContextOrDefault(ctx, s.logger).Error(message,
		slog.String("operation", op),
		slog.String("error", err.Error()))
	return NewServiceError("catalog", op, message, err)
}

// isExpected reports whether err belongs to the caller-facing taxonomy and
// can be returned unchanged.
func isExpected(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		store.IsNotFoundError(err) ||
		store.IsDuplicateError(err)
}
