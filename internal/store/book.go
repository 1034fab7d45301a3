package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/domain"
)

// BookStore defines the interface for book persistence.
type BookStore interface {
	// Create resolves the draft's author by exact name, creating it when
	// absent, and inserts the book. Both steps share one transaction.
	Create(ctx context.Context, draft domain.BookDraft) (*domain.Book, error)

	// GetByID returns the book or nil if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)

	// Update applies a partial update. A patch naming an author resolves or
	// creates that author exactly as Create does.
	// Returns ErrBookNotFound if the book does not exist.
	Update(ctx context.Context, patch domain.BookPatch) (*domain.Book, error)

	// Delete removes the book and returns it.
	// Returns ErrBookNotFound if the book does not exist.
	Delete(ctx context.Context, id uuid.UUID) (*domain.Book, error)

	// ListByAuthor returns every book referencing the author.
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Book, error)

	// Query returns one page of books matching q's filters in q's order.
	// An unknown genre filter fails with a domain validation error.
	Query(ctx context.Context, q BookQuery) ([]*domain.Book, error)

	// WithTx returns a store bound to tx.
	WithTx(tx *sql.Tx) BookStore
}
