package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/domain"
)

// AuthorStore defines the interface for author persistence.
type AuthorStore interface {
	// Create inserts a new author with a fresh ID. It does not look for an
	// existing author of the same name; callers use GetByName for that.
	Create(ctx context.Context, name string) (*domain.Author, error)

	// GetByID returns the author or nil if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error)

	// GetByIDForUpdate is GetByID that also locks the row until the
	// surrounding transaction ends. Only meaningful on a store bound with WithTx.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Author, error)

	// GetByName returns the author with exactly this name or nil if absent.
	GetByName(ctx context.Context, name string) (*domain.Author, error)

	// GetByNameForShare is GetByName holding a key-share lock until the
	// transaction ends. A concurrent delete of the same author either waits
	// for this transaction or completes first, in which case this returns nil.
	GetByNameForShare(ctx context.Context, name string) (*domain.Author, error)

	// Delete removes the author unconditionally and returns the removed row,
	// or nil if there was none. Whether books still reference the author is
	// the caller's decision.
	Delete(ctx context.Context, id uuid.UUID) (*domain.Author, error)

	// ListAll returns every author ordered by name.
	ListAll(ctx context.Context) ([]*domain.Author, error)

	// DeleteOrphaned removes authors no book references and returns how many went.
	DeleteOrphaned(ctx context.Context) (int64, error)

	// WithTx returns a store bound to tx.
	WithTx(tx *sql.Tx) AuthorStore
}
