package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/platform/logger"
	"github.com/phrazzld/bookshelf-api/internal/store"
)

const authorColumns = `id, name`

// PostgresAuthorStore implements store.AuthorStore.
type PostgresAuthorStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAuthorStore creates an author store over db.
// If logger is nil, a default logger will be used.
func NewPostgresAuthorStore(db store.DBTX, logger *slog.Logger) *PostgresAuthorStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAuthorStore{
		db:     db,
		logger: logger.With(slog.String("component", "author_store")),
	}
}

// Ensure PostgresAuthorStore implements store.AuthorStore interface
var _ store.AuthorStore = (*PostgresAuthorStore)(nil)

// WithTx implements store.AuthorStore.WithTx
func (s *PostgresAuthorStore) WithTx(tx *sql.Tx) store.AuthorStore {
	return &PostgresAuthorStore{db: tx, logger: s.logger}
}

// Create implements store.AuthorStore.Create
// Returns store.ErrAuthorExists if the name is already taken.
func (s *PostgresAuthorStore) Create(ctx context.Context, name string) (*domain.Author, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	author, err := domain.NewAuthor(name)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO authors (id, name) VALUES ($1, $2) RETURNING ` + authorColumns
	created, err := scanAuthor(s.db.QueryRowContext(ctx, query, author.ID, author.Name))
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("author name already exists", slog.String("name", author.Name))
		} else {
			log.Error("failed to create author", slog.String("error", err.Error()))
		}
		return nil, mapUniqueViolation(err, store.ErrAuthorExists)
	}

	log.Debug("author created", slog.String("author_id", created.ID.String()))
	return created, nil
}

// GetByID implements store.AuthorStore.GetByID
func (s *PostgresAuthorStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	return s.getOne(ctx, "get_by_id", `SELECT `+authorColumns+` FROM authors WHERE id = $1`, id)
}

// GetByIDForUpdate implements store.AuthorStore.GetByIDForUpdate
func (s *PostgresAuthorStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	return s.getOne(ctx, "get_by_id_for_update", `SELECT `+authorColumns+` FROM authors WHERE id = $1 FOR UPDATE`, id)
}

// GetByName implements store.AuthorStore.GetByName
func (s *PostgresAuthorStore) GetByName(ctx context.Context, name string) (*domain.Author, error) {
	return s.getOne(ctx, "get_by_name", `SELECT `+authorColumns+` FROM authors WHERE name = $1`, strings.TrimSpace(name))
}

// GetByNameForShare implements store.AuthorStore.GetByNameForShare
func (s *PostgresAuthorStore) GetByNameForShare(ctx context.Context, name string) (*domain.Author, error) {
	return s.getOne(ctx, "get_by_name_for_share",
		`SELECT `+authorColumns+` FROM authors WHERE name = $1 FOR KEY SHARE`, strings.TrimSpace(name))
}

// Delete implements store.AuthorStore.Delete
// The foreign key from books still applies, so deleting a referenced author
// fails with store.ErrInvalidEntity.
func (s *PostgresAuthorStore) Delete(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	author, err := s.getOne(ctx, "delete", `DELETE FROM authors WHERE id = $1 RETURNING `+authorColumns, id)
	if err != nil {
		return nil, err
	}
	if author != nil {
		log.Info("author deleted", slog.String("author_id", id.String()))
	}
	return author, nil
}

// ListAll implements store.AuthorStore.ListAll
func (s *PostgresAuthorStore) ListAll(ctx context.Context) ([]*domain.Author, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT `+authorColumns+` FROM authors ORDER BY name, id`)
	if err != nil {
		log.Error("failed to list authors", slog.String("error", err.Error()))
		return nil, store.NewStoreError("author", "list", "failed to list authors", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	authors := []*domain.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, store.NewStoreError("author", "list", "failed to scan author", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("author", "list", "failed to iterate authors", err)
	}
	return authors, nil
}

// DeleteOrphaned implements store.AuthorStore.DeleteOrphaned
func (s *PostgresAuthorStore) DeleteOrphaned(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM authors a
		WHERE NOT EXISTS (SELECT 1 FROM books b WHERE b.author_id = a.id)
	`
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		log.Error("failed to delete orphaned authors", slog.String("error", err.Error()))
		return 0, store.NewStoreError("author", "delete_orphaned", "failed to delete orphaned authors", MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		log.Info("orphaned authors deleted", slog.Int64("count", n))
	}
	return n, nil
}

func (s *PostgresAuthorStore) getOne(ctx context.Context, op, query string, arg any) (*domain.Author, error) {
	author, err := scanAuthor(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("author query failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("author", op, "query failed", MapError(err))
	}
	return author, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuthor(row rowScanner) (*domain.Author, error) {
	var a domain.Author
	if err := row.Scan(&a.ID, &a.Name); err != nil {
		return nil, err
	}
	return &a, nil
}
