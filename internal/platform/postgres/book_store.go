package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/platform/logger"
	"github.com/phrazzld/bookshelf-api/internal/store"
)

// PostgresBookStore implements store.BookStore. Author resolution on write
// goes through the injected author store, bound to the same transaction.
type PostgresBookStore struct {
	db      store.DBTX
	authors store.AuthorStore
	logger  *slog.Logger
}

// NewPostgresBookStore creates a book store over db.
// If logger is nil, a default logger will be used.
func NewPostgresBookStore(db store.DBTX, authors store.AuthorStore, logger *slog.Logger) *PostgresBookStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if authors == nil {
		panic("authors cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresBookStore{
		db:      db,
		authors: authors,
		logger:  logger.With(slog.String("component", "book_store")),
	}
}

// Ensure PostgresBookStore implements store.BookStore interface
var _ store.BookStore = (*PostgresBookStore)(nil)

// WithTx implements store.BookStore.WithTx
func (s *PostgresBookStore) WithTx(tx *sql.Tx) store.BookStore {
	return s.withTx(tx)
}

func (s *PostgresBookStore) withTx(tx *sql.Tx) *PostgresBookStore {
	return &PostgresBookStore{
		db:      tx,
		authors: s.authors.WithTx(tx),
		logger:  s.logger,
	}
}

// inTx runs fn on a store bound to a transaction: the caller's, when this
// store already wraps one, or a new one otherwise.
func (s *PostgresBookStore) inTx(ctx context.Context, fn func(ctx context.Context, txs *PostgresBookStore) error) error {
	switch db := s.db.(type) {
	case *sql.Tx:
		return fn(ctx, s)
	case *sql.DB:
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return fn(ctx, s.withTx(tx))
		})
	default:
		return fmt.Errorf("book store cannot open a transaction on %T", s.db)
	}
}

// Create implements store.BookStore.Create
func (s *PostgresBookStore) Create(ctx context.Context, draft domain.BookDraft) (*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Book
	err := s.inTx(ctx, func(ctx context.Context, txs *PostgresBookStore) error {
		author, err := txs.resolveAuthor(ctx, draft.AuthorName)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO books (id, title, published_year, author_id, genres)
			VALUES ($1, $2, $3, $4, ($5::text)::text[])
			RETURNING id, title, published_year, author_id, genres::text
		`
		created, err = scanBook(txs.db.QueryRowContext(ctx, query,
			uuid.New(),
			draft.Title,
			draft.PublishedYear,
			author.ID,
			genreArray(draft.Genres),
		))
		if err != nil {
			log.Error("failed to insert book",
				slog.String("error", err.Error()),
				slog.String("author_id", author.ID.String()))
			return store.NewStoreError("book", "create", "failed to insert book", MapError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("book created",
		slog.String("book_id", created.ID.String()),
		slog.String("author_id", created.AuthorID.String()))
	return created, nil
}

// resolveAuthor returns the author with this name, creating it if needed.
// It must run on a transaction-bound store. A concurrent insert of the same
// name is absorbed with a savepoint and a second lookup.
func (s *PostgresBookStore) resolveAuthor(ctx context.Context, name string) (*domain.Author, error) {
	author, err := s.authors.GetByNameForShare(ctx, name)
	if err != nil || author != nil {
		return author, err
	}

	if _, err := s.db.ExecContext(ctx, "SAVEPOINT resolve_author"); err != nil {
		return nil, store.NewStoreError("author", "resolve", "failed to set savepoint", err)
	}

	author, err = s.authors.Create(ctx, name)
	if errors.Is(err, store.ErrAuthorExists) {
		if _, rbErr := s.db.ExecContext(ctx, "ROLLBACK TO SAVEPOINT resolve_author"); rbErr != nil {
			return nil, store.NewStoreError("author", "resolve", "failed to roll back to savepoint", rbErr)
		}
		author, err = s.authors.GetByNameForShare(ctx, name)
		if err == nil && author == nil {
			err = store.NewStoreError("author", "resolve", "author vanished after concurrent insert", store.ErrAuthorNotFound)
		}
		return author, err
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, "RELEASE SAVEPOINT resolve_author"); err != nil {
		return nil, store.NewStoreError("author", "resolve", "failed to release savepoint", err)
	}
	return author, nil
}

// GetByID implements store.BookStore.GetByID
func (s *PostgresBookStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	return s.getOne(ctx, "get_by_id", `SELECT `+bookColumns+` FROM books b WHERE b.id = $1`, id)
}

// Update implements store.BookStore.Update
func (s *PostgresBookStore) Update(ctx context.Context, patch domain.BookPatch) (*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Book
	err := s.inTx(ctx, func(ctx context.Context, txs *PostgresBookStore) error {
		current, err := txs.getOne(ctx, "update",
			`SELECT `+bookColumns+` FROM books b WHERE b.id = $1 FOR UPDATE`, patch.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return store.ErrBookNotFound
		}

		merged := patch.Apply(*current)
		if patch.AuthorName != nil {
			author, err := txs.resolveAuthor(ctx, *patch.AuthorName)
			if err != nil {
				return err
			}
			merged.AuthorID = author.ID
		}

		query := `
			UPDATE books
			SET title = $2, published_year = $3, author_id = $4, genres = ($5::text)::text[]
			WHERE id = $1
			RETURNING id, title, published_year, author_id, genres::text
		`
		updated, err = scanBook(txs.db.QueryRowContext(ctx, query,
			merged.ID,
			merged.Title,
			merged.PublishedYear,
			merged.AuthorID,
			genreArray(merged.Genres),
		))
		if err != nil {
			log.Error("failed to update book",
				slog.String("error", err.Error()),
				slog.String("book_id", patch.ID.String()))
			return store.NewStoreError("book", "update", "failed to update book", MapError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("book updated", slog.String("book_id", updated.ID.String()))
	return updated, nil
}

// Delete implements store.BookStore.Delete
func (s *PostgresBookStore) Delete(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	book, err := s.getOne(ctx, "delete",
		`DELETE FROM books b WHERE b.id = $1 RETURNING `+bookColumns, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, store.ErrBookNotFound
	}

	log.Info("book deleted",
		slog.String("book_id", id.String()),
		slog.String("author_id", book.AuthorID.String()))
	return book, nil
}

// ListByAuthor implements store.BookStore.ListByAuthor
func (s *PostgresBookStore) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.author_id = $1 ORDER BY b.title, b.id`
	return s.list(ctx, "list_by_author", query, authorID)
}

// Query implements store.BookStore.Query
func (s *PostgresBookStore) Query(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	genre, hasGenre, err := q.Filter.ParsedGenre()
	if err != nil {
		return nil, err
	}

	query, args := buildBookQuery(q, genre, hasGenre)
	logger.FromContextOrDefault(ctx, s.logger).Debug("querying books",
		slog.Int("predicates", len(args)-2),
		slog.String("sort_by", string(q.Sort.Normalize().Field)))
	return s.list(ctx, "query", query, args...)
}

func (s *PostgresBookStore) list(ctx context.Context, op, query string, args ...any) ([]*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("book query failed", slog.String("operation", op), slog.String("error", err.Error()))
		return nil, store.NewStoreError("book", op, "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	books := []*domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, store.NewStoreError("book", op, "failed to scan book", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("book", op, "failed to iterate books", err)
	}
	return books, nil
}

func (s *PostgresBookStore) getOne(ctx context.Context, op, query string, arg any) (*domain.Book, error) {
	book, err := scanBook(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("book query failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("book", op, "query failed", MapError(err))
	}
	return book, nil
}

func scanBook(row rowScanner) (*domain.Book, error) {
	var (
		b      domain.Book
		genres []string
	)
	if err := row.Scan(&b.ID, &b.Title, &b.PublishedYear, &b.AuthorID, pq.Array(&genres)); err != nil {
		return nil, err
	}
	b.Genres = make([]domain.Genre, len(genres))
	for i, g := range genres {
		b.Genres[i] = domain.Genre(g)
	}
	return &b, nil
}

// genreArray encodes genres as a PostgreSQL array literal.
func genreArray(genres []domain.Genre) any {
	v, _ := pq.Array(domain.GenreStrings(genres)).Value()
	return v
}
