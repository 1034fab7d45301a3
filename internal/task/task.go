package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/bookshelf-api/internal/platform/logger"
	"github.com/phrazzld/bookshelf-api/internal/store"
)

// Task type constants
const (
	TaskTypeOrphanedAuthors      = "orphaned_authors"
	TaskTypeExpiredRefreshTokens = "expired_refresh_tokens"
)

// Task is a unit of periodic maintenance work.
type Task interface {
	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// OrphanedAuthorsTask deletes authors with no books.
type OrphanedAuthorsTask struct {
	authors store.AuthorStore
}

// NewOrphanedAuthorsTask creates an OrphanedAuthorsTask.
func NewOrphanedAuthorsTask(authors store.AuthorStore) *OrphanedAuthorsTask {
	return &OrphanedAuthorsTask{authors: authors}
}

// Type implements Task.
func (t *OrphanedAuthorsTask) Type() string { return TaskTypeOrphanedAuthors }

// Execute implements Task. A book inserted concurrently makes the delete fail
// on the foreign key; the next run retries.
func (t *OrphanedAuthorsTask) Execute(ctx context.Context) error {
	n, err := t.authors.DeleteOrphaned(ctx)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("orphaned authors swept", slog.Int64("deleted", n))
	return nil
}

// ExpiredRefreshTokensTask deletes refresh tokens past their expiry.
type ExpiredRefreshTokensTask struct {
	creds    store.CredentialStore
	timeFunc func() time.Time
}

// NewExpiredRefreshTokensTask creates an ExpiredRefreshTokensTask.
func NewExpiredRefreshTokensTask(creds store.CredentialStore) *ExpiredRefreshTokensTask {
	return &ExpiredRefreshTokensTask{creds: creds, timeFunc: time.Now}
}

// Type implements Task.
func (t *ExpiredRefreshTokensTask) Type() string { return TaskTypeExpiredRefreshTokens }

// Execute implements Task.
func (t *ExpiredRefreshTokensTask) Execute(ctx context.Context) error {
	n, err := t.creds.DeleteExpiredRefreshTokens(ctx, t.timeFunc())
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("expired refresh tokens swept", slog.Int64("deleted", n))
	return nil
}
