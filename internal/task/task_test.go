package task

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/bookshelf-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthorStore records DeleteOrphaned calls; other methods are unused.
type fakeAuthorStore struct {
	store.AuthorStore
	deleted int64
	err     error
	calls   int
}

func (f *fakeAuthorStore) DeleteOrphaned(ctx context.Context) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

func (f *fakeAuthorStore) WithTx(*sql.Tx) store.AuthorStore { return f }

type fakeCredentialStore struct {
	store.CredentialStore
	before time.Time
}

func (f *fakeCredentialStore) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	f.before = before
	return 2, nil
}

func TestOrphanedAuthorsTask(t *testing.T) {
	t.Parallel()

	authors := &fakeAuthorStore{deleted: 3}
	task := NewOrphanedAuthorsTask(authors)
	assert.Equal(t, TaskTypeOrphanedAuthors, task.Type())
	require.NoError(t, task.Execute(context.Background()))
	assert.Equal(t, 1, authors.calls)

	boom := errors.New("foreign key violation")
	authors.err = boom
	assert.ErrorIs(t, task.Execute(context.Background()), boom)
}

func TestExpiredRefreshTokensTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	creds := &fakeCredentialStore{}
	task := NewExpiredRefreshTokensTask(creds)
	task.timeFunc = func() time.Time { return now }

	assert.Equal(t, TaskTypeExpiredRefreshTokens, task.Type())
	require.NoError(t, task.Execute(context.Background()))
	assert.Equal(t, now, creds.before)
}
