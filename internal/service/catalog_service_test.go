package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	svc     CatalogService
	books   *MockBookStore
	authors *MockAuthorStore
}

func newCatalogFixture(t *testing.T) (*catalogFixture, sqlmock.Sqlmock) {
	t.Helper()
	db, sqlMock := newMockDB(t)
	books := &MockBookStore{}
	authors := &MockAuthorStore{}
	svc, err := NewCatalogService(db, books, authors, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		books.AssertExpectations(t)
		authors.AssertExpectations(t)
	})
	return &catalogFixture{svc: svc, books: books, authors: authors}, sqlMock
}

func TestNewCatalogService_RejectsNilDependencies(t *testing.T) {
	db, _ := newMockDB(t)

	_, err := NewCatalogService(nil, &MockBookStore{}, &MockAuthorStore{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewCatalogService(db, nil, &MockAuthorStore{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewCatalogService(db, &MockBookStore{}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCatalogService_DeleteBook_RemovesLastAuthor(t *testing.T) {
	f, db := newCatalogFixture(t)
	ctx := context.Background()
	bookID, authorID := uuid.New(), uuid.New()
	book := &domain.Book{ID: bookID, Title: "Dune", PublishedYear: 1965, AuthorID: authorID}

	db.ExpectBegin()
	f.books.On("Delete", mock.Anything, bookID).Return(book, nil)
	f.authors.On("GetByIDForUpdate", mock.Anything, authorID).
		Return(&domain.Author{ID: authorID, Name: "Frank Herbert"}, nil)
	f.books.On("ListByAuthor", mock.Anything, authorID).Return([]*domain.Book{}, nil)
	f.authors.On("Delete", mock.Anything, authorID).
		Return(&domain.Author{ID: authorID, Name: "Frank Herbert"}, nil)
	db.ExpectCommit()

	deleted, err := f.svc.DeleteBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, bookID, deleted.ID)
}

func TestCatalogService_DeleteBook_KeepsAuthorWithOtherBooks(t *testing.T) {
	f, db := newCatalogFixture(t)
	ctx := context.Background()
	bookID, authorID := uuid.New(), uuid.New()

	db.ExpectBegin()
	f.books.On("Delete", mock.Anything, bookID).
		Return(&domain.Book{ID: bookID, AuthorID: authorID}, nil)
	f.authors.On("GetByIDForUpdate", mock.Anything, authorID).
		Return(&domain.Author{ID: authorID, Name: "Frank Herbert"}, nil)
	f.books.On("ListByAuthor", mock.Anything, authorID).
		Return([]*domain.Book{{ID: uuid.New(), AuthorID: authorID}}, nil)
	db.ExpectCommit()

	_, err := f.svc.DeleteBook(ctx, bookID)
	require.NoError(t, err)
	f.authors.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCatalogService_DeleteBook_NotFoundRollsBack(t *testing.T) {
	f, db := newCatalogFixture(t)
	bookID := uuid.New()

	db.ExpectBegin()
	f.books.On("Delete", mock.Anything, bookID).Return(nil, store.ErrBookNotFound)
	db.ExpectRollback()

	_, err := f.svc.DeleteBook(context.Background(), bookID)
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func TestCatalogService_DeleteBook_AuthorDeleteFailureRollsBack(t *testing.T) {
	f, db := newCatalogFixture(t)
	bookID, authorID := uuid.New(), uuid.New()
	boom := errors.New("connection lost")

	db.ExpectBegin()
	f.books.On("Delete", mock.Anything, bookID).Return(&domain.Book{ID: bookID, AuthorID: authorID}, nil)
	f.authors.On("GetByIDForUpdate", mock.Anything, authorID).Return(&domain.Author{ID: authorID}, nil)
	f.books.On("ListByAuthor", mock.Anything, authorID).Return([]*domain.Book{}, nil)
	f.authors.On("Delete", mock.Anything, authorID).Return(nil, boom)
	db.ExpectRollback()

	_, err := f.svc.DeleteBook(context.Background(), bookID)
	assert.ErrorIs(t, err, boom)
	var svcErr *ServiceError
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "delete_book", svcErr.Operation)
}

func TestCatalogService_UpdateBook_RemovesPreviousOrphanedAuthor(t *testing.T) {
	f, db := newCatalogFixture(t)
	bookID, oldAuthor, newAuthor := uuid.New(), uuid.New(), uuid.New()
	name := "Brian Herbert"
	patch := domain.BookPatch{ID: bookID, AuthorName: &name}

	db.ExpectBegin()
	f.books.On("GetByID", mock.Anything, bookID).Return(&domain.Book{ID: bookID, AuthorID: oldAuthor}, nil)
	f.books.On("Update", mock.Anything, patch).Return(&domain.Book{ID: bookID, AuthorID: newAuthor}, nil)
	f.authors.On("GetByIDForUpdate", mock.Anything, oldAuthor).Return(&domain.Author{ID: oldAuthor}, nil)
	f.books.On("ListByAuthor", mock.Anything, oldAuthor).Return([]*domain.Book{}, nil)
	f.authors.On("Delete", mock.Anything, oldAuthor).Return(&domain.Author{ID: oldAuthor}, nil)
	db.ExpectCommit()

	updated, err := f.svc.UpdateBook(context.Background(), patch)
	require.NoError(t, err)
	assert.Equal(t, newAuthor, updated.AuthorID)
}

func TestCatalogService_UpdateBook_SameAuthorSkipsCleanup(t *testing.T) {
	f, db := newCatalogFixture(t)
	bookID, authorID := uuid.New(), uuid.New()
	title := "Dune Messiah"
	patch := domain.BookPatch{ID: bookID, Title: &title}

	db.ExpectBegin()
	f.books.On("GetByID", mock.Anything, bookID).Return(&domain.Book{ID: bookID, AuthorID: authorID}, nil)
	f.books.On("Update", mock.Anything, patch).
		Return(&domain.Book{ID: bookID, Title: title, AuthorID: authorID}, nil)
	db.ExpectCommit()

	updated, err := f.svc.UpdateBook(context.Background(), patch)
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
}

func TestCatalogService_UpdateBook_NotFound(t *testing.T) {
	f, db := newCatalogFixture(t)
	bookID := uuid.New()

	db.ExpectBegin()
	f.books.On("GetByID", mock.Anything, bookID).Return(nil, nil)
	db.ExpectRollback()

	_, err := f.svc.UpdateBook(context.Background(), domain.BookPatch{ID: bookID})
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func TestCatalogService_GetBookAndAuthor_NotFound(t *testing.T) {
	f, _ := newCatalogFixture(t)
	id := uuid.New()

	f.books.On("GetByID", mock.Anything, id).Return(nil, nil)
	f.authors.On("GetByID", mock.Anything, id).Return(nil, nil)

	_, err := f.svc.GetBook(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrBookNotFound)
	_, err = f.svc.GetAuthor(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrAuthorNotFound)
}

func TestCatalogService_ListBooks_PassesValidationThrough(t *testing.T) {
	f, _ := newCatalogFixture(t)
	q := store.BookQuery{Filter: store.BookFilter{Genre: "Poetry"}}
	_, genreErr := domain.ParseGenre("Poetry")

	f.books.On("Query", mock.Anything, q).Return(nil, genreErr)

	_, err := f.svc.ListBooks(context.Background(), q)
	assert.ErrorIs(t, err, domain.ErrInvalidGenre)
	var svcErr *ServiceError
	assert.False(t, errors.As(err, &svcErr), "validation errors are not wrapped")
}

func TestCatalogService_CreateBook_CommitsTransaction(t *testing.T) {
	f, db := newCatalogFixture(t)
	draft, err := domain.NewBookDraft("Dune", 1965, "Frank Herbert", []domain.Genre{domain.GenreScienceFiction})
	require.NoError(t, err)

	db.ExpectBegin()
	f.books.On("Create", mock.Anything, draft).Return(&domain.Book{ID: uuid.New(), Title: "Dune"}, nil)
	db.ExpectCommit()

	book, err := f.svc.CreateBook(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
}
