package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MinPublishedYear is the earliest publication year the catalog accepts.
const MinPublishedYear = 1800

// Book is a catalog entry. AuthorID always references an existing Author.
type Book struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	PublishedYear int       `json:"published_year"`
	AuthorID      uuid.UUID `json:"author_id"`
	Genres        []Genre   `json:"genres"`
}

// BookDraft carries everything needed to create a book. The author is named,
// not referenced: the store resolves or creates it.
type BookDraft struct {
	Title         string
	PublishedYear int
	AuthorName    string
	Genres        []Genre
}

// NewBookDraft trims and deduplicates its inputs and validates the result.
func NewBookDraft(title string, publishedYear int, authorName string, genres []Genre) (BookDraft, error) {
	return NewBookDraftAt(time.Now(), title, publishedYear, authorName, genres)
}

// NewBookDraftAt is NewBookDraft with the year bound taken from now.
func NewBookDraftAt(now time.Time, title string, publishedYear int, authorName string, genres []Genre) (BookDraft, error) {
	d := BookDraft{
		Title:         strings.TrimSpace(title),
		PublishedYear: publishedYear,
		AuthorName:    strings.TrimSpace(authorName),
		Genres:        uniqueGenres(genres),
	}
	if err := d.ValidateAt(now); err != nil {
		return BookDraft{}, err
	}
	return d, nil
}

// Validate checks every field of the draft.
func (d BookDraft) Validate() error {
	return d.ValidateAt(time.Now())
}

// ValidateAt checks every field of the draft against the year of now.
func (d BookDraft) ValidateAt(now time.Time) error {
	if err := validateTitle(d.Title); err != nil {
		return err
	}
	if err := validatePublishedYear(d.PublishedYear, now); err != nil {
		return err
	}
	if err := ValidateAuthorName(d.AuthorName); err != nil {
		return err
	}
	return validateGenres(d.Genres)
}

// BookPatch is a partial update. A nil pointer (or nil Genres slice) leaves
// the field unchanged; a present value is applied as given and must itself
// be valid, so an empty title or empty genre list is rejected rather than
// silently ignored.
type BookPatch struct {
	ID            uuid.UUID
	Title         *string
	PublishedYear *int
	AuthorName    *string
	Genres        []Genre
}

// Validate checks the fields present in the patch.
func (p BookPatch) Validate() error {
	return p.ValidateAt(time.Now())
}

// ValidateAt checks the fields present in the patch against the year of now.
func (p BookPatch) ValidateAt(now time.Time) error {
	if p.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.PublishedYear != nil {
		if err := validatePublishedYear(*p.PublishedYear, now); err != nil {
			return err
		}
	}
	if p.AuthorName != nil {
		if err := ValidateAuthorName(*p.AuthorName); err != nil {
			return err
		}
	}
	if p.Genres != nil {
		if err := validateGenres(p.Genres); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns b with the patch's scalar fields merged in. The author is
// resolved separately by the store.
func (p BookPatch) Apply(b Book) Book {
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.PublishedYear != nil {
		b.PublishedYear = *p.PublishedYear
	}
	if p.Genres != nil {
		b.Genres = uniqueGenres(p.Genres)
	}
	return b
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return NewValidationError("title", "cannot be empty", nil)
	}
	if n > MaxNameLength {
		return NewValidationError("title", "must be at most 255 characters", nil)
	}
	return nil
}

func validatePublishedYear(year int, now time.Time) error {
	if year < MinPublishedYear || year > now.Year() {
		return NewValidationError("published_year", "must be between 1800 and the current year", nil)
	}
	return nil
}
