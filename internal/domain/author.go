package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength bounds author names and book titles.
const MaxNameLength = 255

// Author is a person credited on one or more books.
// Authors are created implicitly when a book names them and removed when
// their last book goes away.
type Author struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NewAuthor builds an Author with a fresh ID after validating the name.
func NewAuthor(name string) (*Author, error) {
	name = strings.TrimSpace(name)
	if err := ValidateAuthorName(name); err != nil {
		return nil, err
	}
	return &Author{
		ID:   uuid.New(),
		Name: name,
	}, nil
}

// ValidateAuthorName checks the 1..255 character bound.
func ValidateAuthorName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return NewValidationError("author_name", "cannot be empty", nil)
	}
	if n > MaxNameLength {
		return NewValidationError("author_name", "must be at most 255 characters", nil)
	}
	return nil
}
