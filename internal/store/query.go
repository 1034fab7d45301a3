package store

import (
	"strings"

	"github.com/phrazzld/bookshelf-api/internal/domain"
)

// SortField names a column books can be ordered by.
type SortField string

// Supported sort fields.
const (
	SortByTitle         SortField = "title"
	SortByAuthor        SortField = "author"
	SortByPublishedYear SortField = "published_year"
)

// SortOrder is the direction of a sort.
type SortOrder string

// Supported sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultPageLimit is used when a query carries no positive limit.
const DefaultPageLimit = 100

// BookFilter holds optional, AND-combined predicates. Empty strings and nil
// pointers mean "no constraint".
type BookFilter struct {
	Title      string
	AuthorName string
	Genre      string
	YearFrom   *int
	YearTo     *int
}

// ParsedGenre validates the genre filter against the closed set.
func (f BookFilter) ParsedGenre() (domain.Genre, bool, error) {
	if strings.TrimSpace(f.Genre) == "" {
		return "", false, nil
	}
	g, err := domain.ParseGenre(f.Genre)
	if err != nil {
		return "", false, err
	}
	return g, true, nil
}

// BookSort is the requested ordering.
type BookSort struct {
	Field SortField
	Order SortOrder
}

// ParseBookSort maps raw request values onto a BookSort. Unknown fields fall
// back to title and unknown orders to ascending; neither is an error.
func ParseBookSort(field, order string) BookSort {
	return BookSort{
		Field: SortField(strings.ToLower(strings.TrimSpace(field))),
		Order: SortOrder(strings.ToLower(strings.TrimSpace(order))),
	}.Normalize()
}

// Normalize replaces unsupported values with the defaults.
func (s BookSort) Normalize() BookSort {
	switch s.Field {
	case SortByTitle, SortByAuthor, SortByPublishedYear:
	default:
		s.Field = SortByTitle
	}
	switch s.Order {
	case SortAsc, SortDesc:
	default:
		s.Order = SortAsc
	}
	return s
}

// Page is an offset/limit window.
type Page struct {
	Skip  int
	Limit int
}

// Normalize clamps a negative skip to zero and applies DefaultPageLimit when
// no positive limit was given.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	return p
}

// BookQuery bundles filters, ordering and paging.
type BookQuery struct {
	Filter BookFilter
	Sort   BookSort
	Page   Page
}
