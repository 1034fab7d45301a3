package domain

import (
	"fmt"
	"strings"
)

// Genre is one of a closed set of book classifications.
type Genre string

// Supported genres. The string value is the display name used on the wire
// and in import files.
const (
	GenreFiction        Genre = "Fiction"
	GenreNonFiction     Genre = "Non-Fiction"
	GenreScience        Genre = "Science"
	GenreHistory        Genre = "History"
	GenreBiography      Genre = "Biography"
	GenreFantasy        Genre = "Fantasy"
	GenreMystery        Genre = "Mystery"
	GenreThriller       Genre = "Thriller"
	GenreRomance        Genre = "Romance"
	GenreScienceFiction Genre = "Science Fiction"
)

var allGenres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreScience,
	GenreHistory,
	GenreBiography,
	GenreFantasy,
	GenreMystery,
	GenreThriller,
	GenreRomance,
	GenreScienceFiction,
}

// Genres returns every supported genre in display order.
func Genres() []Genre {
	out := make([]Genre, len(allGenres))
	copy(out, allGenres)
	return out
}

// Valid reports whether g belongs to the closed set.
func (g Genre) Valid() bool {
	for _, known := range allGenres {
		if g == known {
			return true
		}
	}
	return false
}

// ParseGenre resolves a display name to a Genre. Matching ignores case and
// surrounding whitespace; the canonical spelling is returned.
func ParseGenre(s string) (Genre, error) {
	s = strings.TrimSpace(s)
	for _, known := range allGenres {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", NewValidationError("genre", fmt.Sprintf("%q is not a supported genre", s), ErrInvalidGenre)
}

// ParseGenreList splits a comma-separated cell into genres, skipping blank
// entries and dropping repeats while keeping first-seen order.
func ParseGenreList(cell string) ([]Genre, error) {
	var names []string
	for _, part := range strings.Split(cell, ",") {
		if p := strings.TrimSpace(part); p != "" {
			names = append(names, p)
		}
	}
	return ParseGenres(names)
}

// ParseGenres parses each name and deduplicates the result.
func ParseGenres(names []string) ([]Genre, error) {
	out := make([]Genre, 0, len(names))
	for _, name := range names {
		g, err := ParseGenre(name)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return uniqueGenres(out), nil
}

// GenreStrings converts genres to plain strings for storage.
func GenreStrings(genres []Genre) []string {
	out := make([]string, len(genres))
	for i, g := range genres {
		out[i] = string(g)
	}
	return out
}

func uniqueGenres(genres []Genre) []Genre {
	seen := make(map[Genre]struct{}, len(genres))
	out := make([]Genre, 0, len(genres))
	for _, g := range genres {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

func validateGenres(genres []Genre) error {
	if len(genres) == 0 {
		return NewValidationError("genres", "must contain at least one genre", nil)
	}
	for _, g := range genres {
		if !g.Valid() {
			return NewValidationError("genres", fmt.Sprintf("%q is not a supported genre", string(g)), ErrInvalidGenre)
		}
	}
	return nil
}
