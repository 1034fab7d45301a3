package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenre(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Genre
		wantErr bool
	}{
		{name: "exact", input: "Fiction", want: GenreFiction},
		{name: "case insensitive", input: "science fiction", want: GenreScienceFiction},
		{name: "surrounding whitespace", input: "  Non-Fiction ", want: GenreNonFiction},
		{name: "unknown", input: "Cookbook", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGenre(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				assert.ErrorIs(t, err, ErrInvalidGenre)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGenreList(t *testing.T) {
	t.Run("splits trims and dedupes", func(t *testing.T) {
		got, err := ParseGenreList("Fantasy, Mystery ,fantasy,, ")
		require.NoError(t, err)
		assert.Equal(t, []Genre{GenreFantasy, GenreMystery}, got)
	})

	t.Run("empty cell yields empty list", func(t *testing.T) {
		got, err := ParseGenreList("  ")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("one bad entry fails the list", func(t *testing.T) {
		_, err := ParseGenreList("Fantasy, Poetry")
		require.Error(t, err)
		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "genre", vErr.Field)
	})
}

func TestGenresIsCopy(t *testing.T) {
	g := Genres()
	require.Len(t, g, 10)
	g[0] = "Poetry"
	assert.Equal(t, GenreFiction, Genres()[0])
	assert.False(t, Genre("Poetry").Valid())
}
