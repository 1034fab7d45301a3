package postgres

import (
	"fmt"
	"strings"

	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/store"
)

// Genres are read as text so lib/pq's array parser can decode them
// regardless of the driver's wire format.
const bookColumns = `b.id, b.title, b.published_year, b.author_id, b.genres::text`

var sortColumns = map[store.SortField]string{
	store.SortByTitle:         "b.title",
	store.SortByAuthor:        "a.name",
	store.SortByPublishedYear: "b.published_year",
}

// bookQueryBuilder accumulates WHERE predicates with numbered placeholders.
type bookQueryBuilder struct {
	where []string
	args  []any
}

func (b *bookQueryBuilder) add(predicate string, arg any) {
	b.args = append(b.args, arg)
	b.where = append(b.where, fmt.Sprintf(predicate, len(b.args)))
}

// buildBookQuery renders q as a parameterized SELECT. Only whitelisted
// column names reach the SQL text; every user value is a bind parameter.
func buildBookQuery(q store.BookQuery, genre domain.Genre, hasGenre bool) (string, []any) {
	b := &bookQueryBuilder{}

	if t := strings.TrimSpace(q.Filter.Title); t != "" {
		b.add("b.title ILIKE $%d", containsPattern(t))
	}
	if a := strings.TrimSpace(q.Filter.AuthorName); a != "" {
		b.add("a.name ILIKE $%d", containsPattern(a))
	}
	if hasGenre {
		b.add("$%d::text = ANY(b.genres)", string(genre))
	}
	if q.Filter.YearFrom != nil {
		b.add("b.published_year >= $%d", *q.Filter.YearFrom)
	}
	if q.Filter.YearTo != nil {
		b.add("b.published_year <= $%d", *q.Filter.YearTo)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(bookColumns)
	sb.WriteString(" FROM books b JOIN authors a ON a.id = b.author_id")
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}

	sort := q.Sort.Normalize()
	direction := "ASC"
	if sort.Order == store.SortDesc {
		direction = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, b.id ASC", sortColumns[sort.Field], direction)

	page := q.Page.Normalize()
	args := append(b.args, page.Skip, page.Limit)
	fmt.Fprintf(&sb, " OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters in s taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
