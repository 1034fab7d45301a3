package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/phrazzld/bookshelf-api/internal/domain"
	"github.com/phrazzld/bookshelf-api/internal/platform/logger"
	"github.com/phrazzld/bookshelf-api/internal/store"
	"github.com/xuri/excelize/v2"
)

// Import columns. The header row must name all of them; order is free and
// extra columns are ignored.
const (
	ColumnTitle         = "title"
	ColumnPublishedYear = "published_year"
	ColumnAuthorName    = "author_name"
	ColumnGenres        = "genres"
)

var requiredColumns = []string{ColumnTitle, ColumnPublishedYear, ColumnAuthorName, ColumnGenres}

// ImportResult summarizes a bulk import. Rows are numbered from 1, starting
// at the first row after the header.
type ImportResult struct {
	ImportedCount int            `json:"imported_count"`
	FailedCount   int            `json:"failed_count"`
	FailedRows    []FailedRow    `json:"failed_rows"`
	Books         []*domain.Book `json:"books"`
}

// FailedRow records why one row was not imported.
type FailedRow struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportFromCSV implements CatalogService.ImportFromCSV
func (s *catalogServiceImpl) ImportFromCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, domain.NewValidationError("file", "could not be read as CSV", fmt.Errorf("%w: %w", domain.ErrMalformedInput, err))
	}
	return s.importRecords(ctx, "csv", records)
}

// ImportFromSpreadsheet implements CatalogService.ImportFromSpreadsheet
func (s *catalogServiceImpl) ImportFromSpreadsheet(ctx context.Context, r io.Reader) (*ImportResult, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.NewValidationError("file", "could not be read as XLSX", fmt.Errorf("%w: %w", domain.ErrMalformedInput, err))
	}
	defer func() { _ = workbook.Close() }()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewValidationError("file", "workbook has no sheets", domain.ErrMalformedInput)
	}
	records, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, domain.NewValidationError("file", "could not read first sheet", fmt.Errorf("%w: %w", domain.ErrMalformedInput, err))
	}
	return s.importRecords(ctx, "xlsx", records)
}

// importRecords creates a book per data row. records[0] is the header. Row
// failures are collected; only a bad header or a cancelled context aborts.
func (s *catalogServiceImpl) importRecords(ctx context.Context, format string, records [][]string) (*ImportResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(records) == 0 {
		return nil, domain.NewValidationError("file", "is empty", domain.ErrMalformedInput)
	}
	columns, err := headerIndex(records[0])
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		FailedRows: []FailedRow{},
		Books:      []*domain.Book{},
	}
	for i, record := range records[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if blankRecord(record) {
			continue
		}
		row := i + 1

		book, err := s.importRow(ctx, columns, record)
		if err != nil {
			log.Debug("import row rejected",
				slog.Int("row", row),
				slog.String("error", err.Error()))
			result.FailedRows = append(result.FailedRows, FailedRow{Row: row, Error: rowErrorMessage(err)})
			continue
		}
		result.Books = append(result.Books, book)
	}
	result.ImportedCount = len(result.Books)
	result.FailedCount = len(result.FailedRows)

	log.Info("import finished",
		slog.String("format", format),
		slog.Int("imported", result.ImportedCount),
		slog.Int("failed", result.FailedCount))
	return result, nil
}

func (s *catalogServiceImpl) importRow(ctx context.Context, columns map[string]int, record []string) (*domain.Book, error) {
	cell := func(name string) string {
		if idx := columns[name]; idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	year, err := strconv.Atoi(cell(ColumnPublishedYear))
	if err != nil {
		return nil, domain.NewValidationError("published_year", "must be an integer", err)
	}
	genres, err := domain.ParseGenreList(cell(ColumnGenres))
	if err != nil {
		return nil, err
	}
	draft, err := domain.NewBookDraft(cell(ColumnTitle), year, cell(ColumnAuthorName), genres)
	if err != nil {
		return nil, err
	}
	return s.CreateBook(ctx, draft)
}

// headerIndex maps each required column to its position in header.
func headerIndex(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	columns := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, name := range requiredColumns {
		idx, ok := positions[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		columns[name] = idx
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError("file",
			"missing required columns: "+strings.Join(missing, ", "),
			domain.ErrMalformedInput)
	}
	return columns, nil
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// rowErrorMessage renders a row failure without internal details.
func rowErrorMessage(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case store.IsDuplicateError(err):
		return "conflicts with an existing record"
	default:
		return "could not be stored"
	}
}
