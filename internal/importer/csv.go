// Package importer adds books to a member's library from CSV files, either
// on demand or by watching an inbox directory.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vrsandeep/shelf-go/internal/aggregate"
	"github.com/vrsandeep/shelf-go/internal/library"
	"github.com/vrsandeep/shelf-go/internal/models"
)

// Columns understood in the header row. Only title and author are required.
const (
	ColTitle      = "title"
	ColAuthor     = "author"
	ColExternalID = "external_id"
	ColSeries     = "series"
	ColNumber     = "number"
	ColGenres     = "genres"
	ColStatus     = "status"
)

// Adder is the part of the library service the importer drives.
type Adder interface {
	AddBookToLibrary(ctx aggregate.AppContext, desc library.BookDescriptor) (*library.AddResult, error)
}

// Row is one parsed CSV record.
type Row struct {
	Line int
	Desc library.BookDescriptor
	Err  error
}

// RowResult is the outcome of importing one row.
type RowResult struct {
	Line         int    `json:"line"`
	Title        string `json:"title"`
	BookID       string `json:"book_id,omitempty"`
	EntryID      string `json:"entry_id,omitempty"`
	BookCreated  bool   `json:"book_created"`
	EntryCreated bool   `json:"entry_created"`
	Error        string `json:"error,omitempty"`
}

// Summary tallies an import. Existing counts rows already in the library.
type Summary struct {
	Rows     []RowResult `json:"rows"`
	Imported int         `json:"imported"`
	Existing int         `json:"existing"`
	Failed   int         `json:"failed"`
}

// ParseCSV reads book rows from r. The first record must be a header; its
// column names are matched case-insensitively. Rows that cannot be
// interpreted carry an error instead of aborting the parse.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{ColTitle, ColAuthor} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header is missing the %q column", required)
		}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}
		rows = append(rows, parseRecord(line, record, cols))
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseRecord(line int, record []string, cols map[string]int) Row {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	optional := func(name string) *string {
		if v := field(name); v != "" {
			return &v
		}
		return nil
	}

	row := Row{Line: line}
	row.Desc = library.BookDescriptor{
		Title:      field(ColTitle),
		Author:     field(ColAuthor),
		ExternalID: optional(ColExternalID),
		SeriesName: optional(ColSeries),
	}
	if g := field(ColGenres); g != "" {
		row.Desc.Genres = strings.Split(g, ";")
	}
	if n := field(ColNumber); n != "" {
		number, err := strconv.Atoi(n)
		if err != nil || number < 1 {
			row.Err = fmt.Errorf("invalid series number %q", n)
			return row
		}
		row.Desc.SeriesOrder = &number
	}
	if s := field(ColStatus); s != "" {
		status, err := models.ParseReadingStatus(s)
		if err != nil {
			row.Err = err
			return row
		}
		row.Desc.Status = status
	}
	return row
}

// Import parses r and adds every valid row to the active member's library.
// A failing row is recorded and the import continues; errors that no row
// can recover from (no family or member selected) stop it.
func Import(ctx aggregate.AppContext, adder Adder, r io.Reader) (*Summary, error) {
	rows, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Rows: make([]RowResult, 0, len(rows))}
	for _, row := range rows {
		res := RowResult{Line: row.Line, Title: row.Desc.Title}
		if row.Err != nil {
			res.Error = row.Err.Error()
			summary.Failed++
			summary.Rows = append(summary.Rows, res)
			continue
		}

		added, err := adder.AddBookToLibrary(ctx, row.Desc)
		if errors.Is(err, library.ErrNoFamily) || errors.Is(err, library.ErrNoMember) {
			return summary, err
		}
		if err != nil {
			res.Error = err.Error()
			summary.Failed++
		} else {
			res.BookID = added.BookID
			res.EntryID = added.EntryID
			res.BookCreated = added.BookCreated
			res.EntryCreated = added.EntryCreated
			if added.EntryCreated {
				summary.Imported++
			} else {
				summary.Existing++
			}
		}
		summary.Rows = append(summary.Rows, res)
	}
	return summary, nil
}
