// Package aggregate derives the member-facing view models from snapshots of
// the family catalogue, a member's library overlay and the series registry.
//
// Every function here is pure: it performs no I/O, never fails, and
// degrades on incomplete input (dangling references are dropped, missing
// counts default to zero). The active member is passed explicitly in an
// AppContext instead of being read from shared state.
package aggregate

import (
	"sort"

	"github.com/vrsandeep/shelf-go/internal/models"
)

// AppContext identifies the family and the selected member a view is built
// for. MemberID is nil when no member is selected.
type AppContext struct {
	FamilyID string
	MemberID *string
}

// HasMember reports whether a member is selected.
func (c AppContext) HasMember() bool {
	return c.MemberID != nil && *c.MemberID != ""
}

// Snapshot is the state of the three collections at one point in time.
type Snapshot struct {
	Books   []models.CatalogueBook
	Entries []models.LibraryEntry
	Series  []models.Series
}

// memberEntries indexes the active member's entries by book id. The first
// entry wins if the overlay holds duplicates for one book.
func memberEntries(ctx AppContext, entries []models.LibraryEntry) map[string]models.LibraryEntry {
	byBook := make(map[string]models.LibraryEntry)
	if !ctx.HasMember() {
		return byBook
	}
	for _, e := range entries {
		if e.MemberID != *ctx.MemberID {
			continue
		}
		if _, seen := byBook[e.BookID]; !seen {
			byBook[e.BookID] = e
		}
	}
	return byBook
}

// AnnotateMemberBooks joins each library entry to its catalogue book.
// Entries whose book is no longer in the catalogue are dropped. The result
// follows the order of entries.
func AnnotateMemberBooks(books []models.CatalogueBook, entries []models.LibraryEntry) []models.MemberBook {
	byID := make(map[string]models.CatalogueBook, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	result := make([]models.MemberBook, 0, len(entries))
	for _, e := range entries {
		book, ok := byID[e.BookID]
		if !ok {
			continue
		}
		result = append(result, models.MemberBook{
			CatalogueBook: book,
			EntryID:       e.ID,
			Status:        e.Status,
			AddedAt:       e.AddedAt,
		})
	}
	return result
}

// BooksInSeries returns the catalogue books linked to seriesID, in input order.
func BooksInSeries(books []models.CatalogueBook, seriesID string) []models.CatalogueBook {
	var linked []models.CatalogueBook
	for _, b := range books {
		if b.HasSeries() && *b.SeriesID == seriesID {
			linked = append(linked, b)
		}
	}
	return linked
}

// ResolveTotalBooks returns the declared total of a series when it is
// positive, else the highest ordinal among its books, else 0.
func ResolveTotalBooks(series models.Series, booksInSeries []models.CatalogueBook) int {
	if series.TotalBooks != nil && *series.TotalBooks > 0 {
		return *series.TotalBooks
	}
	maxOrder := 0
	for _, b := range booksInSeries {
		if b.SeriesOrder != nil && *b.SeriesOrder > maxOrder {
			maxOrder = *b.SeriesOrder
		}
	}
	return maxOrder
}

// ProgressPercent rounds read/total*100 half up and keeps the result in
// [0, 100]. A zero total always yields 0.
func ProgressPercent(read, total int) int {
	if total <= 0 || read <= 0 {
		return 0
	}
	pct := (read*200 + total) / (total * 2)
	return min(pct, 100)
}

// ComputeSeriesProgress annotates a series with the active member's
// progress. The series is always returned, even with no member selected.
func ComputeSeriesProgress(ctx AppContext, series models.Series, booksInSeries []models.CatalogueBook, entries []models.LibraryEntry) models.SeriesWithProgress {
	swp := models.SeriesWithProgress{
		Series:        series,
		ResolvedTotal: ResolveTotalBooks(series, booksInSeries),
	}

	owned := memberEntries(ctx, entries)
	for _, b := range booksInSeries {
		e, ok := owned[b.ID]
		if !ok {
			continue
		}
		swp.BooksOwned++
		if e.Status == models.StatusRead {
			swp.BooksRead++
		}
	}

	swp.ProgressPercent = ProgressPercent(swp.BooksRead, swp.ResolvedTotal)
	swp.IsInLibrary = swp.BooksOwned > 0
	if cover, ok := SeriesCoverFromBooks(booksInSeries); ok {
		swp.CoverURL = cover
	}
	return swp
}

// ListSeriesWithProgress computes progress for every series in the
// snapshot, ordered by name.
func ListSeriesWithProgress(ctx AppContext, snap Snapshot) []models.SeriesWithProgress {
	result := make([]models.SeriesWithProgress, 0, len(snap.Series))
	for _, s := range snap.Series {
		result = append(result, ComputeSeriesProgress(ctx, s, BooksInSeries(snap.Books, s.ID), snap.Entries))
	}
	sortSeriesByName(result)
	return result
}

// sortByOrdinal stably orders books ascending by series ordinal. Books
// without an ordinal keep their relative order after all numbered books.
func sortByOrdinal(books []models.CatalogueBook) {
	sort.SliceStable(books, func(i, j int) bool {
		oi, oj := books[i].SeriesOrder, books[j].SeriesOrder
		switch {
		case oi == nil:
			return false
		case oj == nil:
			return true
		default:
			return *oi < *oj
		}
	})
}

// ResolveSeriesDetail lists every catalogue book linked to seriesID,
// whether or not the active member owns it, ordered by ordinal.
func ResolveSeriesDetail(ctx AppContext, seriesID string, books []models.CatalogueBook, entries []models.LibraryEntry) []models.SeriesBookDetail {
	linked := BooksInSeries(books, seriesID)
	sortByOrdinal(linked)

	owned := memberEntries(ctx, entries)
	details := make([]models.SeriesBookDetail, 0, len(linked))
	for _, b := range linked {
		d := models.SeriesBookDetail{Book: b, Status: models.StatusToRead}
		if e, ok := owned[b.ID]; ok {
			entryID := e.ID
			d.Status = e.Status
			d.IsInLibrary = true
			d.EntryID = &entryID
		}
		details = append(details, d)
	}
	return details
}

// SeriesCoverFromBooks picks the cover of the lowest-ordinal book that has
// one. Unnumbered books are considered last. It reports false when no
// book has a cover.
func SeriesCoverFromBooks(books []models.CatalogueBook) (string, bool) {
	candidates := make([]models.CatalogueBook, len(books))
	copy(candidates, books)
	sortByOrdinal(candidates)

	for _, b := range candidates {
		if b.CoverURL != nil && *b.CoverURL != "" {
			return *b.CoverURL, true
		}
	}
	return "", false
}

// NextSeriesOrder is the default book number for a new book appended to a
// series that already holds books.
func NextSeriesOrder(books []models.CatalogueBook) int {
	return len(books) + 1
}
