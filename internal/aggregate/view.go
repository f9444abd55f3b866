package aggregate

import (
	"sort"
	"strings"

	"github.com/vrsandeep/shelf-go/internal/models"
	"github.com/vrsandeep/shelf-go/internal/util"
)

const (
	seriesKeyPrefix = "series-"
	bookKeyPrefix   = "book-"
)

// SeriesItemKey and BookItemKey build list keys that never collide across
// the two item kinds.
func SeriesItemKey(seriesID string) string { return seriesKeyPrefix + seriesID }

func BookItemKey(b models.MemberBook) string {
	if b.EntryID != "" {
		return bookKeyPrefix + b.EntryID
	}
	return bookKeyPrefix + b.ID
}

// GroupBooksBySeries turns member books into display rows. Every book with
// a series id is folded into one series row, placed where the first book of
// that series appears; the other books become standalone rows.
//
// The series rows carry the full progress record from seriesWithProgress,
// so they stay accurate when memberBooks has been filtered. A series with no
// progress record gets a placeholder carrying only its id.
func GroupBooksBySeries(memberBooks []models.MemberBook, seriesWithProgress []models.SeriesWithProgress) []models.DisplayItem {
	progress := make(map[string]models.SeriesWithProgress, len(seriesWithProgress))
	for _, s := range seriesWithProgress {
		progress[s.ID] = s
	}

	items := make([]models.DisplayItem, 0, len(memberBooks))
	seriesPos := make(map[string]int)
	for _, b := range memberBooks {
		if !b.HasSeries() {
			book := b
			items = append(items, models.DisplayItem{
				Kind: models.DisplayItemBook,
				Key:  BookItemKey(b),
				Book: &book,
			})
			continue
		}

		seriesID := *b.SeriesID
		if pos, ok := seriesPos[seriesID]; ok {
			items[pos].Books = append(items[pos].Books, b)
			continue
		}

		swp, ok := progress[seriesID]
		if !ok {
			swp = models.SeriesWithProgress{Series: models.Series{ID: seriesID}}
		}
		seriesPos[seriesID] = len(items)
		items = append(items, models.DisplayItem{
			Kind:   models.DisplayItemSeries,
			Key:    SeriesItemKey(seriesID),
			Series: &swp,
			Books:  []models.MemberBook{b},
		})
	}
	return items
}

// DetachDanglingSeries returns a copy of memberBooks in which links to
// series missing from the registry are cleared, so those books read as
// having no series.
func DetachDanglingSeries(memberBooks []models.MemberBook, series []models.Series) []models.MemberBook {
	known := make(map[string]bool, len(series))
	for _, s := range series {
		known[s.ID] = true
	}

	result := make([]models.MemberBook, len(memberBooks))
	for i, b := range memberBooks {
		if b.HasSeries() && !known[*b.SeriesID] {
			b.SeriesID = nil
			b.SeriesOrder = nil
		}
		result[i] = b
	}
	return result
}

// FilterByStatus keeps the books with the given status. An empty status
// keeps everything.
func FilterByStatus(memberBooks []models.MemberBook, status models.ReadingStatus) []models.MemberBook {
	if status == "" {
		return memberBooks
	}
	var kept []models.MemberBook
	for _, b := range memberBooks {
		if b.Status == status {
			kept = append(kept, b)
		}
	}
	return kept
}

// LibraryView is the result of BuildLibraryView.
type LibraryView struct {
	Books  []models.MemberBook  `json:"books"`
	Items  []models.DisplayItem `json:"items"`
	Genres []string             `json:"genres"`
}

// BuildLibraryView produces the active member's library: annotated books,
// grouped rows and the genres they use. Series progress is computed over
// the whole library before the status filter is applied.
func BuildLibraryView(ctx AppContext, snap Snapshot, status models.ReadingStatus) LibraryView {
	var entries []models.LibraryEntry
	if ctx.HasMember() {
		for _, e := range snap.Entries {
			if e.MemberID == *ctx.MemberID {
				entries = append(entries, e)
			}
		}
	}

	books := AnnotateMemberBooks(snap.Books, entries)
	books = DetachDanglingSeries(books, snap.Series)
	progress := ListSeriesWithProgress(ctx, snap)

	genreLists := make([][]string, 0, len(books))
	for _, b := range books {
		genreLists = append(genreLists, b.Genres)
	}

	filtered := FilterByStatus(books, status)
	return LibraryView{
		Books:  filtered,
		Items:  GroupBooksBySeries(filtered, progress),
		Genres: GenresByFrequency(genreLists),
	}
}

// NormalizeGenre lowercases and trims a genre tag.
func NormalizeGenre(g string) string {
	return strings.ToLower(strings.TrimSpace(g))
}

// GenresByFrequency returns the distinct normalized genres, most frequent
// first; ties are ordered alphabetically. Empty tags are skipped.
func GenresByFrequency(genreLists [][]string) []string {
	counts := make(map[string]int)
	for _, list := range genreLists {
		for _, g := range list {
			if g = NormalizeGenre(g); g != "" {
				counts[g]++
			}
		}
	}

	genres := make([]string, 0, len(counts))
	for g := range counts {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})
	return genres
}

func sortSeriesByName(series []models.SeriesWithProgress) {
	sort.SliceStable(series, func(i, j int) bool {
		return util.TitleLess(series[i].Name, series[j].Name)
	})
}
