package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/shelf-go/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func book(id, seriesID string, order int) models.CatalogueBook {
	b := models.CatalogueBook{ID: id, FamilyID: "fam", Title: "Book " + id, Author: "Author"}
	if seriesID != "" {
		b.SeriesID = strPtr(seriesID)
	}
	if order > 0 {
		b.SeriesOrder = intPtr(order)
	}
	return b
}

func entry(id, memberID, bookID string, status models.ReadingStatus) models.LibraryEntry {
	return models.LibraryEntry{ID: id, FamilyID: "fam", MemberID: memberID, BookID: bookID, Status: status, AddedAt: time.Now()}
}

func memberCtx(id string) AppContext {
	return AppContext{FamilyID: "fam", MemberID: strPtr(id)}
}

func TestAnnotateMemberBooks(t *testing.T) {
	books := []models.CatalogueBook{book("b1", "", 0), book("b2", "", 0)}
	entries := []models.LibraryEntry{
		entry("e2", "m1", "b2", models.StatusReading),
		entry("e-gone", "m1", "deleted-book", models.StatusRead),
		entry("e1", "m1", "b1", models.StatusToRead),
	}

	got := AnnotateMemberBooks(books, entries)
	require.Len(t, got, 2, "dangling entry should be dropped")
	assert.Equal(t, "b2", got[0].ID)
	assert.Equal(t, "e2", got[0].EntryID)
	assert.Equal(t, models.StatusReading, got[0].Status)
	assert.Equal(t, "b1", got[1].ID)
	assert.Equal(t, "e1", got[1].EntryID)
}

func TestComputeSeriesProgress_ExampleScenario(t *testing.T) {
	series := models.Series{ID: "s1", Name: "Trilogy"}
	books := []models.CatalogueBook{book("b1", "s1", 1), book("b2", "s1", 2), book("b3", "s1", 3)}
	entries := []models.LibraryEntry{
		entry("e1", "m1", "b1", models.StatusRead),
		entry("e2", "m1", "b2", models.StatusReading),
		entry("e3", "m2", "b3", models.StatusRead), // another member's entry
	}

	got := ComputeSeriesProgress(memberCtx("m1"), series, books, entries)
	assert.Equal(t, 2, got.BooksOwned)
	assert.Equal(t, 1, got.BooksRead)
	assert.Equal(t, 3, got.ResolvedTotal)
	assert.Equal(t, 33, got.ProgressPercent)
	assert.True(t, got.IsInLibrary)
}

func TestComputeSeriesProgress_DeclaredTotalWins(t *testing.T) {
	series := models.Series{ID: "s1", TotalBooks: intPtr(10)}
	books := []models.CatalogueBook{book("b1", "s1", 1), book("b2", "s1", 2)}
	entries := []models.LibraryEntry{entry("e1", "m1", "b1", models.StatusRead)}

	got := ComputeSeriesProgress(memberCtx("m1"), series, books, entries)
	assert.Equal(t, 10, got.ResolvedTotal)
	assert.Equal(t, 10, got.ProgressPercent)
}

func TestComputeSeriesProgress_ZeroDeclaredFallsBackToOrdinal(t *testing.T) {
	series := models.Series{ID: "s1", TotalBooks: intPtr(0)}
	books := []models.CatalogueBook{book("b1", "s1", 4), book("b2", "s1", 0)}

	got := ComputeSeriesProgress(memberCtx("m1"), series, books, nil)
	assert.Equal(t, 4, got.ResolvedTotal)
	assert.Equal(t, 0, got.ProgressPercent)
	assert.False(t, got.IsInLibrary)
}

func TestComputeSeriesProgress_ZeroTotal(t *testing.T) {
	series := models.Series{ID: "s1"}
	books := []models.CatalogueBook{book("b1", "s1", 0), book("b2", "s1", 0)}
	entries := []models.LibraryEntry{
		entry("e1", "m1", "b1", models.StatusRead),
		entry("e2", "m1", "b2", models.StatusRead),
	}

	got := ComputeSeriesProgress(memberCtx("m1"), series, books, entries)
	assert.Equal(t, 0, got.ResolvedTotal)
	assert.Equal(t, 2, got.BooksRead)
	assert.Equal(t, 0, got.ProgressPercent)
}

func TestComputeSeriesProgress_NoMember(t *testing.T) {
	series := models.Series{ID: "s1", Name: "Visible"}
	books := []models.CatalogueBook{book("b1", "s1", 1)}
	entries := []models.LibraryEntry{entry("e1", "m1", "b1", models.StatusRead)}

	got := ComputeSeriesProgress(AppContext{FamilyID: "fam"}, series, books, entries)
	assert.Equal(t, "Visible", got.Name)
	assert.Zero(t, got.BooksOwned)
	assert.Zero(t, got.BooksRead)
	assert.False(t, got.IsInLibrary)
	assert.Equal(t, 1, got.ResolvedTotal)
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		read, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13}, // 12.5 rounds half up
		{3, 3, 100},
		{7, 7, 100},
		{12, 10, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProgressPercent(tt.read, tt.total), "read=%d total=%d", tt.read, tt.total)
	}

	for total := 1; total <= 50; total++ {
		for read := 0; read <= total; read++ {
			p := ProgressPercent(read, total)
			if p < 0 || p > 100 {
				t.Fatalf("ProgressPercent(%d, %d) = %d out of range", read, total, p)
			}
		}
		if p := ProgressPercent(total, total); p != 100 {
			t.Fatalf("ProgressPercent(%d, %d) = %d; want 100", total, total, p)
		}
	}
}

func TestResolveSeriesDetail(t *testing.T) {
	books := []models.CatalogueBook{
		book("b-none-1", "s1", 0),
		book("b3", "s1", 3),
		book("other", "s2", 1),
		book("b1", "s1", 1),
		book("b-none-2", "s1", 0),
		book("b2", "s1", 2),
	}
	entries := []models.LibraryEntry{entry("e2", "m1", "b2", models.StatusReading)}

	got := ResolveSeriesDetail(memberCtx("m1"), "s1", books, entries)
	require.Len(t, got, 5)

	var ids []string
	for _, d := range got {
		ids = append(ids, d.Book.ID)
	}
	assert.Equal(t, []string{"b1", "b2", "b3", "b-none-1", "b-none-2"}, ids)

	assert.True(t, got[1].IsInLibrary)
	assert.Equal(t, models.StatusReading, got[1].Status)
	require.NotNil(t, got[1].EntryID)
	assert.Equal(t, "e2", *got[1].EntryID)

	assert.False(t, got[0].IsInLibrary)
	assert.Equal(t, models.StatusToRead, got[0].Status)
	assert.Nil(t, got[0].EntryID)
}

func TestResolveSeriesDetail_EmptyLibrary(t *testing.T) {
	books := []models.CatalogueBook{book("b1", "s1", 1), book("b2", "s1", 2)}

	for _, ctx := range []AppContext{memberCtx("m1"), {FamilyID: "fam"}} {
		got := ResolveSeriesDetail(ctx, "s1", books, nil)
		require.Len(t, got, 2)
		for _, d := range got {
			assert.False(t, d.IsInLibrary)
			assert.Equal(t, models.StatusToRead, d.Status)
		}
	}
}

func TestSeriesCoverFromBooks(t *testing.T) {
	withCover := func(b models.CatalogueBook, url string) models.CatalogueBook {
		b.CoverURL = strPtr(url)
		return b
	}

	t.Run("lowest ordinal with a cover", func(t *testing.T) {
		books := []models.CatalogueBook{
			withCover(book("b3", "s1", 3), "/covers/3.jpg"),
			book("b1", "s1", 1),
			withCover(book("b2", "s1", 2), "/covers/2.jpg"),
			withCover(book("bx", "s1", 0), "/covers/x.jpg"),
		}
		cover, ok := SeriesCoverFromBooks(books)
		assert.True(t, ok)
		assert.Equal(t, "/covers/2.jpg", cover)
	})

	t.Run("unnumbered books are last resort", func(t *testing.T) {
		books := []models.CatalogueBook{withCover(book("bx", "s1", 0), "/covers/x.jpg"), book("b1", "s1", 1)}
		cover, ok := SeriesCoverFromBooks(books)
		assert.True(t, ok)
		assert.Equal(t, "/covers/x.jpg", cover)
	})

	t.Run("none", func(t *testing.T) {
		_, ok := SeriesCoverFromBooks(nil)
		assert.False(t, ok)
		_, ok = SeriesCoverFromBooks([]models.CatalogueBook{book("b1", "s1", 1), withCover(book("b2", "s1", 2), "")})
		assert.False(t, ok)
	})

	t.Run("input is not reordered", func(t *testing.T) {
		books := []models.CatalogueBook{book("b2", "s1", 2), book("b1", "s1", 1)}
		SeriesCoverFromBooks(books)
		assert.Equal(t, "b2", books[0].ID)
	})
}

func TestNextSeriesOrder(t *testing.T) {
	assert.Equal(t, 1, NextSeriesOrder(nil))
	assert.Equal(t, 4, NextSeriesOrder([]models.CatalogueBook{book("a", "s", 1), book("b", "s", 2), book("c", "s", 3)}))
}

func TestListSeriesWithProgress(t *testing.T) {
	snap := Snapshot{
		Books: []models.CatalogueBook{book("b1", "s2", 1), book("b2", "s1", 1)},
		Entries: []models.LibraryEntry{
			entry("e1", "m1", "b1", models.StatusRead),
		},
		Series: []models.Series{
			{ID: "s1", Name: "Series 10"},
			{ID: "s2", Name: "Series 2"},
			{ID: "s3", Name: "The Empty Series"},
		},
	}

	got := ListSeriesWithProgress(memberCtx("m1"), snap)
	require.Len(t, got, 3)
	// "The Empty Series" files under E; numbers compare by value.
	assert.Equal(t, "s3", got[0].ID)
	assert.Equal(t, "s2", got[1].ID)
	assert.Equal(t, 100, got[1].ProgressPercent)
	assert.True(t, got[1].IsInLibrary)
	assert.Equal(t, "s1", got[2].ID)
	assert.False(t, got[2].IsInLibrary)
}
