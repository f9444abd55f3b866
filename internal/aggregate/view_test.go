package aggregate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/shelf-go/internal/models"
)

func memberBook(entryID string, b models.CatalogueBook, status models.ReadingStatus) models.MemberBook {
	return models.MemberBook{CatalogueBook: b, EntryID: entryID, Status: status}
}

func TestGroupBooksBySeries(t *testing.T) {
	books := []models.MemberBook{
		memberBook("e1", book("solo1", "", 0), models.StatusRead),
		memberBook("e2", book("a2", "sA", 2), models.StatusReading),
		memberBook("e3", book("b1", "sB", 1), models.StatusToRead),
		memberBook("e4", book("a1", "sA", 1), models.StatusRead),
		memberBook("e5", book("solo2", "", 0), models.StatusToRead),
	}
	progress := []models.SeriesWithProgress{
		{Series: models.Series{ID: "sA", Name: "A"}, BooksOwned: 2, ResolvedTotal: 5},
		{Series: models.Series{ID: "sB", Name: "B"}, BooksOwned: 1, ResolvedTotal: 1},
	}

	items := GroupBooksBySeries(books, progress)
	require.Len(t, items, 4)

	assert.Equal(t, models.DisplayItemBook, items[0].Kind)
	assert.Equal(t, "book-e1", items[0].Key)
	assert.Equal(t, "solo1", items[0].Book.ID)

	assert.Equal(t, models.DisplayItemSeries, items[1].Kind)
	assert.Equal(t, "series-sA", items[1].Key)
	assert.Equal(t, 5, items[1].Series.ResolvedTotal)
	require.Len(t, items[1].Books, 2)
	assert.Equal(t, "a2", items[1].Books[0].ID)
	assert.Equal(t, "a1", items[1].Books[1].ID)

	assert.Equal(t, "series-sB", items[2].Key)
	assert.Equal(t, "book-e5", items[3].Key)
}

func TestGroupBooksBySeries_NoSeriesBookItems(t *testing.T) {
	var books []models.MemberBook
	for i := 0; i < 40; i++ {
		seriesID := ""
		if i%3 != 0 {
			seriesID = []string{"s1", "s2", "s3"}[i%3]
		}
		books = append(books, memberBook(string(rune('A'+i)), book(string(rune('a'+i)), seriesID, i), models.StatusToRead))
	}

	items := GroupBooksBySeries(books, nil)

	seen := make(map[string]int)
	keys := make(map[string]bool)
	for _, it := range items {
		assert.False(t, keys[it.Key], "duplicate key %s", it.Key)
		keys[it.Key] = true

		switch it.Kind {
		case models.DisplayItemBook:
			assert.False(t, it.Book.HasSeries(), "series book %s shown standalone", it.Book.ID)
			seen[it.Book.ID]++
		case models.DisplayItemSeries:
			require.NotNil(t, it.Series, "placeholder progress expected")
			for _, b := range it.Books {
				assert.Equal(t, it.Series.ID, *b.SeriesID)
				seen[b.ID]++
			}
		}
	}
	for _, b := range books {
		assert.Equal(t, 1, seen[b.ID], "book %s should appear exactly once", b.ID)
	}
}

func TestGroupBooksBySeries_KeysDoNotCollide(t *testing.T) {
	// A series and a book entry sharing the same raw id still get distinct keys.
	books := []models.MemberBook{
		memberBook("x", book("b1", "", 0), models.StatusToRead),
		memberBook("e2", book("b2", "x", 1), models.StatusToRead),
	}
	items := GroupBooksBySeries(books, nil)
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].Key, items[1].Key)
}

func TestBookItemKeyFallsBackToBookID(t *testing.T) {
	assert.Equal(t, "book-b1", BookItemKey(memberBook("", book("b1", "", 0), models.StatusToRead)))
}

func TestGenresByFrequency(t *testing.T) {
	lists := [][]string{
		{"Fantasy", "Adventure"},
		{"FANTASY", " fantasy ", "mystery"},
		nil,
		{"", "  ", "Adventure"},
		{"Mystery"},
		{"biography"},
	}

	got := GenresByFrequency(lists)
	assert.Equal(t, []string{"fantasy", "adventure", "mystery", "biography"}, got)
}

func TestGenresByFrequency_PermutationInvariant(t *testing.T) {
	lists := [][]string{
		{"b"}, {"a"}, {"c", "a"}, {"B"}, {"d"}, {"c"}, {"e", "f"}, {"F"},
	}
	want := GenresByFrequency(lists)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([][]string, len(lists))
		copy(shuffled, lists)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, GenresByFrequency(shuffled))
	}
	assert.Equal(t, []string{"a", "b", "c", "f", "d", "e"}, want)
}

func TestGenresByFrequency_Empty(t *testing.T) {
	assert.Empty(t, GenresByFrequency(nil))
	assert.Empty(t, GenresByFrequency([][]string{{""}, {" "}}))
}

func TestDetachDanglingSeries(t *testing.T) {
	books := []models.MemberBook{
		memberBook("e1", book("b1", "gone", 2), models.StatusToRead),
		memberBook("e2", book("b2", "s1", 1), models.StatusToRead),
	}
	got := DetachDanglingSeries(books, []models.Series{{ID: "s1"}})

	assert.Nil(t, got[0].SeriesID)
	assert.Nil(t, got[0].SeriesOrder)
	require.NotNil(t, got[1].SeriesID)
	assert.Equal(t, "s1", *got[1].SeriesID)

	// The input is left untouched.
	require.NotNil(t, books[0].SeriesID)
	assert.Equal(t, "gone", *books[0].SeriesID)
}

func TestFilterByStatus(t *testing.T) {
	books := []models.MemberBook{
		memberBook("e1", book("b1", "", 0), models.StatusRead),
		memberBook("e2", book("b2", "", 0), models.StatusReading),
	}
	assert.Len(t, FilterByStatus(books, ""), 2)
	got := FilterByStatus(books, models.StatusReading)
	require.Len(t, got, 1)
	assert.Equal(t, "b2", got[0].ID)
	assert.Empty(t, FilterByStatus(books, models.StatusToRead))
}

func TestBuildLibraryView(t *testing.T) {
	fantasy := func(b models.CatalogueBook) models.CatalogueBook {
		b.Genres = []string{"Fantasy"}
		return b
	}
	snap := Snapshot{
		Books: []models.CatalogueBook{
			fantasy(book("b1", "s1", 1)),
			fantasy(book("b2", "s1", 2)),
			book("b3", "deleted-series", 1),
			book("b4", "", 0),
		},
		Entries: []models.LibraryEntry{
			entry("e1", "m1", "b1", models.StatusRead),
			entry("e2", "m1", "b2", models.StatusReading),
			entry("e3", "m1", "b3", models.StatusReading),
			entry("e4", "m2", "b4", models.StatusRead),
		},
		Series: []models.Series{{ID: "s1", Name: "Saga"}},
	}

	t.Run("filtered by status keeps full progress", func(t *testing.T) {
		view := BuildLibraryView(memberCtx("m1"), snap, models.StatusReading)
		require.Len(t, view.Books, 2)
		require.Len(t, view.Items, 2)

		assert.Equal(t, "series-s1", view.Items[0].Key)
		assert.Equal(t, 2, view.Items[0].Series.BooksOwned)
		assert.Equal(t, 1, view.Items[0].Series.BooksRead)
		assert.Equal(t, 50, view.Items[0].Series.ProgressPercent)
		require.Len(t, view.Items[0].Books, 1)

		// The book whose series was deleted reads as standalone.
		assert.Equal(t, "book-e3", view.Items[1].Key)
		assert.Equal(t, []string{"fantasy"}, view.Genres)
	})

	t.Run("no member selected", func(t *testing.T) {
		view := BuildLibraryView(AppContext{FamilyID: "fam"}, snap, "")
		assert.Empty(t, view.Books)
		assert.Empty(t, view.Items)
	})
}
