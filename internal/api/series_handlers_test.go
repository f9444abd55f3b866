package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/shelf-go/internal/library"
	"github.com/vrsandeep/shelf-go/internal/models"
	"github.com/vrsandeep/shelf-go/internal/testutil"
)

func TestSeriesHandlers(t *testing.T) {
	env := setupEnv(t)
	testutil.SeedMember(t, env.db, env.familyID, "mem-Ben", "Ben")
	ben := env.user.as("mem-Ben")

	rr := env.user.do("POST", "/api/series", map[string]interface{}{"name": " Discworld ", "total_books": 41})
	expectStatus(t, rr, http.StatusCreated)
	var series models.Series
	decode(t, rr, &series)
	assert.Equal(t, "Discworld", series.Name)

	for _, title := range []string{"The Colour of Magic", "The Light Fantastic", "Equal Rites"} {
		rr := env.user.do("POST", "/api/books", library.BookDescriptor{Title: title, Author: "Terry Pratchett", SeriesID: &series.ID})
		expectStatus(t, rr, http.StatusCreated)
	}

	t.Run("Create Requires A Name", func(t *testing.T) {
		expectStatus(t, env.user.do("POST", "/api/series", map[string]string{"name": "  "}), http.StatusBadRequest)
	})

	t.Run("Next Order", func(t *testing.T) {
		rr := env.user.do("GET", "/api/series/"+series.ID+"/next-order", nil)
		expectStatus(t, rr, http.StatusOK)
		var body map[string]int
		decode(t, rr, &body)
		assert.Equal(t, 4, body["next_order"])
	})

	t.Run("Add Series To Library", func(t *testing.T) {
		rr := ben.do("POST", "/api/series/"+series.ID+"/library", map[string]string{"status": "reading"})
		expectStatus(t, rr, http.StatusOK)
		var result library.BulkResult
		decode(t, rr, &result)
		assert.Equal(t, library.BulkResult{Added: 3}, result)

		// Without a body the default status is used; everything is skipped now.
		rr = ben.do("POST", "/api/series/"+series.ID+"/library", nil)
		expectStatus(t, rr, http.StatusOK)
		decode(t, rr, &result)
		assert.Equal(t, library.BulkResult{Skipped: 3}, result)

		expectStatus(t, ben.do("POST", "/api/series/missing/library", nil), http.StatusNotFound)
		expectStatus(t, env.user.as("").do("POST", "/api/series/"+series.ID+"/library", nil), http.StatusBadRequest)
	})

	t.Run("Detail", func(t *testing.T) {
		rr := ben.do("GET", "/api/series/"+series.ID, nil)
		expectStatus(t, rr, http.StatusOK)
		var body struct {
			Series models.SeriesWithProgress `json:"series"`
			Books  []models.SeriesBookDetail `json:"books"`
		}
		decode(t, rr, &body)
		assert.Equal(t, 41, body.Series.ResolvedTotal)
		assert.Equal(t, 3, body.Series.BooksOwned)
		require.Len(t, body.Books, 3)
		assert.Equal(t, "The Colour of Magic", body.Books[0].Book.Title)
		assert.True(t, body.Books[0].IsInLibrary)
		assert.Equal(t, models.StatusReading, body.Books[0].Status)

		// Ana owns none of them but still sees every book.
		rr = env.user.do("GET", "/api/series/"+series.ID, nil)
		expectStatus(t, rr, http.StatusOK)
		decode(t, rr, &body)
		require.Len(t, body.Books, 3)
		assert.False(t, body.Books[0].IsInLibrary)
		assert.False(t, body.Series.IsInLibrary)

		expectStatus(t, env.user.do("GET", "/api/series/missing", nil), http.StatusNotFound)
	})

	t.Run("List With Progress", func(t *testing.T) {
		rr := ben.do("GET", "/api/series", nil)
		expectStatus(t, rr, http.StatusOK)
		var list []models.SeriesWithProgress
		decode(t, rr, &list)
		require.Len(t, list, 1)
		assert.Equal(t, 3, list[0].BooksOwned)
		assert.Equal(t, 0, list[0].ProgressPercent)
	})

	t.Run("Update", func(t *testing.T) {
		rr := env.user.do("PUT", "/api/series/"+series.ID, map[string]interface{}{"name": "Discworld (Rincewind)", "genre": "fantasy"})
		expectStatus(t, rr, http.StatusOK)
		var updated models.Series
		decode(t, rr, &updated)
		assert.Equal(t, "Discworld (Rincewind)", updated.Name)
		assert.Nil(t, updated.TotalBooks)

		expectStatus(t, env.user.do("PUT", "/api/series/missing", map[string]string{"name": "x"}), http.StatusNotFound)
		expectStatus(t, env.user.do("PUT", "/api/series/"+series.ID, map[string]string{"name": ""}), http.StatusBadRequest)
	})

	t.Run("Delete Leaves Books Standalone", func(t *testing.T) {
		expectStatus(t, env.user.do("DELETE", "/api/series/"+series.ID, nil), http.StatusNoContent)

		rr := ben.do("GET", "/api/library?group=series", nil)
		expectStatus(t, rr, http.StatusOK)
		var body libraryBody
		decode(t, rr, &body)
		require.Len(t, body.Items, 3)
		for _, it := range body.Items {
			assert.Equal(t, models.DisplayItemBook, it.Kind)
		}
	})
}
