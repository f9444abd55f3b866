package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vrsandeep/shelf-go/internal/models"
)

const bookColumns = "id, family_id, title, author, cover_url, external_id, series_id, series_order, genres, added_by, created_at"

func scanBook(row interface{ Scan(...any) error }) (*models.CatalogueBook, error) {
	var (
		b                                      models.CatalogueBook
		cover, externalID, seriesID, addedBy   sql.NullString
		seriesOrder                            sql.NullInt64
		genres                                 string
	)
	err := row.Scan(&b.ID, &b.FamilyID, &b.Title, &b.Author, &cover, &externalID, &seriesID, &seriesOrder, &genres, &addedBy, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.CoverURL = stringPtr(cover)
	b.ExternalID = stringPtr(externalID)
	b.SeriesID = stringPtr(seriesID)
	b.SeriesOrder = intPtr(seriesOrder)
	b.Genres = decodeGenres(genres)
	b.AddedBy = stringPtr(addedBy)
	return &b, nil
}

func (s *Store) queryBooks(query string, args ...any) ([]models.CatalogueBook, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []models.CatalogueBook
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

func (s *Store) queryBook(query string, args ...any) (*models.CatalogueBook, error) {
	b, err := scanBook(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// CreateBook inserts a catalogue book. An empty ID is replaced with a
// generated one and CreatedAt is set when zero.
func (s *Store) CreateBook(b *models.CatalogueBook) error {
	if b.ID == "" {
		b.ID = newID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now()
	}
	genres, err := encodeGenres(b.Genres)
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}
	_, err = s.db.Exec("INSERT INTO books ("+bookColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.FamilyID, b.Title, b.Author, nullString(b.CoverURL), nullString(b.ExternalID),
		nullString(b.SeriesID), nullInt(b.SeriesOrder), genres, nullString(b.AddedBy), b.CreatedAt)
	return err
}

// GetBook returns a catalogue book, or nil if it does not exist.
func (s *Store) GetBook(familyID, id string) (*models.CatalogueBook, error) {
	return s.queryBook("SELECT "+bookColumns+" FROM books WHERE family_id = ? AND id = ?", familyID, id)
}

// FindBookByExternalID looks a book up by its external catalogue id.
func (s *Store) FindBookByExternalID(familyID, externalID string) (*models.CatalogueBook, error) {
	return s.queryBook("SELECT "+bookColumns+" FROM books WHERE family_id = ? AND external_id = ? ORDER BY created_at ASC LIMIT 1",
		familyID, strings.TrimSpace(externalID))
}

// FindBookByTitleAuthor looks a book up by title and author, ignoring case
// and surrounding whitespace.
func (s *Store) FindBookByTitleAuthor(familyID, title, author string) (*models.CatalogueBook, error) {
	query := "SELECT " + bookColumns + ` FROM books
		WHERE family_id = ? AND lower(trim(title)) = ? AND lower(trim(author)) = ?
		ORDER BY created_at ASC LIMIT 1`
	return s.queryBook(query, familyID,
		strings.ToLower(strings.TrimSpace(title)), strings.ToLower(strings.TrimSpace(author)))
}

// ListBooks returns the family catalogue, newest first.
func (s *Store) ListBooks(familyID string) ([]models.CatalogueBook, error) {
	return s.queryBooks("SELECT "+bookColumns+" FROM books WHERE family_id = ? ORDER BY created_at DESC, id ASC", familyID)
}

// ListBooksInSeries returns the books linked to a series ordered by their
// position; unnumbered books come last.
func (s *Store) ListBooksInSeries(familyID, seriesID string) ([]models.CatalogueBook, error) {
	query := "SELECT " + bookColumns + ` FROM books
		WHERE family_id = ? AND series_id = ?
		ORDER BY series_order IS NULL, series_order ASC, created_at ASC`
	return s.queryBooks(query, familyID, seriesID)
}

// UpdateBook applies a partial update to a catalogue book.
func (s *Store) UpdateBook(familyID, id string, upd models.BookUpdate) error {
	var sets []string
	var args []any

	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, strings.TrimSpace(*upd.Title))
	}
	if upd.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, strings.TrimSpace(*upd.Author))
	}
	if upd.CoverURL != nil {
		sets = append(sets, "cover_url = ?")
		args = append(args, nullString(upd.CoverURL))
	}
	if upd.ClearSeries {
		sets = append(sets, "series_id = NULL", "series_order = NULL")
	} else {
		if upd.SeriesID != nil {
			sets = append(sets, "series_id = ?")
			args = append(args, *upd.SeriesID)
		}
		if upd.SeriesOrder != nil {
			sets = append(sets, "series_order = ?")
			args = append(args, *upd.SeriesOrder)
		}
	}
	if upd.Genres != nil {
		genres, err := encodeGenres(*upd.Genres)
		if err != nil {
			return fmt.Errorf("failed to encode genres: %w", err)
		}
		sets = append(sets, "genres = ?")
		args = append(args, genres)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, familyID, id)
	res, err := s.db.Exec("UPDATE books SET "+strings.Join(sets, ", ")+" WHERE family_id = ? AND id = ?", args...)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteBook removes a book from the catalogue. Library entries that
// reference it are left in place.
func (s *Store) DeleteBook(familyID, id string) error {
	_, err := s.db.Exec("DELETE FROM books WHERE family_id = ? AND id = ?", familyID, id)
	return err
}

// CountEntriesForBook counts library entries of any member referencing a book.
func (s *Store) CountEntriesForBook(familyID, bookID string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM library_entries WHERE family_id = ? AND book_id = ?", familyID, bookID).Scan(&n)
	return n, err
}
