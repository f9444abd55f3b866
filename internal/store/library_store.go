package store

import (
	"database/sql"
	"errors"

	"github.com/vrsandeep/shelf-go/internal/aggregate"
	"github.com/vrsandeep/shelf-go/internal/models"
)

const entryColumns = "id, family_id, member_id, book_id, status, added_at"

func scanEntry(row interface{ Scan(...any) error }) (*models.LibraryEntry, error) {
	var e models.LibraryEntry
	if err := row.Scan(&e.ID, &e.FamilyID, &e.MemberID, &e.BookID, &e.Status, &e.AddedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) queryEntry(query string, args ...any) (*models.LibraryEntry, error) {
	e, err := scanEntry(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// CreateEntry inserts a library entry. It returns ErrDuplicateEntry when
// the member already has an entry for the book.
func (s *Store) CreateEntry(e *models.LibraryEntry) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.AddedAt.IsZero() {
		e.AddedAt = now()
	}
	if e.Status == "" {
		e.Status = models.StatusToRead
	}
	_, err := s.db.Exec("INSERT INTO library_entries ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, e.FamilyID, e.MemberID, e.BookID, e.Status, e.AddedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEntry
	}
	return err
}

// GetEntry returns one of a member's entries, or nil if it does not exist.
func (s *Store) GetEntry(familyID, memberID, id string) (*models.LibraryEntry, error) {
	return s.queryEntry("SELECT "+entryColumns+" FROM library_entries WHERE family_id = ? AND member_id = ? AND id = ?",
		familyID, memberID, id)
}

// FindEntryByBook returns the member's entry for a book, or nil.
func (s *Store) FindEntryByBook(familyID, memberID, bookID string) (*models.LibraryEntry, error) {
	return s.queryEntry("SELECT "+entryColumns+" FROM library_entries WHERE family_id = ? AND member_id = ? AND book_id = ?",
		familyID, memberID, bookID)
}

// ListEntries returns a member's library, most recently added first.
func (s *Store) ListEntries(familyID, memberID string) ([]models.LibraryEntry, error) {
	rows, err := s.db.Query("SELECT "+entryColumns+" FROM library_entries WHERE family_id = ? AND member_id = ? ORDER BY added_at DESC, id ASC",
		familyID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LibraryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// UpdateEntryStatus sets the reading status of one entry.
func (s *Store) UpdateEntryStatus(familyID, memberID, id string, status models.ReadingStatus) error {
	res, err := s.db.Exec("UPDATE library_entries SET status = ? WHERE family_id = ? AND member_id = ? AND id = ?",
		status, familyID, memberID, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteEntry removes one of a member's entries. Deleting a missing entry
// is not an error.
func (s *Store) DeleteEntry(familyID, memberID, id string) error {
	_, err := s.db.Exec("DELETE FROM library_entries WHERE family_id = ? AND member_id = ? AND id = ?", familyID, memberID, id)
	return err
}

// DeleteDanglingEntries removes entries whose catalogue book no longer
// exists and reports how many were removed.
func (s *Store) DeleteDanglingEntries() (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM library_entries
		WHERE NOT EXISTS (
			SELECT 1 FROM books b
			WHERE b.id = library_entries.book_id AND b.family_id = library_entries.family_id
		)`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Snapshot loads the catalogue, the series registry and, when a member is
// given, that member's library.
func (s *Store) Snapshot(familyID string, memberID *string) (aggregate.Snapshot, error) {
	var snap aggregate.Snapshot
	var err error

	if snap.Books, err = s.ListBooks(familyID); err != nil {
		return snap, err
	}
	if snap.Series, err = s.ListSeries(familyID); err != nil {
		return snap, err
	}
	if memberID != nil && *memberID != "" {
		if snap.Entries, err = s.ListEntries(familyID, *memberID); err != nil {
			return snap, err
		}
	}
	return snap, nil
}
