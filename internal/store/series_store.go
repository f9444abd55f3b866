package store

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/vrsandeep/shelf-go/internal/models"
)

const seriesColumns = "id, family_id, name, total_books, genre, created_by, created_at"

func scanSeries(row interface{ Scan(...any) error }) (*models.Series, error) {
	var (
		sr               models.Series
		total            sql.NullInt64
		genre, createdBy sql.NullString
	)
	if err := row.Scan(&sr.ID, &sr.FamilyID, &sr.Name, &total, &genre, &createdBy, &sr.CreatedAt); err != nil {
		return nil, err
	}
	sr.TotalBooks = intPtr(total)
	sr.Genre = stringPtr(genre)
	sr.CreatedBy = stringPtr(createdBy)
	return &sr, nil
}

func (s *Store) querySeries(query string, args ...any) (*models.Series, error) {
	sr, err := scanSeries(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sr, err
}

// CreateSeries inserts a series, generating its id when empty.
func (s *Store) CreateSeries(sr *models.Series) error {
	if sr.ID == "" {
		sr.ID = newID()
	}
	if sr.CreatedAt.IsZero() {
		sr.CreatedAt = now()
	}
	_, err := s.db.Exec("INSERT INTO series ("+seriesColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		sr.ID, sr.FamilyID, sr.Name, nullInt(sr.TotalBooks), nullString(sr.Genre), nullString(sr.CreatedBy), sr.CreatedAt)
	return err
}

// GetSeries returns a series, or nil if it does not exist.
func (s *Store) GetSeries(familyID, id string) (*models.Series, error) {
	return s.querySeries("SELECT "+seriesColumns+" FROM series WHERE family_id = ? AND id = ?", familyID, id)
}

// FindSeriesByName looks a series up by name, ignoring case.
func (s *Store) FindSeriesByName(familyID, name string) (*models.Series, error) {
	return s.querySeries("SELECT "+seriesColumns+" FROM series WHERE family_id = ? AND lower(trim(name)) = ? ORDER BY created_at ASC LIMIT 1",
		familyID, strings.ToLower(strings.TrimSpace(name)))
}

// ListSeries returns all series of a family.
func (s *Store) ListSeries(familyID string) ([]models.Series, error) {
	rows, err := s.db.Query("SELECT "+seriesColumns+" FROM series WHERE family_id = ? ORDER BY name ASC", familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []models.Series
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		series = append(series, *sr)
	}
	return series, rows.Err()
}

// UpdateSeries replaces the editable fields of a series.
func (s *Store) UpdateSeries(familyID, id string, in models.SeriesInput) error {
	res, err := s.db.Exec("UPDATE series SET name = ?, total_books = ?, genre = ? WHERE family_id = ? AND id = ?",
		in.Name, nullInt(in.TotalBooks), nullString(in.Genre), familyID, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteSeries removes a series. Books linked to it keep their series id.
func (s *Store) DeleteSeries(familyID, id string) error {
	_, err := s.db.Exec("DELETE FROM series WHERE family_id = ? AND id = ?", familyID, id)
	return err
}
