package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vrsandeep/shelf-go/internal/models"
)

// CreateFamily adds a new household.
func (s *Store) CreateFamily(name string) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("family name cannot be empty")
	}
	f := &models.Family{ID: newID(), Name: name, CreatedAt: now()}
	_, err := s.db.Exec("INSERT INTO families (id, name, created_at) VALUES (?, ?, ?)", f.ID, f.Name, f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetFamily returns the family with the given id, or nil if there is none.
func (s *Store) GetFamily(id string) (*models.Family, error) {
	var f models.Family
	err := s.db.QueryRow("SELECT id, name, created_at FROM families WHERE id = ?", id).Scan(&f.ID, &f.Name, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFamilies returns every family ordered by name.
func (s *Store) ListFamilies() ([]*models.Family, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM families ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var families []*models.Family
	for rows.Next() {
		var f models.Family
		if err := rows.Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
			return nil, err
		}
		families = append(families, &f)
	}
	return families, rows.Err()
}

// CreateMember adds a reader profile to a family. Member names are unique
// within a family.
func (s *Store) CreateMember(familyID, name string) (*models.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("member name cannot be empty")
	}
	m := &models.Member{ID: newID(), FamilyID: familyID, Name: name, CreatedAt: now()}
	_, err := s.db.Exec("INSERT INTO members (id, family_id, name, created_at) VALUES (?, ?, ?, ?)",
		m.ID, m.FamilyID, m.Name, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("member %q already exists in this family", name)
		}
		return nil, err
	}
	return m, nil
}

// GetMember returns a member of the family, or nil if there is none.
func (s *Store) GetMember(familyID, id string) (*models.Member, error) {
	var m models.Member
	err := s.db.QueryRow("SELECT id, family_id, name, created_at FROM members WHERE family_id = ? AND id = ?", familyID, id).
		Scan(&m.ID, &m.FamilyID, &m.Name, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers returns the members of a family ordered by name.
func (s *Store) ListMembers(familyID string) ([]*models.Member, error) {
	rows, err := s.db.Query("SELECT id, family_id, name, created_at FROM members WHERE family_id = ? ORDER BY name ASC", familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.Name, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// DeleteMember removes a member. Cascading deletes remove their library.
func (s *Store) DeleteMember(familyID, id string) error {
	_, err := s.db.Exec("DELETE FROM members WHERE family_id = ? AND id = ?", familyID, id)
	return err
}
