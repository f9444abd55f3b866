package models

import "time"

// Family is a household sharing one catalogue and series registry.
type Family struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a reader profile inside a family. Each member owns a
// personal library overlay.
type Member struct {
	ID        string    `json:"id"`
	FamilyID  string    `json:"family_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a login account. It belongs to one family and may act as any
// member of that family.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // "admin" or "user"
	FamilyID     string    `json:"family_id"`
	CreatedAt    time.Time `json:"created_at"`
}
