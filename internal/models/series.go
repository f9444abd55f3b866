package models

import "time"

// Series is a named, ordered collection of catalogue books.
type Series struct {
	ID         string    `json:"id"`
	FamilyID   string    `json:"family_id"`
	Name       string    `json:"name"`
	TotalBooks *int      `json:"total_books,omitempty"` // declared count, advisory
	Genre      *string   `json:"genre,omitempty"`
	CreatedBy  *string   `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SeriesInput carries the editable fields of a series.
type SeriesInput struct {
	Name       string  `json:"name"`
	TotalBooks *int    `json:"total_books,omitempty"`
	Genre      *string `json:"genre,omitempty"`
}
