// This file defines the catalogue side of the data model: the books a
// family knows about, shared between all of its members.

package models

import "time"

// CatalogueBook is one physical or logical book known to a family.
// Optional fields are pointers so an absent value is never confused
// with an empty string or a zero ordinal.
type CatalogueBook struct {
	ID          string    `json:"id"`
	FamilyID    string    `json:"family_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	CoverURL    *string   `json:"cover_url,omitempty"`
	ExternalID  *string   `json:"external_id,omitempty"` // e.g. an ISBN, used for de-duplication
	SeriesID    *string   `json:"series_id,omitempty"`
	SeriesOrder *int      `json:"series_order,omitempty"` // position within the series
	Genres      []string  `json:"genres,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	AddedBy     *string   `json:"added_by,omitempty"` // member id
}

// HasSeries reports whether the book is linked to a series.
func (b *CatalogueBook) HasSeries() bool {
	return b.SeriesID != nil && *b.SeriesID != ""
}

// BookUpdate is a partial update of a catalogue book. Nil fields are left
// untouched. ClearSeries removes the series linkage and ordinal.
type BookUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Author      *string   `json:"author,omitempty"`
	CoverURL    *string   `json:"cover_url,omitempty"`
	SeriesID    *string   `json:"series_id,omitempty"`
	SeriesOrder *int      `json:"series_order,omitempty"`
	Genres      *[]string `json:"genres,omitempty"`
	ClearSeries bool      `json:"clear_series,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.CoverURL == nil && u.SeriesID == nil &&
		u.SeriesOrder == nil && u.Genres == nil && !u.ClearSeries
}
