// This file holds the derived view models. None of them are persisted;
// they are recomputed from store snapshots on every read.

package models

import "time"

// MemberBook is a catalogue book annotated with the active member's
// library entry.
type MemberBook struct {
	CatalogueBook
	EntryID string        `json:"entry_id"`
	Status  ReadingStatus `json:"status"`
	AddedAt time.Time     `json:"added_at"`
}

// SeriesWithProgress is a series annotated with the active member's progress.
type SeriesWithProgress struct {
	Series
	BooksOwned      int    `json:"books_owned"`
	BooksRead       int    `json:"books_read"`
	ResolvedTotal   int    `json:"resolved_total"` // declared count, else max ordinal
	ProgressPercent int    `json:"progress_percent"`
	IsInLibrary     bool   `json:"is_in_library"`
	CoverURL        string `json:"cover_url,omitempty"`
}

// SeriesBookDetail is one book of a series as seen by the active member,
// whether or not the member owns it.
type SeriesBookDetail struct {
	Book        CatalogueBook `json:"book"`
	Status      ReadingStatus `json:"status"`
	IsInLibrary bool          `json:"is_in_library"`
	EntryID     *string       `json:"entry_id,omitempty"`
}

// DisplayItemKind distinguishes grouped series rows from standalone books.
type DisplayItemKind string

const (
	DisplayItemSeries DisplayItemKind = "series"
	DisplayItemBook   DisplayItemKind = "book"
)

// DisplayItem is one row of the grouped library list.
type DisplayItem struct {
	Kind   DisplayItemKind     `json:"kind"`
	Key    string              `json:"key"`
	Series *SeriesWithProgress `json:"series,omitempty"`
	Books  []MemberBook        `json:"books,omitempty"` // the member's books in this series
	Book   *MemberBook         `json:"book,omitempty"`
}
