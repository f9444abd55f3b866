package models

import (
	"fmt"
	"strings"
	"time"
)

// ReadingStatus is a member's reading state for one book.
type ReadingStatus string

const (
	StatusToRead  ReadingStatus = "to-read"
	StatusReading ReadingStatus = "reading"
	StatusRead    ReadingStatus = "read"
)

// Valid reports whether s is one of the known statuses.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusToRead, StatusReading, StatusRead:
		return true
	}
	return false
}

// Next returns the status that follows s in the quick-tap cycle
// to-read -> reading -> read -> to-read. Any status may be set directly;
// the cycle is only a convenience for the UI.
func (s ReadingStatus) Next() ReadingStatus {
	switch s {
	case StatusToRead:
		return StatusReading
	case StatusReading:
		return StatusRead
	default:
		return StatusToRead
	}
}

// ParseReadingStatus accepts a status name case-insensitively. "unread" is
// accepted as an alias of to-read for older clients.
func ParseReadingStatus(v string) (ReadingStatus, error) {
	s := ReadingStatus(strings.ToLower(strings.TrimSpace(v)))
	if s == "unread" {
		return StatusToRead, nil
	}
	if !s.Valid() {
		return "", fmt.Errorf("unknown reading status %q", v)
	}
	return s, nil
}

// LibraryEntry is one member's relationship to one catalogue book.
type LibraryEntry struct {
	ID       string        `json:"id"`
	FamilyID string        `json:"family_id"`
	MemberID string        `json:"member_id"`
	BookID   string        `json:"book_id"`
	Status   ReadingStatus `json:"status"`
	AddedAt  time.Time     `json:"added_at"`
}
