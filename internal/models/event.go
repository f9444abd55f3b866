package models

// Collection names used in change events.
const (
	CollectionCatalogue = "catalogue"
	CollectionLibrary   = "library"
	CollectionSeries    = "series"
	CollectionMembers   = "members"
)

// ChangeEvent tells subscribed clients that a collection changed and
// should be fetched again.
type ChangeEvent struct {
	Collection string `json:"collection"`
	Op         string `json:"op"` // "create", "update" or "delete"
	FamilyID   string `json:"family_id"`
	MemberID   string `json:"member_id,omitempty"` // set for library events
	ID         string `json:"id"`
}
