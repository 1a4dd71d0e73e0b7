package contactgraph

import (
	"time"

	"github.com/google/uuid"
)

// UserVertex is a user in the contact graph, keyed by id
type UserVertex struct {
	ID              uuid.UUID
	PhoneNumberHash string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ContactEdge records that Owner has ContactHash in their address book.
// IsFollowing is a snapshot taken at sync time.
type ContactEdge struct {
	OwnerID     uuid.UUID
	ContactHash string
	IsFollowing bool
	CreatedAt   time.Time
}

// Neighbor is a user on the far side of a contact edge, resolved through
// the phone hash of a registered user.
type Neighbor struct {
	UserID      uuid.UUID
	IsFollowing bool
	CreatedAt   time.Time
}

// EdgeFilter narrows contact edges by their following snapshot.
// A nil IsFollowing matches every edge.
type EdgeFilter struct {
	IsFollowing *bool
}

// AllEdges matches every contact edge
func AllEdges() EdgeFilter {
	return EdgeFilter{}
}

// NotFollowed matches edges whose owner did not follow the contact at sync time
func NotFollowed() EdgeFilter {
	f := false
	return EdgeFilter{IsFollowing: &f}
}

// Match reports whether e passes the filter
func (f EdgeFilter) Match(isFollowing bool) bool {
	return f.IsFollowing == nil || *f.IsFollowing == isFollowing
}

// SyncBatch is one full contact list upload for an owner
type SyncBatch struct {
	OwnerID uuid.UUID
	// PhoneNumberHash updates the owner's own number when non-empty
	PhoneNumberHash string
	ContactHashes   []string
	// Following is the owner's accepted follows when the batch was taken
	Following []uuid.UUID
	SyncedAt  time.Time
}
