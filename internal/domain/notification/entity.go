package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type represents notification event type
type Type string

const (
	TypeFollowRequested Type = "follow_requested" // Recipient: private account got a request
	TypeNewFollower     Type = "new_follower"     // Recipient: public account got a follower
	TypeFollowAccepted  Type = "follow_accepted"  // Sender: request was accepted
	TypeUserBlocked     Type = "user_blocked"     // Blocker's own devices, for cache eviction
)

// Event is a relationship change published after its transaction commits
type Event struct {
	ID          uuid.UUID `json:"id"`
	Type        Type      `json:"type"`
	ActorID     uuid.UUID `json:"actor_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEvent builds an event stamped with a fresh id and the current time
func NewEvent(t Type, actorID, recipientID uuid.UUID) *Event {
	return &Event{
		ID:          uuid.New(),
		Type:        t,
		ActorID:     actorID,
		RecipientID: recipientID,
		CreatedAt:   time.Now().UTC(),
	}
}
