package relationships

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// FollowStatus is the state of one directed follow edge. Blocking is tracked
// separately and dominates it.
type FollowStatus string

const (
	FollowStatusNone     FollowStatus = "none"
	FollowStatusPending  FollowStatus = "pending"
	FollowStatusAccepted FollowStatus = "accepted"
)

// Valid reports whether s is one of the known follow states.
func (s FollowStatus) Valid() bool {
	switch s {
	case FollowStatusNone, FollowStatusPending, FollowStatusAccepted:
		return true
	}
	return false
}

// FollowEdge is a directed follow from SenderID to RecipientID
type FollowEdge struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	SenderID    uuid.UUID    `db:"sender_id" json:"sender_id"`
	RecipientID uuid.UUID    `db:"recipient_id" json:"recipient_id"`
	Status      FollowStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// FriendEdge is the symmetric edge derived from two accepted follows.
// UserAID always sorts before UserBID.
type FriendEdge struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserAID   uuid.UUID `db:"user_a_id" json:"user_a_id"`
	UserBID   uuid.UUID `db:"user_b_id" json:"user_b_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewFriendEdge builds a friend edge in canonical order.
func NewFriendEdge(a, b uuid.UUID, createdAt time.Time) *FriendEdge {
	lo, hi := CanonicalPair(a, b)
	return &FriendEdge{ID: uuid.New(), UserAID: lo, UserBID: hi, CreatedAt: createdAt}
}

// CanonicalPair orders two ids the way Postgres orders uuid values.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// BlockEdge represents a user-to-user block
type BlockEdge struct {
	ID            uuid.UUID `db:"id" json:"id"`
	BlockerUserID uuid.UUID `db:"blocker_user_id" json:"blocker_user_id"`
	BlockedUserID uuid.UUID `db:"blocked_user_id" json:"blocked_user_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Relationship is the pairwise state as seen from the viewer
type Relationship struct {
	Outgoing  FollowStatus `db:"outgoing" json:"outgoing"`
	Incoming  FollowStatus `db:"incoming" json:"incoming"`
	IsFriend  bool         `db:"is_friend" json:"is_friend"`
	Blocking  bool         `db:"blocking" json:"blocking"`
	BlockedBy bool         `db:"blocked_by" json:"blocked_by"`
}

// Blocked reports whether a block exists in either direction.
func (r *Relationship) Blocked() bool {
	return r.Blocking || r.BlockedBy
}

// Transition names a state machine operation
type Transition string

const (
	TransitionSendFollowRequest    Transition = "send_follow_request"
	TransitionAcceptFollowRequest  Transition = "accept_follow_request"
	TransitionDeclineFollowRequest Transition = "decline_follow_request"
	TransitionCancelFollowRequest  Transition = "cancel_follow_request"
	TransitionUnfollow             Transition = "unfollow"
	TransitionRemoveFollower       Transition = "remove_follower"
	TransitionBlock                Transition = "block"
	TransitionUnblock              Transition = "unblock"
)

// ReconcileResult reports the friend edges repaired by a reconciliation run
type ReconcileResult struct {
	Created int64 `json:"created"`
	Deleted int64 `json:"deleted"`
}
