package relationships

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines relationships data access. Every write goes through WithinTx.
// Retryable store failures are reported wrapped in ErrTransientStore.
type Store interface {
	// WithinTx runs fn as one atomic unit, serialized against every other
	// unit of work touching the same pair of users.
	WithinTx(ctx context.Context, a, b uuid.UUID, fn func(tx Tx) error) error

	GetRelationship(ctx context.Context, viewerID, targetID uuid.UUID) (*Relationship, error)
	BlockedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Reconcile(ctx context.Context) (*ReconcileResult, error)
}

// Tx is the transactional view of the store handed to WithinTx callbacks.
type Tx interface {
	// GetFollow returns nil when the edge does not exist
	GetFollow(ctx context.Context, senderID, recipientID uuid.UUID) (*FollowEdge, error)
	// InsertFollow returns ErrAlreadyExists when the pair already has an edge
	InsertFollow(ctx context.Context, edge *FollowEdge) error
	AcceptFollow(ctx context.Context, senderID, recipientID uuid.UUID, at time.Time) (bool, error)
	DeleteFollow(ctx context.Context, senderID, recipientID uuid.UUID, status FollowStatus) (bool, error)
	// DeleteFollowsBetween removes follow edges in both directions
	DeleteFollowsBetween(ctx context.Context, a, b uuid.UUID) (int64, error)

	// InsertFriend is a no-op returning false when the pair is already friends
	InsertFriend(ctx context.Context, edge *FriendEdge) (bool, error)
	DeleteFriend(ctx context.Context, a, b uuid.UUID) (bool, error)

	HasBlockBetween(ctx context.Context, a, b uuid.UUID) (bool, error)
	// InsertBlock is a no-op returning false when the block already exists
	InsertBlock(ctx context.Context, block *BlockEdge) (bool, error)
	DeleteBlock(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error)
}

// PrivacyLookup resolves whether an account requires approval for follows
type PrivacyLookup interface {
	IsPrivate(ctx context.Context, userID uuid.UUID) (bool, error)
}
