package pagination

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository reads relationship lists in keyset order
type Repository interface {
	// List returns up to limit rows strictly after the cursor, newest first.
	// A nil cursor starts at the head of the list.
	List(ctx context.Context, kind ListKind, subjectID uuid.UUID, after *Cursor, limit int) ([]*Item, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new pagination repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// listSources maps each list to a relation exposing (id, user_id, created_at)
// for one subject bound to $1.
var listSources = map[ListKind]string{
	ListFollowers: `
		SELECT id, sender_id AS user_id, created_at
		FROM follow_edges
		WHERE recipient_id = $1 AND status = 'accepted'`,
	ListFollowing: `
		SELECT id, recipient_id AS user_id, created_at
		FROM follow_edges
		WHERE sender_id = $1 AND status = 'accepted'`,
	ListFollowRequests: `
		SELECT id, sender_id AS user_id, created_at
		FROM follow_edges
		WHERE recipient_id = $1 AND status = 'pending'`,
	ListBlocked: `
		SELECT id, blocked_user_id AS user_id, created_at
		FROM user_blocks
		WHERE blocker_user_id = $1`,
	ListFriends: `
		SELECT id, user_b_id AS user_id, created_at FROM friend_edges WHERE user_a_id = $1
		UNION ALL
		SELECT id, user_a_id AS user_id, created_at FROM friend_edges WHERE user_b_id = $1`,
}

func (r *repository) List(ctx context.Context, kind ListKind, subjectID uuid.UUID, after *Cursor, limit int) ([]*Item, error) {
	source, ok := listSources[kind]
	if !ok {
		return nil, ErrUnknownList
	}

	var (
		query string
		args  []interface{}
	)
	if after == nil {
		query = fmt.Sprintf(`
			SELECT id, user_id, created_at FROM (%s) AS rows
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, source)
		args = []interface{}{subjectID, limit}
	} else {
		query = fmt.Sprintf(`
			SELECT id, user_id, created_at FROM (%s) AS rows
			WHERE (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`, source)
		args = []interface{}{subjectID, after.CreatedAt, after.ID, limit}
	}

	var items []*Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}
