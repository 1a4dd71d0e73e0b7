package relationships

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mwork/socialgraph/internal/pkg/database"
)

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new relationships repository
func NewRepository(db *sqlx.DB) Store {
	return &repository{db: db}
}

// pairLockKey maps an unordered pair of users to one advisory lock key.
func pairLockKey(a, b uuid.UUID) int64 {
	lo, hi := CanonicalPair(a, b)
	h := fnv.New64a()
	h.Write(lo[:])
	h.Write(hi[:])
	return int64(h.Sum64())
}

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if database.IsRetryable(err) {
		return fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	return err
}

func (r *repository) WithinTx(ctx context.Context, a, b uuid.UUID, fn func(tx Tx) error) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, pairLockKey(a, b)); err != nil {
			return err
		}
		return fn(&txRepository{tx: tx})
	})
	return mapStoreError(err)
}

func (r *repository) GetRelationship(ctx context.Context, viewerID, targetID uuid.UUID) (*Relationship, error) {
	lo, hi := CanonicalPair(viewerID, targetID)
	query := `
		SELECT
			COALESCE((SELECT status FROM follow_edges WHERE sender_id = $1 AND recipient_id = $2), 'none') AS outgoing,
			COALESCE((SELECT status FROM follow_edges WHERE sender_id = $2 AND recipient_id = $1), 'none') AS incoming,
			EXISTS(SELECT 1 FROM friend_edges WHERE user_a_id = $3 AND user_b_id = $4) AS is_friend,
			EXISTS(SELECT 1 FROM user_blocks WHERE blocker_user_id = $1 AND blocked_user_id = $2) AS blocking,
			EXISTS(SELECT 1 FROM user_blocks WHERE blocker_user_id = $2 AND blocked_user_id = $1) AS blocked_by
	`
	var rel Relationship
	if err := r.db.GetContext(ctx, &rel, query, viewerID, targetID, lo, hi); err != nil {
		return nil, mapStoreError(err)
	}
	if err := checkStatus(rel.Outgoing); err != nil {
		return nil, err
	}
	if err := checkStatus(rel.Incoming); err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *repository) BlockedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT blocked_user_id FROM user_blocks WHERE blocker_user_id = $1
		UNION
		SELECT blocker_user_id FROM user_blocks WHERE blocked_user_id = $1
	`
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, mapStoreError(err)
	}
	return ids, nil
}

func (r *repository) FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT recipient_id FROM follow_edges WHERE sender_id = $1 AND status = 'accepted'`
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, mapStoreError(err)
	}
	return ids, nil
}

// Reconcile repairs friend edges that drifted from the mutual-follow rule.
// Transitions keep the rule transactionally; this is a backstop only. Each
// drifted pair is rechecked and repaired under the same pair lock the
// transitions take, so a concurrent unfollow cannot be undone.
func (r *repository) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	query := `
		SELECT f1.sender_id AS user_a_id, f1.recipient_id AS user_b_id
		FROM follow_edges f1
		JOIN follow_edges f2
			ON f2.sender_id = f1.recipient_id AND f2.recipient_id = f1.sender_id
		WHERE f1.status = 'accepted' AND f2.status = 'accepted' AND f1.sender_id < f1.recipient_id
			AND NOT EXISTS (
				SELECT 1 FROM friend_edges fe
				WHERE fe.user_a_id = f1.sender_id AND fe.user_b_id = f1.recipient_id
			)
		UNION
		SELECT fe.user_a_id, fe.user_b_id
		FROM friend_edges fe
		WHERE NOT EXISTS (
			SELECT 1 FROM follow_edges
			WHERE sender_id = fe.user_a_id AND recipient_id = fe.user_b_id AND status = 'accepted'
		) OR NOT EXISTS (
			SELECT 1 FROM follow_edges
			WHERE sender_id = fe.user_b_id AND recipient_id = fe.user_a_id AND status = 'accepted'
		)
	`
	var pairs []struct {
		UserAID uuid.UUID `db:"user_a_id"`
		UserBID uuid.UUID `db:"user_b_id"`
	}
	if err := r.db.SelectContext(ctx, &pairs, query); err != nil {
		return nil, mapStoreError(err)
	}

	result := &ReconcileResult{}
	for _, p := range pairs {
		var created, deleted bool
		err := r.WithinTx(ctx, p.UserAID, p.UserBID, func(tx Tx) error {
			var err error
			created, deleted, err = repairFriendEdge(ctx, tx, p.UserAID, p.UserBID)
			return err
		})
		if err != nil {
			return nil, err
		}
		if created {
			result.Created++
		}
		if deleted {
			result.Deleted++
		}
	}
	return result, nil
}

type txRepository struct {
	tx *sqlx.Tx
}

func (t *txRepository) GetFollow(ctx context.Context, senderID, recipientID uuid.UUID) (*FollowEdge, error) {
	query := `
		SELECT id, sender_id, recipient_id, status, created_at, updated_at
		FROM follow_edges
		WHERE sender_id = $1 AND recipient_id = $2
	`
	var edge FollowEdge
	err := t.tx.GetContext(ctx, &edge, query, senderID, recipientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := checkStatus(edge.Status); err != nil {
		return nil, err
	}
	return &edge, nil
}

func (t *txRepository) InsertFollow(ctx context.Context, edge *FollowEdge) error {
	query := `
		INSERT INTO follow_edges (id, sender_id, recipient_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := t.tx.ExecContext(ctx, query, edge.ID, edge.SenderID, edge.RecipientID, edge.Status, edge.CreatedAt, edge.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (t *txRepository) AcceptFollow(ctx context.Context, senderID, recipientID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE follow_edges
		SET status = 'accepted', updated_at = $3
		WHERE sender_id = $1 AND recipient_id = $2 AND status = 'pending'
	`
	return t.exec(ctx, query, senderID, recipientID, at)
}

func (t *txRepository) DeleteFollow(ctx context.Context, senderID, recipientID uuid.UUID, status FollowStatus) (bool, error) {
	query := `DELETE FROM follow_edges WHERE sender_id = $1 AND recipient_id = $2 AND status = $3`
	return t.exec(ctx, query, senderID, recipientID, status)
}

func (t *txRepository) DeleteFollowsBetween(ctx context.Context, a, b uuid.UUID) (int64, error) {
	query := `
		DELETE FROM follow_edges
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
	`
	res, err := t.tx.ExecContext(ctx, query, a, b)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *txRepository) InsertFriend(ctx context.Context, edge *FriendEdge) (bool, error) {
	query := `
		INSERT INTO friend_edges (id, user_a_id, user_b_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_a_id, user_b_id) DO NOTHING
	`
	return t.exec(ctx, query, edge.ID, edge.UserAID, edge.UserBID, edge.CreatedAt)
}

func (t *txRepository) DeleteFriend(ctx context.Context, a, b uuid.UUID) (bool, error) {
	lo, hi := CanonicalPair(a, b)
	return t.exec(ctx, `DELETE FROM friend_edges WHERE user_a_id = $1 AND user_b_id = $2`, lo, hi)
}

func (t *txRepository) HasBlockBetween(ctx context.Context, a, b uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_blocks
			WHERE (blocker_user_id = $1 AND blocked_user_id = $2)
			   OR (blocker_user_id = $2 AND blocked_user_id = $1)
		)
	`
	var exists bool
	err := t.tx.GetContext(ctx, &exists, query, a, b)
	return exists, err
}

func (t *txRepository) InsertBlock(ctx context.Context, block *BlockEdge) (bool, error) {
	query := `
		INSERT INTO user_blocks (id, blocker_user_id, blocked_user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (blocker_user_id, blocked_user_id) DO NOTHING
	`
	return t.exec(ctx, query, block.ID, block.BlockerUserID, block.BlockedUserID, block.CreatedAt)
}

func (t *txRepository) DeleteBlock(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	query := `DELETE FROM user_blocks WHERE blocker_user_id = $1 AND blocked_user_id = $2`
	return t.exec(ctx, query, blockerID, blockedID)
}

func (t *txRepository) exec(ctx context.Context, query string, args ...interface{}) (bool, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
