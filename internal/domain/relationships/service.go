package relationships

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/domain/notification"
	"github.com/mwork/socialgraph/internal/pkg/logger"
	"github.com/mwork/socialgraph/internal/pkg/retry"
)

// Config tunes how transitions talk to the store
type Config struct {
	TxMaxAttempts    int
	TxTimeout        time.Duration
	QueryMaxAttempts int
}

// SendResult is the state of the follow edge created by SendFollowRequest
type SendResult struct {
	Status FollowStatus `json:"status"`
}

// Service is the relationship state machine. It is the only writer of
// follow, friend and block edges.
type Service struct {
	store       Store
	privacy     PrivacyLookup
	notifier    notification.Dispatcher
	txPolicy    retry.Policy
	queryPolicy retry.Policy
	txTimeout   time.Duration
	now         func() time.Time
}

// NewService creates new relationships service
func NewService(store Store, privacy PrivacyLookup, notifier notification.Dispatcher, cfg Config) *Service {
	if notifier == nil {
		notifier = notification.LogDispatcher{}
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 5 * time.Second
	}
	return &Service{
		store:       store,
		privacy:     privacy,
		notifier:    notifier,
		txPolicy:    retry.DefaultPolicy(cfg.TxMaxAttempts),
		queryPolicy: retry.DefaultPolicy(cfg.QueryMaxAttempts),
		txTimeout:   cfg.TxTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// IsTransient reports whether err is a retryable store failure
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientStore)
}

// run applies one transition as a single transaction on the pair (a, b).
// The caller's context only gates submission: once the transaction is
// submitted it runs to commit or abort, bounded by txTimeout.
func (s *Service) run(ctx context.Context, transition Transition, a, b uuid.UUID, fn func(ctx context.Context, tx Tx) error) error {
	if a == uuid.Nil || b == uuid.Nil || a == b {
		transitionTotal.WithLabelValues(string(transition), resultLabel(ErrInvalidTransition)).Inc()
		return ErrInvalidTransition
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.txTimeout)
	defer cancel()

	attempt := 0
	err := retry.Run(txCtx, s.txPolicy, IsTransient, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			transitionRetries.WithLabelValues(string(transition)).Inc()
		}
		return s.store.WithinTx(ctx, a, b, func(tx Tx) error {
			return fn(ctx, tx)
		})
	})

	transitionDuration.WithLabelValues(string(transition)).Observe(time.Since(start).Seconds())
	transitionTotal.WithLabelValues(string(transition), resultLabel(err)).Inc()

	l := logger.FromContext(ctx)
	if err != nil {
		if IsTransient(err) {
			l.Error().Err(err).
				Str("transition", string(transition)).
				Str("sender_id", a.String()).
				Str("recipient_id", b.String()).
				Int("attempts", attempt).
				Msg("Relationship transition failed")
		}
		return err
	}

	l.Info().
		Str("transition", string(transition)).
		Str("sender_id", a.String()).
		Str("recipient_id", b.String()).
		Msg("Relationship transition committed")
	return nil
}

// linkFriendsIfMutual creates the friend edge when a→b was just accepted and
// b→a is already accepted.
func (s *Service) linkFriendsIfMutual(ctx context.Context, tx Tx, a, b uuid.UUID) error {
	reverse, err := tx.GetFollow(ctx, b, a)
	if err != nil {
		return err
	}
	if reverse == nil || reverse.Status != FollowStatusAccepted {
		return nil
	}
	_, err = tx.InsertFriend(ctx, NewFriendEdge(a, b, s.now()))
	return err
}

// repairFriendEdge makes the friend edge between a and b agree with their
// follow edges. Callers hold the pair lock.
func repairFriendEdge(ctx context.Context, tx Tx, a, b uuid.UUID) (created, deleted bool, err error) {
	ab, err := tx.GetFollow(ctx, a, b)
	if err != nil {
		return false, false, err
	}
	ba, err := tx.GetFollow(ctx, b, a)
	if err != nil {
		return false, false, err
	}

	if ab != nil && ba != nil && ab.Status == FollowStatusAccepted && ba.Status == FollowStatusAccepted {
		at := ab.UpdatedAt
		if ba.UpdatedAt.After(at) {
			at = ba.UpdatedAt
		}
		created, err = tx.InsertFriend(ctx, NewFriendEdge(a, b, at))
		return created, false, err
	}

	deleted, err = tx.DeleteFriend(ctx, a, b)
	return false, deleted, err
}

// SendFollowRequest creates a follow edge from sender to recipient. Public
// recipients are followed immediately, private ones get a pending request.
func (s *Service) SendFollowRequest(ctx context.Context, senderID, recipientID uuid.UUID) (*SendResult, error) {
	if senderID == recipientID {
		return nil, ErrInvalidTransition
	}

	private, err := retry.Do(ctx, s.queryPolicy, IsTransient, func(ctx context.Context) (bool, error) {
		return s.privacy.IsPrivate(ctx, recipientID)
	})
	if err != nil {
		return nil, err
	}

	status := FollowStatusAccepted
	if private {
		status = FollowStatusPending
	}

	err = s.run(ctx, TransitionSendFollowRequest, senderID, recipientID, func(ctx context.Context, tx Tx) error {
		blocked, err := tx.HasBlockBetween(ctx, senderID, recipientID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrAlreadyBlocked
		}

		existing, err := tx.GetFollow(ctx, senderID, recipientID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyExists
		}

		now := s.now()
		edge := &FollowEdge{
			ID:          uuid.New(),
			SenderID:    senderID,
			RecipientID: recipientID,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertFollow(ctx, edge); err != nil {
			return err
		}

		if status == FollowStatusAccepted {
			return s.linkFriendsIfMutual(ctx, tx, senderID, recipientID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := notification.TypeNewFollower
	if status == FollowStatusPending {
		eventType = notification.TypeFollowRequested
	}
	s.notifier.Dispatch(ctx, notification.NewEvent(eventType, senderID, recipientID))

	return &SendResult{Status: status}, nil
}

// AcceptFollowRequest accepts the pending request sender→recipient and links
// the pair as friends when recipient already follows sender.
func (s *Service) AcceptFollowRequest(ctx context.Context, senderID, recipientID uuid.UUID) error {
	err := s.run(ctx, TransitionAcceptFollowRequest, senderID, recipientID, func(ctx context.Context, tx Tx) error {
		accepted, err := tx.AcceptFollow(ctx, senderID, recipientID, s.now())
		if err != nil {
			return err
		}
		if !accepted {
			return ErrNotFound
		}
		return s.linkFriendsIfMutual(ctx, tx, senderID, recipientID)
	})
	if err != nil {
		return err
	}

	s.notifier.Dispatch(ctx, notification.NewEvent(notification.TypeFollowAccepted, recipientID, senderID))
	return nil
}

// DeclineFollowRequest deletes the pending request sender→recipient
func (s *Service) DeclineFollowRequest(ctx context.Context, senderID, recipientID uuid.UUID) error {
	return s.deletePending(ctx, TransitionDeclineFollowRequest, senderID, recipientID)
}

// CancelFollowRequest withdraws the pending request sender→recipient
func (s *Service) CancelFollowRequest(ctx context.Context, senderID, recipientID uuid.UUID) error {
	return s.deletePending(ctx, TransitionCancelFollowRequest, senderID, recipientID)
}

func (s *Service) deletePending(ctx context.Context, transition Transition, senderID, recipientID uuid.UUID) error {
	return s.run(ctx, transition, senderID, recipientID, func(ctx context.Context, tx Tx) error {
		deleted, err := tx.DeleteFollow(ctx, senderID, recipientID, FollowStatusPending)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotFound
		}
		return nil
	})
}

// UnfollowUser deletes the accepted follow sender→recipient and the friend
// edge it was part of. The reverse follow is left untouched.
func (s *Service) UnfollowUser(ctx context.Context, senderID, recipientID uuid.UUID) error {
	return s.unfollow(ctx, TransitionUnfollow, senderID, recipientID)
}

// RemoveFollower removes followerID from userID's followers
func (s *Service) RemoveFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	return s.unfollow(ctx, TransitionRemoveFollower, followerID, userID)
}

func (s *Service) unfollow(ctx context.Context, transition Transition, senderID, recipientID uuid.UUID) error {
	return s.run(ctx, transition, senderID, recipientID, func(ctx context.Context, tx Tx) error {
		edge, err := tx.GetFollow(ctx, senderID, recipientID)
		if err != nil {
			return err
		}
		if edge == nil {
			return ErrNotFound
		}
		if edge.Status != FollowStatusAccepted {
			return ErrInvalidTransition
		}

		if _, err := tx.DeleteFollow(ctx, senderID, recipientID, FollowStatusAccepted); err != nil {
			return err
		}
		_, err = tx.DeleteFriend(ctx, senderID, recipientID)
		return err
	})
}

// BlockUser blocks blockedID and tears down every follow and friend edge
// between the two users. Blocking twice is a no-op.
func (s *Service) BlockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	var created bool
	err := s.run(ctx, TransitionBlock, blockerID, blockedID, func(ctx context.Context, tx Tx) error {
		var err error
		created, err = tx.InsertBlock(ctx, &BlockEdge{
			ID:            uuid.New(),
			BlockerUserID: blockerID,
			BlockedUserID: blockedID,
			CreatedAt:     s.now(),
		})
		if err != nil {
			return err
		}
		if _, err := tx.DeleteFollowsBetween(ctx, blockerID, blockedID); err != nil {
			return err
		}
		_, err = tx.DeleteFriend(ctx, blockerID, blockedID)
		return err
	})
	if err != nil {
		return err
	}

	if created {
		s.notifier.Dispatch(ctx, notification.NewEvent(notification.TypeUserBlocked, blockerID, blockedID))
	}
	return nil
}

// UnblockUser removes the block only. Prior follows are not restored.
func (s *Service) UnblockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	return s.run(ctx, TransitionUnblock, blockerID, blockedID, func(ctx context.Context, tx Tx) error {
		deleted, err := tx.DeleteBlock(ctx, blockerID, blockedID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotFound
		}
		return nil
	})
}

// GetFollowStatus returns the relationship between viewer and target as
// seen from the viewer.
func (s *Service) GetFollowStatus(ctx context.Context, viewerID, targetID uuid.UUID) (*Relationship, error) {
	if viewerID == targetID {
		return &Relationship{Outgoing: FollowStatusNone, Incoming: FollowStatusNone}, nil
	}
	return retry.Do(ctx, s.queryPolicy, IsTransient, func(ctx context.Context) (*Relationship, error) {
		return s.store.GetRelationship(ctx, viewerID, targetID)
	})
}

// BlockedUserIDs returns users blocked by userID or blocking userID
func (s *Service) BlockedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return retry.Do(ctx, s.queryPolicy, IsTransient, func(ctx context.Context) ([]uuid.UUID, error) {
		return s.store.BlockedUserIDs(ctx, userID)
	})
}

// FollowingIDs returns users userID follows with an accepted edge
func (s *Service) FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return retry.Do(ctx, s.queryPolicy, IsTransient, func(ctx context.Context) ([]uuid.UUID, error) {
		return s.store.FollowingIDs(ctx, userID)
	})
}

// Reconcile repairs friend edges that do not match mutual accepted follows
func (s *Service) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	result, err := retry.Do(ctx, s.txPolicy, IsTransient, func(ctx context.Context) (*ReconcileResult, error) {
		return s.store.Reconcile(ctx)
	})
	if err != nil {
		return nil, err
	}

	l := logger.FromContext(ctx)
	if result.Created > 0 || result.Deleted > 0 {
		l.Warn().Int64("created", result.Created).Int64("deleted", result.Deleted).Msg("Friend edges reconciled")
	} else {
		l.Info().Msg("Friend edges consistent")
	}
	return result, nil
}
