package relationships

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type pairKey [2]uuid.UUID

type fakeState struct {
	follows map[pairKey]FollowEdge
	friends map[pairKey]FriendEdge
	blocks  map[pairKey]BlockEdge
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		follows: make(map[pairKey]FollowEdge, len(s.follows)),
		friends: make(map[pairKey]FriendEdge, len(s.friends)),
		blocks:  make(map[pairKey]BlockEdge, len(s.blocks)),
	}
	for k, v := range s.follows {
		c.follows[k] = v
	}
	for k, v := range s.friends {
		c.friends[k] = v
	}
	for k, v := range s.blocks {
		c.blocks[k] = v
	}
	return c
}

// fakeStore applies each unit of work to a copy of the state and swaps it in
// on success, so a failed callback leaves nothing behind.
type fakeStore struct {
	mu        sync.Mutex
	state     *fakeState
	txCalls   int
	failTimes int

	// afterScan runs between Reconcile's scan and its repairs
	afterScan func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: (&fakeState{}).clone()}
}

func (f *fakeStore) WithinTx(ctx context.Context, a, b uuid.UUID, fn func(tx Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.txCalls++
	if f.failTimes > 0 {
		f.failTimes--
		return ErrTransientStore
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	work := f.state.clone()
	if err := fn(&fakeTx{s: work}); err != nil {
		return err
	}
	f.state = work
	return nil
}

func (f *fakeStore) GetRelationship(ctx context.Context, viewerID, targetID uuid.UUID) (*Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rel := &Relationship{Outgoing: FollowStatusNone, Incoming: FollowStatusNone}
	if e, ok := f.state.follows[pairKey{viewerID, targetID}]; ok {
		rel.Outgoing = e.Status
	}
	if e, ok := f.state.follows[pairKey{targetID, viewerID}]; ok {
		rel.Incoming = e.Status
	}
	lo, hi := CanonicalPair(viewerID, targetID)
	_, rel.IsFriend = f.state.friends[pairKey{lo, hi}]
	_, rel.Blocking = f.state.blocks[pairKey{viewerID, targetID}]
	_, rel.BlockedBy = f.state.blocks[pairKey{targetID, viewerID}]
	return rel, nil
}

func (f *fakeStore) BlockedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []uuid.UUID
	for k := range f.state.blocks {
		switch userID {
		case k[0]:
			ids = append(ids, k[1])
		case k[1]:
			ids = append(ids, k[0])
		}
	}
	return ids, nil
}

func (f *fakeStore) FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []uuid.UUID
	for k, e := range f.state.follows {
		if k[0] == userID && e.Status == FollowStatusAccepted {
			ids = append(ids, k[1])
		}
	}
	return ids, nil
}

// Reconcile mirrors the Postgres store: scan for drifted pairs, then repair
// each one in its own unit of work.
func (f *fakeStore) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	f.mu.Lock()
	var pairs []pairKey
	for k, e := range f.state.follows {
		if e.Status != FollowStatusAccepted || !f.state.mutual(k[0], k[1]) {
			continue
		}
		lo, hi := CanonicalPair(k[0], k[1])
		if _, exists := f.state.friends[pairKey{lo, hi}]; !exists && lo == k[0] {
			pairs = append(pairs, pairKey{lo, hi})
		}
	}
	for k := range f.state.friends {
		if !f.state.mutual(k[0], k[1]) {
			pairs = append(pairs, k)
		}
	}
	afterScan := f.afterScan
	f.mu.Unlock()

	if afterScan != nil {
		afterScan()
	}

	result := &ReconcileResult{}
	for _, p := range pairs {
		var created, deleted bool
		err := f.WithinTx(ctx, p[0], p[1], func(tx Tx) error {
			var err error
			created, deleted, err = repairFriendEdge(ctx, tx, p[0], p[1])
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

func (s *fakeState) mutual(a, b uuid.UUID) bool {
	ab, ok1 := s.follows[pairKey{a, b}]
	ba, ok2 := s.follows[pairKey{b, a}]
	return ok1 && ok2 && ab.Status == FollowStatusAccepted && ba.Status == FollowStatusAccepted
}

// snapshot returns a consistent copy of the committed state
func (f *fakeStore) snapshot() *fakeState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.clone()
}

type fakeTx struct {
	s *fakeState
}

func (t *fakeTx) GetFollow(ctx context.Context, senderID, recipientID uuid.UUID) (*FollowEdge, error) {
	e, ok := t.s.follows[pairKey{senderID, recipientID}]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (t *fakeTx) InsertFollow(ctx context.Context, edge *FollowEdge) error {
	k := pairKey{edge.SenderID, edge.RecipientID}
	if _, ok := t.s.follows[k]; ok {
		return ErrAlreadyExists
	}
	t.s.follows[k] = *edge
	return nil
}

func (t *fakeTx) AcceptFollow(ctx context.Context, senderID, recipientID uuid.UUID, at time.Time) (bool, error) {
	k := pairKey{senderID, recipientID}
	e, ok := t.s.follows[k]
	if !ok || e.Status != FollowStatusPending {
		return false, nil
	}
	e.Status = FollowStatusAccepted
	e.UpdatedAt = at
	t.s.follows[k] = e
	return true, nil
}

func (t *fakeTx) DeleteFollow(ctx context.Context, senderID, recipientID uuid.UUID, status FollowStatus) (bool, error) {
	k := pairKey{senderID, recipientID}
	e, ok := t.s.follows[k]
	if !ok || e.Status != status {
		return false, nil
	}
	delete(t.s.follows, k)
	return true, nil
}

func (t *fakeTx) DeleteFollowsBetween(ctx context.Context, a, b uuid.UUID) (int64, error) {
	var n int64
	for _, k := range []pairKey{{a, b}, {b, a}} {
		if _, ok := t.s.follows[k]; ok {
			delete(t.s.follows, k)
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) InsertFriend(ctx context.Context, edge *FriendEdge) (bool, error) {
	k := pairKey{edge.UserAID, edge.UserBID}
	if _, ok := t.s.friends[k]; ok {
		return false, nil
	}
	t.s.friends[k] = *edge
	return true, nil
}

func (t *fakeTx) DeleteFriend(ctx context.Context, a, b uuid.UUID) (bool, error) {
	lo, hi := CanonicalPair(a, b)
	k := pairKey{lo, hi}
	if _, ok := t.s.friends[k]; !ok {
		return false, nil
	}
	delete(t.s.friends, k)
	return true, nil
}

func (t *fakeTx) HasBlockBetween(ctx context.Context, a, b uuid.UUID) (bool, error) {
	_, ab := t.s.blocks[pairKey{a, b}]
	_, ba := t.s.blocks[pairKey{b, a}]
	return ab || ba, nil
}

func (t *fakeTx) InsertBlock(ctx context.Context, block *BlockEdge) (bool, error) {
	k := pairKey{block.BlockerUserID, block.BlockedUserID}
	if _, ok := t.s.blocks[k]; ok {
		return false, nil
	}
	t.s.blocks[k] = *block
	return true, nil
}

func (t *fakeTx) DeleteBlock(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	k := pairKey{blockerID, blockedID}
	if _, ok := t.s.blocks[k]; !ok {
		return false, nil
	}
	delete(t.s.blocks, k)
	return true, nil
}

type fakePrivacy map[uuid.UUID]bool

func (p fakePrivacy) IsPrivate(ctx context.Context, userID uuid.UUID) (bool, error) {
	return p[userID], nil
}
