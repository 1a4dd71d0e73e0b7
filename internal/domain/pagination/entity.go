package pagination

import (
	"time"

	"github.com/google/uuid"
)

// ListKind names one paginated relationship list
type ListKind string

const (
	ListFollowers      ListKind = "followers"
	ListFollowing      ListKind = "following"
	ListFriends        ListKind = "friends"
	ListBlocked        ListKind = "blocked"
	ListFollowRequests ListKind = "follow_requests"
)

// Valid reports whether k is a known list
func (k ListKind) Valid() bool {
	switch k {
	case ListFollowers, ListFollowing, ListFriends, ListBlocked, ListFollowRequests:
		return true
	}
	return false
}

// OwnerOnly reports whether only the subject may read the list
func (k ListKind) OwnerOnly() bool {
	return k == ListBlocked || k == ListFollowRequests
}

// Item is one row of a list: the edge and the user on its far side
type Item struct {
	EdgeID    uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Cursor returns the keyset position of the item
func (i *Item) Cursor() Cursor {
	return Cursor{CreatedAt: i.CreatedAt, ID: i.EdgeID}
}

// Page is one page of a list
type Page struct {
	Items      []*Item
	NextCursor *Cursor
}
