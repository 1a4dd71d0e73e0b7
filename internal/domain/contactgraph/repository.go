package contactgraph

import (
	"context"

	"github.com/google/uuid"
)

// Graph is the traversal-oriented contact store. Read operations serve the
// recommendation engine; writes come from contact sync only.
// Backend failures are reported wrapped in ErrGraphUnavailable.
type Graph interface {
	// Neighbors returns registered users in userID's contacts, newest edge
	// first, ties by id.
	Neighbors(ctx context.Context, userID uuid.UUID, filter EdgeFilter) ([]Neighbor, error)
	// IncomingNeighbors returns users who have userID's number in their
	// contacts, newest edge first, ties by id.
	IncomingNeighbors(ctx context.Context, userID uuid.UUID, filter EdgeFilter) ([]Neighbor, error)
	// Following returns the follow snapshot taken at userID's last sync
	Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// UpsertUser merges the vertex on id, keeping CreatedAt from the first insert
	UpsertUser(ctx context.Context, v UserVertex) error
	// ReplaceContacts makes the batch the owner's full contact list and
	// follow snapshot.
	ReplaceContacts(ctx context.Context, batch SyncBatch) error
}
