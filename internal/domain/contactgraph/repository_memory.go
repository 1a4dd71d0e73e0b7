package contactgraph

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryGraph is an in-process adjacency structure for small deployments
// and tests.
type MemoryGraph struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*UserVertex
	byPhone   map[string]map[uuid.UUID]struct{}
	contacts  map[uuid.UUID]map[string]*ContactEdge // owner -> hash
	byContact map[string]map[uuid.UUID]*ContactEdge // hash -> owner
	following map[uuid.UUID][]uuid.UUID
}

// NewMemoryGraph creates an empty in-memory contact graph
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		users:     make(map[uuid.UUID]*UserVertex),
		byPhone:   make(map[string]map[uuid.UUID]struct{}),
		contacts:  make(map[uuid.UUID]map[string]*ContactEdge),
		byContact: make(map[string]map[uuid.UUID]*ContactEdge),
		following: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (g *MemoryGraph) Neighbors(ctx context.Context, userID uuid.UUID, filter EdgeFilter) ([]Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Neighbor
	for hash, edge := range g.contacts[userID] {
		if !filter.Match(edge.IsFollowing) {
			continue
		}
		for id := range g.byPhone[hash] {
			if id == userID {
				continue
			}
			out = append(out, Neighbor{UserID: id, IsFollowing: edge.IsFollowing, CreatedAt: edge.CreatedAt})
		}
	}
	sortNeighbors(out)
	return out, nil
}

func (g *MemoryGraph) IncomingNeighbors(ctx context.Context, userID uuid.UUID, filter EdgeFilter) ([]Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	user, ok := g.users[userID]
	if !ok || user.PhoneNumberHash == "" {
		return []Neighbor{}, nil
	}

	var out []Neighbor
	for owner, edge := range g.byContact[user.PhoneNumberHash] {
		if owner == userID || !filter.Match(edge.IsFollowing) {
			continue
		}
		out = append(out, Neighbor{UserID: owner, IsFollowing: edge.IsFollowing, CreatedAt: edge.CreatedAt})
	}
	sortNeighbors(out)
	return out, nil
}

func (g *MemoryGraph) Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]uuid.UUID(nil), g.following[userID]...), nil
}

func (g *MemoryGraph) UpsertUser(ctx context.Context, v UserVertex) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upsertUserLocked(v)
	return nil
}

func (g *MemoryGraph) upsertUserLocked(v UserVertex) {
	now := v.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	existing, ok := g.users[v.ID]
	if !ok {
		existing = &UserVertex{ID: v.ID, CreatedAt: now}
		g.users[v.ID] = existing
	}
	existing.UpdatedAt = now

	if v.PhoneNumberHash != "" && v.PhoneNumberHash != existing.PhoneNumberHash {
		if old := existing.PhoneNumberHash; old != "" {
			delete(g.byPhone[old], v.ID)
		}
		existing.PhoneNumberHash = v.PhoneNumberHash
		if g.byPhone[v.PhoneNumberHash] == nil {
			g.byPhone[v.PhoneNumberHash] = make(map[uuid.UUID]struct{})
		}
		g.byPhone[v.PhoneNumberHash][v.ID] = struct{}{}
	}
}

func (g *MemoryGraph) ReplaceContacts(ctx context.Context, batch SyncBatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	at := batch.SyncedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	g.upsertUserLocked(UserVertex{ID: batch.OwnerID, PhoneNumberHash: batch.PhoneNumberHash, UpdatedAt: at})

	followed := make(map[uuid.UUID]struct{}, len(batch.Following))
	for _, id := range batch.Following {
		followed[id] = struct{}{}
	}
	g.following[batch.OwnerID] = append([]uuid.UUID(nil), batch.Following...)

	keep := make(map[string]struct{}, len(batch.ContactHashes))
	for _, h := range batch.ContactHashes {
		keep[h] = struct{}{}
	}

	owned := g.contacts[batch.OwnerID]
	if owned == nil {
		owned = make(map[string]*ContactEdge)
		g.contacts[batch.OwnerID] = owned
	}
	for hash := range owned {
		if _, ok := keep[hash]; !ok {
			delete(owned, hash)
			delete(g.byContact[hash], batch.OwnerID)
		}
	}

	for hash := range keep {
		edge, ok := owned[hash]
		if !ok {
			edge = &ContactEdge{OwnerID: batch.OwnerID, ContactHash: hash, CreatedAt: at}
			owned[hash] = edge
			if g.byContact[hash] == nil {
				g.byContact[hash] = make(map[uuid.UUID]*ContactEdge)
			}
			g.byContact[hash][batch.OwnerID] = edge
		}
		edge.IsFollowing = false
		for id := range g.byPhone[hash] {
			if _, ok := followed[id]; ok {
				edge.IsFollowing = true
				break
			}
		}
	}
	return nil
}

// sortNeighbors orders by edge CreatedAt descending, then id ascending
func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if !ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].CreatedAt.After(ns[j].CreatedAt)
		}
		return bytes.Compare(ns[i].UserID[:], ns[j].UserID[:]) < 0
	})
}
