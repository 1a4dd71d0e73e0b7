package contactgraph

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a running Neo4j instance via NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD
func createTestDriver(t *testing.T) neo4j.DriverWithContext {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"), ""))
	require.NoError(t, err)
	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		t.Skipf("neo4j not available: %v", err)
	}
	return driver
}

func TestNeo4jGraphRoundTrip(t *testing.T) {
	driver := createTestDriver(t)
	ctx := context.Background()
	defer driver.Close(ctx)

	g, err := New(ctx, BackendNeo4j, driver)
	require.NoError(t, err)

	u, b, c := uuid.New(), uuid.New(), uuid.New()
	suffix := u.String()
	hashU := HashPhoneNumber("1" + suffix)
	hashB := HashPhoneNumber("2" + suffix)
	hashC := HashPhoneNumber("3" + suffix)

	defer func() {
		session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)
		_, _ = session.Run(ctx, "MATCH (n:User) WHERE n.id IN $ids DETACH DELETE n", map[string]interface{}{
			"ids": []string{u.String(), b.String(), c.String()},
		})
		_, _ = session.Run(ctx, "MATCH (p:Phone) WHERE p.hash IN $hashes DETACH DELETE p", map[string]interface{}{
			"hashes": []string{hashU, hashB, hashC},
		})
	}()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, g.UpsertUser(ctx, UserVertex{ID: b, PhoneNumberHash: hashB, UpdatedAt: now}))
	require.NoError(t, g.UpsertUser(ctx, UserVertex{ID: c, PhoneNumberHash: hashC, UpdatedAt: now}))
	require.NoError(t, g.ReplaceContacts(ctx, SyncBatch{
		OwnerID:         u,
		PhoneNumberHash: hashU,
		ContactHashes:   []string{hashB, hashC},
		Following:       []uuid.UUID{c},
		SyncedAt:        now,
	}))
	require.NoError(t, g.ReplaceContacts(ctx, SyncBatch{OwnerID: b, ContactHashes: []string{hashU}, SyncedAt: now}))

	notFollowed, err := g.Neighbors(ctx, u, NotFollowed())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, ids(notFollowed))

	in, err := g.IncomingNeighbors(ctx, u, AllEdges())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, ids(in))

	following, err := g.Following(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c}, following)
}
