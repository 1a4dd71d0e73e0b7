package contactgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jGraph stores the contact graph as
// (:User)-[:HAS_CONTACT]->(:Phone) and (:User)-[:FOLLOWS]->(:User).
// Contacts resolve to users through User.phoneNumberHash = Phone.hash.
type Neo4jGraph struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jGraph creates a Neo4j backed contact graph
func NewNeo4jGraph(driver neo4j.DriverWithContext) *Neo4jGraph {
	return &Neo4jGraph{driver: driver}
}

var schemaStatements = []string{
	`CREATE CONSTRAINT contact_user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
	`CREATE CONSTRAINT contact_phone_hash_unique IF NOT EXISTS FOR (p:Phone) REQUIRE p.hash IS UNIQUE`,
	`CREATE INDEX contact_user_phone_hash IF NOT EXISTS FOR (u:User) ON (u.phoneNumberHash)`,
}

// EnsureSchema creates constraints and indexes the traversals rely on
func (g *Neo4jGraph) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		result, err := session.Run(ctx, stmt, nil)
		if err == nil {
			_, err = result.Consume(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrGraphUnavailable, op, err)
}

func filterParam(f EdgeFilter) interface{} {
	if f.IsFollowing == nil {
		return nil
	}
	return *f.IsFollowing
}

func (g *Neo4jGraph) Neighbors(ctx context.Context, userID uuid.UUID, filter EdgeFilter) ([]Neighbor, error) {
	query := `
		MATCH (u:User {id: $userID})-[e:HAS_CONTACT]->(p:Phone)
		MATCH (c:User {phoneNumberHash: p.hash})
		WHERE c.id <> $userID AND ($isFollowing IS NULL OR e.isFollowing = $isFollowing)
		RETURN c.id AS user_id, e.isFollowing AS is_following, e.createdAt AS created_at
		ORDER BY e.createdAt DESC, c.id ASC
	`
	return g.readNeighbors(ctx, "neighbors", query, map[string]interface{}{
		"userID":      userID.String(),
		"isFollowing": filterParam(filter),
	})
}

func (g *Neo4jGraph) IncomingNeighbors(ctx context.Context, userID uuid.UUID, filter EdgeFilter) ([]Neighbor, error) {
	query := `
		MATCH (u:User {id: $userID})
		WHERE u.phoneNumberHash IS NOT NULL
		MATCH (o:User)-[e:HAS_CONTACT]->(:Phone {hash: u.phoneNumberHash})
		WHERE o.id <> $userID AND ($isFollowing IS NULL OR e.isFollowing = $isFollowing)
		RETURN o.id AS user_id, e.isFollowing AS is_following, e.createdAt AS created_at
		ORDER BY e.createdAt DESC, o.id ASC
	`
	return g.readNeighbors(ctx, "incoming_neighbors", query, map[string]interface{}{
		"userID":      userID.String(),
		"isFollowing": filterParam(filter),
	})
}

func (g *Neo4jGraph) readNeighbors(ctx context.Context, op, query string, params map[string]interface{}) ([]Neighbor, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, unavailable(op, err)
	}

	var out []Neighbor
	for result.Next(ctx) {
		record := result.Record()
		id, err := uuid.Parse(getStringFromRecord(record, "user_id"))
		if err != nil {
			continue
		}
		out = append(out, Neighbor{
			UserID:      id,
			IsFollowing: getBoolFromRecord(record, "is_following"),
			CreatedAt:   getTimeFromRecord(record, "created_at"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

func (g *Neo4jGraph) Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (:User {id: $userID})-[:FOLLOWS]->(f:User)
		RETURN f.id AS user_id
	`, map[string]interface{}{"userID": userID.String()})
	if err != nil {
		return nil, unavailable("following", err)
	}

	var ids []uuid.UUID
	for result.Next(ctx) {
		if id, err := uuid.Parse(getStringFromRecord(result.Record(), "user_id")); err == nil {
			ids = append(ids, id)
		}
	}
	if err := result.Err(); err != nil {
		return nil, unavailable("following", err)
	}
	return ids, nil
}

const upsertUserQuery = `
	MERGE (u:User {id: $id})
	ON CREATE SET
		u.createdAt = datetime($now),
		u.updatedAt = datetime($now),
		u.phoneNumberHash = $phoneHash
	ON MATCH SET
		u.updatedAt = datetime($now),
		u.phoneNumberHash = coalesce($phoneHash, u.phoneNumberHash)
`

func userParams(id uuid.UUID, phoneHash string, at time.Time) map[string]interface{} {
	var hash interface{}
	if phoneHash != "" {
		hash = phoneHash
	}
	return map[string]interface{}{
		"id":        id.String(),
		"phoneHash": hash,
		"now":       at.UTC().Format(time.RFC3339Nano),
	}
}

func (g *Neo4jGraph) UpsertUser(ctx context.Context, v UserVertex) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	at := v.UpdatedAt
	if at.IsZero() {
		at = time.Now()
	}
	result, err := session.Run(ctx, upsertUserQuery, userParams(v.ID, v.PhoneNumberHash, at))
	if err == nil {
		_, err = result.Consume(ctx)
	}
	if err != nil {
		return unavailable("upsert_user", err)
	}
	return nil
}

func (g *Neo4jGraph) ReplaceContacts(ctx context.Context, batch SyncBatch) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	at := batch.SyncedAt
	if at.IsZero() {
		at = time.Now()
	}

	following := make([]string, 0, len(batch.Following))
	for _, id := range batch.Following {
		following = append(following, id.String())
	}
	hashes := batch.ContactHashes
	if hashes == nil {
		hashes = []string{}
	}

	params := userParams(batch.OwnerID, batch.PhoneNumberHash, at)
	params["following"] = following
	params["hashes"] = hashes

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, upsertUserQuery, params); err != nil {
			return nil, err
		}

		// Follow snapshot is replaced wholesale
		if _, err := tx.Run(ctx, `
			MATCH (:User {id: $id})-[old:FOLLOWS]->()
			DELETE old
		`, params); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, `
			MATCH (u:User {id: $id})
			UNWIND $following AS fid
			MERGE (f:User {id: fid})
			ON CREATE SET f.createdAt = datetime($now), f.updatedAt = datetime($now)
			MERGE (u)-[r:FOLLOWS]->(f)
			SET r.syncedAt = datetime($now)
		`, params); err != nil {
			return nil, err
		}

		if _, err := tx.Run(ctx, `
			MATCH (:User {id: $id})-[e:HAS_CONTACT]->(p:Phone)
			WHERE NOT p.hash IN $hashes
			DELETE e
		`, params); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, `
			MATCH (u:User {id: $id})
			UNWIND $hashes AS h
			MERGE (p:Phone {hash: h})
			MERGE (u)-[e:HAS_CONTACT]->(p)
			ON CREATE SET e.createdAt = datetime($now)
			WITH e, p
			OPTIONAL MATCH (c:User {phoneNumberHash: p.hash})
			WITH e, collect(c.id) AS contactIDs
			SET e.isFollowing = any(cid IN contactIDs WHERE cid IN $following)
		`, params); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return unavailable("replace_contacts", err)
	}
	return nil
}
