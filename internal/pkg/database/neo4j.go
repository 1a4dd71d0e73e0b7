package database

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// NewNeo4j creates a Neo4j driver and verifies connectivity.
func NewNeo4j(uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(context.Background())
		return nil, err
	}

	log.Info().Str("uri", uri).Msg("Connected to Neo4j")
	return driver, nil
}

// CloseNeo4j closes the Neo4j driver
func CloseNeo4j(driver neo4j.DriverWithContext) {
	if driver == nil {
		return
	}
	if err := driver.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("Error closing Neo4j driver")
	} else {
		log.Info().Msg("Neo4j driver closed")
	}
}
