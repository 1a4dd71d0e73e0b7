package contactgraph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	BackendNeo4j  = "neo4j"
	BackendMemory = "memory"
)

// New returns the graph for backend. The neo4j backend needs a driver and
// has its schema ensured before use.
func New(ctx context.Context, backend string, driver neo4j.DriverWithContext) (Graph, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryGraph(), nil
	case BackendNeo4j:
		if driver == nil {
			return nil, ErrGraphUnavailable
		}
		g := NewNeo4jGraph(driver)
		if err := g.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, ErrUnknownBackend
	}
}
