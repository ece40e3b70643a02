// Package export mirrors the meter hierarchy into external systems.
package export

import (
	"context"
	"fmt"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// Source is the slice of the store the exporter reads.
type Source interface {
	ListNodes(ctx context.Context) ([]schematic.Node, error)
	ListEdges(ctx context.Context, projectID string) ([]schematic.Edge, error)
}

// Runner executes a single Cypher query. The concrete implementation wraps
// the Neo4j driver; tests substitute a recorder.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) error
}

// DriverRunner runs queries through the official driver's ExecuteQuery,
// which manages sessions and transactions itself.
type DriverRunner struct {
	Driver neo4j.DriverWithContext
	DBName string
}

// NewDriverRunner connects to a Neo4j instance and verifies connectivity.
func NewDriverRunner(ctx context.Context, uri, username, password, dbName string) (*DriverRunner, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach neo4j: %w", err)
	}
	return &DriverRunner{Driver: driver, DBName: dbName}, nil
}

func (r *DriverRunner) Run(ctx context.Context, query string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, r.Driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(r.DBName),
	)
	return err
}

// Close releases the underlying driver.
func (r *DriverRunner) Close(ctx context.Context) error {
	return r.Driver.Close(ctx)
}

const (
	mergeMeterQuery = `MERGE (m:Meter {id: $id})
SET m.label = $label, m.shop_name = $shop_name, m.project_id = $project_id`

	mergeFeedQuery = `MATCH (p:Meter {id: $parent_id}), (c:Meter {id: $child_id})
MERGE (p)-[:FEEDS]->(c)`
)

// Exporter mirrors meters and feed edges as (:Meter)-[:FEEDS]->(:Meter).
// MERGE keeps the export idempotent; stale graph content is not removed.
type Exporter struct {
	source Source
	runner Runner
}

func NewExporter(source Source, runner Runner) *Exporter {
	return &Exporter{source: source, runner: runner}
}

// Export pushes every meter first, then every feed relationship, so edge
// MATCH clauses always find both ends.
func (e *Exporter) Export(ctx context.Context, projectID string) error {
	nodes, err := e.source.ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list meters: %w", err)
	}
	edges, err := e.source.ListEdges(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to list edges: %w", err)
	}

	for _, n := range nodes {
		params := map[string]any{
			"id":         n.ID,
			"label":      n.Label,
			"shop_name":  n.ShopName,
			"project_id": projectID,
		}
		if err := e.runner.Run(ctx, mergeMeterQuery, params); err != nil {
			return fmt.Errorf("failed to export meter %s: %w", n.ID, err)
		}
	}

	for _, edge := range edges {
		params := map[string]any{
			"parent_id": edge.ParentID,
			"child_id":  edge.ChildID,
		}
		if err := e.runner.Run(ctx, mergeFeedQuery, params); err != nil {
			return fmt.Errorf("failed to export edge %s: %w", edge.Key(), err)
		}
	}

	log.Printf("exported %d meters and %d feed edges", len(nodes), len(edges))
	return nil
}
