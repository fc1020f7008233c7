// Package neo4jartifact is an optional graph-queryable sink for a
// CognitiveArtifact: claims become `:Claim` nodes and semantic edges
// become `:RELATES` relationships between them, with the edge kind stored
// in a `kind` property, so a caller can run Cypher
// queries over a run's argument structure instead of only consuming the
// JSON artifact (spec.md's "no persistence choice" non-goal: the core
// pipeline never requires this). Grounded on
// internal/knowledge/neo4j_client.go's driver construction and
// connectivity verification, and internal/knowledge/graph_store.go's
// tx.Run-with-named-params query shape.
package neo4jartifact

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

// Config carries the connection parameters (spec.md §6 RuntimeConfig's
// Neo4jURI, plus the auth/database fields that a bare URI doesn't carry).
type Config struct {
	URI      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// Client writes CognitiveArtifact runs into Neo4j.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// NewClient opens a driver and verifies connectivity before returning.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4jconfig.Config) {
			c.MaxConnectionPoolSize = 20
			c.ConnectionAcquisitionTimeout = cfg.Timeout
			c.SocketConnectTimeout = cfg.Timeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, database: cfg.Database, timeout: cfg.Timeout}, nil
}

// Close releases the driver.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) executeWrite(ctx context.Context, work neo4j.ManagedTransactionWork) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, work)
	return err
}

// WriteArtifact upserts runID's claims and semantic edges into the graph.
// Every node and relationship carries a runId property so multiple runs
// can coexist without collision and queries can scope to one run. Absent
// semantic output (mapper failure or no claims) is a no-op, not an error.
func (c *Client) WriteArtifact(ctx context.Context, runID string, artifact *pipeline.CognitiveArtifact) error {
	if artifact == nil || artifact.Semantic == nil || len(artifact.Semantic.Claims) == 0 {
		return nil
	}

	for _, claim := range artifact.Semantic.Claims {
		claim := claim
		err := c.executeWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
			_, err := tx.Run(ctx, `
				MERGE (c:Claim {runId: $runId, id: $id})
				SET c.label = $label, c.text = $text, c.type = $type
			`, map[string]interface{}{
				"runId": runID,
				"id":    string(claim.ID),
				"label": claim.Label,
				"text":  claim.Text,
				"type":  string(claim.Type),
			})
			return nil, err
		})
		if err != nil {
			return fmt.Errorf("failed to write claim %s: %w", claim.ID, err)
		}
	}

	for _, edge := range artifact.Semantic.Edges {
		edge := edge
		err := c.executeWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
			_, err := tx.Run(ctx, `
				MATCH (a:Claim {runId: $runId, id: $source})
				MATCH (b:Claim {runId: $runId, id: $target})
				MERGE (a)-[r:RELATES {kind: $kind}]->(b)
				SET r.runId = $runId, r.weight = $weight, r.reason = $reason
			`, map[string]interface{}{
				"runId":  runID,
				"source": string(edge.Source),
				"target": string(edge.Target),
				"kind":   string(edge.Kind),
				"weight": edge.Weight,
				"reason": edge.Reason,
			})
			return nil, err
		})
		if err != nil {
			return fmt.Errorf("failed to write edge %s->%s: %w", edge.Source, edge.Target, err)
		}
	}

	return nil
}

// DeleteRun removes every node and relationship belonging to runID.
func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	return c.executeWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, `
			MATCH (c:Claim {runId: $runId})
			DETACH DELETE c
		`, map[string]interface{}{"runId": runID})
		return nil, err
	})
}
