// Package main provides the entry point for the Cognitive Mapping Pipeline
// MCP server.
//
// This server is designed to be spawned as a child process and communicates
// via stdio using the Model Context Protocol. It exposes a single tool,
// analyze-responses, that runs the pipeline over a query and a set of
// model responses and returns the assembled cognitive artifact as JSON.
//
// Environment variables:
//   - DEBUG: set to "true" to enable debug logging
//   - VOYAGE_API_KEY: if set, responses are embedded via the Voyage AI API;
//     otherwise a deterministic mock embedder is used
//   - COGMAP_NEO4J_URI, COGMAP_NEO4J_USERNAME, COGMAP_NEO4J_PASSWORD: if
//     COGMAP_NEO4J_URI is set, a freshly computed run's claims/edges are
//     also written to Neo4j as a graph, under the request's run_id or, when
//     that is empty, the run-store key; a run with neither, or one served
//     from the run store, is not written
//   - COGMAP_RUN_STORE_DSN: if set, enables the sqlite idempotency cache so
//     repeated runs over identical input skip re-computation
package main

import (
	"context"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quanticsoul4772/cogmap/internal/config"
	"github.com/quanticsoul4772/cogmap/internal/embeddings"
	"github.com/quanticsoul4772/cogmap/internal/mapperadapter"
	"github.com/quanticsoul4772/cogmap/internal/mcpserver"
	"github.com/quanticsoul4772/cogmap/internal/persist/neo4jartifact"
	"github.com/quanticsoul4772/cogmap/internal/persist/runstore"
	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

func main() {
	if os.Getenv("DEBUG") == "true" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("Starting Cognitive Mapping Pipeline Server in debug mode...")
	}

	cfg := config.FromEnv()

	var embedder pipeline.Embedder
	if apiKey := os.Getenv("VOYAGE_API_KEY"); apiKey != "" {
		model := os.Getenv("VOYAGE_MODEL")
		if model == "" {
			model = "voyage-3"
		}
		embedder = embeddings.NewAdapter(embeddings.NewVoyageRawEmbedder(apiKey, model))
		log.Println("Using Voyage AI embedder")
	} else {
		embedder = embeddings.NewAdapter(embeddings.NewMockRawEmbedder(256))
		log.Println("VOYAGE_API_KEY not set, using deterministic mock embedder")
	}

	mapper := mapperadapter.NewMockMapper()
	log.Println("Using mock mapper (no LLM-backed mapper wired in this build)")

	var runs *runstore.Store
	if dsn := os.Getenv("COGMAP_RUN_STORE_DSN"); dsn != "" {
		store, err := runstore.Open(dsn)
		if err != nil {
			log.Fatalf("Failed to open run store: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("Warning: failed to close run store: %v", err)
			}
		}()
		runs = store
		log.Printf("Run store enabled at %s", dsn)
	}

	var graph *neo4jartifact.Client
	if uri := os.Getenv("COGMAP_NEO4J_URI"); uri != "" {
		client, err := neo4jartifact.NewClient(neo4jartifact.Config{
			URI:      uri,
			Username: os.Getenv("COGMAP_NEO4J_USERNAME"),
			Password: os.Getenv("COGMAP_NEO4J_PASSWORD"),
		})
		if err != nil {
			log.Fatalf("Failed to connect to neo4j: %v", err)
		}
		defer func() {
			if err := client.Close(context.Background()); err != nil {
				log.Printf("Warning: failed to close neo4j client: %v", err)
			}
		}()
		graph = client
		log.Println("Neo4j artifact sink enabled")
	}

	srv := mcpserver.New(embedder, mapper, cfg, runs, graph)
	log.Println("Created cognitive mapping server")

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "cogmap-server",
		Version: "1.0.0",
	}, nil)
	log.Println("Created MCP server")

	srv.RegisterTools(mcpServer)
	log.Println("Registered tool: analyze-responses")

	transport := &mcp.StdioTransport{}
	log.Println("Created stdio transport")

	ctx := context.Background()
	log.Println("Starting MCP server...")
	if err := mcpServer.Run(ctx, transport); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
