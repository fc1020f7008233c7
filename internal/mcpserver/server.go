// Package mcpserver exposes the cognitive mapping pipeline as an MCP
// (Model Context Protocol) tool, `analyze-responses`, returning the
// assembled CognitiveArtifact as JSON to the caller (SPEC_FULL.md §2).
// Grounded on internal/server/server.go's UnifiedServer shape: a struct
// holding the wired dependencies, one RegisterTools method, and typed
// mcp.AddTool handlers.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quanticsoul4772/cogmap/internal/config"
	"github.com/quanticsoul4772/cogmap/internal/logging"
	"github.com/quanticsoul4772/cogmap/internal/orchestrator"
	"github.com/quanticsoul4772/cogmap/internal/persist/neo4jartifact"
	"github.com/quanticsoul4772/cogmap/internal/persist/runstore"
	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

var log = logging.New("[mcpserver] ")

// Server coordinates the pipeline and its optional persistence sinks.
type Server struct {
	embedder pipeline.Embedder
	mapper   pipeline.Mapper
	cfg      *config.PipelineConfig

	runs  *runstore.Store
	graph *neo4jartifact.Client
}

// New builds a Server. runs and graph may be nil — both are optional
// persistence sinks (spec.md's "no persistence choice" non-goal).
func New(embedder pipeline.Embedder, mapper pipeline.Mapper, cfg *config.PipelineConfig, runs *runstore.Store, graph *neo4jartifact.Client) *Server {
	if cfg == nil {
		cfg = config.DefaultPipelineConfig()
	}
	return &Server{embedder: embedder, mapper: mapper, cfg: cfg, runs: runs, graph: graph}
}

// RegisterTools registers this server's tools on mcpServer.
func (s *Server) RegisterTools(mcpServer *mcp.Server) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "analyze-responses",
		Description: "Runs the cognitive mapping pipeline over a query and a set of model responses, returning the assembled cognitive artifact",
	}, s.handleAnalyze)
}

// ModelResponseInput is one numbered model response in the request.
type ModelResponseInput struct {
	ModelIndex int    `json:"model_index"`
	Text       string `json:"text"`
}

// AnalyzeRequest is the analyze-responses tool input.
type AnalyzeRequest struct {
	Query     string               `json:"query"`
	Responses []ModelResponseInput `json:"responses"`
	RunID     string               `json:"run_id,omitempty"`
}

// AnalyzeResponse is the analyze-responses tool output.
type AnalyzeResponse struct {
	Artifact *pipeline.CognitiveArtifact `json:"artifact"`
	Cached   bool                        `json:"cached"`
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeRequest) (*mcp.CallToolResult, *AnalyzeResponse, error) {
	if input.Query == "" {
		return nil, nil, fmt.Errorf("query must not be empty")
	}
	responses := make([]pipeline.ModelResponse, 0, len(input.Responses))
	for _, r := range input.Responses {
		responses = append(responses, pipeline.ModelResponse{ModelIndex: pipeline.ModelIndex(r.ModelIndex), Text: r.Text})
	}

	var runKey string
	if s.runs != nil {
		key, err := runstore.RunKey(input.Query, responses, s.cfg)
		if err != nil {
			log.Warnf("failed to compute run key: %v", err)
		} else {
			runKey = key
			if cached, ok, err := s.runs.Get(ctx, runKey); err == nil && ok {
				return nil, &AnalyzeResponse{Artifact: cached, Cached: true}, nil
			} else if err != nil {
				log.Warnf("run cache lookup failed: %v", err)
			}
		}
	}

	artifact, err := orchestrator.Run(ctx, pipeline.Input{
		Query:     input.Query,
		Responses: responses,
		Embedder:  s.embedder,
		Mapper:    s.mapper,
	}, s.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline run failed: %w", err)
	}

	if s.runs != nil && runKey != "" {
		if err := s.runs.Put(ctx, runKey, artifact); err != nil {
			log.Warnf("failed to write run cache entry: %v", err)
		}
	}
	if s.graph != nil {
		id := input.RunID
		if id == "" {
			id = runKey
		}
		if id != "" {
			if err := s.graph.WriteArtifact(ctx, id, artifact); err != nil {
				log.Warnf("failed to write artifact to neo4j: %v", err)
			}
		}
	}

	return nil, &AnalyzeResponse{Artifact: artifact}, nil
}
