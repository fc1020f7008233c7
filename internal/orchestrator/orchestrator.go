// Package orchestrator implements component K, the Pipeline Orchestrator:
// sequencing stages A through J, timing and error-capturing each one into
// Observability, and handing the merged result to component L (spec.md
// §4.K). Grounded on the teacher's internal/orchestration/workflow.go
// per-step timing/error-capture shape and internal/streaming/reporter.go's
// step-based progress idiom, generalized from a configurable tool-chain
// to this pipeline's fixed stage sequence with its two fork points.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quanticsoul4772/cogmap/internal/assembler"
	"github.com/quanticsoul4772/cogmap/internal/basin"
	"github.com/quanticsoul4772/cogmap/internal/blastradius"
	"github.com/quanticsoul4772/cogmap/internal/config"
	"github.com/quanticsoul4772/cogmap/internal/field"
	"github.com/quanticsoul4772/cogmap/internal/logging"
	"github.com/quanticsoul4772/cogmap/internal/mapperadapter"
	"github.com/quanticsoul4772/cogmap/internal/pipeline"
	"github.com/quanticsoul4772/cogmap/internal/provenance"
	"github.com/quanticsoul4772/cogmap/internal/queryrelevance"
	"github.com/quanticsoul4772/cogmap/internal/shadow"
	"github.com/quanticsoul4772/cogmap/internal/structural"
	"github.com/quanticsoul4772/cogmap/internal/substrate"
	"github.com/quanticsoul4772/cogmap/pkg/vecmath"
)

var log = logging.New("[orchestrator] ")

// blocking stages abort the run with no artifact on failure; every other
// stage is non-blocking and continues with an absent sub-artifact
// (spec.md §4.K).
const (
	stageShadow     = "shadow"
	stageEmbedding  = "embedding"
	stageSubstrate  = "substrate"
	stageBasin      = "basin"
	stageMapper     = "mapper"
	stageProvenance = "provenance"
	stageField      = "field"
	stageQuery      = "query_relevance"
	stageBlast      = "blast_radius"
	stageStructural = "structural"
)

// Run executes the full pipeline over in, returning the assembled
// artifact. An error is returned only for InputError and EmbeddingError
// (spec.md §7), including an embedding stage that times out
// (ErrStageTimeout); every other failure is absorbed into the artifact's
// observability.
func Run(ctx context.Context, in pipeline.Input, cfg *config.PipelineConfig) (*pipeline.CognitiveArtifact, error) {
	if cfg == nil {
		cfg = config.DefaultPipelineConfig()
	}
	if in.Query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", pipeline.ErrInputInvalid)
	}
	if in.Embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", pipeline.ErrInputInvalid)
	}

	runStart := time.Now()
	obs := &pipeline.Observability{Stages: map[string]*pipeline.StageResult{}}
	var obsMu sync.Mutex

	// --- A. Shadow extraction (blocking) ---
	var shadowOut *pipeline.Shadow
	timeStage(obs, nil, stageShadow, func() error {
		shadowOut = shadow.Extract(in.Responses)
		return nil
	})

	if aborted(ctx, obs) {
		return finish(assembler.Inputs{Shadow: shadowOut, Observability: obs}, runStart), nil
	}

	// --- B. Embedding (blocking) ---
	texts := make([]string, 0, 1+len(shadowOut.Statements)+len(shadowOut.Paragraphs))
	texts = append(texts, in.Query)
	stmtTextIdx := make(map[pipeline.StatementID]int, len(shadowOut.Statements))
	for _, s := range shadowOut.Statements {
		stmtTextIdx[s.ID] = len(texts)
		texts = append(texts, s.Text)
	}
	paraTextIdx := make(map[pipeline.ParagraphID]int, len(shadowOut.Paragraphs))
	for _, p := range shadowOut.Paragraphs {
		paraTextIdx[p.ID] = len(texts)
		texts = append(texts, p.FullParagraph)
	}

	var vectors []pipeline.Embedding
	embedErr := timeStage(obs, nil, stageEmbedding, func() error {
		embedCtx, cancel := withTimeout(ctx, cfg.EmbedderTimeoutMs)
		defer cancel()
		v, err := in.Embedder.Embed(embedCtx, texts)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: embedding stage: %v", pipeline.ErrStageTimeout, err)
			}
			return fmt.Errorf("%w: %v", pipeline.ErrEmbeddingFailed, err)
		}
		vectors = v
		return nil
	})
	if embedErr != nil {
		return nil, embedErr
	}

	queryEmb := vectors[0]
	statementEmbeddings := make(map[pipeline.StatementID]pipeline.Embedding, len(stmtTextIdx))
	for sid, idx := range stmtTextIdx {
		statementEmbeddings[sid] = vectors[idx]
	}
	paragraphEmbeddings := make(map[pipeline.ParagraphID]pipeline.Embedding, len(paraTextIdx))
	for pid, idx := range paraTextIdx {
		paragraphEmbeddings[pid] = vectors[idx]
	}

	if aborted(ctx, obs) {
		return finish(assembler.Inputs{Shadow: shadowOut, Observability: obs}, runStart), nil
	}

	// --- C. Substrate builder (blocking) ---
	var substrateOut *pipeline.Substrate
	timeStage(obs, nil, stageSubstrate, func() error {
		substrateOut = substrate.Build(shadowOut.Paragraphs, paragraphEmbeddings, substrate.Config{
			K: cfg.KNNK, StrongThresh: cfg.StrongThreshold, RegionMaxSize: cfg.RegionMaxSize,
		})
		return nil
	})

	if aborted(ctx, obs) {
		return finish(assembler.Inputs{Shadow: shadowOut, Substrate: substrateOut, Observability: obs}, runStart), nil
	}

	// --- D. Basin inversion (non-blocking; pure, cannot fail) ---
	var basinOut *pipeline.BasinInversion
	timeStage(obs, nil, stageBasin, func() error {
		basinOut = basin.Invert(substrateOut)
		return nil
	})

	regionOf := make(map[pipeline.ParagraphID]string, len(substrateOut.Nodes))
	for _, n := range substrateOut.Nodes {
		regionOf[n.ParagraphID] = n.RegionID
	}

	// --- E. Mapper adapter + parser (non-blocking) ---
	knownStatements := make(map[pipeline.StatementID]bool, len(shadowOut.Statements))
	for _, s := range shadowOut.Statements {
		knownStatements[s.ID] = true
	}

	var semanticOut *pipeline.Semantic
	timeStage(obs, nil, stageMapper, func() error {
		mapperCtx, cancel := withTimeout(ctx, cfg.MapperTimeoutMs)
		defer cancel()
		result, err := mapperadapter.Run(mapperCtx, in.Mapper, in.Query, in.Responses, knownStatements)
		if err != nil {
			obs.Observations = append(obs.Observations, pipeline.StageObservation{
				Level: "error", Code: "mapper_transport_failure", Message: err.Error(), StageName: stageMapper,
			})
			return err
		}
		obs.Observations = append(obs.Observations, result.Observations...)
		if hasParseFailure(result.Observations) {
			return nil
		}
		semanticOut = result.Semantic
		return nil
	})

	// --- Claim embeddings, derived for provenance/field/blast/structural ---
	claimEmbeddings := map[pipeline.ClaimID]pipeline.Embedding{}
	if semanticOut != nil && len(semanticOut.Claims) > 0 {
		var toEmbed []string
		var toEmbedClaim []pipeline.ClaimID
		for _, c := range semanticOut.Claims {
			if len(c.SourceStatementIDs) > 0 {
				var vecs [][]float32
				for _, sid := range c.SourceStatementIDs {
					if v, ok := statementEmbeddings[sid]; ok {
						vecs = append(vecs, []float32(v))
					}
				}
				if mean := vecmath.Mean(vecs); mean != nil {
					claimEmbeddings[c.ID] = pipeline.Embedding(mean)
					continue
				}
			}
			toEmbed = append(toEmbed, c.Text)
			toEmbedClaim = append(toEmbedClaim, c.ID)
		}
		if len(toEmbed) > 0 {
			embedCtx, cancel := withTimeout(ctx, cfg.EmbedderTimeoutMs)
			v, err := in.Embedder.Embed(embedCtx, toEmbed)
			cancel()
			if err == nil {
				for i, id := range toEmbedClaim {
					claimEmbeddings[id] = v[i]
				}
			}
		}
	}

	// --- F. Provenance engine (non-blocking) ---
	var provResult *provenance.Result
	paragraphOf := make(map[pipeline.StatementID]pipeline.ParagraphID, len(shadowOut.Statements))
	for _, p := range shadowOut.Paragraphs {
		for _, sid := range p.StatementIDs {
			paragraphOf[sid] = p.ID
		}
	}
	if semanticOut != nil && len(semanticOut.Claims) > 0 {
		timeStage(obs, nil, stageProvenance, func() error {
			provResult = provenance.Compute(shadowOut.Statements, semanticOut.Claims, statementEmbeddings, claimEmbeddings, paragraphOf,
				provenance.Config{Temperature: cfg.SoftmaxTemperature, MinWeight: cfg.AssignmentMinWeight})
			return nil
		})
	} else {
		obs.Observations = append(obs.Observations, pipeline.StageObservation{
			Level: "info", Code: "provenance_skipped_no_claims", Message: "no claims available, provenance skipped", StageName: stageProvenance,
		})
	}

	// --- G (field) ∥ H (query relevance) ---
	var fieldOut []*pipeline.ContinuousField
	var paragraphSim []*pipeline.ParagraphSimilarity
	var queryRelOut []*pipeline.QueryRelevanceScore

	done := make(chan struct{}, 2)
	go func() {
		defer func() { done <- struct{}{} }()
		if semanticOut == nil || len(semanticOut.Claims) == 0 {
			return
		}
		timeStage(obs, &obsMu, stageField, func() error {
			winners := winnersOf(provResult)
			statementParagraph := paragraphOf
			fieldOut = field.Compute(semanticOut.Claims, claimEmbeddings, shadowOut.Paragraphs, paragraphEmbeddings, statementParagraph, winners)
			paragraphSim = field.ParagraphSimilarity(semanticOut.Claims, claimEmbeddings, paragraphEmbeddings)
			return nil
		})
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		timeStage(obs, &obsMu, stageQuery, func() error {
			modelCount := distinctModelCount(in.Responses)
			queryRelOut = queryrelevance.Compute(queryEmb, shadowOut.Statements, shadowOut.Paragraphs, paragraphEmbeddings, regionOf, modelCount,
				queryrelevance.Config{TierPercentileLow: cfg.TierPercentileLow, TierPercentileHigh: cfg.TierPercentileHigh})
			return nil
		})
	}()
	<-done
	<-done

	// --- I. Blast radius filter + survey gates (non-blocking) ---
	var blastFilter *pipeline.BlastRadiusFilter
	var surveyGates []*pipeline.SurveyGate
	if semanticOut != nil && len(semanticOut.Claims) > 0 {
		timeStage(obs, nil, stageBlast, func() error {
			modelCount := distinctModelCount(in.Responses)
			var records []*pipeline.ProvenanceRecord
			if provResult != nil {
				records = provResult.Records
			}
			blastFilter, surveyGates = blastradius.Compute(semanticOut.Claims, semanticOut.Edges, records, queryRelOut, modelCount,
				blastradius.Config{SuppressionBulk: cfg.BlastRadiusSuppressionBulk, QuestionCeilingCap: cfg.QuestionCeilingCap})
			return nil
		})
	} else {
		obs.Observations = append(obs.Observations, pipeline.StageObservation{
			Level: "info", Code: "blastradius_skipped_no_claims", Message: "no claims available, blast radius filter skipped", StageName: stageBlast,
		})
	}

	// --- J. Structural analysis (non-blocking) ---
	var structuralOut *pipeline.StructuralAnalysis
	if semanticOut != nil && len(semanticOut.Claims) > 0 {
		timeStage(obs, nil, stageStructural, func() error {
			modelCount := distinctModelCount(in.Responses)
			structuralOut = structural.Compute(semanticOut.Claims, semanticOut.Edges, modelCount, structural.GeometrySignals{
				RegionCount: len(substrateOut.Regions), ParagraphCount: len(shadowOut.Paragraphs),
			})
			return nil
		})
	} else {
		obs.Observations = append(obs.Observations, pipeline.StageObservation{
			Level: "info", Code: "structural_skipped_no_claims", Message: "no claims available, structural analysis skipped", StageName: stageStructural,
		})
	}

	var allocation *pipeline.StatementAllocation
	var records []*pipeline.ProvenanceRecord
	if provResult != nil {
		allocation = provResult.Allocation
		records = provResult.Records
	}

	artifact := finish(assembler.Inputs{
		Shadow:              shadowOut,
		Substrate:           substrateOut,
		BasinInversion:      basinOut,
		Semantic:            semanticOut,
		ClaimProvenance:     records,
		StatementAllocation: allocation,
		ContinuousField:     fieldOut,
		ParagraphSimilarity: paragraphSim,
		QueryRelevance:      queryRelOut,
		BlastRadiusFilter:   blastFilter,
		SurveyGates:         surveyGates,
		StructuralAnalysis:  structuralOut,
		Observability:       obs,
	}, runStart)

	return artifact, nil
}

// timeStage runs fn, recording its timing and outcome into obs.Stages. mu
// guards the map write since the G/H fork calls this from two goroutines
// concurrently; it may be nil when called from the single-threaded part
// of the run.
func timeStage(obs *pipeline.Observability, mu *sync.Mutex, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	result := &pipeline.StageResult{
		StartedAtMs: start.UnixMilli(),
		TimeMs:      time.Since(start).Milliseconds(),
		OK:          err == nil,
	}
	if err != nil {
		result.Error = err.Error()
		log.Warnf("stage %s failed: %v", name, err)
	}
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	obs.Stages[name] = result
	return err
}

// withTimeout wraps ctx with a timeout in milliseconds, treating <= 0 as
// "no additional timeout".
func withTimeout(ctx context.Context, ms int) (context.Context, context.CancelFunc) {
	if ms <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
}

// aborted checks cooperative cancellation between stage boundaries
// (spec.md §4.K, §5).
func aborted(ctx context.Context, obs *pipeline.Observability) bool {
	if ctx.Err() != nil {
		obs.Aborted = true
		return true
	}
	return false
}

func finish(in assembler.Inputs, runStart time.Time) *pipeline.CognitiveArtifact {
	artifact := assembler.Assemble(in)
	artifact.Observability.TotalTimeMs = time.Since(runStart).Milliseconds()
	return artifact
}

func hasParseFailure(observations []pipeline.StageObservation) bool {
	for _, o := range observations {
		if o.Code == "mapper_parse_failed" {
			return true
		}
	}
	return false
}

func distinctModelCount(responses []pipeline.ModelResponse) int {
	seen := make(map[pipeline.ModelIndex]bool, len(responses))
	for _, r := range responses {
		seen[r.ModelIndex] = true
	}
	return len(seen)
}

// winnersOf derives, per statement, the claim with the highest assignment
// weight across all provenance records (used by component G's
// disagreement flag).
func winnersOf(result *provenance.Result) map[pipeline.StatementID]pipeline.ClaimID {
	if result == nil {
		return nil
	}
	best := make(map[pipeline.StatementID]float64)
	winners := make(map[pipeline.StatementID]pipeline.ClaimID)
	for _, r := range result.Records {
		for _, sw := range r.DirectStatementProvenance {
			if w, ok := best[sw.StatementID]; !ok || sw.Weight > w {
				best[sw.StatementID] = sw.Weight
				winners[sw.StatementID] = r.ClaimID
			}
		}
	}
	return winners
}
