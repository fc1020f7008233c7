// Package assembler implements component L, the Artifact Assembler: a
// pure merge of every stage's output into the canonical CognitiveArtifact
// shape, validating cross-references and replacing non-finite floats
// (spec.md §4.L, §6). Grounded on internal/server/formatters.go's
// "collect sub-results into one JSON response" shape, generalized into a
// merge-and-validate pass with no side effects.
package assembler

import (
	"math"
	"sort"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

// Inputs bundles every stage's output; absent (nil) fields are permitted
// and propagate as nil/empty in the artifact, never fabricated defaults
// (spec.md §4.L).
type Inputs struct {
	Shadow              *pipeline.Shadow
	Substrate           *pipeline.Substrate
	BasinInversion      *pipeline.BasinInversion
	Semantic            *pipeline.Semantic
	ClaimProvenance     []*pipeline.ProvenanceRecord
	StatementAllocation *pipeline.StatementAllocation
	ContinuousField     []*pipeline.ContinuousField
	ParagraphSimilarity []*pipeline.ParagraphSimilarity
	QueryRelevance      []*pipeline.QueryRelevanceScore
	BlastRadiusFilter   *pipeline.BlastRadiusFilter
	SurveyGates         []*pipeline.SurveyGate
	StructuralAnalysis  *pipeline.StructuralAnalysis
	Observability       *pipeline.Observability
}

// Assemble merges in into the canonical artifact, dropping any claim
// source-statement reference or edge endpoint that does not resolve
// (InvariantViolation, spec.md §7), and neutralizing non-finite floats
// that no pointer field can represent as null. Both classes of
// correction are recorded as observations rather than raised as errors —
// the assembler never itself fails (spec.md §4.L).
func Assemble(in Inputs) *pipeline.CognitiveArtifact {
	obs := &in.Observability
	if *obs == nil {
		*obs = &pipeline.Observability{Stages: map[string]*pipeline.StageResult{}}
	}

	if in.Shadow != nil && in.Semantic != nil {
		validateSemantic(in.Shadow, in.Semantic, *obs)
	}

	sanitizeArtifactFloats(&in, *obs)

	return &pipeline.CognitiveArtifact{
		Shadow: in.Shadow,
		Geometry: &pipeline.Geometry{
			Substrate:      in.Substrate,
			BasinInversion: in.BasinInversion,
		},
		Semantic:                 in.Semantic,
		ClaimProvenance:           in.ClaimProvenance,
		StatementAllocation:       in.StatementAllocation,
		ContinuousField:           in.ContinuousField,
		ParagraphSimilarityField:  in.ParagraphSimilarity,
		QueryRelevance:            in.QueryRelevance,
		BlastRadiusFilter:         in.BlastRadiusFilter,
		SurveyGates:               in.SurveyGates,
		StructuralAnalysis:        in.StructuralAnalysis,
		Observability:             *obs,
	}
}

// validateSemantic drops claim.SourceStatementIDs entries that do not
// exist in shadow.Statements and edges whose endpoints do not exist in
// semantic.Claims (spec.md §8's referential invariants), logging one
// observation per drop.
func validateSemantic(shadow *pipeline.Shadow, semantic *pipeline.Semantic, obs *pipeline.Observability) {
	knownStatements := make(map[pipeline.StatementID]bool, len(shadow.Statements))
	for _, s := range shadow.Statements {
		knownStatements[s.ID] = true
	}
	knownClaims := make(map[pipeline.ClaimID]bool, len(semantic.Claims))
	for _, c := range semantic.Claims {
		knownClaims[c.ID] = true
	}

	for _, c := range semantic.Claims {
		var kept []pipeline.StatementID
		for _, sid := range c.SourceStatementIDs {
			if knownStatements[sid] {
				kept = append(kept, sid)
				continue
			}
			obs.Observations = append(obs.Observations, pipeline.StageObservation{
				Level: "warn", Code: "invariant_violation_unknown_statement",
				Message:   "claim " + string(c.ID) + " referenced unknown statement " + string(sid) + ", dropped",
				StageName: "assembler",
			})
		}
		c.SourceStatementIDs = kept
	}

	var keptEdges []*pipeline.SemanticEdge
	for _, e := range semantic.Edges {
		if knownClaims[e.Source] && knownClaims[e.Target] {
			keptEdges = append(keptEdges, e)
			continue
		}
		obs.Observations = append(obs.Observations, pipeline.StageObservation{
			Level: "warn", Code: "invariant_violation_unknown_edge_endpoint",
			Message:   "edge " + string(e.Source) + "->" + string(e.Target) + " has an unresolved endpoint, dropped",
			StageName: "assembler",
		})
	}
	semantic.Edges = keptEdges
}

// sanitizeArtifactFloats zeroes any NaN/Inf value in the float fields that
// reach the JSON boundary, logging one observation for the run if any were
// found (individual sites are not enumerated to keep the observation log
// proportionate to one run, not one per field).
func sanitizeArtifactFloats(in *Inputs, obs *pipeline.Observability) {
	var replaced int
	fix := func(f float64) float64 {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			replaced++
			return 0
		}
		return f
	}

	if in.BasinInversion != nil {
		b := in.BasinInversion
		b.Mu, b.Sigma, b.P10, b.P90 = fix(b.Mu), fix(b.Sigma), fix(b.P10), fix(b.P90)
		b.DiscriminationRange, b.ValleyThreshold = fix(b.DiscriminationRange), fix(b.ValleyThreshold)
	}
	for _, r := range in.ClaimProvenance {
		r.ProvenanceBulk, r.Entropy, r.ExclusivityRatio = fix(r.ProvenanceBulk), fix(r.Entropy), fix(r.ExclusivityRatio)
		for i := range r.DirectStatementProvenance {
			r.DirectStatementProvenance[i].Weight = fix(r.DirectStatementProvenance[i].Weight)
		}
	}
	for _, cf := range in.ContinuousField {
		for i := range cf.Field {
			cf.Field[i].SimClaim = fix(cf.Field[i].SimClaim)
			cf.Field[i].EvidenceScore = fix(cf.Field[i].EvidenceScore)
		}
	}
	for _, ps := range in.ParagraphSimilarity {
		for k, v := range ps.Scores {
			ps.Scores[k] = fix(v)
		}
	}
	for _, q := range in.QueryRelevance {
		q.CompositeRelevance, q.QuerySimilarity, q.Novelty = fix(q.CompositeRelevance), fix(q.QuerySimilarity), fix(q.Novelty)
	}
	if in.BlastRadiusFilter != nil {
		for _, s := range in.BlastRadiusFilter.Scores {
			s.Composite, s.RawComposite = fix(s.Composite), fix(s.RawComposite)
			c := &s.Components
			c.CascadeBreadth, c.ExclusiveEvidence = fix(c.CascadeBreadth), fix(c.ExclusiveEvidence)
			c.Leverage, c.QueryRelevance, c.ArticulationPoint = fix(c.Leverage), fix(c.QueryRelevance), fix(c.ArticulationPoint)
		}
		in.BlastRadiusFilter.ConvergenceRatio = fix(in.BlastRadiusFilter.ConvergenceRatio)
	}
	for _, g := range in.SurveyGates {
		g.BlastRadius = fix(g.BlastRadius)
	}
	if in.StructuralAnalysis != nil {
		in.StructuralAnalysis.Confidence = fix(in.StructuralAnalysis.Confidence)
		for _, c := range in.StructuralAnalysis.Claims {
			c.SupportRatio, c.ContestedRatio = fix(c.SupportRatio), fix(c.ContestedRatio)
			c.Leverage, c.KeystoneScore = fix(c.Leverage), fix(c.KeystoneScore)
		}
	}

	if replaced > 0 {
		obs.Observations = append(obs.Observations, pipeline.StageObservation{
			Level: "warn", Code: "non_finite_value_replaced",
			Message:   "replaced non-finite floating point values before serialization",
			StageName: "assembler",
		})
	}
	sort.SliceStable(obs.Observations, func(i, j int) bool {
		return obs.Observations[i].StageName < obs.Observations[j].StageName
	})
}
