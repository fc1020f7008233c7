// Package structural implements component J, Structural Analysis:
// per-claim leverage/keystone metrics and the overall graph shape prior
// (spec.md §4.J). Grounded on
// other_examples/c237357b_vanderheijden86-beadwork__pkg-analysis-graph.go.go's
// leverage/keystone-style graph metrics, sharing the per-claim graph
// statistics with component I via internal/graphmetrics.
package structural

import (
	"github.com/quanticsoul4772/cogmap/internal/graphmetrics"
	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

// GeometrySignals carries the geometric-layout inputs the shape prior
// draws on (spec.md §4.J: "bimodality, parallel, convergent signals over
// the pre-semantic region layout").
type GeometrySignals struct {
	RegionCount    int
	ParagraphCount int
}

// Compute derives structural metrics for every claim and classifies the
// overall shape.
func Compute(claims []*pipeline.Claim, edges []*pipeline.SemanticEdge, modelCount int, geometry GeometrySignals) *pipeline.StructuralAnalysis {
	if len(claims) == 0 {
		return &pipeline.StructuralAnalysis{}
	}

	metrics := graphmetrics.Compute(claims, edges, modelCount)

	out := make([]*pipeline.ClaimStructuralMetrics, 0, len(claims))
	var supportSum float64
	degree := make(map[pipeline.ClaimID]int)
	for _, e := range edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	isolated := 0
	for _, c := range claims {
		m := metrics[c.ID]
		if m == nil {
			m = &graphmetrics.ClaimMetrics{}
		}
		weight := 1.0
		if m.ArticulationPoint {
			weight = 1.5
		}
		out = append(out, &pipeline.ClaimStructuralMetrics{
			ClaimID:           c.ID,
			SupportRatio:      m.SupportRatio,
			ContestedRatio:    m.ContestedRatio,
			ConflictDegree:    m.ConflictDegree,
			Leverage:          m.Leverage,
			KeystoneScore:     m.Leverage * weight,
			ArticulationPoint: m.ArticulationPoint,
		})
		supportSum += m.SupportRatio
		if degree[c.ID] == 0 {
			isolated++
		}
	}

	shape, confidence := classifyShape(claims, edges, supportSum/float64(len(claims)), isolated, geometry)

	return &pipeline.StructuralAnalysis{Claims: out, Shape: shape, Confidence: confidence}
}

// classifyShape picks the overall graph shape by comparing five signals
// derived from the edge-kind distribution, mean support, isolation, and
// region fragmentation, each normalized to [0,1]; confidence is the gap
// between the top two signals (spec.md §4.J). A set of one claim is
// convergent, with the mean support ratio as its confidence.
func classifyShape(claims []*pipeline.Claim, edges []*pipeline.SemanticEdge, meanSupport float64, isolatedCount int, geometry GeometrySignals) (pipeline.ShapePrior, float64) {
	claimCount := len(claims)
	if claimCount <= 1 {
		return pipeline.ShapeConvergent, meanSupport
	}

	var conflictEdges int
	for _, e := range edges {
		if e.Kind == pipeline.EdgeRefutes || e.Kind == pipeline.EdgeTradeoff {
			conflictEdges++
		}
	}
	totalEdges := len(edges)
	conflictFraction := 0.0
	if totalEdges > 0 {
		conflictFraction = float64(conflictEdges) / float64(totalEdges)
	}

	// A small claim set in direct conflict reads as a focused tradeoff; a
	// large claim set with the same conflict fraction reads as a
	// fragmented/divergent disagreement instead.
	focusWeight := 1.0
	if claimCount > 3 {
		focusWeight = 0.5
	}
	spreadWeight := 0.3
	if claimCount > 3 {
		spreadWeight = 1.0
	}

	convergentSignal := meanSupport * (1 - conflictFraction)
	tradeoffSignal := conflictFraction * focusWeight
	divergentSignal := conflictFraction * spreadWeight

	fragmentedSignal := 0.0
	if geometry.ParagraphCount > 1 {
		fragmentedSignal = float64(geometry.RegionCount-1) / float64(geometry.ParagraphCount-1)
	}
	if fragmentedSignal < 0 {
		fragmentedSignal = 0
	}

	parallelSignal := 0.0
	if claimCount >= 2 {
		parallelSignal = (float64(isolatedCount) / float64(claimCount)) * (1 - conflictFraction)
	}

	signals := map[pipeline.ShapePrior]float64{
		pipeline.ShapeConvergent: convergentSignal,
		pipeline.ShapeTradeoff:   tradeoffSignal,
		pipeline.ShapeDivergent:  divergentSignal,
		pipeline.ShapeFragmented: fragmentedSignal,
		pipeline.ShapeParallel:   parallelSignal,
	}

	order := []pipeline.ShapePrior{
		pipeline.ShapeConvergent, pipeline.ShapeTradeoff, pipeline.ShapeDivergent,
		pipeline.ShapeFragmented, pipeline.ShapeParallel,
	}

	var best, second pipeline.ShapePrior
	bestVal, secondVal := -1.0, -1.0
	for _, shape := range order {
		v := signals[shape]
		if v > bestVal {
			second, secondVal = best, bestVal
			best, bestVal = shape, v
		} else if v > secondVal {
			second, secondVal = shape, v
		}
	}
	_ = second
	return best, bestVal - secondVal
}
