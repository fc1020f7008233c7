// Package blastradius implements component I, Blast Radius Filter +
// Survey Gates: a composite impact score per claim, suppression of
// weakly-evidenced claims, and generated yes/no follow-up questions over
// the claims that remain (spec.md §4.I). The composite-then-suppress
// shape is grounded on
// other_examples/17ebb8d1_ashita-ai-akashi__internal-conflicts-scorer.go.go's
// pairwise-score-then-threshold pattern; shared per-claim graph
// statistics come from internal/graphmetrics.
package blastradius

import (
	"fmt"
	"math"
	"sort"

	"github.com/quanticsoul4772/cogmap/internal/graphmetrics"
	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

// Config carries the suppression bulk floor and question ceiling cap
// (spec.md §6).
type Config struct {
	SuppressionBulk    float64
	QuestionCeilingCap int
}

// Compute returns the blast-radius filter and its derived survey gates.
func Compute(
	claims []*pipeline.Claim,
	edges []*pipeline.SemanticEdge,
	provenance []*pipeline.ProvenanceRecord,
	queryRel []*pipeline.QueryRelevanceScore,
	modelCount int,
	cfg Config,
) (*pipeline.BlastRadiusFilter, []*pipeline.SurveyGate) {
	if len(claims) == 0 {
		return &pipeline.BlastRadiusFilter{SkipSurvey: true, SkipReason: "insufficient axes"}, nil
	}

	metrics := graphmetrics.Compute(claims, edges, modelCount)

	provByClaim := make(map[pipeline.ClaimID]*pipeline.ProvenanceRecord, len(provenance))
	for _, p := range provenance {
		provByClaim[p.ClaimID] = p
	}
	relByStatement := make(map[pipeline.StatementID]float64, len(queryRel))
	for _, r := range queryRel {
		relByStatement[r.StatementID] = r.CompositeRelevance
	}

	suppressionBulk := cfg.SuppressionBulk
	if suppressionBulk == 0 {
		suppressionBulk = 0.5
	}

	scores := make([]*pipeline.BlastRadiusScore, 0, len(claims))
	for _, c := range claims {
		m := metrics[c.ID]
		if m == nil {
			m = &graphmetrics.ClaimMetrics{}
		}
		prov := provByClaim[c.ID]

		var exclusive, bulk float64
		var meanRel float64
		if prov != nil {
			exclusive = prov.ExclusivityRatio
			bulk = prov.ProvenanceBulk
			if len(prov.DirectStatementProvenance) > 0 {
				var sum float64
				for _, sw := range prov.DirectStatementProvenance {
					sum += relByStatement[sw.StatementID]
				}
				meanRel = sum / float64(len(prov.DirectStatementProvenance))
			}
		}

		ap := 0.0
		if m.ArticulationPoint {
			ap = 1
		}

		components := pipeline.BlastRadiusComponents{
			CascadeBreadth:    m.CascadeBreadth,
			ExclusiveEvidence: exclusive,
			Leverage:          m.Leverage,
			QueryRelevance:    meanRel,
			ArticulationPoint: ap,
		}
		raw := 0.30*components.CascadeBreadth + 0.25*components.ExclusiveEvidence +
			0.20*components.Leverage + 0.15*components.QueryRelevance + 0.10*components.ArticulationPoint

		suppressed := bulk < suppressionBulk
		composite := raw
		reason := ""
		if suppressed {
			composite = 0
			reason = "insufficient evidence"
		}

		scores = append(scores, &pipeline.BlastRadiusScore{
			ClaimID:           c.ID,
			Composite:         composite,
			RawComposite:      raw,
			Components:        components,
			Suppressed:        suppressed,
			SuppressionReason: reason,
		})
	}

	filter := &pipeline.BlastRadiusFilter{Scores: scores}

	var unsuppressed []pipeline.ClaimID
	for _, s := range scores {
		if !s.Suppressed {
			unsuppressed = append(unsuppressed, s.ClaimID)
		}
	}
	sort.Slice(unsuppressed, func(i, j int) bool { return unsuppressed[i] < unsuppressed[j] })

	if len(unsuppressed) < 2 {
		filter.SkipSurvey = true
		filter.SkipReason = "insufficient axes"
		return filter, nil
	}

	unsuppressedSet := make(map[pipeline.ClaimID]bool, len(unsuppressed))
	for _, id := range unsuppressed {
		unsuppressedSet[id] = true
	}

	var conflictEdges []*pipeline.SemanticEdge
	for _, e := range edges {
		if (e.Kind == pipeline.EdgeTradeoff || e.Kind == pipeline.EdgeRefutes) &&
			unsuppressedSet[e.Source] && unsuppressedSet[e.Target] {
			conflictEdges = append(conflictEdges, e)
		}
	}

	n := len(unsuppressed)
	totalPairs := n * (n - 1) / 2
	convergenceRatio := 1.0
	if totalPairs > 0 {
		convergenceRatio = float64(totalPairs-len(conflictEdges)) / float64(totalPairs)
	}
	convergenceRatio = math.Max(0, math.Min(1, convergenceRatio))

	ceiling := cfg.QuestionCeilingCap
	if ceiling == 0 {
		ceiling = 5
	}
	questionCeiling := 1 + int(math.Floor(convergenceRatio*4))
	if questionCeiling > ceiling {
		questionCeiling = ceiling
	}
	filter.QuestionCeiling = questionCeiling
	filter.ConvergenceRatio = convergenceRatio

	axes := clusterAxes(unsuppressed, conflictEdges)
	claimByID := make(map[pipeline.ClaimID]*pipeline.Claim, len(claims))
	for _, c := range claims {
		claimByID[c.ID] = c
	}
	scoreByID := make(map[pipeline.ClaimID]*pipeline.BlastRadiusScore, len(scores))
	for _, s := range scores {
		scoreByID[s.ClaimID] = s
	}

	var gates []*pipeline.SurveyGate
	for i, axis := range axes {
		if len(axis) < 2 {
			continue
		}
		var maxBR float64
		for _, id := range axis {
			if s := scoreByID[id]; s != nil && s.Composite > maxBR {
				maxBR = s.Composite
			}
		}
		gates = append(gates, &pipeline.SurveyGate{
			ID:             fmt.Sprintf("gate_%d", i),
			Question:       TemplateQuestion(axis, claimByID),
			AffectedClaims: axis,
			BlastRadius:    maxBR,
			Reasoning:      axisReasoning(axis, conflictEdges),
		})
	}

	return filter, gates
}

// clusterAxes partitions unsuppressed claims into connected components of
// the tradeoff/refutes subgraph via union-find, in deterministic id order.
func clusterAxes(claimIDs []pipeline.ClaimID, conflictEdges []*pipeline.SemanticEdge) [][]pipeline.ClaimID {
	parent := make(map[pipeline.ClaimID]pipeline.ClaimID, len(claimIDs))
	for _, id := range claimIDs {
		parent[id] = id
	}
	var find func(x pipeline.ClaimID) pipeline.ClaimID
	find = func(x pipeline.ClaimID) pipeline.ClaimID {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b pipeline.ClaimID) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if ra < rb {
				parent[rb] = ra
			} else {
				parent[ra] = rb
			}
		}
	}

	for _, e := range conflictEdges {
		if _, ok := parent[e.Source]; !ok {
			continue
		}
		if _, ok := parent[e.Target]; !ok {
			continue
		}
		union(e.Source, e.Target)
	}

	groups := make(map[pipeline.ClaimID][]pipeline.ClaimID)
	for _, id := range claimIDs {
		root := find(id)
		groups[root] = append(groups[root], id)
	}

	var roots []pipeline.ClaimID
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	var axes [][]pipeline.ClaimID
	for _, r := range roots {
		members := groups[r]
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		axes = append(axes, members)
	}
	return axes
}

// TemplateQuestion deterministically synthesizes the yes/no question for
// an axis of two or more conflicting claims, per spec.md §9's permission
// to use a template rather than an LLM call.
func TemplateQuestion(axis []pipeline.ClaimID, claimByID map[pipeline.ClaimID]*pipeline.Claim) string {
	if len(axis) < 2 {
		return ""
	}
	a, b := claimByID[axis[0]], claimByID[axis[1]]
	if a == nil || b == nil {
		return "Which side of this tradeoff applies?"
	}
	return fmt.Sprintf("Does %q hold, or does %q better fit your situation?", a.Label, b.Label)
}

func axisReasoning(axis []pipeline.ClaimID, conflictEdges []*pipeline.SemanticEdge) string {
	members := make(map[pipeline.ClaimID]bool, len(axis))
	for _, id := range axis {
		members[id] = true
	}
	var refutes, tradeoffs int
	for _, e := range conflictEdges {
		if members[e.Source] && members[e.Target] {
			if e.Kind == pipeline.EdgeRefutes {
				refutes++
			} else {
				tradeoffs++
			}
		}
	}
	return fmt.Sprintf("axis of %d claims connected by %d refutes and %d tradeoff edges", len(axis), refutes, tradeoffs)
}
