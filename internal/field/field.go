// Package field implements component G, the Continuous Field: per-claim
// paragraph similarity independent of competitive assignment, used both
// as a UI comparison view and as the fallback signal when competitive
// assignment collapses (spec.md §4.G). Grounded on pkg/vecmath for the
// similarity and statistics primitives shared with basin and provenance.
package field

import (
	"github.com/quanticsoul4772/cogmap/internal/pipeline"
	"github.com/quanticsoul4772/cogmap/pkg/vecmath"
)

// stanceFamily buckets a Stance into the coarse family used for
// evidenceScore's agreement test against a claim's type.
func stanceFamily(s pipeline.Stance) string {
	switch s {
	case pipeline.StancePrescriptive, pipeline.StancePrerequisite:
		return "directive"
	case pipeline.StanceCautionary, pipeline.StanceDependent:
		return "conditional"
	case pipeline.StanceAssertive:
		return "factual"
	case pipeline.StanceUncertain:
		return "speculative"
	default:
		return "unknown"
	}
}

func claimTypeFamily(t pipeline.ClaimType) string {
	switch t {
	case pipeline.ClaimPrescriptive:
		return "directive"
	case pipeline.ClaimConditional:
		return "conditional"
	case pipeline.ClaimFactual, pipeline.ClaimContested:
		return "factual"
	case pipeline.ClaimSpeculative:
		return "speculative"
	default:
		return "unknown"
	}
}

func dominantStanceAgreement(paragraphStance pipeline.Stance, claimType pipeline.ClaimType) float64 {
	if stanceFamily(paragraphStance) == claimTypeFamily(claimType) {
		return 1
	}
	return 0.5
}

// competitiveWinner maps a statement to the claim competitive assignment
// gave it the highest weight, used only to detect disagreement with the
// continuous field's own argmax (spec.md §4.G).
type competitiveWinner = map[pipeline.StatementID]pipeline.ClaimID

// Compute builds the ContinuousField for every claim, given every
// paragraph's embedding and dominant stance, and the competitive
// assignment's per-statement winning claim (for the disagreement flag).
func Compute(
	claims []*pipeline.Claim,
	claimEmbeddings map[pipeline.ClaimID]pipeline.Embedding,
	paragraphs []*pipeline.ShadowParagraph,
	paragraphEmbeddings map[pipeline.ParagraphID]pipeline.Embedding,
	statementParagraph map[pipeline.StatementID]pipeline.ParagraphID,
	winners competitiveWinner,
) []*pipeline.ContinuousField {
	var out []*pipeline.ContinuousField

	for _, claim := range claims {
		claimEmb, ok := claimEmbeddings[claim.ID]
		if !ok {
			out = append(out, &pipeline.ContinuousField{ClaimID: claim.ID})
			continue
		}

		type scored struct {
			paragraph *pipeline.ShadowParagraph
			sim       float64
			evidence  float64
		}
		var scores []scored
		var sims []float64
		for _, p := range paragraphs {
			pEmb, ok := paragraphEmbeddings[p.ID]
			if !ok {
				continue
			}
			sim := vecmath.CosineSimilarity([]float32(claimEmb), []float32(pEmb))
			agreement := dominantStanceAgreement(p.DominantStance, claim.Type)
			scores = append(scores, scored{paragraph: p, sim: sim, evidence: sim * agreement})
			sims = append(sims, sim)
		}

		stats := vecmath.ComputeStats(sims)
		coreThreshold := stats.Mu + stats.Sigma

		cf := &pipeline.ContinuousField{ClaimID: claim.ID}
		var bestSim float64 = -2
		var bestParagraph pipeline.ParagraphID
		for _, s := range scores {
			if s.sim >= coreThreshold {
				cf.CoreSetSize++
			}
			if s.sim > bestSim {
				bestSim = s.sim
				bestParagraph = s.paragraph.ID
			}
			for _, stmtID := range s.paragraph.StatementIDs {
				cf.Field = append(cf.Field, pipeline.FieldPoint{
					StatementID:   stmtID,
					SimClaim:      s.sim,
					EvidenceScore: s.evidence,
				})
			}
		}

		if winners != nil {
			for _, stmtID := range allStatementsFor(bestParagraph, paragraphs) {
				if winner, ok := winners[stmtID]; ok && winner != claim.ID {
					cf.DisagreementWithCompetitive = true
					break
				}
			}
		}

		out = append(out, cf)
	}
	return out
}

func allStatementsFor(paragraphID pipeline.ParagraphID, paragraphs []*pipeline.ShadowParagraph) []pipeline.StatementID {
	for _, p := range paragraphs {
		if p.ID == paragraphID {
			return p.StatementIDs
		}
	}
	return nil
}

// ParagraphSimilarity computes the plain per-claim paragraph-similarity
// map (the fallback artifact consumed when basin inversion's status is
// not "ok"), independent of the richer ContinuousField above.
func ParagraphSimilarity(
	claims []*pipeline.Claim,
	claimEmbeddings map[pipeline.ClaimID]pipeline.Embedding,
	paragraphEmbeddings map[pipeline.ParagraphID]pipeline.Embedding,
) []*pipeline.ParagraphSimilarity {
	var out []*pipeline.ParagraphSimilarity
	for _, claim := range claims {
		claimEmb, ok := claimEmbeddings[claim.ID]
		ps := &pipeline.ParagraphSimilarity{ClaimID: claim.ID, Scores: map[pipeline.ParagraphID]float64{}}
		if ok {
			for pid, pEmb := range paragraphEmbeddings {
				ps.Scores[pid] = vecmath.CosineSimilarity([]float32(claimEmb), []float32(pEmb))
			}
		}
		out = append(out, ps)
	}
	return out
}
