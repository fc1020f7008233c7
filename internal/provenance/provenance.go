// Package provenance implements component F, the Provenance Engine:
// competitive softmax assignment of statements to claims, and the
// diagnostics derived from that assignment. Grounded on pkg/vecmath for
// softmax/entropy/cosine, following the teacher's pattern (seen in
// internal/knowledge/vector_store.go) of keeping similarity search and
// statistics in small composable helpers rather than one monolithic pass.
package provenance

import (
	"sort"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
	"github.com/quanticsoul4772/cogmap/pkg/vecmath"
)

const maxClaimsPerStatement = 3

// Config carries the softmax temperature and minimum assignment weight
// (spec.md §6); the cap on claims per statement is not config-exposed
// since no spec.md surface names it as a tunable.
type Config struct {
	Temperature float64
	MinWeight   float64
}

func (c Config) temperature() float64 {
	if c.Temperature == 0 {
		return 0.08
	}
	return c.Temperature
}

func (c Config) minWeight() float64 {
	if c.MinWeight == 0 {
		return 0.25
	}
	return c.MinWeight
}

// Result bundles the per-claim provenance records with the cross-claim
// diagnostics (spec.md §4.F).
type Result struct {
	Records    []*pipeline.ProvenanceRecord
	Allocation *pipeline.StatementAllocation
}

// Compute runs competitive assignment for every statement against every
// claim. statementEmbeddings and claimEmbeddings must already be
// populated (by component B) for every statement/claim id referenced;
// paragraphOf maps a statement to its owning paragraph for the
// dominantParagraphIds computation.
func Compute(
	statements []*pipeline.ShadowStatement,
	claims []*pipeline.Claim,
	statementEmbeddings map[pipeline.StatementID]pipeline.Embedding,
	claimEmbeddings map[pipeline.ClaimID]pipeline.Embedding,
	paragraphOf map[pipeline.StatementID]pipeline.ParagraphID,
	cfg Config,
) *Result {
	if len(claims) == 0 || len(statements) == 0 {
		return &Result{Allocation: &pipeline.StatementAllocation{AssignmentCounts: map[pipeline.StatementID]int{}}}
	}
	assignmentMinWeight := cfg.minWeight()

	// weights[claimIdx][statementIdx] = w(s, c)
	weights := make([][]float64, len(claims))
	for i := range weights {
		weights[i] = make([]float64, len(statements))
	}

	for si, stmt := range statements {
		emb, ok := statementEmbeddings[stmt.ID]
		if !ok {
			continue
		}
		sims := make([]float64, len(claims))
		for ci, claim := range claims {
			claimEmb, ok := claimEmbeddings[claim.ID]
			if !ok {
				continue
			}
			sims[ci] = vecmath.CosineSimilarity([]float32(emb), []float32(claimEmb))
		}
		w := vecmath.Softmax(sims, cfg.temperature())
		for ci := range claims {
			weights[ci][si] = w[ci]
		}
	}

	assignmentCounts := make(map[pipeline.StatementID]int)
	// argmaxClaim[si] = index of the highest-weight claim for statement si.
	argmaxClaim := make([]int, len(statements))
	for si := range statements {
		best := -1
		bestW := -1.0
		for ci := range claims {
			if weights[ci][si] > bestW {
				bestW = weights[ci][si]
				best = ci
			}
		}
		argmaxClaim[si] = best
	}

	// assignedClaimsOf[si] holds the claim indices statement si is
	// assigned to: weight >= assignmentMinWeight, capped at the top
	// maxClaimsPerStatement by weight.
	assignedClaimsOf := make([][]int, len(statements))
	for si := range statements {
		type wc struct {
			ci int
			w  float64
		}
		var candidates []wc
		for ci := range claims {
			if weights[ci][si] >= assignmentMinWeight {
				candidates = append(candidates, wc{ci, weights[ci][si]})
			}
		}
		sort.Slice(candidates, func(a, b int) bool { return candidates[a].w > candidates[b].w })
		if len(candidates) > maxClaimsPerStatement {
			candidates = candidates[:maxClaimsPerStatement]
		}
		if len(candidates) > 0 {
			assignmentCounts[statements[si].ID] = len(candidates)
			ids := make([]int, len(candidates))
			for i, c := range candidates {
				ids[i] = c.ci
			}
			assignedClaimsOf[si] = ids
		}
	}

	assignedToClaimIdx := func(si, ci int) bool {
		for _, c := range assignedClaimsOf[si] {
			if c == ci {
				return true
			}
		}
		return false
	}

	var records []*pipeline.ProvenanceRecord
	for ci, claim := range claims {
		record := &pipeline.ProvenanceRecord{ClaimID: claim.ID}

		var assignedStatementIdx []int
		var assignedWeights []float64
		var bulk float64
		for si := range statements {
			if !assignedToClaimIdx(si, ci) {
				continue
			}
			assignedStatementIdx = append(assignedStatementIdx, si)
			assignedWeights = append(assignedWeights, weights[ci][si])
			bulk += weights[ci][si]
		}

		sortOrder := make([]int, len(assignedStatementIdx))
		for i := range sortOrder {
			sortOrder[i] = i
		}
		sort.Slice(sortOrder, func(a, b int) bool {
			return assignedWeights[sortOrder[a]] > assignedWeights[sortOrder[b]]
		})
		for _, idx := range sortOrder {
			si := assignedStatementIdx[idx]
			record.DirectStatementProvenance = append(record.DirectStatementProvenance, pipeline.StatementWeight{
				StatementID: statements[si].ID,
				Weight:      weights[ci][si],
			})
		}
		record.ProvenanceBulk = bulk
		record.Entropy = vecmath.ShannonEntropy(assignedWeights)

		var exclusive int
		for _, si := range assignedStatementIdx {
			if weights[ci][si] >= 0.5 && argmaxClaim[si] == ci {
				exclusive++
			}
		}
		if len(assignedStatementIdx) > 0 {
			record.ExclusivityRatio = float64(exclusive) / float64(len(assignedStatementIdx))
		}

		record.DominantParagraphIDs = dominantParagraphs(assignedStatementIdx, statements, weights[ci], paragraphOf, bulk)

		records = append(records, record)
	}

	allocation := &pipeline.StatementAllocation{AssignmentCounts: assignmentCounts}
	var assignedTotal, multiAssigned int
	for _, count := range assignmentCounts {
		assignedTotal++
		switch {
		case count == 1:
			allocation.Entropy.One++
		case count == 2:
			allocation.Entropy.Two++
			multiAssigned++
		default:
			allocation.Entropy.ThreePlus++
			multiAssigned++
		}
	}
	if assignedTotal > 0 {
		allocation.DualCoordinateFlag = float64(multiAssigned)/float64(assignedTotal) > 0.15
	}

	return &Result{Records: records, Allocation: allocation}
}

func dominantParagraphs(
	assignedIdx []int,
	statements []*pipeline.ShadowStatement,
	claimWeights []float64,
	paragraphOf map[pipeline.StatementID]pipeline.ParagraphID,
	bulk float64,
) []pipeline.ParagraphID {
	if bulk <= 0 {
		return nil
	}
	contribution := make(map[pipeline.ParagraphID]float64)
	for _, si := range assignedIdx {
		p := paragraphOf[statements[si].ID]
		contribution[p] += claimWeights[si]
	}

	var ids []pipeline.ParagraphID
	for p, c := range contribution {
		if c/bulk > 0.5 {
			ids = append(ids, p)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
