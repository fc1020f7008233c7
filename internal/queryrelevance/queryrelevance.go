// Package queryrelevance implements component H, Query Relevance:
// tier-classifying every statement by a composite score against the user
// query embedding (spec.md §4.H). Grounded on the same
// similarity-ranking idiom as internal/similarity/thought_search.go's
// SearchSimilar, with percentile tiering from pkg/vecmath.
package queryrelevance

import (
	"sort"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
	"github.com/quanticsoul4772/cogmap/pkg/vecmath"
)

const corroborationThreshold = 0.70

// Config carries the tier percentile cuts (spec.md §6 tier_percentiles).
type Config struct {
	TierPercentileLow  float64
	TierPercentileHigh float64
}

// paragraphStats holds the per-paragraph intermediate values shared by
// every statement carved from that paragraph.
type paragraphStats struct {
	querySimilarity float64
	novelty         float64
	corroboration   int
	regionID        *string
}

// Compute scores every statement in statements against the query
// embedding, using each statement's owning paragraph as its geometric
// proxy (spec.md §4.H).
func Compute(
	query pipeline.Embedding,
	statements []*pipeline.ShadowStatement,
	paragraphs []*pipeline.ShadowParagraph,
	paragraphEmbeddings map[pipeline.ParagraphID]pipeline.Embedding,
	regionOf map[pipeline.ParagraphID]string,
	modelCount int,
	cfg Config,
) []*pipeline.QueryRelevanceScore {
	if len(statements) == 0 {
		return nil
	}

	paragraphByID := make(map[pipeline.ParagraphID]*pipeline.ShadowParagraph, len(paragraphs))
	ids := make([]pipeline.ParagraphID, 0, len(paragraphs))
	for _, p := range paragraphs {
		paragraphByID[p.ID] = p
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	stats := make(map[pipeline.ParagraphID]*paragraphStats, len(ids))
	for _, id := range ids {
		p := paragraphByID[id]
		emb, ok := paragraphEmbeddings[id]
		if !ok {
			stats[id] = &paragraphStats{}
			continue
		}

		qs := vecmath.CosineSimilarity([]float32(query), []float32(emb))

		maxPeer := -2.0
		corroborators := make(map[pipeline.ModelIndex]bool)
		for _, other := range ids {
			if other == id {
				continue
			}
			otherEmb, ok := paragraphEmbeddings[other]
			if !ok {
				continue
			}
			sim := vecmath.CosineSimilarity([]float32(emb), []float32(otherEmb))
			if sim > maxPeer {
				maxPeer = sim
			}
			otherP := paragraphByID[other]
			if otherP.ModelIndex != p.ModelIndex && sim >= corroborationThreshold {
				corroborators[otherP.ModelIndex] = true
			}
		}
		novelty := 1.0
		if maxPeer > -2.0 {
			novelty = 1 - maxPeer
		}

		var region *string
		if r, ok := regionOf[id]; ok {
			region = &r
		}

		stats[id] = &paragraphStats{
			querySimilarity: qs,
			novelty:         novelty,
			corroboration:   len(corroborators),
			regionID:        region,
		}
	}

	type scored struct {
		stmt      *pipeline.ShadowStatement
		composite float64
	}
	scoredStmts := make([]scored, 0, len(statements))
	for _, s := range statements {
		st := stats[pipeline.MakeParagraphID(s.ModelIndex, s.ParagraphIndex)]
		if st == nil {
			st = &paragraphStats{}
		}
		corroborationTerm := float64(st.corroboration) / 3.0
		if corroborationTerm > 1 {
			corroborationTerm = 1
		}
		composite := 0.55*st.querySimilarity + 0.25*st.novelty + 0.20*corroborationTerm
		scoredStmts = append(scoredStmts, scored{stmt: s, composite: composite})
	}

	composites := make([]float64, len(scoredStmts))
	for i, s := range scoredStmts {
		composites[i] = s.composite
	}
	sortedComposites := append([]float64(nil), composites...)
	sort.Float64s(sortedComposites)

	low := cfg.TierPercentileLow
	high := cfg.TierPercentileHigh
	if low == 0 && high == 0 {
		low, high = 25, 75
	}
	p25 := vecmath.Percentile(sortedComposites, low)
	p75 := vecmath.Percentile(sortedComposites, high)

	out := make([]*pipeline.QueryRelevanceScore, 0, len(scoredStmts))
	for _, s := range scoredStmts {
		st := stats[pipeline.MakeParagraphID(s.stmt.ModelIndex, s.stmt.ParagraphIndex)]
		if st == nil {
			st = &paragraphStats{}
		}

		var tier pipeline.RelevanceTier
		switch {
		case s.composite >= p75:
			tier = pipeline.TierHigh
		case s.composite <= p25:
			tier = pipeline.TierLow
		default:
			tier = pipeline.TierMedium
		}

		stance := s.stmt.Stance
		out = append(out, &pipeline.QueryRelevanceScore{
			StatementID:               s.stmt.ID,
			CompositeRelevance:        s.composite,
			QuerySimilarity:           st.querySimilarity,
			Novelty:                   st.novelty,
			SubConsensusCorroboration: st.corroboration,
			Tier:                      tier,
			Meta: pipeline.RelevanceMeta{
				ModelCount:     modelCount,
				RegionID:       st.regionID,
				DominantStance: &stance,
			},
		})
	}
	return out
}
