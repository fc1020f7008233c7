package queryrelevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

func unit(x, y float32) pipeline.Embedding { return pipeline.Embedding{x, y} }

func TestCompute_Empty(t *testing.T) {
	out := Compute(unit(1, 0), nil, nil, nil, nil, 0, Config{})
	assert.Nil(t, out)
}

func TestCompute_CloserParagraphScoresHigherQuerySimilarity(t *testing.T) {
	p0 := &pipeline.ShadowParagraph{ID: pipeline.MakeParagraphID(0, 0), ModelIndex: 0, ParagraphIndex: 0}
	p1 := &pipeline.ShadowParagraph{ID: pipeline.MakeParagraphID(1, 0), ModelIndex: 1, ParagraphIndex: 0}
	paragraphs := []*pipeline.ShadowParagraph{p0, p1}

	s0 := &pipeline.ShadowStatement{ID: "s0", ModelIndex: 0, ParagraphIndex: 0}
	s1 := &pipeline.ShadowStatement{ID: "s1", ModelIndex: 1, ParagraphIndex: 0}
	statements := []*pipeline.ShadowStatement{s0, s1}

	embeddings := map[pipeline.ParagraphID]pipeline.Embedding{
		p0.ID: unit(1, 0),
		p1.ID: unit(0, 1),
	}
	query := unit(1, 0)

	out := Compute(query, statements, paragraphs, embeddings, nil, 2, Config{})
	require.Len(t, out, 2)

	byID := make(map[pipeline.StatementID]*pipeline.QueryRelevanceScore)
	for _, o := range out {
		byID[o.StatementID] = o
	}

	assert.Greater(t, byID["s0"].QuerySimilarity, byID["s1"].QuerySimilarity)
	assert.InDelta(t, 1.0, byID["s0"].QuerySimilarity, 1e-6)
	assert.InDelta(t, 0.0, byID["s1"].QuerySimilarity, 1e-6)
}

func TestCompute_TiersPartitionByConfiguredPercentiles(t *testing.T) {
	var paragraphs []*pipeline.ShadowParagraph
	var statements []*pipeline.ShadowStatement
	embeddings := make(map[pipeline.ParagraphID]pipeline.Embedding)

	coords := []struct{ x, y float32 }{{1, 0}, {0.7, 0.7}, {0, 1}, {-1, 0}}
	for i, c := range coords {
		id := pipeline.MakeParagraphID(pipeline.ModelIndex(i), 0)
		paragraphs = append(paragraphs, &pipeline.ShadowParagraph{ID: id, ModelIndex: pipeline.ModelIndex(i), ParagraphIndex: 0})
		statements = append(statements, &pipeline.ShadowStatement{ID: pipeline.StatementID("s" + string(rune('0'+i))), ModelIndex: pipeline.ModelIndex(i), ParagraphIndex: 0})
		embeddings[id] = unit(c.x, c.y)
	}

	out := Compute(unit(1, 0), statements, paragraphs, embeddings, nil, 4, Config{TierPercentileLow: 25, TierPercentileHigh: 75})
	require.Len(t, out, 4)

	seen := make(map[pipeline.RelevanceTier]bool)
	for _, o := range out {
		seen[o.Tier] = true
	}
	assert.True(t, seen[pipeline.TierHigh] && seen[pipeline.TierMedium] && seen[pipeline.TierLow])
}

func TestCompute_RegionIDPassedThroughFromRegionOf(t *testing.T) {
	id := pipeline.MakeParagraphID(0, 0)
	paragraphs := []*pipeline.ShadowParagraph{{ID: id, ModelIndex: 0, ParagraphIndex: 0}}
	statements := []*pipeline.ShadowStatement{{ID: "s0", ModelIndex: 0, ParagraphIndex: 0}}
	embeddings := map[pipeline.ParagraphID]pipeline.Embedding{id: unit(1, 0)}
	regionOf := map[pipeline.ParagraphID]string{id: "region-a"}

	out := Compute(unit(1, 0), statements, paragraphs, embeddings, regionOf, 1, Config{})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Meta.RegionID)
	assert.Equal(t, "region-a", *out[0].Meta.RegionID)
}
