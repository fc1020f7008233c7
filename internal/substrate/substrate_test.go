package substrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

func unitVec(angle float64, dim int) pipeline.Embedding {
	// Simple 2D-plane embedding padded with zeros, for controllable cosine
	// similarity between test fixtures.
	v := make([]float32, dim)
	v[0] = float32(cosApprox(angle))
	v[1] = float32(sinApprox(angle))
	return pipeline.Embedding(v)
}

// cosApprox/sinApprox avoid importing math just for two calls used only
// to build orthogonal/parallel test fixtures; precision doesn't matter.
func cosApprox(angle float64) float64 {
	switch angle {
	case 0:
		return 1
	case 90:
		return 0
	case 180:
		return -1
	default:
		return 0.5
	}
}

func sinApprox(angle float64) float64 {
	switch angle {
	case 0:
		return 0
	case 90:
		return 1
	case 180:
		return 0
	default:
		return 0.87
	}
}

func fixtureParagraphs(ids []pipeline.ParagraphID) []*pipeline.ShadowParagraph {
	paragraphs := make([]*pipeline.ShadowParagraph, len(ids))
	for i, id := range ids {
		paragraphs[i] = &pipeline.ShadowParagraph{ID: id, ModelIndex: pipeline.ModelIndex(0), ParagraphIndex: i}
	}
	return paragraphs
}

func TestBuildEmptyInput(t *testing.T) {
	sub := Build(nil, nil, Config{})
	require.NotNil(t, sub)
	assert.Empty(t, sub.Nodes)
	assert.Empty(t, sub.Regions)
}

func TestBuildProducesMutualEdgesForCloseNeighbors(t *testing.T) {
	ids := []pipeline.ParagraphID{"p_0_0", "p_0_1", "p_0_2"}
	paragraphs := fixtureParagraphs(ids)
	embeddings := map[pipeline.ParagraphID]pipeline.Embedding{
		"p_0_0": unitVec(0, 4),
		"p_0_1": unitVec(0, 4), // identical to p_0_0
		"p_0_2": unitVec(90, 4),
	}

	sub := Build(paragraphs, embeddings, Config{K: 2, StrongThresh: 0.75, RegionMaxSize: 40})
	require.Len(t, sub.Nodes, 3)

	foundMutual := false
	for _, e := range sub.MutualEdges {
		if (e.Source == "p_0_0" && e.Target == "p_0_1") || (e.Source == "p_0_1" && e.Target == "p_0_0") {
			foundMutual = true
		}
	}
	assert.True(t, foundMutual, "identical embeddings should form a mutual edge")
}

func TestBuildStrongEdgesSubsetOfThreshold(t *testing.T) {
	ids := []pipeline.ParagraphID{"p_0_0", "p_0_1", "p_0_2"}
	paragraphs := fixtureParagraphs(ids)
	embeddings := map[pipeline.ParagraphID]pipeline.Embedding{
		"p_0_0": unitVec(0, 4),
		"p_0_1": unitVec(0, 4),
		"p_0_2": unitVec(180, 4),
	}

	sub := Build(paragraphs, embeddings, Config{K: 2, StrongThresh: 0.9, RegionMaxSize: 40})
	for _, e := range sub.StrongEdges {
		assert.GreaterOrEqual(t, e.Similarity, 0.9)
	}
}

// With more near-duplicate paragraphs than k, some pairs clear the strong
// threshold but fall outside both sides' top-k lists; spec.md:233 requires
// the strong edge set stay a subset of the k-NN edge set, so those pairs
// must not appear in StrongEdges.
func TestBuildStrongEdgesSubsetOfKNNEdges(t *testing.T) {
	var ids []pipeline.ParagraphID
	embeddings := map[pipeline.ParagraphID]pipeline.Embedding{}
	for i := 0; i < 12; i++ {
		id := pipeline.MakeParagraphID(0, i)
		ids = append(ids, id)
		embeddings[id] = unitVec(0, 4) // all identical -> sim 1.0 for every pair
	}
	paragraphs := fixtureParagraphs(ids)

	sub := Build(paragraphs, embeddings, Config{K: 2, StrongThresh: 0.75, RegionMaxSize: 40})
	require.NotEmpty(t, sub.StrongEdges, "identical embeddings should clear the strong threshold")

	knnPairs := make(map[[2]pipeline.ParagraphID]bool)
	for _, e := range sub.KNNEdges {
		knnPairs[[2]pipeline.ParagraphID{e.Source, e.Target}] = true
		knnPairs[[2]pipeline.ParagraphID{e.Target, e.Source}] = true
	}

	for _, e := range sub.StrongEdges {
		assert.True(t, knnPairs[[2]pipeline.ParagraphID{e.Source, e.Target}],
			"strong edge %s-%s must also be a k-NN edge", e.Source, e.Target)
	}
	// With 12 identical paragraphs and k=2, the 66 candidate pairs vastly
	// outnumber what k-NN membership on either side can admit; confirm the
	// subset check actually bites rather than vacuously passing.
	assert.Less(t, len(sub.StrongEdges), 66)
}

func TestBuildAssignsWeaklyConnectedComponents(t *testing.T) {
	ids := []pipeline.ParagraphID{"p_0_0", "p_0_1", "p_0_2", "p_0_3"}
	paragraphs := fixtureParagraphs(ids)
	embeddings := map[pipeline.ParagraphID]pipeline.Embedding{
		"p_0_0": unitVec(0, 4),
		"p_0_1": unitVec(0, 4),
		"p_0_2": unitVec(90, 4),
		"p_0_3": unitVec(90, 4),
	}

	sub := Build(paragraphs, embeddings, Config{K: 1, StrongThresh: 0.75, RegionMaxSize: 40})

	nodeByID := make(map[pipeline.ParagraphID]*pipeline.SubstrateNode)
	for _, n := range sub.Nodes {
		nodeByID[n.ParagraphID] = n
	}
	assert.Equal(t, nodeByID["p_0_0"].ComponentID, nodeByID["p_0_1"].ComponentID)
	assert.NotEqual(t, nodeByID["p_0_0"].ComponentID, nodeByID["p_0_2"].ComponentID)
}

func TestBuildPartitionsOversizedComponentsIntoPatches(t *testing.T) {
	var ids []pipeline.ParagraphID
	embeddings := map[pipeline.ParagraphID]pipeline.Embedding{}
	for i := 0; i < 10; i++ {
		id := pipeline.MakeParagraphID(0, i)
		ids = append(ids, id)
		embeddings[id] = unitVec(0, 4) // all identical -> one giant mutual component
	}
	paragraphs := fixtureParagraphs(ids)

	sub := Build(paragraphs, embeddings, Config{K: 9, StrongThresh: 0.75, RegionMaxSize: 3})

	var patchCount int
	for _, r := range sub.Regions {
		if r.Kind == pipeline.RegionPatch {
			patchCount++
			assert.LessOrEqual(t, len(r.NodeIDs), 3)
		}
	}
	assert.Greater(t, patchCount, 1)
}

func TestNormalizeRegionKindAliasesClusterToPatch(t *testing.T) {
	assert.Equal(t, pipeline.RegionPatch, NormalizeRegionKind("cluster"))
	assert.Equal(t, pipeline.RegionPatch, NormalizeRegionKind("patch"))
	assert.Equal(t, pipeline.RegionComponent, NormalizeRegionKind("component"))
}

func TestTopKTieBreakPrefersLowerParagraphID(t *testing.T) {
	ids := []pipeline.ParagraphID{"p_0_0", "p_0_1", "p_0_2"}
	paragraphs := fixtureParagraphs(ids)
	// p_0_1 and p_0_2 are equidistant from p_0_0; tie-break must prefer p_0_1.
	embeddings := map[pipeline.ParagraphID]pipeline.Embedding{
		"p_0_0": unitVec(0, 4),
		"p_0_1": unitVec(45, 4),
		"p_0_2": unitVec(45, 4),
	}

	sub := Build(paragraphs, embeddings, Config{K: 1, StrongThresh: 0.75, RegionMaxSize: 40})
	var got *pipeline.SubstrateEdge
	for _, e := range sub.KNNEdges {
		if e.Source == "p_0_0" {
			got = e
			break
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, pipeline.ParagraphID("p_0_1"), got.Target)
}
