package basin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

func edge(src, tgt pipeline.ParagraphID, sim float64) *pipeline.SubstrateEdge {
	return &pipeline.SubstrateEdge{Source: src, Target: tgt, Similarity: sim, Kind: pipeline.EdgeMutual}
}

func TestInvertEmptySubstrateIsDegenerate(t *testing.T) {
	result := Invert(&pipeline.Substrate{})
	assert.Equal(t, pipeline.BasinDegenerate, result.Status)
}

func TestInvertNilSubstrateIsDegenerate(t *testing.T) {
	result := Invert(nil)
	assert.Equal(t, pipeline.BasinDegenerate, result.Status)
}

func TestInvertWideDistributionIsOK(t *testing.T) {
	substrate := &pipeline.Substrate{
		Nodes: []*pipeline.SubstrateNode{
			{ParagraphID: "p_0_0"}, {ParagraphID: "p_0_1"}, {ParagraphID: "p_0_2"}, {ParagraphID: "p_0_3"},
		},
		MutualEdges: []*pipeline.SubstrateEdge{
			edge("p_0_0", "p_0_1", 0.95),
			edge("p_0_1", "p_0_2", 0.5),
			edge("p_0_2", "p_0_3", 0.1),
		},
	}
	result := Invert(substrate)
	require.Equal(t, pipeline.BasinOK, result.Status)
	assert.GreaterOrEqual(t, result.DiscriminationRange, 0.10)
	assert.Equal(t, result.P90-result.P10, result.DiscriminationRange)
}

func TestInvertNearIdenticalSimilaritiesIsDegenerate(t *testing.T) {
	substrate := &pipeline.Substrate{
		Nodes: []*pipeline.SubstrateNode{
			{ParagraphID: "p_0_0"}, {ParagraphID: "p_0_1"}, {ParagraphID: "p_0_2"},
		},
		MutualEdges: []*pipeline.SubstrateEdge{
			edge("p_0_0", "p_0_1", 0.91),
			edge("p_0_1", "p_0_2", 0.90),
		},
	}
	result := Invert(substrate)
	assert.Equal(t, pipeline.BasinDegenerate, result.Status)
	assert.Less(t, result.DiscriminationRange, 0.05)
}

func TestInvertBasinsRespectValleyThreshold(t *testing.T) {
	substrate := &pipeline.Substrate{
		Nodes: []*pipeline.SubstrateNode{
			{ParagraphID: "p_0_0"}, {ParagraphID: "p_0_1"}, {ParagraphID: "p_0_2"}, {ParagraphID: "p_0_3"},
		},
		MutualEdges: []*pipeline.SubstrateEdge{
			edge("p_0_0", "p_0_1", 0.99),
			edge("p_0_2", "p_0_3", 0.01),
		},
	}
	result := Invert(substrate)
	// p_0_0/p_0_1 similarity is far above the valley threshold and should
	// basin together; p_0_2/p_0_3 falls below it and should stay separate.
	var basinOf01, basinOf23 bool
	for _, b := range result.Basins {
		has := func(id pipeline.ParagraphID) bool {
			for _, x := range b {
				if x == id {
					return true
				}
			}
			return false
		}
		if has("p_0_0") && has("p_0_1") {
			basinOf01 = true
		}
		if has("p_0_2") && has("p_0_3") {
			basinOf23 = true
		}
	}
	assert.True(t, basinOf01)
	assert.False(t, basinOf23)
}
