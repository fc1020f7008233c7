package assembler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

func TestAssemble_NilObservabilityIsInitialized(t *testing.T) {
	out := Assemble(Inputs{})
	require.NotNil(t, out.Observability)
	require.NotNil(t, out.Observability.Stages)
}

func TestAssemble_DropsClaimSourceReferencingUnknownStatement(t *testing.T) {
	shadow := &pipeline.Shadow{Statements: []*pipeline.ShadowStatement{{ID: "s1"}}}
	semantic := &pipeline.Semantic{
		Claims: []*pipeline.Claim{{ID: "c1", SourceStatementIDs: []pipeline.StatementID{"s1", "ghost"}}},
	}

	out := Assemble(Inputs{Shadow: shadow, Semantic: semantic})

	require.Len(t, out.Semantic.Claims, 1)
	assert.Equal(t, []pipeline.StatementID{"s1"}, out.Semantic.Claims[0].SourceStatementIDs)
	assert.NotEmpty(t, out.Observability.Observations)
	found := false
	for _, o := range out.Observability.Observations {
		if o.Code == "invariant_violation_unknown_statement" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssemble_DropsEdgeWithUnresolvedEndpoint(t *testing.T) {
	shadow := &pipeline.Shadow{Statements: nil}
	semantic := &pipeline.Semantic{
		Claims: []*pipeline.Claim{{ID: "c1"}, {ID: "c2"}},
		Edges: []*pipeline.SemanticEdge{
			{Source: "c1", Target: "c2", Kind: pipeline.EdgeSupports},
			{Source: "c1", Target: "ghost", Kind: pipeline.EdgeRefutes},
		},
	}

	out := Assemble(Inputs{Shadow: shadow, Semantic: semantic})

	require.Len(t, out.Semantic.Edges, 1)
	assert.Equal(t, pipeline.ClaimID("c2"), out.Semantic.Edges[0].Target)
}

func TestAssemble_ReplacesNonFiniteFloats(t *testing.T) {
	basin := &pipeline.BasinInversion{Mu: math.NaN(), Sigma: math.Inf(1), P10: 0.1, P90: 0.9}

	out := Assemble(Inputs{BasinInversion: basin})

	assert.Zero(t, out.Geometry.BasinInversion.Mu)
	assert.Zero(t, out.Geometry.BasinInversion.Sigma)
	assert.Equal(t, 0.1, out.Geometry.BasinInversion.P10)

	found := false
	for _, o := range out.Observability.Observations {
		if o.Code == "non_finite_value_replaced" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssemble_PassesThroughNilFieldsWithoutFabricating(t *testing.T) {
	out := Assemble(Inputs{})
	assert.Nil(t, out.Shadow)
	assert.Nil(t, out.Semantic)
	assert.Nil(t, out.ClaimProvenance)
	assert.Nil(t, out.StructuralAnalysis)
}
