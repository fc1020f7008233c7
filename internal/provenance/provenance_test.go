package provenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

func vec(vals ...float32) pipeline.Embedding { return pipeline.Embedding(vals) }

func TestComputeEmptyInputsReturnEmptyResult(t *testing.T) {
	result := Compute(nil, nil, nil, nil, nil, Config{})
	require.NotNil(t, result.Allocation)
	assert.Empty(t, result.Records)
}

func TestComputeAssignsStatementToNearestClaim(t *testing.T) {
	statements := []*pipeline.ShadowStatement{
		{ID: "stmt_0_0_0"},
		{ID: "stmt_0_0_1"},
	}
	claims := []*pipeline.Claim{
		{ID: "c1"},
		{ID: "c2"},
	}
	statementEmbeddings := map[pipeline.StatementID]pipeline.Embedding{
		"stmt_0_0_0": vec(1, 0),
		"stmt_0_0_1": vec(0, 1),
	}
	claimEmbeddings := map[pipeline.ClaimID]pipeline.Embedding{
		"c1": vec(1, 0),
		"c2": vec(0, 1),
	}
	paragraphOf := map[pipeline.StatementID]pipeline.ParagraphID{
		"stmt_0_0_0": "p_0_0",
		"stmt_0_0_1": "p_0_0",
	}

	result := Compute(statements, claims, statementEmbeddings, claimEmbeddings, paragraphOf, Config{})
	require.Len(t, result.Records, 2)

	byID := map[pipeline.ClaimID]*pipeline.ProvenanceRecord{}
	for _, r := range result.Records {
		byID[r.ClaimID] = r
	}
	require.NotEmpty(t, byID["c1"].DirectStatementProvenance)
	assert.Equal(t, pipeline.StatementID("stmt_0_0_0"), byID["c1"].DirectStatementProvenance[0].StatementID)
	require.NotEmpty(t, byID["c2"].DirectStatementProvenance)
	assert.Equal(t, pipeline.StatementID("stmt_0_0_1"), byID["c2"].DirectStatementProvenance[0].StatementID)
}

func TestComputeDominantParagraphIDsRequiresMajorityBulk(t *testing.T) {
	statements := []*pipeline.ShadowStatement{
		{ID: "s1"}, {ID: "s2"}, {ID: "s3"},
	}
	claims := []*pipeline.Claim{{ID: "c1"}}
	statementEmbeddings := map[pipeline.StatementID]pipeline.Embedding{
		"s1": vec(1, 0), "s2": vec(1, 0), "s3": vec(1, 0),
	}
	claimEmbeddings := map[pipeline.ClaimID]pipeline.Embedding{"c1": vec(1, 0)}
	paragraphOf := map[pipeline.StatementID]pipeline.ParagraphID{
		"s1": "p_0_0", "s2": "p_0_0", "s3": "p_0_1",
	}

	result := Compute(statements, claims, statementEmbeddings, claimEmbeddings, paragraphOf, Config{})
	require.Len(t, result.Records, 1)
	assert.Contains(t, result.Records[0].DominantParagraphIDs, pipeline.ParagraphID("p_0_0"))
	assert.NotContains(t, result.Records[0].DominantParagraphIDs, pipeline.ParagraphID("p_0_1"))
}

func TestComputeDualCoordinateFlagSetWhenMultiAssignmentIsCommon(t *testing.T) {
	// Two claims with identical embeddings force every statement's weight
	// to split near-evenly, so most statements qualify for both claims.
	statements := []*pipeline.ShadowStatement{
		{ID: "s1"}, {ID: "s2"}, {ID: "s3"}, {ID: "s4"},
	}
	claims := []*pipeline.Claim{{ID: "c1"}, {ID: "c2"}}
	statementEmbeddings := map[pipeline.StatementID]pipeline.Embedding{
		"s1": vec(1, 0), "s2": vec(1, 0), "s3": vec(1, 0), "s4": vec(1, 0),
	}
	claimEmbeddings := map[pipeline.ClaimID]pipeline.Embedding{
		"c1": vec(1, 0),
		"c2": vec(1, 0),
	}
	paragraphOf := map[pipeline.StatementID]pipeline.ParagraphID{
		"s1": "p_0_0", "s2": "p_0_0", "s3": "p_0_0", "s4": "p_0_0",
	}

	result := Compute(statements, claims, statementEmbeddings, claimEmbeddings, paragraphOf, Config{})
	assert.True(t, result.Allocation.DualCoordinateFlag)
}

func TestComputeAssignmentCountsCapAtThree(t *testing.T) {
	statements := []*pipeline.ShadowStatement{{ID: "s1"}}
	var claims []*pipeline.Claim
	claimEmbeddings := map[pipeline.ClaimID]pipeline.Embedding{}
	// Four identical claims give each a weight of exactly 0.25, so all four
	// pass the default minimum weight and the cap has to drop one.
	for i := 0; i < 4; i++ {
		id := pipeline.ClaimID(string(rune('a' + i)))
		claims = append(claims, &pipeline.Claim{ID: id})
		claimEmbeddings[id] = vec(1, 0)
	}
	statementEmbeddings := map[pipeline.StatementID]pipeline.Embedding{"s1": vec(1, 0)}
	paragraphOf := map[pipeline.StatementID]pipeline.ParagraphID{"s1": "p_0_0"}

	result := Compute(statements, claims, statementEmbeddings, claimEmbeddings, paragraphOf, Config{})
	assert.LessOrEqual(t, result.Allocation.AssignmentCounts["s1"], 3)
}
