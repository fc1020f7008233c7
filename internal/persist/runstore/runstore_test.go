package runstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RejectsEmptyDSN(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestRunKey_DeterministicForSameInput(t *testing.T) {
	responses := []pipeline.ModelResponse{{ModelIndex: 0, Text: "a"}, {ModelIndex: 1, Text: "b"}}
	k1, err := RunKey("query", responses, map[string]int{"x": 1})
	require.NoError(t, err)
	k2, err := RunKey("query", responses, map[string]int{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestRunKey_DiffersOnResponseOrder(t *testing.T) {
	a := []pipeline.ModelResponse{{ModelIndex: 0, Text: "a"}, {ModelIndex: 1, Text: "b"}}
	b := []pipeline.ModelResponse{{ModelIndex: 1, Text: "b"}, {ModelIndex: 0, Text: "a"}}
	k1, err := RunKey("query", a, nil)
	require.NoError(t, err)
	k2, err := RunKey("query", b, nil)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestRunKey_DiffersOnConfig(t *testing.T) {
	responses := []pipeline.ModelResponse{{ModelIndex: 0, Text: "a"}}
	k1, err := RunKey("query", responses, map[string]int{"x": 1})
	require.NoError(t, err)
	k2, err := RunKey("query", responses, map[string]int{"x": 2})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestStore_GetMissReturnsNotOK(t *testing.T) {
	s := openTestStore(t)
	artifact, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, artifact)
}

func TestStore_PutThenGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	artifact := &pipeline.CognitiveArtifact{
		Semantic: &pipeline.Semantic{Claims: []*pipeline.Claim{{ID: "c1", Label: "hello"}}},
	}
	require.NoError(t, s.Put(ctx, "key1", artifact))

	got, ok, err := s.Get(ctx, "key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Semantic.Claims, 1)
	assert.Equal(t, pipeline.ClaimID("c1"), got.Semantic.Claims[0].ID)
}

func TestStore_PutOverwritesExistingKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "key1", &pipeline.CognitiveArtifact{Semantic: &pipeline.Semantic{Narrative: "first"}}))
	require.NoError(t, s.Put(ctx, "key1", &pipeline.CognitiveArtifact{Semantic: &pipeline.Semantic{Narrative: "second"}}))

	got, ok, err := s.Get(ctx, "key1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.Semantic.Narrative)
}

func TestStore_PruneWithFutureCutoffRemovesAllEntries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "old", &pipeline.CognitiveArtifact{}))
	require.NoError(t, s.Put(ctx, "new", &pipeline.CognitiveArtifact{}))

	cutoff := time.Now().Add(time.Hour)
	require.NoError(t, s.Prune(ctx, cutoff))

	_, ok, err := s.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.Get(ctx, "new")
	require.NoError(t, err)
	assert.False(t, ok, "prune with a future cutoff removes every entry regardless of age")
}
