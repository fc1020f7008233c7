package mapperadapter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

func TestMockMapper_EmitsOneClaimPerParagraph(t *testing.T) {
	m := NewMockMapper()
	responses := []pipeline.ModelResponse{
		{ModelIndex: 0, Text: "First paragraph here.\n\nSecond paragraph follows."},
		{ModelIndex: 1, Text: "A lone paragraph from model two."},
	}

	out, err := m.Map(context.Background(), "irrelevant query", responses)
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, "<claim "))
	assert.True(t, strings.HasPrefix(out, "<map>\n"))
	assert.Contains(t, out, "</narrative>")
}

func TestMockMapper_IsDeterministic(t *testing.T) {
	m := NewMockMapper()
	responses := []pipeline.ModelResponse{{ModelIndex: 0, Text: "Some content. More content."}}

	first, err := m.Map(context.Background(), "q", responses)
	require.NoError(t, err)
	second, err := m.Map(context.Background(), "q", responses)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMockMapper_RespectsCancelledContext(t *testing.T) {
	m := NewMockMapper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Map(ctx, "q", []pipeline.ModelResponse{{ModelIndex: 0, Text: "text"}})
	assert.Error(t, err)
}
