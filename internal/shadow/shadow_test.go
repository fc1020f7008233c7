package shadow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

func TestExtractEmptyResponseYieldsNoStatements(t *testing.T) {
	shadow := Extract([]pipeline.ModelResponse{{ModelIndex: 1, Text: ""}})
	assert.Empty(t, shadow.Statements)
	assert.Empty(t, shadow.Paragraphs)
}

func TestExtractUnsplittableTextIsOneParagraphOneStatement(t *testing.T) {
	shadow := Extract([]pipeline.ModelResponse{{ModelIndex: 1, Text: "justonefragmentnopunctuation"}})
	require.Len(t, shadow.Paragraphs, 1)
	require.Len(t, shadow.Statements, 1)
	assert.Equal(t, pipeline.ParagraphID("p_1_0"), shadow.Paragraphs[0].ID)
	assert.Equal(t, pipeline.StatementID("stmt_1_0_0"), shadow.Statements[0].ID)
}

func TestExtractContestedParagraph(t *testing.T) {
	text := "You should use caching here. However, avoid caching stale session data."
	shadow := Extract([]pipeline.ModelResponse{{ModelIndex: 1, Text: text}})
	require.Len(t, shadow.Paragraphs, 1)
	p := shadow.Paragraphs[0]
	assert.True(t, p.Contested)
	assert.Equal(t, pipeline.StancePrescriptive, p.DominantStance)
}

func TestExtractStanceKeywords(t *testing.T) {
	tests := []struct {
		sentence string
		want     pipeline.Stance
	}{
		{"You must validate input before processing.", pipeline.StancePrescriptive},
		{"Avoid using global mutable state.", pipeline.StanceCautionary},
		{"This requires a running database first.", pipeline.StancePrerequisite},
		{"Then restart the service.", pipeline.StanceDependent},
		{"This might work depending on load.", pipeline.StanceUncertain},
		{"The service listens on port 8080.", pipeline.StanceAssertive},
	}
	for _, tt := range tests {
		stance, _ := classifyStance(tt.sentence)
		assert.Equal(t, tt.want, stance, tt.sentence)
	}
}

func TestExtractSignals(t *testing.T) {
	signals := classifySignals("If the queue backs up, then drain it, but watch for data loss.")
	assert.True(t, signals.Conditional)
	assert.True(t, signals.Sequence)
	assert.True(t, signals.Tension)
}

func TestSplitParagraphsPreservesCodeFence(t *testing.T) {
	text := "Here is an example:\n\n```go\nfunc main() {\n\n}\n```\n\nThat's it."
	paragraphs := splitParagraphs(text)
	require.Len(t, paragraphs, 3)
	assert.Contains(t, paragraphs[1], "```go")
}

func TestSplitSentencesRespectsAbbreviations(t *testing.T) {
	sentences := splitSentences("Dr. Smith recommended this approach. It works well.")
	require.Len(t, sentences, 2)
	assert.Contains(t, sentences[0], "Dr. Smith")
}

func TestStatementOrderIsDeterministic(t *testing.T) {
	responses := []pipeline.ModelResponse{
		{ModelIndex: 2, Text: "First paragraph one. Second sentence here.\n\nSecond paragraph."},
		{ModelIndex: 1, Text: "Other model paragraph."},
	}
	shadow := Extract(responses)
	// Responses are processed in input order, not sorted by ModelIndex —
	// the caller is responsible for presenting responses in id order.
	require.Len(t, shadow.Statements, 4)
	assert.Equal(t, pipeline.StatementID("stmt_2_0_0"), shadow.Statements[0].ID)
	assert.Equal(t, pipeline.StatementID("stmt_2_0_1"), shadow.Statements[1].ID)
	assert.Equal(t, pipeline.StatementID("stmt_2_1_0"), shadow.Statements[2].ID)
	assert.Equal(t, pipeline.StatementID("stmt_1_0_0"), shadow.Statements[3].ID)
}
