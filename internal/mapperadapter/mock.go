package mapperadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
	"github.com/quanticsoul4772/cogmap/internal/shadow"
)

// MockMapper is a deterministic pipeline.Mapper for local smoke-testing
// without a live LLM (SPEC_FULL.md §3), mirroring the role of the
// teacher's internal/embeddings/mock_embedder.go for the mapper side. It
// re-runs shadow extraction over the same responses to recover the exact
// statement ids (deterministic, so this never drifts from the real
// shadow stage) and emits one claim per paragraph, sourced by that
// paragraph's statements.
type MockMapper struct{}

// NewMockMapper returns a ready-to-use MockMapper.
func NewMockMapper() *MockMapper { return &MockMapper{} }

// Map ignores query and synthesizes a <map> envelope with one claim per
// paragraph in numberedResponses.
func (MockMapper) Map(ctx context.Context, query string, numberedResponses []pipeline.ModelResponse) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	sh := shadow.Extract(numberedResponses)

	var b strings.Builder
	b.WriteString("<map>\n")
	for i, p := range sh.Paragraphs {
		claimID := fmt.Sprintf("claim_%d", i)
		var sources []string
		for _, sid := range p.StatementIDs {
			sources = append(sources, string(sid))
		}
		fmt.Fprintf(&b, "<claim id=%q label=%q type=\"factual\" sources=%q>%s</claim>\n",
			claimID, paragraphLabel(p), strings.Join(sources, ","), paragraphText(p, sh))
	}
	b.WriteString("</map>\n<narrative>\nMock mapper output synthesized directly from shadow paragraphs, one claim per paragraph.\n</narrative>\n")
	return b.String(), nil
}

func paragraphLabel(p *pipeline.ShadowParagraph) string {
	return fmt.Sprintf("Paragraph %d from model %d", p.ParagraphIndex, p.ModelIndex)
}

func paragraphText(p *pipeline.ShadowParagraph, sh *pipeline.Shadow) string {
	if p.FullParagraph != "" {
		return p.FullParagraph
	}
	return paragraphLabel(p)
}
