package mapperadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

// Run assembles the mapper prompt from the query and numbered responses,
// invokes mapper, and parses its reply (spec.md §4.E). Failure to produce
// a usable <map> block is reported through ParseResult.Observations
// rather than as a Go error, so the raw text is preserved for a retry
// with a different mapper (spec.md §4.E Failure modes); a transport-level
// error from the mapper itself is still returned as an error.
func Run(ctx context.Context, mapper pipeline.Mapper, query string, responses []pipeline.ModelResponse, knownStatementIDs map[pipeline.StatementID]bool) (*ParseResult, error) {
	prompt := BuildPrompt(query, responses)
	envelope, err := mapper.Map(ctx, prompt, responses)
	if err != nil {
		return nil, fmt.Errorf("mapper adapter: %w", err)
	}
	return Parse(envelope, knownStatementIDs), nil
}

// BuildPrompt assembles the query, numbered model responses, and a schema
// instruction into the single prompt string handed to the mapper
// (spec.md §4.E Input).
func BuildPrompt(query string, responses []pipeline.ModelResponse) string {
	var b strings.Builder
	b.WriteString("Query:\n")
	b.WriteString(query)
	b.WriteString("\n\nModel responses:\n")
	for _, r := range responses {
		fmt.Fprintf(&b, "[%d] %s\n", r.ModelIndex, r.Text)
	}
	b.WriteString("\nRespond with a <map> block containing <claim>, <edge>, and <conditional> ")
	b.WriteString("tags (id/label/type/sources attributes as specified), followed by a ")
	b.WriteString("<narrative> block of markdown prose with [n] citation markers.\n")
	return b.String()
}
