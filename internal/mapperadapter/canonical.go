package mapperadapter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

// CanonicalPrint re-serializes a Semantic back into the same <map>/
// <narrative> envelope shape the parser accepts, with claims, edges, and
// conditionals in a stable, sorted order. It exists for the round-trip
// property required by spec.md's re-run guarantee:
// Parse(CanonicalPrint(Parse(x))).Semantic matches Parse(x).Semantic up to
// RawText and the sorted order of claims, edges and conditionals. The
// match does not hold for text containing '<' or '>' (printed as
// &lt;/&gt;, which the parser does not unescape) or for attribute values
// containing '"' or '\' (printed with Go %q escaping, which the parser
// does not undo).
func CanonicalPrint(sem *pipeline.Semantic) string {
	if sem == nil {
		return ""
	}

	claims := append([]*pipeline.Claim(nil), sem.Claims...)
	sort.Slice(claims, func(i, j int) bool { return claims[i].ID < claims[j].ID })

	edges := append([]*pipeline.SemanticEdge(nil), sem.Edges...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	conditionals := append([]*pipeline.Conditional(nil), sem.Conditionals...)
	sort.Slice(conditionals, func(i, j int) bool { return conditionals[i].ID < conditionals[j].ID })

	var b strings.Builder
	b.WriteString("<map>\n")
	for _, c := range claims {
		b.WriteString(fmt.Sprintf("  <claim id=%q label=%q type=%q", c.ID, c.Label, c.Type))
		if c.Role != nil {
			b.WriteString(fmt.Sprintf(" role=%q", *c.Role))
		}
		if len(c.SourceStatementIDs) > 0 {
			ids := make([]string, len(c.SourceStatementIDs))
			for i, sid := range c.SourceStatementIDs {
				ids[i] = string(sid)
			}
			b.WriteString(fmt.Sprintf(" sources=%q", strings.Join(ids, ",")))
		}
		b.WriteString(">")
		b.WriteString(escapeAngleBrackets(c.Text))
		b.WriteString("</claim>\n")
	}
	for _, e := range edges {
		b.WriteString(fmt.Sprintf("  <edge source=%q target=%q kind=%q weight=\"%g\">%s</edge>\n",
			e.Source, e.Target, e.Kind, e.Weight, escapeAngleBrackets(e.Reason)))
	}
	for _, c := range conditionals {
		b.WriteString(fmt.Sprintf("  <conditional id=%q condition=%q", c.ID, c.Condition))
		if c.ThenClaim != "" {
			b.WriteString(fmt.Sprintf(" then=%q", c.ThenClaim))
		}
		if c.ElseClaim != "" {
			b.WriteString(fmt.Sprintf(" else=%q", c.ElseClaim))
		}
		b.WriteString("/>\n")
	}
	b.WriteString("</map>\n")

	if sem.Narrative != "" {
		b.WriteString("<narrative>\n")
		b.WriteString(sem.Narrative)
		b.WriteString("\n</narrative>\n")
	}

	return b.String()
}

// escapeAngleBrackets keeps re-printed inner text from being mistaken for
// nested tags by the tokenizer on the next parse.
func escapeAngleBrackets(s string) string {
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
