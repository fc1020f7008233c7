// Package mapperadapter implements component E, the Mapper Adapter and
// Parser: invoking the pluggable pipeline.Mapper, and tolerantly parsing
// its textual envelope into claims, edges, conditionals, and narrative.
// The tokenizer is hand-rolled balanced scanning rather than regexp,
// grounded on the teacher's internal/knowledge/extraction/regex_extractor.go
// pattern-table style for the synonym/attribute tables, but following
// spec.md §4.E's requirement to tolerate nested angle brackets inside
// attribute values, which a single regex pass cannot do reliably.
package mapperadapter

import (
	"strings"

	"github.com/google/uuid"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

// edgeKindSynonyms maps alternate spellings the mapper LLM may emit onto
// the closed SemanticEdgeKind set (spec.md §4.E step 4).
var edgeKindSynonyms = map[string]pipeline.SemanticEdgeKind{
	"supports":     pipeline.EdgeSupports,
	"support":      pipeline.EdgeSupports,
	"refutes":      pipeline.EdgeRefutes,
	"contradicts":  pipeline.EdgeRefutes,
	"tradeoff":     pipeline.EdgeTradeoff,
	"trade-off":    pipeline.EdgeTradeoff,
	"prerequisite": pipeline.EdgePrerequisite,
	"requires":     pipeline.EdgePrerequisite,
	"elaborates":   pipeline.EdgeElaborates,
	"elaborate":    pipeline.EdgeElaborates,
}

var claimTypeValues = map[string]pipeline.ClaimType{
	"factual":      pipeline.ClaimFactual,
	"prescriptive": pipeline.ClaimPrescriptive,
	"conditional":  pipeline.ClaimConditional,
	"contested":    pipeline.ClaimContested,
	"speculative":  pipeline.ClaimSpeculative,
}

// ParseResult is the parser's output plus any observations raised while
// tolerating malformed input (spec.md §4.E Failure modes).
type ParseResult struct {
	Semantic     *pipeline.Semantic
	Observations []pipeline.StageObservation
}

// tag is one tokenized XML-ish element: its name, its attributes, and the
// raw inner text between its opening and closing tags.
type tag struct {
	name      string
	attrs     map[string]string
	innerText string
}

// Parse extracts the <map> and <narrative> regions from envelope and
// returns the assembled Semantic, tolerating partial failures per
// spec.md §4.E.
func Parse(envelope string, knownStatementIDs map[pipeline.StatementID]bool) *ParseResult {
	result := &ParseResult{Semantic: &pipeline.Semantic{RawText: envelope}}

	mapBlock, ok := extractBlock(envelope, "map")
	if !ok {
		result.Observations = append(result.Observations, pipeline.StageObservation{
			Level: "error", Code: "mapper_parse_failed",
			Message: "no <map> block found in mapper envelope", StageName: "mapperadapter",
		})
		return result
	}

	narrativeBlock, ok := extractBlock(envelope, "narrative")
	if ok {
		result.Semantic.Narrative = strings.TrimSpace(narrativeBlock)
	}

	tags := tokenizeChildren(mapBlock)

	claimsByID := make(map[pipeline.ClaimID]*pipeline.Claim)
	for _, t := range tags {
		if t.name != "claim" {
			continue
		}
		claim, obs := parseClaim(t, knownStatementIDs)
		result.Observations = append(result.Observations, obs...)
		if claim != nil {
			claimsByID[claim.ID] = claim
			result.Semantic.Claims = append(result.Semantic.Claims, claim)
		}
	}

	for _, t := range tags {
		switch t.name {
		case "edge":
			edge, obs := parseEdge(t, claimsByID)
			result.Observations = append(result.Observations, obs...)
			if edge != nil {
				result.Semantic.Edges = append(result.Semantic.Edges, edge)
			}
		case "conditional":
			result.Semantic.Conditionals = append(result.Semantic.Conditionals, parseConditional(t))
		}
	}

	return result
}

func parseClaim(t tag, knownStatementIDs map[pipeline.StatementID]bool) (*pipeline.Claim, []pipeline.StageObservation) {
	var obs []pipeline.StageObservation

	id := strings.TrimSpace(t.attrs["id"])
	label := strings.TrimSpace(t.attrs["label"])
	text := strings.TrimSpace(t.innerText)
	if text == "" {
		text = strings.TrimSpace(t.attrs["text"])
	}

	if label == "" || text == "" {
		obs = append(obs, pipeline.StageObservation{
			Level: "warn", Code: "mapper_claim_invalid",
			Message: "claim missing required label or text, dropped", StageName: "mapperadapter",
		})
		return nil, obs
	}
	if id == "" {
		id = "claim_" + uuid.NewString()
		obs = append(obs, pipeline.StageObservation{
			Level: "warn", Code: "mapper_claim_id_recovered",
			Message: "claim missing id attribute, a synthetic id was assigned: " + id,
			StageName: "mapperadapter",
		})
	}

	claimType := pipeline.ClaimFactual
	if v, ok := claimTypeValues[strings.ToLower(strings.TrimSpace(t.attrs["type"]))]; ok {
		claimType = v
	}

	claim := &pipeline.Claim{
		ID:    pipeline.ClaimID(id),
		Label: label,
		Text:  text,
		Type:  claimType,
	}

	if role := strings.ToLower(strings.TrimSpace(t.attrs["role"])); role != "" {
		r := pipeline.ClaimRole(role)
		claim.Role = &r
	}

	if sources := strings.TrimSpace(t.attrs["sources"]); sources != "" {
		for _, raw := range strings.Split(sources, ",") {
			sid := pipeline.StatementID(strings.TrimSpace(raw))
			if sid == "" {
				continue
			}
			if knownStatementIDs != nil && !knownStatementIDs[sid] {
				obs = append(obs, pipeline.StageObservation{
					Level: "warn", Code: "mapper_unknown_source_statement",
					Message: "claim " + id + " references unknown statement id " + string(sid),
					StageName: "mapperadapter",
				})
				continue
			}
			claim.SourceStatementIDs = append(claim.SourceStatementIDs, sid)
		}
	}

	return claim, obs
}

func parseEdge(t tag, claimsByID map[pipeline.ClaimID]*pipeline.Claim) (*pipeline.SemanticEdge, []pipeline.StageObservation) {
	var obs []pipeline.StageObservation

	source := pipeline.ClaimID(strings.TrimSpace(t.attrs["source"]))
	target := pipeline.ClaimID(strings.TrimSpace(t.attrs["target"]))
	kindRaw := strings.ToLower(strings.TrimSpace(t.attrs["kind"]))

	if source == "" || target == "" || kindRaw == "" {
		obs = append(obs, pipeline.StageObservation{
			Level: "warn", Code: "mapper_edge_invalid",
			Message: "edge missing source, target, or kind, dropped", StageName: "mapperadapter",
		})
		return nil, obs
	}

	if _, ok := claimsByID[source]; !ok {
		obs = append(obs, pipeline.StageObservation{
			Level: "warn", Code: "mapper_edge_unresolved_endpoint",
			Message: "edge source " + string(source) + " does not resolve to a known claim, dropped",
			StageName: "mapperadapter",
		})
		return nil, obs
	}
	if _, ok := claimsByID[target]; !ok {
		obs = append(obs, pipeline.StageObservation{
			Level: "warn", Code: "mapper_edge_unresolved_endpoint",
			Message: "edge target " + string(target) + " does not resolve to a known claim, dropped",
			StageName: "mapperadapter",
		})
		return nil, obs
	}

	kind, ok := edgeKindSynonyms[kindRaw]
	if !ok {
		obs = append(obs, pipeline.StageObservation{
			Level: "warn", Code: "mapper_edge_unknown_kind",
			Message: "edge kind " + kindRaw + " is not recognized, dropped", StageName: "mapperadapter",
		})
		return nil, obs
	}

	weight := 1.0
	if w := strings.TrimSpace(t.attrs["weight"]); w != "" {
		if parsed, err := parseFloat(w); err == nil {
			weight = parsed
		}
	}

	return &pipeline.SemanticEdge{
		Source: source,
		Target: target,
		Kind:   kind,
		Weight: weight,
		Reason: strings.TrimSpace(t.innerText),
	}, obs
}

func parseConditional(t tag) *pipeline.Conditional {
	id := strings.TrimSpace(t.attrs["id"])
	if id == "" {
		id = "cond_" + uuid.NewString()
	}
	c := &pipeline.Conditional{
		ID:        id,
		Condition: strings.TrimSpace(t.attrs["condition"]),
	}
	if c.Condition == "" {
		c.Condition = strings.TrimSpace(t.innerText)
	}
	if then := strings.TrimSpace(t.attrs["then"]); then != "" {
		c.ThenClaim = pipeline.ClaimID(then)
	}
	if els := strings.TrimSpace(t.attrs["else"]); els != "" {
		c.ElseClaim = pipeline.ClaimID(els)
	}
	return c
}
