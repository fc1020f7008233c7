// Package shadow implements component A, the Shadow Extractor: splitting
// each model response into paragraphs and statements with stance and
// signal tagging, following the keyword-family indicator-list pattern used
// by the teacher's internal/analysis/evidence.go quality assessment.
package shadow

import (
	"regexp"
	"strings"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

// stance keyword families, checked in priority order (spec.md §4.A step 3
// and the paragraph dominant-stance tie-break in step 5 share this order).
var stancePriority = []pipeline.Stance{
	pipeline.StancePrescriptive,
	pipeline.StanceCautionary,
	pipeline.StancePrerequisite,
	pipeline.StanceDependent,
	pipeline.StanceUncertain,
	pipeline.StanceAssertive,
}

var stanceKeywords = map[pipeline.Stance][]string{
	pipeline.StancePrescriptive: {"should", "must", "recommend", "need to", "ought to"},
	pipeline.StanceCautionary:   {"avoid", "warning", "risk", "danger", "caution", "beware"},
	pipeline.StancePrerequisite: {"requires", "require", "first", "before", "prerequisite", "depends on"},
	pipeline.StanceDependent:    {"then", "afterwards", "after that", "subsequently"},
	pipeline.StanceUncertain:    {"may", "might", "possibly", "perhaps", "could"},
}

var sequenceCues = []string{"first", "then", "next", "afterwards", "finally", "subsequently", "before", "after"}
var tensionCues = []string{"but", "however", "although", "whereas", "on the other hand", "yet", "despite"}
var conditionalCues = []string{"if ", "if,", "unless", "provided that", "as long as", "in case"}

// sentenceBoundary recognizes sentence-ending punctuation followed by
// whitespace (or end of string); abbreviation handling happens afterward
// in splitSentences.
var sentenceBoundary = regexp.MustCompile(`[.!?]['")\]]*(\s+|$)`)

var commonAbbreviations = map[string]bool{
	"mr.": true, "mrs.": true, "ms.": true, "dr.": true, "vs.": true,
	"e.g.": true, "i.e.": true, "etc.": true, "approx.": true, "no.": true,
}

// Extract runs component A over every response, in input order and within
// a response in (paragraphIndex, sentenceIndex) order, so ids are deterministic before
// any downstream parallel work begins (spec.md §5). Empty responses yield
// zero statements, not an error (spec.md §4.A edge policy).
func Extract(responses []pipeline.ModelResponse) *pipeline.Shadow {
	shadow := &pipeline.Shadow{
		Statements: []*pipeline.ShadowStatement{},
		Paragraphs: []*pipeline.ShadowParagraph{},
	}

	for _, resp := range responses {
		for pIdx, rawParagraph := range splitParagraphs(resp.Text) {
			paragraph, statements := extractParagraph(resp.ModelIndex, pIdx, rawParagraph)
			shadow.Paragraphs = append(shadow.Paragraphs, paragraph)
			shadow.Statements = append(shadow.Statements, statements...)
		}
	}

	return shadow
}

// extractParagraph carves one raw paragraph into statements and derives
// the paragraph's dominant stance and contested flag.
func extractParagraph(model pipeline.ModelIndex, paragraphIdx int, rawText string) (*pipeline.ShadowParagraph, []*pipeline.ShadowStatement) {
	sentences := splitSentences(rawText)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(rawText)}
	}

	paragraph := &pipeline.ShadowParagraph{
		ID:             pipeline.MakeParagraphID(model, paragraphIdx),
		ModelIndex:     model,
		ParagraphIndex: paragraphIdx,
		StatementIDs:   make([]pipeline.StatementID, 0, len(sentences)),
		FullParagraph:  rawText,
	}
	statements := make([]*pipeline.ShadowStatement, 0, len(sentences))

	stanceCounts := make(map[pipeline.Stance]int)
	hasPrescriptive, hasCautionary := false, false

	sIdx := 0
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		stance, confidence := classifyStance(sentence)
		signals := classifySignals(sentence)

		stmt := &pipeline.ShadowStatement{
			ID:             pipeline.MakeStatementID(model, paragraphIdx, sIdx),
			ModelIndex:     model,
			ParagraphIndex: paragraphIdx,
			SentenceIndex:  sIdx,
			Text:           sentence,
			Stance:         stance,
			Confidence:     confidence,
			Signals:        signals,
		}
		sIdx++

		paragraph.StatementIDs = append(paragraph.StatementIDs, stmt.ID)
		statements = append(statements, stmt)

		stanceCounts[stance]++
		if stance == pipeline.StancePrescriptive {
			hasPrescriptive = true
		}
		if stance == pipeline.StanceCautionary {
			hasCautionary = true
		}
	}

	paragraph.DominantStance = dominantStance(stanceCounts)
	paragraph.Contested = hasPrescriptive && hasCautionary
	return paragraph, statements
}

// dominantStance picks the modal stance, breaking ties by stancePriority.
func dominantStance(counts map[pipeline.Stance]int) pipeline.Stance {
	if len(counts) == 0 {
		return pipeline.StanceUnknown
	}

	best := pipeline.StanceUnknown
	bestCount := -1
	for _, candidate := range stancePriority {
		if c, ok := counts[candidate]; ok && c > bestCount {
			best = candidate
			bestCount = c
		}
	}
	if bestCount < 0 {
		// Only unknown/assertive-less stances were seen; fall back to
		// whichever appeared, preferring assertive over unknown.
		if counts[pipeline.StanceAssertive] > 0 {
			return pipeline.StanceAssertive
		}
		return pipeline.StanceUnknown
	}
	return best
}

// classifyStance assigns a stance by keyword-family lookup (spec.md §4.A
// step 3), scanning in priority order so the first matching family wins.
func classifyStance(sentence string) (pipeline.Stance, float64) {
	lower := strings.ToLower(sentence)
	for _, stance := range stancePriority {
		for _, kw := range stanceKeywords[stance] {
			if strings.Contains(lower, kw) {
				return stance, 0.75
			}
		}
	}
	// No keyword family matched: assertive if it reads as a plain
	// declarative statement, unknown if it's too short/fragmentary to tell.
	if len(strings.Fields(sentence)) >= 3 {
		return pipeline.StanceAssertive, 0.5
	}
	return pipeline.StanceUnknown, 0.3
}

// classifySignals sets the three independent signal bits by distinct cue
// sets (spec.md §4.A step 3).
func classifySignals(sentence string) pipeline.Signals {
	lower := strings.ToLower(sentence)
	return pipeline.Signals{
		Sequence:    containsAny(lower, sequenceCues),
		Tension:     containsAny(lower, tensionCues),
		Conditional: containsAny(lower, conditionalCues),
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
