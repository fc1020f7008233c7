package shadow

import "strings"

// splitParagraphs splits raw text on blank-line boundaries while keeping
// fenced code blocks (```...```) as a single atomic paragraph, per spec.md
// §4.A step 1.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var paragraphs []string
	var current []string
	inFence := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.TrimSpace(strings.Join(current, "\n"))
		if joined != "" {
			paragraphs = append(paragraphs, joined)
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			current = append(current, line)
			if inFence {
				// Closing fence: this whole block is one atomic paragraph.
				flush()
			}
			inFence = !inFence
			continue
		}
		if inFence {
			current = append(current, line)
			continue
		}
		if trimmed == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	if len(paragraphs) == 0 {
		// Unsplittable text becomes one paragraph (spec.md §4.A edge policy).
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			paragraphs = []string{trimmed}
		}
	}
	return paragraphs
}

// splitSentences splits a paragraph into sentences on
// period/question/exclamation boundaries, respecting common abbreviations
// and quoted punctuation (spec.md §4.A step 2). Code-fenced paragraphs
// (detected by a ``` prefix) are returned as a single atomic sentence.
func splitSentences(paragraph string) []string {
	trimmed := strings.TrimSpace(paragraph)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "```") {
		return []string{trimmed}
	}

	var sentences []string
	start := 0
	matches := sentenceBoundary.FindAllStringSubmatchIndex(paragraph, -1)

	for _, m := range matches {
		end := m[1] // end of the whole match (punctuation + trailing space)
		boundary := m[0] // start of punctuation run

		candidate := paragraph[start:end]
		lastWord := lastToken(paragraph[start:boundary+1])
		if commonAbbreviations[strings.ToLower(lastWord)] {
			continue // not a real sentence boundary; keep accumulating
		}

		sentences = append(sentences, strings.TrimSpace(candidate))
		start = end
	}

	if start < len(paragraph) {
		rest := strings.TrimSpace(paragraph[start:])
		if rest != "" {
			sentences = append(sentences, rest)
		}
	}

	if len(sentences) == 0 {
		return []string{trimmed}
	}
	return sentences
}

// lastToken returns the final whitespace-delimited token of s, including
// trailing punctuation, for abbreviation lookups.
func lastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
