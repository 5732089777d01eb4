package classify

import (
	"fmt"
	"strings"

	"incident-backend/internal/segment"
)

const systemPrompt = `You are an assistant that reviews sentences from official death and incident reports (autopsy reports, incident reports, investigative summaries).

For the sentence you are given, respond with a single JSON object and nothing else:

{
  "quote": "<the sentence copied exactly, character for character>",
  "category": "<one of: timeline_event, medical, official_statement, background, irrelevant>",
  "date": "<the date the described event occurred, if stated or inferable, else empty string>",
  "confidence": <number between 0 and 1>
}

Category definitions:
- timeline_event: something that happened at a point in time (a fall, a transfer, a call, a death).
- medical: diagnoses, medications, treatment, autopsy findings, cause of death.
- official_statement: conclusions or statements attributed to officials, agencies, or examiners.
- background: context about the people or facility involved.
- irrelevant: boilerplate, page headers, signatures, anything with no evidentiary value.

The "quote" field must be the sentence verbatim. Do not paraphrase, correct typos, or normalize whitespace.`

// buildUserPrompt assembles the classification request for one sentence,
// with its neighboring sentences for context and any date literals found in
// it as hints.
func buildUserPrompt(sentenceText string, window segment.Context, dateHints []string) string {
	var b strings.Builder
	if window.Before != "" {
		fmt.Fprintf(&b, "Preceding context:\n%s\n\n", window.Before)
	}
	fmt.Fprintf(&b, "Sentence to classify:\n%s\n", sentenceText)
	if window.After != "" {
		fmt.Fprintf(&b, "\nFollowing context:\n%s\n", window.After)
	}
	if len(dateHints) > 0 {
		fmt.Fprintf(&b, "\nDate expressions found in the sentence: %s\n", strings.Join(dateHints, "; "))
	}
	return b.String()
}
