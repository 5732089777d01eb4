package quotes

import "strings"

// Validate reports whether quoteText is exactly the text at
// [charStart, charEnd) in fullText, modulo leading and trailing whitespace
// on both sides. Anything the model paraphrased, truncated, or "corrected"
// fails here and never reaches storage.
func Validate(fullText, quoteText string, charStart, charEnd int) bool {
	if charStart < 0 || charEnd > len(fullText) || charStart >= charEnd {
		return false
	}
	return strings.TrimSpace(fullText[charStart:charEnd]) == strings.TrimSpace(quoteText)
}
