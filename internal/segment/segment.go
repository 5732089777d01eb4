package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentence is one segment of the full text. StartChar/EndChar are byte
// offsets into the original string, so fullText[StartChar:EndChar] == Text
// always holds. Sentences are ephemeral: re-derived from the full text on
// every run, never persisted.
type Sentence struct {
	Index     int
	Text      string
	StartChar int
	EndChar   int
}

// Context is the bounded window of neighboring sentences handed to the
// classifier for disambiguation.
type Context struct {
	Before string
	After  string
}

// DefaultWindow is how many sentences on each side feed the context window.
const DefaultWindow = 2

// Common title abbreviations whose trailing period does not end a sentence.
var abbreviations = map[string]struct{}{
	"Mr": {}, "Mrs": {}, "Ms": {}, "Dr": {}, "Jr": {}, "Sr": {},
	"St": {}, "Lt": {}, "Sgt": {}, "Capt": {}, "Det": {}, "Gov": {},
	"No": {}, "vs": {}, "approx": {},
}

// Split divides fullText into sentences with exact byte offsets. Boundaries
// are terminal punctuation followed by whitespace and an upper-case letter or
// digit, with guards for decimal numbers and title abbreviations. Blank lines
// always terminate a sentence. Deterministic and locale-agnostic.
func Split(fullText string) []Sentence {
	var sentences []Sentence
	start := 0
	i := 0
	for i < len(fullText) {
		c := fullText[i]
		switch c {
		case '.', '!', '?':
			if c == '.' && (isDecimalPoint(fullText, i) || isAbbreviation(fullText, start, i)) {
				i++
				continue
			}
			end := i + 1
			// Trailing closers stay with the sentence.
			for end < len(fullText) && (fullText[end] == '"' || fullText[end] == '\'' || fullText[end] == ')') {
				end++
			}
			if end < len(fullText) && !boundaryFollows(fullText, end) {
				i = end
				continue
			}
			sentences = appendSentence(sentences, fullText, start, end)
			start = end
			i = end
		case '\n':
			if i+1 < len(fullText) && fullText[i+1] == '\n' {
				sentences = appendSentence(sentences, fullText, start, i)
				start = i
			}
			i++
		default:
			i++
		}
	}
	sentences = appendSentence(sentences, fullText, start, len(fullText))
	return sentences
}

// Window returns up to radius sentences of joined text on each side of index.
func Window(sentences []Sentence, index, radius int) Context {
	if index < 0 || index >= len(sentences) || radius <= 0 {
		return Context{}
	}
	var before, after []string
	for i := index - radius; i < index; i++ {
		if i >= 0 {
			before = append(before, sentences[i].Text)
		}
	}
	for i := index + 1; i <= index+radius && i < len(sentences); i++ {
		after = append(after, sentences[i].Text)
	}
	return Context{
		Before: strings.Join(before, " "),
		After:  strings.Join(after, " "),
	}
}

// appendSentence trims the [start, end) span to its non-whitespace core and
// records it with exact offsets into fullText.
func appendSentence(sentences []Sentence, fullText string, start, end int) []Sentence {
	for start < end {
		r, size := utf8.DecodeRuneInString(fullText[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(fullText[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	if start >= end {
		return sentences
	}
	return append(sentences, Sentence{
		Index:     len(sentences),
		Text:      fullText[start:end],
		StartChar: start,
		EndChar:   end,
	})
}

func isDecimalPoint(s string, i int) bool {
	return i > 0 && i+1 < len(s) && isDigit(s[i-1]) && isDigit(s[i+1])
}

func isAbbreviation(s string, start, i int) bool {
	wordStart := i
	for wordStart > start {
		c := s[wordStart-1]
		if !isLetter(c) {
			break
		}
		wordStart--
	}
	_, ok := abbreviations[s[wordStart:i]]
	return ok
}

// boundaryFollows reports whether the text after a terminal at end looks like
// the start of a new sentence: whitespace then an upper-case letter or digit.
func boundaryFollows(s string, end int) bool {
	i := end
	sawSpace := false
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			sawSpace = true
			i += size
			continue
		}
		return sawSpace && (unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '\'')
	}
	return true
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
