package classify

import (
	"context"
	"encoding/json"
	"strings"

	"incident-backend/internal/dates"
	"incident-backend/internal/llm"
	"incident-backend/internal/segment"
	"incident-backend/internal/shared/telemetry"
)

// Categories a sentence can be filed under. Anything the model labels
// irrelevant is dropped before persistence.
const (
	CategoryTimelineEvent     = "timeline_event"
	CategoryMedical           = "medical"
	CategoryOfficialStatement = "official_statement"
	CategoryBackground        = "background"
	CategoryIrrelevant        = "irrelevant"
)

var knownCategories = map[string]struct{}{
	CategoryTimelineEvent:     {},
	CategoryMedical:           {},
	CategoryOfficialStatement: {},
	CategoryBackground:        {},
	CategoryIrrelevant:        {},
}

// Classification is the model's verdict on one sentence. Quote is the
// verbatim text the model claims supports the category; downstream
// validation rejects it if it is not an exact substring of the source.
type Classification struct {
	Quote      string  `json:"quote"`
	Category   string  `json:"category"`
	Date       string  `json:"date"`
	Confidence float64 `json:"confidence"`
}

// Classifier labels sentences via an LLM and filters out the noise.
type Classifier struct {
	LLM            llm.Client
	MinSentenceLen int
	MinConfidence  float64
}

// New builds a classifier with the given thresholds.
func New(client llm.Client, minSentenceLen int, minConfidence float64) *Classifier {
	return &Classifier{
		LLM:            client,
		MinSentenceLen: minSentenceLen,
		MinConfidence:  minConfidence,
	}
}

// Classify labels one sentence. It returns (nil, nil) when the sentence is
// skipped or the verdict is filtered out: too short, irrelevant, below the
// confidence floor, or unparseable model output. Only infrastructure
// failures (every provider down, context canceled) surface as errors.
func (c *Classifier) Classify(ctx context.Context, sentence segment.Sentence, window segment.Context) (*Classification, error) {
	if len(strings.TrimSpace(sentence.Text)) < c.MinSentenceLen {
		return nil, nil
	}

	dateHints := dates.ExtractDates(sentence.Text)
	userPrompt := buildUserPrompt(sentence.Text, window, dateHints)

	raw, err := c.LLM.Complete(ctx, systemPrompt, userPrompt, 0)
	if err != nil {
		return nil, err
	}

	obj := firstJSONObject(raw)
	if obj == "" {
		telemetry.Error("classifier returned no JSON object", map[string]any{
			"sentence_index": sentence.Index,
			"output_prefix":  prefix(raw, 120),
		})
		return nil, nil
	}

	var cls Classification
	if err := json.Unmarshal([]byte(obj), &cls); err != nil {
		telemetry.Error("classifier returned malformed JSON", map[string]any{
			"sentence_index": sentence.Index,
			"error":          err.Error(),
		})
		return nil, nil
	}

	cls.Category = strings.ToLower(strings.TrimSpace(cls.Category))
	if _, ok := knownCategories[cls.Category]; !ok {
		telemetry.Error("classifier returned unknown category", map[string]any{
			"sentence_index": sentence.Index,
			"category":       cls.Category,
		})
		return nil, nil
	}
	if cls.Category == CategoryIrrelevant {
		return nil, nil
	}
	if cls.Confidence < c.MinConfidence {
		return nil, nil
	}

	if cls.Quote = strings.TrimSpace(cls.Quote); cls.Quote == "" {
		cls.Quote = sentence.Text
	}
	cls.Date = normalizeDate(cls.Date, dateHints)

	return &cls, nil
}

// normalizeDate converts the model's date to ISO-8601, falling back to the
// first parseable date literally present in the sentence. Unresolvable
// dates become empty, never a guess.
func normalizeDate(modelDate string, hints []string) string {
	if iso, ok := dates.ParseDate(modelDate); ok {
		return iso
	}
	for _, h := range hints {
		if iso, ok := dates.ParseDate(h); ok {
			return iso
		}
	}
	return ""
}

// firstJSONObject returns the first balanced {...} in s, skipping braces
// inside string literals. Models love to wrap their JSON in prose or
// markdown fences; this digs the object out.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
