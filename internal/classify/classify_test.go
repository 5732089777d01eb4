package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"incident-backend/internal/llm"
	"incident-backend/internal/segment"
)

type scriptedLLM struct {
	out     string
	err     error
	prompts []string
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	s.prompts = append(s.prompts, userPrompt)
	if s.err != nil {
		return "", s.err
	}
	return s.out, nil
}

func sentence(text string) segment.Sentence {
	return segment.Sentence{Index: 0, Text: text, StartChar: 0, EndChar: len(text)}
}

func TestClassifyHappyPath(t *testing.T) {
	model := &scriptedLLM{out: `{"quote": "Maria died on March 7, 2024.", "category": "timeline_event", "date": "March 7, 2024", "confidence": 0.92}`}
	c := New(model, 20, 0.5)

	cls, err := c.Classify(context.Background(), sentence("Maria died on March 7, 2024."), segment.Context{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls == nil {
		t.Fatal("expected a classification")
	}
	if cls.Category != CategoryTimelineEvent {
		t.Fatalf("unexpected category %q", cls.Category)
	}
	if cls.Date != "2024-03-07" {
		t.Fatalf("date not normalized: %q", cls.Date)
	}
	if cls.Quote != "Maria died on March 7, 2024." {
		t.Fatalf("unexpected quote %q", cls.Quote)
	}
}

func TestClassifySkipsShortSentences(t *testing.T) {
	model := &scriptedLLM{out: `{}`}
	c := New(model, 20, 0.5)

	cls, err := c.Classify(context.Background(), sentence("Page 3 of 12."), segment.Context{})
	if err != nil || cls != nil {
		t.Fatalf("short sentence should be skipped, got %+v, %v", cls, err)
	}
	if len(model.prompts) != 0 {
		t.Fatal("model should not be called for short sentences")
	}
}

func TestClassifyDropsIrrelevantAndLowConfidence(t *testing.T) {
	cases := []string{
		`{"quote": "x", "category": "irrelevant", "date": "", "confidence": 0.99}`,
		`{"quote": "x", "category": "medical", "date": "", "confidence": 0.3}`,
		`{"quote": "x", "category": "something_else", "date": "", "confidence": 0.9}`,
	}
	for _, out := range cases {
		c := New(&scriptedLLM{out: out}, 20, 0.5)
		cls, err := c.Classify(context.Background(), sentence("The decedent had a documented history of hypertension."), segment.Context{})
		if err != nil {
			t.Fatalf("Classify(%s): %v", out, err)
		}
		if cls != nil {
			t.Fatalf("verdict %s should be dropped, got %+v", out, cls)
		}
	}
}

func TestClassifyToleratesWrappedJSON(t *testing.T) {
	model := &scriptedLLM{out: "Here is my answer:\n```json\n" +
		`{"quote": "The fall was not reported for {two} hours.", "category": "timeline_event", "date": "", "confidence": 0.8}` +
		"\n```\nHope that helps!"}
	c := New(model, 20, 0.5)

	cls, err := c.Classify(context.Background(), sentence("The fall was not reported for {two} hours."), segment.Context{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls == nil || cls.Quote != "The fall was not reported for {two} hours." {
		t.Fatalf("wrapped JSON not parsed: %+v", cls)
	}
}

func TestClassifyDropsMalformedOutput(t *testing.T) {
	for _, out := range []string{"", "no json here", `{"quote": "unterminated`} {
		c := New(&scriptedLLM{out: out}, 20, 0.5)
		cls, err := c.Classify(context.Background(), sentence("Staff called for help at approximately 3:14 am."), segment.Context{})
		if err != nil {
			t.Fatalf("malformed output should not error, got %v", err)
		}
		if cls != nil {
			t.Fatalf("malformed output should be dropped, got %+v", cls)
		}
	}
}

func TestClassifyPropagatesProviderFailure(t *testing.T) {
	c := New(&scriptedLLM{err: llm.ErrNoModelAvailable}, 20, 0.5)
	_, err := c.Classify(context.Background(), sentence("Staff called for help at approximately 3:14 am."), segment.Context{})
	if !errors.Is(err, llm.ErrNoModelAvailable) {
		t.Fatalf("expected ErrNoModelAvailable, got %v", err)
	}
}

func TestClassifyFallsBackToSentenceDates(t *testing.T) {
	model := &scriptedLLM{out: `{"quote": "He was transferred on 3/9/2024.", "category": "timeline_event", "date": "the next morning", "confidence": 0.7}`}
	c := New(model, 20, 0.5)

	cls, err := c.Classify(context.Background(), sentence("He was transferred on 3/9/2024."), segment.Context{})
	if err != nil || cls == nil {
		t.Fatalf("Classify: %+v, %v", cls, err)
	}
	if cls.Date != "2024-03-09" {
		t.Fatalf("expected fallback to sentence date, got %q", cls.Date)
	}
}

func TestClassifyPromptCarriesContext(t *testing.T) {
	model := &scriptedLLM{out: `{"quote": "q", "category": "background", "date": "", "confidence": 0.9}`}
	c := New(model, 20, 0.5)

	window := segment.Context{Before: "He was admitted in January.", After: "No injuries were noted."}
	if _, err := c.Classify(context.Background(), sentence("The facility housed forty-two residents at the time."), window); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(model.prompts) != 1 {
		t.Fatalf("expected one model call, got %d", len(model.prompts))
	}
	p := model.prompts[0]
	if !strings.Contains(p, window.Before) || !strings.Contains(p, window.After) {
		t.Fatalf("context window missing from prompt:\n%s", p)
	}
}
