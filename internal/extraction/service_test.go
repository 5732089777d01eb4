package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"incident-backend/internal/classify"
	"incident-backend/internal/documents"
	"incident-backend/internal/llm"
	"incident-backend/internal/quotes"
)

// mapLLM answers classification prompts from a fixed table keyed by the
// sentence under classification. Sentences without an entry get an echoing
// timeline_event verdict.
type mapLLM struct {
	mu        sync.Mutex
	responses map[string]string
	errFor    map[string]error
	err       error
	calls     int
}

func (m *mapLLM) Name() string { return "map" }

func (m *mapLLM) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	sentence := sentenceFromPrompt(userPrompt)
	if err, ok := m.errFor[sentence]; ok {
		return "", err
	}
	if resp, ok := m.responses[sentence]; ok {
		return resp, nil
	}
	payload, _ := json.Marshal(classify.Classification{
		Quote:      sentence,
		Category:   classify.CategoryTimelineEvent,
		Confidence: 0.9,
	})
	return string(payload), nil
}

func sentenceFromPrompt(userPrompt string) string {
	const marker = "Sentence to classify:\n"
	idx := strings.Index(userPrompt, marker)
	if idx < 0 {
		return ""
	}
	rest := userPrompt[idx+len(marker):]
	if end := strings.IndexByte(rest, '\n'); end >= 0 {
		return rest[:end]
	}
	return rest
}

type fixture struct {
	svc      *Service
	docs     *documents.MemoryRepo
	quotes   *quotes.MemoryRepo
	model    *mapLLM
	document documents.Document
}

func newFixture(t *testing.T, fullText string, responses map[string]string) *fixture {
	t.Helper()

	docsRepo := documents.NewMemoryRepo()
	quotesRepo := quotes.NewMemoryRepo()
	quotesRepo.MarkProcessed = docsRepo.MarkProcessed

	doc := documents.Document{
		ID:          "doc-1",
		CaseID:      "case-1",
		FileName:    "report.pdf",
		ContentHash: "hash-1",
		FullText:    fullText,
		PageCount:   1,
		PageOffsets: []int{0},
		CreatedAt:   time.Now().UTC(),
	}
	if err := docsRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	model := &mapLLM{responses: responses}
	classifier := classify.New(model, 20, 0.5)
	svc := NewService(docsRepo, quotesRepo, classifier, 5, "quote-extract:v1")
	return &fixture{svc: svc, docs: docsRepo, quotes: quotesRepo, model: model, document: doc}
}

func verdict(quote, category, date string, confidence float64) string {
	payload, _ := json.Marshal(classify.Classification{
		Quote:      quote,
		Category:   category,
		Date:       date,
		Confidence: confidence,
	})
	return string(payload)
}

func TestRunPersistsVerbatimQuotes(t *testing.T) {
	fullText := "Maria died on March 7, 2024. Officials said nothing."
	fx := newFixture(t, fullText, map[string]string{
		"Maria died on March 7, 2024.": verdict("Maria died on March 7, 2024.", classify.CategoryTimelineEvent, "March 7, 2024", 0.92),
		"Officials said nothing.":      verdict("Officials said nothing.", classify.CategoryOfficialStatement, "", 0.8),
	})

	result, err := fx.svc.Run(context.Background(), "doc-1", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.SentenceCount != 2 || result.ClassifiedCount != 2 || result.PersistedCount != 2 {
		t.Fatalf("unexpected counts %+v", result)
	}

	stored, err := fx.quotes.ListByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(stored))
	}

	first := stored[0]
	if first.QuoteText != "Maria died on March 7, 2024." {
		t.Fatalf("unexpected quote %q", first.QuoteText)
	}
	if first.CharStart != 0 || first.CharEnd != 28 {
		t.Fatalf("unexpected offsets [%d,%d)", first.CharStart, first.CharEnd)
	}
	if got := fullText[first.CharStart:first.CharEnd]; strings.TrimSpace(got) != strings.TrimSpace(first.QuoteText) {
		t.Fatalf("stored quote is not verbatim: %q vs %q", got, first.QuoteText)
	}
	if first.EventDate != "2024-03-07" {
		t.Fatalf("event date not normalized: %q", first.EventDate)
	}
	if first.PageNumber != 1 || first.Status != quotes.StatusPending || first.ExtractedBy != "quote-extract:v1" {
		t.Fatalf("unexpected quote metadata %+v", first)
	}

	doc, err := fx.docs.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !doc.Processed || doc.ProcessedAt == nil || doc.ExtractionModel != "quote-extract:v1" {
		t.Fatalf("document not marked processed: %+v", doc)
	}
}

func TestRunRejectsParaphrasedQuotes(t *testing.T) {
	fullText := "Maria died on March 7, 2024. Officials said nothing."
	fx := newFixture(t, fullText, map[string]string{
		"Maria died on March 7, 2024.": verdict("Maria passed away on March 7th.", classify.CategoryTimelineEvent, "", 0.9),
		"Officials said nothing.":      verdict("Officials said nothing.", classify.CategoryOfficialStatement, "", 0.8),
	})

	result, err := fx.svc.Run(context.Background(), "doc-1", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RejectedCount != 1 {
		t.Fatalf("expected 1 rejection, got %+v", result)
	}
	if result.PersistedCount != 1 {
		t.Fatalf("expected 1 persisted quote, got %+v", result)
	}

	stored, _ := fx.quotes.ListByDocument(context.Background(), "doc-1")
	if len(stored) != 1 || stored[0].QuoteText != "Officials said nothing." {
		t.Fatalf("paraphrase leaked into storage: %+v", stored)
	}
}

func TestRunDropsMalformedVerdicts(t *testing.T) {
	var sentences []string
	for i := 0; i < 5; i++ {
		sentences = append(sentences, fmt.Sprintf("Numbered finding %d was recorded during review.", i))
	}
	fullText := strings.Join(sentences, " ")

	fx := newFixture(t, fullText, map[string]string{
		sentences[2]: "I refuse to answer in JSON today.",
	})

	result, err := fx.svc.Run(context.Background(), "doc-1", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.SentenceCount != 5 || result.ClassifiedCount != 4 || result.PersistedCount != 4 {
		t.Fatalf("one malformed verdict should drop one sentence: %+v", result)
	}
}

func TestRunFailsWhenNoModelAvailable(t *testing.T) {
	fullText := "Maria died on March 7, 2024. Officials said nothing."
	fx := newFixture(t, fullText, nil)
	fx.model.err = llm.ErrNoModelAvailable

	if _, err := fx.svc.Run(context.Background(), "doc-1", ""); !errors.Is(err, llm.ErrNoModelAvailable) {
		t.Fatalf("expected ErrNoModelAvailable, got %v", err)
	}

	stored, _ := fx.quotes.ListByDocument(context.Background(), "doc-1")
	if len(stored) != 0 {
		t.Fatalf("failed run must not persist quotes, got %+v", stored)
	}
	doc, _ := fx.docs.GetByID(context.Background(), "doc-1")
	if doc.Processed {
		t.Fatal("failed run must not mark the document processed")
	}
}

func TestRunDropsSentenceOnModelTimeout(t *testing.T) {
	fullText := "Maria died on March 7, 2024. Officials said nothing."
	fx := newFixture(t, fullText, nil)
	fx.model.errFor = map[string]error{
		"Maria died on March 7, 2024.": errors.Join(llm.ErrNoModelAvailable, context.DeadlineExceeded),
	}

	result, err := fx.svc.Run(context.Background(), "doc-1", "")
	if err != nil {
		t.Fatalf("a timed-out sentence must not fail the run: %v", err)
	}
	if result.SentenceCount != 2 || result.PersistedCount != 1 {
		t.Fatalf("expected the slow sentence dropped and the other persisted, got %+v", result)
	}

	stored, _ := fx.quotes.ListByDocument(context.Background(), "doc-1")
	if len(stored) != 1 || stored[0].QuoteText != "Officials said nothing." {
		t.Fatalf("unexpected persisted set %+v", stored)
	}
	doc, _ := fx.docs.GetByID(context.Background(), "doc-1")
	if !doc.Processed {
		t.Fatal("completed run should mark the document processed")
	}
}

func TestRunUnknownDocument(t *testing.T) {
	fx := newFixture(t, "Maria died on March 7, 2024.", nil)
	if _, err := fx.svc.Run(context.Background(), "missing", ""); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunReplacesPreviousQuotes(t *testing.T) {
	fullText := "Maria died on March 7, 2024. Officials said nothing."
	fx := newFixture(t, fullText, nil)

	if _, err := fx.svc.Run(context.Background(), "doc-1", ""); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	firstSet, _ := fx.quotes.ListByDocument(context.Background(), "doc-1")

	if _, err := fx.svc.Run(context.Background(), "doc-1", ""); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	secondSet, _ := fx.quotes.ListByDocument(context.Background(), "doc-1")

	if len(firstSet) != len(secondSet) {
		t.Fatalf("re-run changed quote count: %d vs %d", len(firstSet), len(secondSet))
	}
	for i := range secondSet {
		if secondSet[i].ID == firstSet[i].ID {
			t.Fatalf("re-run should replace rows, found reused id %q", secondSet[i].ID)
		}
		if secondSet[i].QuoteText != firstSet[i].QuoteText {
			t.Fatalf("re-run changed quote content: %q vs %q", secondSet[i].QuoteText, firstSet[i].QuoteText)
		}
	}
}

func TestRunSkipsShortSentences(t *testing.T) {
	fullText := "Page 3. The decedent was found unresponsive in the dayroom."
	fx := newFixture(t, fullText, nil)

	result, err := fx.svc.Run(context.Background(), "doc-1", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.SentenceCount != 2 {
		t.Fatalf("expected 2 sentences, got %+v", result)
	}
	if result.PersistedCount != 1 {
		t.Fatalf("short sentence should be skipped, got %+v", result)
	}
	if fx.model.calls != 1 {
		t.Fatalf("model should only see the long sentence, got %d calls", fx.model.calls)
	}
}

func TestRunCaseOverride(t *testing.T) {
	fullText := "The decedent was found unresponsive in the dayroom."
	fx := newFixture(t, fullText, nil)

	result, err := fx.svc.Run(context.Background(), "doc-1", "case-override")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PersistedCount != 1 {
		t.Fatalf("expected 1 quote, got %+v", result)
	}
	stored, _ := fx.quotes.ListByDocument(context.Background(), "doc-1")
	if stored[0].CaseID != "case-override" {
		t.Fatalf("case override ignored: %+v", stored[0])
	}
}
