package extraction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"incident-backend/internal/classify"
	"incident-backend/internal/documents"
	"incident-backend/internal/llm"
	"incident-backend/internal/pdftext"
	"incident-backend/internal/quotes"
	"incident-backend/internal/segment"
	"incident-backend/internal/shared/metrics"
	"incident-backend/internal/shared/telemetry"
)

// DefaultBatchSize is how many sentences are classified concurrently.
const DefaultBatchSize = 5

// Service orchestrates one extraction run: segment the stored full text,
// classify sentences in batches, validate the returned quotes against the
// source, and atomically replace the document's quote set.
type Service struct {
	Docs       documents.Repo
	Quotes     quotes.Repo
	Classifier *classify.Classifier
	BatchSize  int
	Model      string
}

// NewService constructs an extraction Service. model labels persisted quotes
// with the extraction version that produced them.
func NewService(docs documents.Repo, quoteRepo quotes.Repo, classifier *classify.Classifier, batchSize int, model string) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		Docs:       docs,
		Quotes:     quoteRepo,
		Classifier: classifier,
		BatchSize:  batchSize,
		Model:      model,
	}
}

// RunResult summarizes one extraction run.
type RunResult struct {
	DocumentID      string                  `json:"documentId"`
	SentenceCount   int                     `json:"sentenceCount"`
	ClassifiedCount int                     `json:"classifiedCount"`
	RejectedCount   int                     `json:"rejectedCount"`
	PersistedCount  int                     `json:"persistedCount"`
	Quotes          []quotes.ExtractedQuote `json:"quotes"`
}

// Run extracts quotes for one document. Re-running replaces the previous
// quote set wholesale; a failed run leaves it untouched. caseIDOverride,
// when non-empty, reassigns the quotes to a different case than the
// document's own.
func (s *Service) Run(ctx context.Context, documentID, caseIDOverride string) (RunResult, error) {
	doc, err := s.Docs.GetByID(ctx, documentID)
	if err != nil {
		return RunResult{}, err
	}

	metrics.IncExtractionStarted()
	started := time.Now()
	telemetry.Info("extraction run started", map[string]any{
		"document_id": doc.ID,
		"model":       s.Model,
	})

	result, err := s.run(ctx, doc, caseIDOverride)
	if err != nil {
		metrics.IncExtractionFailed()
		telemetry.Error("extraction run failed", map[string]any{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
		return RunResult{}, err
	}

	metrics.IncExtractionCompleted()
	metrics.ObserveExtractionDuration(time.Since(started).Seconds())
	telemetry.Info("extraction run completed", map[string]any{
		"document_id": doc.ID,
		"sentences":   result.SentenceCount,
		"classified":  result.ClassifiedCount,
		"rejected":    result.RejectedCount,
		"persisted":   result.PersistedCount,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return result, nil
}

func (s *Service) run(ctx context.Context, doc documents.Document, caseIDOverride string) (RunResult, error) {
	sentences := segment.Split(doc.FullText)
	metrics.AddSentencesSegmented(len(sentences))

	verdicts, err := s.classifyAll(ctx, sentences)
	if err != nil {
		return RunResult{}, err
	}

	caseID := doc.CaseID
	if caseIDOverride != "" {
		caseID = caseIDOverride
	}

	result := RunResult{
		DocumentID:    doc.ID,
		SentenceCount: len(sentences),
	}
	now := time.Now().UTC()
	items := make([]quotes.ExtractedQuote, 0, len(sentences))
	for i, cls := range verdicts {
		if cls == nil {
			continue
		}
		result.ClassifiedCount++

		sentence := sentences[i]
		if !quotes.Validate(doc.FullText, cls.Quote, sentence.StartChar, sentence.EndChar) {
			result.RejectedCount++
			metrics.IncValidationRejection()
			telemetry.Error("quote rejected: not verbatim", map[string]any{
				"document_id":    doc.ID,
				"sentence_index": sentence.Index,
				"expected":       prefix(sentence.Text, 80),
				"got":            prefix(cls.Quote, 80),
			})
			continue
		}

		items = append(items, quotes.ExtractedQuote{
			ID:            uuid.NewString(),
			DocumentID:    doc.ID,
			CaseID:        caseID,
			QuoteText:     cls.Quote,
			CharStart:     sentence.StartChar,
			CharEnd:       sentence.EndChar,
			PageNumber:    pdftext.PageForChar(sentence.StartChar, doc.PageOffsets),
			BoundingBoxes: pdftext.BoundingBoxesForRange(sentence.StartChar, sentence.EndChar, doc.TextRuns),
			Category:      cls.Category,
			EventDate:     cls.Date,
			Confidence:    cls.Confidence,
			ExtractedBy:   s.Model,
			Status:        quotes.StatusPending,
			CreatedAt:     now,
		})
	}

	if err := s.Quotes.ReplaceForDocument(ctx, doc.ID, s.Model, items); err != nil {
		return RunResult{}, err
	}
	metrics.AddQuotesPersisted(len(items))

	result.PersistedCount = len(items)
	result.Quotes = items
	return result, nil
}

// classifyAll labels sentences in concurrent batches, preserving sentence
// order in the result. A provider outage aborts the whole run; a sentence
// that merely timed out is dropped, and anything recoverable was already
// turned into a nil verdict by the classifier.
func (s *Service) classifyAll(ctx context.Context, sentences []segment.Sentence) ([]*classify.Classification, error) {
	verdicts := make([]*classify.Classification, len(sentences))
	errs := make([]error, len(sentences))

	for batchStart := 0; batchStart < len(sentences); batchStart += s.BatchSize {
		batchEnd := batchStart + s.BatchSize
		if batchEnd > len(sentences) {
			batchEnd = len(sentences)
		}

		var wg sync.WaitGroup
		for i := batchStart; i < batchEnd; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				window := segment.Window(sentences, i, segment.DefaultWindow)
				verdicts[i], errs[i] = s.Classifier.Classify(ctx, sentences[i], window)
			}(i)
		}
		wg.Wait()

		for i := batchStart; i < batchEnd; i++ {
			err := errs[i]
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return nil, err
			}
			// A chain exhausted by per-call timeouts means the model is up
			// but this sentence was slow; drop it and keep going. Only
			// genuine provider unavailability aborts the run.
			if errors.Is(err, llm.ErrNoModelAvailable) && !errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			telemetry.Error("sentence dropped after classification error", map[string]any{
				"sentence_index": i,
				"error":          err.Error(),
			})
		}
		metrics.AddSentencesClassified(batchEnd - batchStart)
	}
	return verdicts, nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
