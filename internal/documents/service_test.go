package documents

import (
	"context"
	"errors"
	"testing"

	"incident-backend/internal/pdftext"
	"incident-backend/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(local.New(t.TempDir()), NewMemoryRepo())
	svc.ExtractPDF = func(data []byte) (pdftext.Extraction, error) {
		if string(data) == "garbage" {
			return pdftext.Extraction{}, pdftext.ErrExtraction
		}
		return pdftext.Extraction{
			FullText:    "Maria died on March 7, 2024.",
			PageCount:   1,
			PageOffsets: []int{0},
			ContentHash: "hash-" + string(data),
		}, nil
	}
	return svc
}

func TestIngestAndGet(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.Ingest(context.Background(), "case-1", "report.pdf", []byte("pdf-bytes"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.ID == "" || doc.ContentHash != "hash-pdf-bytes" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.StorageKey != "reports/hash-pdf-bytes.pdf" {
		t.Fatalf("unexpected storage key %q", doc.StorageKey)
	}
	if doc.Processed {
		t.Fatal("new document should not be processed")
	}

	got, err := svc.Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FullText != "Maria died on March 7, 2024." {
		t.Fatalf("full text not persisted: %q", got.FullText)
	}
}

func TestIngestRejectsDuplicates(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Ingest(context.Background(), "case-1", "report.pdf", []byte("same"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	dup, err := svc.Ingest(context.Background(), "case-2", "renamed.pdf", []byte("same"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if dup.ID != first.ID {
		t.Fatalf("duplicate should return the existing document, got %q vs %q", dup.ID, first.ID)
	}
}

func TestIngestPropagatesExtractionFailure(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Ingest(context.Background(), "case-1", "bad.pdf", []byte("garbage")); !errors.Is(err, pdftext.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestIngestValidatesInput(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Ingest(context.Background(), "case-1", "", []byte("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := svc.Ingest(context.Background(), "case-1", "../escape.pdf", []byte("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for traversal name, got %v", err)
	}
	if _, err := svc.Ingest(context.Background(), "case-1", "report.pdf", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty file, got %v", err)
	}
}

func TestDeleteRemovesDocument(t *testing.T) {
	svc := newTestService(t)

	doc, err := svc.Ingest(context.Background(), "case-1", "report.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := svc.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Re-ingesting the same bytes works once the original is gone.
	if _, err := svc.Ingest(context.Background(), "case-1", "report.pdf", []byte("x")); err != nil {
		t.Fatalf("re-Ingest after delete: %v", err)
	}
}
