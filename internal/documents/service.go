package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"incident-backend/internal/pdftext"
	"incident-backend/internal/shared/storage/object"
	"incident-backend/internal/shared/telemetry"
	"incident-backend/internal/shared/util"
)

// Service contains business logic for documents. ExtractPDF is swappable in
// tests; it defaults to the real extractor.
type Service struct {
	Store      object.ObjectStore
	Repo       Repo
	ExtractPDF func(data []byte) (pdftext.Extraction, error)
}

// NewService constructs a Service backed by the real PDF extractor.
func NewService(store object.ObjectStore, repo Repo) *Service {
	return &Service{
		Store:      store,
		Repo:       repo,
		ExtractPDF: pdftext.Extract,
	}
}

// Ingest parses the PDF, rejects exact duplicates by content hash, stores
// the original bytes, and records the document. The full text and position
// tables are extracted once here and reused by every later extraction run.
func (s *Service) Ingest(ctx context.Context, caseID, fileName string, data []byte) (Document, error) {
	safeName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	ex, err := s.ExtractPDF(data)
	if err != nil {
		return Document{}, err
	}

	if existing, err := s.Repo.GetByContentHash(ctx, ex.ContentHash); err == nil {
		return existing, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return Document{}, err
	}

	storageKey := "reports/" + ex.ContentHash + ".pdf"
	size, err := s.Store.Save(ctx, storageKey, "application/pdf", bytes.NewReader(data))
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:          uuid.NewString(),
		CaseID:      strings.TrimSpace(caseID),
		FileName:    safeName,
		ContentHash: ex.ContentHash,
		FullText:    ex.FullText,
		PageCount:   ex.PageCount,
		PageOffsets: ex.PageOffsets,
		TextRuns:    ex.TextRuns,
		StorageKey:  storageKey,
		SizeBytes:   size,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	telemetry.Info("document ingested", map[string]any{
		"document_id": doc.ID,
		"case_id":     doc.CaseID,
		"pages":       doc.PageCount,
		"chars":       len(doc.FullText),
	})
	return doc, nil
}

// Get returns one document by ID.
func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, documentID)
}

// List returns documents, optionally filtered by case.
func (s *Service) List(ctx context.Context, caseID string, limit, offset int) ([]Document, error) {
	return s.Repo.List(ctx, caseID, limit, offset)
}

// Delete removes the document. Quotes go with it via the foreign key
// cascade in Postgres; the memory repo mirrors that behavior.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return ErrInvalidInput
	}
	return s.Repo.Delete(ctx, documentID)
}
