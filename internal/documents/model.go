package documents

import (
	"errors"
	"time"

	"incident-backend/internal/pdftext"
)

// Errors surfaced by the documents service.
var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicate means a document with identical bytes was already
	// ingested. The handler maps it to 409 with the existing document.
	ErrDuplicate = errors.New("document already exists")
)

// Document is one ingested report. FullText and the position tables are the
// source of truth for everything downstream: quotes are validated against
// FullText, and TextRuns/PageOffsets map character offsets back to pages
// and coordinates.
type Document struct {
	ID              string
	CaseID          string
	FileName        string
	ContentHash     string
	FullText        string
	PageCount       int
	PageOffsets     []int
	TextRuns        []pdftext.TextRun
	StorageKey      string
	SizeBytes       int64
	Processed       bool
	ProcessedAt     *time.Time
	ExtractionModel string
	CreatedAt       time.Time
}
