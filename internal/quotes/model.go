package quotes

import (
	"errors"
	"time"

	"incident-backend/internal/pdftext"
)

// Review status of an extracted quote. Quotes land as pending and move to
// accepted or rejected through human review.
const (
	StatusPending   = "pending"
	StatusAccepted = "accepted"
	StatusRejected  = "rejected"
)

// ValidStatus reports whether s is a recognized review status.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRejected
}

// ErrNotFound indicates the quote does not exist.
var ErrNotFound = errors.New("quote not found")

// ExtractedQuote is one verbatim passage pulled from a document, with its
// exact position in the full text. QuoteText always satisfies
// fullText[CharStart:CharEnd] up to surrounding whitespace.
type ExtractedQuote struct {
	ID            string         `json:"id"`
	DocumentID    string         `json:"documentId"`
	CaseID        string         `json:"caseId"`
	QuoteText     string         `json:"quoteText"`
	CharStart     int            `json:"charStart"`
	CharEnd       int            `json:"charEnd"`
	PageNumber    int            `json:"pageNumber"`
	BoundingBoxes []pdftext.BBox `json:"boundingBoxes,omitempty"`
	Category      string         `json:"category"`
	EventDate     string         `json:"eventDate,omitempty"`
	Confidence    float64        `json:"confidence"`
	ExtractedBy   string         `json:"extractedBy"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
}
