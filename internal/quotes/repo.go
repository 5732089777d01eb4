package quotes

import "context"

// Repo persists extracted quotes.
//
// ReplaceForDocument is the transactional heart of re-extraction: it deletes
// every existing quote for the document, inserts the new set, and marks the
// document processed, all atomically. Either the document ends up with
// exactly the new quotes or it is left untouched.
type Repo interface {
	ReplaceForDocument(ctx context.Context, documentID, model string, items []ExtractedQuote) error
	ListByDocument(ctx context.Context, documentID string) ([]ExtractedQuote, error)
	UpdateStatus(ctx context.Context, quoteID, status string) (ExtractedQuote, error)
}
