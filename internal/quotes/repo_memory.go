package quotes

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo for dev mode and tests.
// MarkProcessed, when set, is called inside ReplaceForDocument to flip the
// document's processed flag the way the Postgres repo does in its
// transaction.
type MemoryRepo struct {
	mu            sync.RWMutex
	data          map[string][]ExtractedQuote // documentId -> quotes
	MarkProcessed func(ctx context.Context, documentID, model string) error
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]ExtractedQuote),
	}
}

// ReplaceForDocument swaps the document's quotes for items.
func (r *MemoryRepo) ReplaceForDocument(ctx context.Context, documentID, model string, items []ExtractedQuote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]ExtractedQuote, len(items))
	copy(stored, items)
	r.data[documentID] = stored
	if r.MarkProcessed != nil {
		return r.MarkProcessed(ctx, documentID, model)
	}
	return nil
}

// ListByDocument returns the document's quotes ordered by position.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]ExtractedQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.data[documentID]
	out := make([]ExtractedQuote, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CharStart < out[j].CharStart })
	return out, nil
}

// UpdateStatus moves a quote through review and returns the updated row.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, quoteID, status string) (ExtractedQuote, error) {
	if err := ctx.Err(); err != nil {
		return ExtractedQuote{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for docID, stored := range r.data {
		for i := range stored {
			if stored[i].ID == quoteID {
				stored[i].Status = status
				r.data[docID] = stored
				return stored[i], nil
			}
		}
	}
	return ExtractedQuote{}, ErrNotFound
}
