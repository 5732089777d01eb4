package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for dev mode and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Document
	byHash map[string]string // contentHash -> documentId
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Document),
		byHash: make(map[string]string),
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHash[doc.ContentHash]; exists {
		return ErrDuplicate
	}
	r.byID[doc.ID] = doc
	r.byHash[doc.ContentHash] = doc.ID
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byID[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// GetByContentHash returns the document with identical source bytes, if any.
func (r *MemoryRepo) GetByContentHash(ctx context.Context, contentHash string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byHash[contentHash]
	if !ok {
		return Document{}, ErrNotFound
	}
	return r.byID[id], nil
}

// List returns documents newest first, optionally filtered by case.
func (r *MemoryRepo) List(ctx context.Context, caseID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var docs []Document
	for _, doc := range r.byID {
		if caseID == "" || doc.CaseID == caseID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	if offset >= len(docs) {
		return nil, nil
	}
	docs = docs[offset:]
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Delete removes a document.
func (r *MemoryRepo) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byID[documentID]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, documentID)
	delete(r.byHash, doc.ContentHash)
	return nil
}

// MarkProcessed flips the processed flag the way the Postgres quote repo
// does inside its replace transaction. Wired into the memory quote repo at
// startup in dev mode.
func (r *MemoryRepo) MarkProcessed(ctx context.Context, documentID, model string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byID[documentID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	doc.Processed = true
	doc.ProcessedAt = &now
	doc.ExtractionModel = model
	r.byID[documentID] = doc
	return nil
}
