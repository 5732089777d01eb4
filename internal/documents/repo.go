package documents

import "context"

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	GetByContentHash(ctx context.Context, contentHash string) (Document, error)
	List(ctx context.Context, caseID string, limit, offset int) ([]Document, error)
	Delete(ctx context.Context, documentID string) error
}
