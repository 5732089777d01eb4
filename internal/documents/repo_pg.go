package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"incident-backend/internal/pdftext"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
	id, case_id, file_name, content_hash, full_text, page_count, page_offsets,
	text_runs, storage_key, size_bytes, processed, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	offsets, err := json.Marshal(doc.PageOffsets)
	if err != nil {
		return err
	}
	runs, err := json.Marshal(doc.TextRuns)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		doc.ID,
		nullCaseID(doc.CaseID),
		doc.FileName,
		doc.ContentHash,
		doc.FullText,
		doc.PageCount,
		string(offsets),
		string(runs),
		doc.StorageKey,
		doc.SizeBytes,
		doc.Processed,
		doc.CreatedAt,
	)
	return err
}

const selectColumns = `
SELECT id, case_id, file_name, content_hash, full_text, page_count, page_offsets,
       text_runs, storage_key, size_bytes, processed, processed_at, extraction_model, created_at
FROM documents`

// GetByID returns a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1 LIMIT 1`, documentID)
}

// GetByContentHash returns the document with identical source bytes, if any.
func (r *PGRepo) GetByContentHash(ctx context.Context, contentHash string) (Document, error) {
	return r.getOne(ctx, selectColumns+` WHERE content_hash = $1 LIMIT 1`, contentHash)
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg any) (Document, error) {
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// List returns documents newest first, optionally filtered by case.
func (r *PGRepo) List(ctx context.Context, caseID string, limit, offset int) ([]Document, error) {
	query := selectColumns + ` WHERE ($1::uuid IS NULL OR case_id = $1::uuid) ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, nullCaseID(caseID), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Delete removes a document; extracted quotes cascade.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var caseID sql.NullString
	var offsets sql.NullString
	var runs sql.NullString
	var processedAt sql.NullTime
	var extractionModel sql.NullString
	if err := row.Scan(
		&doc.ID,
		&caseID,
		&doc.FileName,
		&doc.ContentHash,
		&doc.FullText,
		&doc.PageCount,
		&offsets,
		&runs,
		&doc.StorageKey,
		&doc.SizeBytes,
		&doc.Processed,
		&processedAt,
		&extractionModel,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	if caseID.Valid {
		doc.CaseID = caseID.String
	}
	if offsets.Valid && offsets.String != "" {
		if err := json.Unmarshal([]byte(offsets.String), &doc.PageOffsets); err != nil {
			return Document{}, err
		}
	}
	if runs.Valid && runs.String != "" {
		var parsed []pdftext.TextRun
		if err := json.Unmarshal([]byte(runs.String), &parsed); err != nil {
			return Document{}, err
		}
		doc.TextRuns = parsed
	}
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	if extractionModel.Valid {
		doc.ExtractionModel = extractionModel.String
	}
	return doc, nil
}

// nullCaseID maps an absent case to SQL NULL; case_id is a nullable uuid.
func nullCaseID(caseID string) any {
	if caseID == "" {
		return nil
	}
	return caseID
}
