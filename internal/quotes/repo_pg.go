package quotes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"incident-backend/internal/pdftext"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// ReplaceForDocument swaps the document's quotes for items and marks the
// document processed, in one transaction.
func (r *PGRepo) ReplaceForDocument(ctx context.Context, documentID, model string, items []ExtractedQuote) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM extracted_quotes WHERE document_id = $1`, documentID); err != nil {
		return err
	}

	const insert = `
INSERT INTO extracted_quotes (
	id, document_id, case_id, quote_text, char_start, char_end, page_number,
	bounding_boxes, category, event_date, confidence_score, extracted_by, status, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for _, q := range items {
		boxes, err := marshalBoxes(q.BoundingBoxes)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert,
			q.ID,
			documentID,
			nullCaseID(q.CaseID),
			q.QuoteText,
			q.CharStart,
			q.CharEnd,
			q.PageNumber,
			boxes,
			q.Category,
			nullDate(q.EventDate),
			q.Confidence,
			q.ExtractedBy,
			q.Status,
			q.CreatedAt,
		); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET processed = TRUE, processed_at = $2, extraction_model = $3 WHERE id = $1`,
		documentID, time.Now().UTC(), model,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// ListByDocument returns the document's quotes ordered by position.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]ExtractedQuote, error) {
	const query = `
SELECT id, document_id, case_id, quote_text, char_start, char_end, page_number,
       bounding_boxes, category, event_date, confidence_score, extracted_by, status, created_at
FROM extracted_quotes
WHERE document_id = $1
ORDER BY char_start ASC`
	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExtractedQuote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpdateStatus moves a quote through review and returns the updated row.
func (r *PGRepo) UpdateStatus(ctx context.Context, quoteID, status string) (ExtractedQuote, error) {
	const query = `
UPDATE extracted_quotes SET status = $2 WHERE id = $1
RETURNING id, document_id, case_id, quote_text, char_start, char_end, page_number,
          bounding_boxes, category, event_date, confidence_score, extracted_by, status, created_at`
	q, err := scanQuote(r.DB.QueryRowContext(ctx, query, quoteID, status))
	if errors.Is(err, sql.ErrNoRows) {
		return ExtractedQuote{}, ErrNotFound
	}
	if err != nil {
		return ExtractedQuote{}, err
	}
	return q, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (ExtractedQuote, error) {
	var q ExtractedQuote
	var caseID sql.NullString
	var boxes sql.NullString
	var eventDate sql.NullTime
	if err := row.Scan(
		&q.ID,
		&q.DocumentID,
		&caseID,
		&q.QuoteText,
		&q.CharStart,
		&q.CharEnd,
		&q.PageNumber,
		&boxes,
		&q.Category,
		&eventDate,
		&q.Confidence,
		&q.ExtractedBy,
		&q.Status,
		&q.CreatedAt,
	); err != nil {
		return ExtractedQuote{}, err
	}
	if caseID.Valid {
		q.CaseID = caseID.String
	}
	if boxes.Valid && boxes.String != "" {
		if err := json.Unmarshal([]byte(boxes.String), &q.BoundingBoxes); err != nil {
			return ExtractedQuote{}, err
		}
	}
	if eventDate.Valid {
		q.EventDate = eventDate.Time.Format("2006-01-02")
	}
	return q, nil
}

// marshalBoxes encodes boxes for the jsonb column; the column is NOT NULL,
// so an empty list becomes an empty JSON array rather than SQL NULL.
func marshalBoxes(boxes []pdftext.BBox) (any, error) {
	if len(boxes) == 0 {
		return "[]", nil
	}
	payload, err := json.Marshal(boxes)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

func nullDate(iso string) any {
	if iso == "" {
		return nil
	}
	return iso
}

// nullCaseID maps an absent case to SQL NULL; case_id is a nullable uuid.
func nullCaseID(caseID string) any {
	if caseID == "" {
		return nil
	}
	return caseID
}
