package documents

import "time"

// DocumentResponse is the outward-facing representation of a document. The
// full text and position tables stay server-side; clients work with quotes
// and their offsets.
type DocumentResponse struct {
	DocumentID      string     `json:"documentId"`
	CaseID          string     `json:"caseId,omitempty"`
	FileName        string     `json:"fileName"`
	ContentHash     string     `json:"contentHash"`
	PageCount       int        `json:"pageCount"`
	SizeBytes       int64      `json:"sizeBytes"`
	Processed       bool       `json:"processed"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
	ExtractionModel string     `json:"extractionModel,omitempty"`
	UploadedAt      time.Time  `json:"uploadedAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:      doc.ID,
		CaseID:          doc.CaseID,
		FileName:        doc.FileName,
		ContentHash:     doc.ContentHash,
		PageCount:       doc.PageCount,
		SizeBytes:       doc.SizeBytes,
		Processed:       doc.Processed,
		ProcessedAt:     doc.ProcessedAt,
		ExtractionModel: doc.ExtractionModel,
		UploadedAt:      doc.CreatedAt,
	}
}
