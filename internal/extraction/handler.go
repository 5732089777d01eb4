package extraction

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"incident-backend/internal/documents"
	"incident-backend/internal/llm"
	"incident-backend/internal/queue"
	"incident-backend/internal/quotes"
	"incident-backend/internal/shared/server/middleware"
	"incident-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the extraction service. Queue is optional;
// without it the async endpoint reports the capability as unavailable.
type Handler struct {
	Svc    *Service
	Queue  queue.Client
	Quotes quotes.Repo
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, q queue.Client, quoteRepo quotes.Repo) *Handler {
	return &Handler{Svc: svc, Queue: q, Quotes: quoteRepo}
}

// RegisterRoutes attaches extraction routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/extract", h.extract)
	rg.POST("/documents/:id/extract/async", h.extractAsync)
	rg.GET("/documents/:id/quotes", h.listQuotes)
	rg.PATCH("/quotes/:id/status", h.updateStatus)
}

type extractRequest struct {
	CaseID string `json:"caseId"`
}

func (h *Handler) extract(c *gin.Context) {
	c.Set("documentId", c.Param("id"))

	var req extractRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	result, err := h.Svc.Run(c.Request.Context(), c.Param("id"), req.CaseID)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, llm.ErrNoModelAvailable):
			respond.Error(c, http.StatusServiceUnavailable, "no_model_available", "no language model is reachable", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "extraction failed", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, result)
}

func (h *Handler) extractAsync(c *gin.Context) {
	c.Set("documentId", c.Param("id"))

	if h.Queue == nil {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "async extraction is not configured", nil)
		return
	}

	var req extractRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	documentID := c.Param("id")
	if _, err := h.Svc.Docs.GetByID(c.Request.Context(), documentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		return
	}

	msg := queue.Message{
		DocumentID: documentID,
		CaseID:     req.CaseID,
		RequestID:  middleware.RequestIDFromContext(c),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := h.Queue.Send(c.Request.Context(), msg); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to enqueue extraction", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"documentId": documentID,
		"status":     "queued",
	})
}

func (h *Handler) listQuotes(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)
	if _, err := h.Svc.Docs.GetByID(c.Request.Context(), documentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		return
	}

	items, err := h.Quotes.ListByDocument(c.Request.Context(), documentID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list quotes", nil)
		return
	}
	if items == nil {
		items = []quotes.ExtractedQuote{}
	}
	respond.JSON(c, http.StatusOK, items)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	c.Set("quoteId", c.Param("id"))

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if !quotes.ValidStatus(req.Status) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "status must be pending, accepted, or rejected", nil)
		return
	}

	updated, err := h.Quotes.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "quote not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update quote", nil)
		return
	}
	respond.JSON(c, http.StatusOK, updated)
}
