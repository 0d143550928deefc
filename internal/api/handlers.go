package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/credentials"
	"github.com/starford/granola-sync/internal/granola"
	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/prosemirror"
	"github.com/starford/granola-sync/internal/syncservice"
)

const maxRenderBody = 8 << 20

// SyncService is the part of *syncservice.Service the API needs.
type SyncService interface {
	Sync(ctx context.Context) (models.SyncReport, error)
	Status(ctx context.Context) (syncservice.Status, error)
	ListDocuments(ctx context.Context, limit, offset int, query string) ([]models.SyncedDocument, int, error)
	GetDocument(ctx context.Context, id string) (*models.SyncedDocument, error)
}

// Handler holds API route handlers.
type Handler struct {
	svc SyncService
}

// NewHandler creates a new Handler.
func NewHandler(svc SyncService) *Handler {
	return &Handler{svc: svc}
}

// Sync handles POST /api/sync.
//
//	@Summary		Run a sync now
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncReport
//	@Failure		409	{object}	errResponse
//	@Failure		502	{object}	SyncErrorResponse
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Sync(r.Context())
	if err != nil {
		status, body := syncFailure(err)
		if status == http.StatusInternalServerError {
			slog.Error("api: sync failed", slog.String("error", err.Error()))
		}
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// syncFailure maps a failed run onto an HTTP status and body.
func syncFailure(err error) (int, any) {
	var (
		credErr *credentials.Error
		apiErr  *granola.APIError
	)
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, errResponse{Error: "sync already in progress"}
	case errors.As(err, &credErr):
		return http.StatusBadGateway, SyncErrorResponse{Error: credErr.Message(), Reason: string(credErr.Reason)}
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, SyncErrorResponse{Error: apiErr.Message(), Reason: string(apiErr.Kind)}
	case errors.Is(err, granola.ErrInvalidResponse):
		return http.StatusBadGateway, SyncErrorResponse{
			Error:  "Invalid API response format. Please try again later.",
			Reason: syncservice.Reason(err),
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, SyncErrorResponse{Error: "sync cancelled", Reason: syncservice.Reason(err)}
	default:
		return http.StatusInternalServerError, errResponse{Error: "internal error"}
	}
}

// Status handles GET /api/status.
//
//	@Summary		Last sync time and report
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		writeInternal(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List synced documents
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			q		query		string	false	"Title or path filter"
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	docs, total, err := h.svc.ListDocuments(r.Context(), limit, offset, q.Get("q"))
	if err != nil {
		writeInternal(w, "list documents", err)
		return
	}
	if docs == nil {
		docs = []models.SyncedDocument{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Total: total})
}

// GetDocument handles GET /api/documents/{id}.
//
//	@Summary		Get one synced document
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Granola document id"
//	@Success		200	{object}	SyncedDocument
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeInternal(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Render handles POST /api/render. The body is a notes tree
// ({"type": "doc", "content": [...]}).
//
//	@Summary		Render a notes tree to Markdown
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	RenderResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRenderBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	md, err := prosemirror.RenderJSON(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{Markdown: md})
}
