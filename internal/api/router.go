package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc SyncService, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Sync runs and status.
	r.Post("/sync", h.Sync)
	r.Get("/status", h.Status)

	// Ledger of synced documents.
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/{id}", h.GetDocument)

	// Stateless rendering of a notes tree.
	r.Post("/render", h.Render)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
