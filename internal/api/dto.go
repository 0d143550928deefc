package api

import (
	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/syncservice"
)

// SyncReport is the response of a completed sync (aliased from the domain layer).
type SyncReport = models.SyncReport

// StatusResponse is the sync status (aliased from the domain layer).
type StatusResponse = syncservice.Status

// SyncedDocument is one ledger row (aliased from the domain layer).
type SyncedDocument = models.SyncedDocument

// DocumentListResponse wraps paginated ledger listings.
type DocumentListResponse struct {
	Documents []SyncedDocument `json:"documents" validate:"required"`
	Total     int              `json:"total" example:"42" validate:"required"`
}

// SyncErrorResponse is returned when a sync run fails.
type SyncErrorResponse struct {
	Error  string `json:"error" example:"Authentication failed." validate:"required"`
	Reason string `json:"reason,omitempty" example:"unauthorized"`
}

// RenderResponse carries the Markdown rendering of a notes tree.
type RenderResponse struct {
	Markdown string `json:"markdown" example:"# Title\n\nHello" validate:"required"`
}
