// Package models defines the domain types shared across granola-sync.
package models

import "time"

// SyncReport summarises one sync run.
type SyncReport struct {
	Mode        string        `json:"mode"`
	Location    string        `json:"location"`
	Synced      int           `json:"synced"`
	Unchanged   int           `json:"unchanged"`
	Transcripts int           `json:"transcripts"`
	Skipped     []SkippedItem `json:"skipped,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// Skip records a document that could not be written.
func (r *SyncReport) Skip(docID, title, reason string) {
	r.Skipped = append(r.Skipped, SkippedItem{DocumentID: docID, Title: title, Reason: reason})
}

// SkippedItem is a document left out of a run and the reason why.
type SkippedItem struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Reason     string `json:"reason"`
}

// SyncedDocument is the ledger record of a document written to the vault.
type SyncedDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	CreatedAt string    `json:"created_at,omitempty"`
	UpdatedAt string    `json:"updated_at,omitempty"`
	SyncedAt  time.Time `json:"synced_at"`
}

// SyncRun is a persisted sync outcome.
type SyncRun struct {
	ID         int64      `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Report     SyncReport `json:"report"`
}

// Run statuses.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// FileInfo describes a vault file returned by list operations.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
