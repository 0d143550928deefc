// Package granola is a client for the Granola document API.
package granola

import "github.com/starford/granola-sync/internal/prosemirror"

// Document is one meeting document as returned by get-documents.
type Document struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
	LastViewedPanel *Panel `json:"last_viewed_panel,omitempty"`
}

// Panel holds the notes tree the user last looked at.
type Panel struct {
	Content *prosemirror.Doc `json:"content,omitempty"`
}

// Content returns the document's notes tree, or nil.
func (d Document) Content() *prosemirror.Doc {
	if d.LastViewedPanel == nil {
		return nil
	}
	return d.LastViewedPanel.Content
}

// Timestamps returns the routing candidates in priority order.
func (d Document) Timestamps() []string {
	return []string{d.CreatedAt, d.UpdatedAt}
}

// DisplayTitle returns the title, or a placeholder for untitled documents.
func (d Document) DisplayTitle() string {
	if d.Title == "" {
		return "Untitled Granola Note"
	}
	return d.Title
}

// DocumentsResponse is the get-documents response body.
type DocumentsResponse struct {
	Docs []Document `json:"docs"`
}

// TranscriptEntry is one utterance from get-document-transcript.
type TranscriptEntry struct {
	ID             string `json:"id"`
	DocumentID     string `json:"document_id"`
	StartTimestamp string `json:"start_timestamp"`
	EndTimestamp   string `json:"end_timestamp"`
	Text           string `json:"text"`
	Source         string `json:"source"`
	IsFinal        bool   `json:"is_final"`
}
