package mcpserver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/granola-sync/internal/checksum"
	"github.com/starford/granola-sync/internal/credentials"
	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/storage"
	"github.com/starford/granola-sync/internal/testutil"
)

type fakeSyncer struct {
	report models.SyncReport
	err    error
	docs   []models.SyncedDocument
	query  string
}

func (f *fakeSyncer) Sync(context.Context) (models.SyncReport, error) {
	return f.report, f.err
}

func (f *fakeSyncer) ListDocuments(_ context.Context, _, _ int, query string) ([]models.SyncedDocument, int, error) {
	f.query = query
	return f.docs, len(f.docs), nil
}

func testServer(t *testing.T, syncer *fakeSyncer) (*Server, storage.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)
	return New(syncer, store, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so dispatch to the handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "sync_now":
		result, err = srv.syncNow(ctx, req)
	case "list_synced_documents":
		result, err = srv.listSyncedDocuments(ctx, req)
	case "render_document":
		result, err = srv.renderDocument(ctx, req)
	case "merge_section":
		result, err = srv.mergeSection(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_section":
		result, err = srv.readSection(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSyncNow(t *testing.T) {
	srv, _ := testServer(t, &fakeSyncer{report: models.SyncReport{Mode: "flat", Synced: 3}})
	r := callTool(t, srv, "sync_now", nil)
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"synced": 3`) {
		t.Errorf("report = %s", resultText(r))
	}
}

func TestSyncNowFailureCarriesReason(t *testing.T) {
	err := &credentials.Error{Reason: credentials.ReasonFileNotFound, Err: errors.New("stat supabase.json")}
	srv, _ := testServer(t, &fakeSyncer{err: err})
	r := callTool(t, srv, "sync_now", nil)
	if !r.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(resultText(r), "(file_not_found)") {
		t.Errorf("text = %q", resultText(r))
	}
}

func TestListSyncedDocuments(t *testing.T) {
	syncer := &fakeSyncer{docs: []models.SyncedDocument{{ID: "d1", Title: "Standup", Path: "Granola/Standup.md"}}}
	srv, _ := testServer(t, syncer)

	r := callTool(t, srv, "list_synced_documents", map[string]any{"query": "Stand"})
	if syncer.query != "Stand" {
		t.Errorf("query = %q", syncer.query)
	}
	if !strings.Contains(resultText(r), "Granola/Standup.md") {
		t.Errorf("list = %s", resultText(r))
	}
}

func TestListSyncedDocumentsEmpty(t *testing.T) {
	srv, _ := testServer(t, &fakeSyncer{})
	r := callTool(t, srv, "list_synced_documents", map[string]any{})
	if resultText(r) != "no synced documents" {
		t.Errorf("text = %q", resultText(r))
	}
}

func TestRenderDocument(t *testing.T) {
	srv, _ := testServer(t, &fakeSyncer{})
	doc := `{"type":"doc","content":[{"type":"bulletList","content":[{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"one"}]}]}]}]}`

	r := callTool(t, srv, "render_document", map[string]any{"document": doc})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "- one") {
		t.Errorf("markdown = %q", resultText(r))
	}

	r = callTool(t, srv, "render_document", map[string]any{"document": "{"})
	if !r.IsError {
		t.Error("expected error for invalid JSON")
	}
}

func TestMergeSection(t *testing.T) {
	srv, _ := testServer(t, &fakeSyncer{})
	r := callTool(t, srv, "merge_section", map[string]any{
		"existing": "# Day\n\n## Notes\nold\n\n## Other\nkeep",
		"heading":  "## Notes",
		"body":     "new",
	})
	want := "# Day\n\n## Notes\nnew\n\n## Other\nkeep"
	if resultText(r) != want {
		t.Errorf("merged = %q, want %q", resultText(r), want)
	}

	r = callTool(t, srv, "merge_section", map[string]any{"body": "x"})
	if !r.IsError {
		t.Error("expected error without heading")
	}
}

func TestReadSection(t *testing.T) {
	srv, store := testServer(t, &fakeSyncer{})
	_ = store.Write("Daily/2024-03-05.md", []byte("# Day\n\n## Notes\nabc\n\n## Other\nx"))

	r := callTool(t, srv, "read_section", map[string]any{"path": "Daily/2024-03-05.md", "heading": "## Notes"})
	if resultText(r) != "## Notes\nabc\n\n" {
		t.Errorf("section = %q", resultText(r))
	}

	r = callTool(t, srv, "read_section", map[string]any{"path": "Daily/2024-03-05.md", "heading": "## Missing"})
	if !r.IsError {
		t.Error("expected error for missing section")
	}

	r = callTool(t, srv, "read_section", map[string]any{"path": "nope.md", "heading": "## Notes"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestListNotes(t *testing.T) {
	srv, store := testServer(t, &fakeSyncer{})
	_ = store.Write("Granola/Standup.md", []byte("standup"))
	_ = store.Write("Daily/2024-03-05.md", []byte("day"))
	_ = store.Write("Granola/attachment.txt", []byte("skip"))

	r := callTool(t, srv, "list_notes", map[string]any{})
	want := "Daily/2024-03-05.md\t" + checksum.SumString("day") + "\n" +
		"Granola/Standup.md\t" + checksum.SumString("standup") + "\n"
	if r.IsError || resultText(r) != want {
		t.Errorf("list_notes = %q, want %q", resultText(r), want)
	}

	r = callTool(t, srv, "list_notes", map[string]any{"folder": "Granola"})
	if got := resultText(r); !strings.HasPrefix(got, "Granola/Standup.md\t") || strings.Contains(got, "Daily") {
		t.Errorf("list_notes Granola = %q", got)
	}

	r = callTool(t, srv, "list_notes", map[string]any{"folder": "Missing"})
	if !r.IsError {
		t.Error("expected error for missing folder")
	}
}

func TestListNotesEmpty(t *testing.T) {
	srv, _ := testServer(t, &fakeSyncer{})
	r := callTool(t, srv, "list_notes", nil)
	if resultText(r) != "no notes" {
		t.Errorf("empty vault = %q", resultText(r))
	}
}

func TestOutputFormatResource(t *testing.T) {
	srv, _ := testServer(t, &fakeSyncer{})
	contents, err := srv.readOutputFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != OutputFormatURI || !strings.Contains(tc.Text, "## Granola Notes") {
		t.Errorf("resource = %+v", contents[0])
	}
}
