// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes granola-sync tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/prosemirror"
	"github.com/starford/granola-sync/internal/section"
	"github.com/starford/granola-sync/internal/storage"
	"github.com/starford/granola-sync/internal/syncservice"
)

const listLimit = 100

// Syncer is the part of *syncservice.Service the tools use.
type Syncer interface {
	Sync(ctx context.Context) (models.SyncReport, error)
	ListDocuments(ctx context.Context, limit, offset int, query string) ([]models.SyncedDocument, int, error)
}

// Server wraps the MCP server with granola-sync tools.
type Server struct {
	mcp   *server.MCPServer
	sync  Syncer
	store storage.Provider
}

// New creates a new MCP server with all tools registered.
func New(sync Syncer, store storage.Provider, version string) *Server {
	s := &Server{sync: sync, store: store}

	s.mcp = server.NewMCPServer(
		"granola-sync",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_now",
		mcp.WithDescription("Run a Granola sync immediately and return the report."),
	), s.syncNow)

	s.mcp.AddTool(mcp.NewTool("list_synced_documents",
		mcp.WithDescription("List documents written by previous syncs, newest first."),
		mcp.WithString("query", mcp.Description("Optional filter on title or vault path")),
	), s.listSyncedDocuments)

	s.mcp.AddTool(mcp.NewTool("render_document",
		mcp.WithDescription("Render a Granola notes tree (JSON with type \"doc\") to Markdown."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The notes tree as a JSON string")),
	), s.renderDocument)

	s.mcp.AddTool(mcp.NewTool("merge_section",
		mcp.WithDescription("Replace or append a heading-delimited section in Markdown text. "+
			"Uses the same rules as the daily-note sync; see the "+OutputFormatURI+" resource."),
		mcp.WithString("existing", mcp.Description("Current Markdown text (may be empty)")),
		mcp.WithString("heading", mcp.Required(), mcp.Description("Full heading line, e.g. \"## Granola Notes\"")),
		mcp.WithString("body", mcp.Required(), mcp.Description("New section body")),
	), s.mergeSection)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List Markdown notes in the vault with their content checksums."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (e.g. Granola); defaults to the whole vault")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_section",
		mcp.WithDescription("Read one section of a vault note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. Daily/2024-03-05.md)")),
		mcp.WithString("heading", mcp.Required(), mcp.Description("Full heading line of the section")),
	), s.readSection)

	s.mcp.AddResource(
		mcp.NewResource(OutputFormatURI, "Output Format",
			mcp.WithResourceDescription("Layout of the Markdown files granola-sync writes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readOutputFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) syncNow(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.sync.Sync(ctx)
	if err != nil {
		if reason := syncservice.Reason(err); reason != "" {
			return mcp.NewToolResultError(fmt.Sprintf("sync failed (%s): %v", reason, err)), nil
		}
		return mcp.NewToolResultError("sync failed: " + err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listSyncedDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	docs, total, err := s.sync.ListDocuments(ctx, listLimit, 0, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("no synced documents"), nil
	}
	out, _ := json.MarshalIndent(docs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) renderDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	md, err := prosemirror.RenderJSON([]byte(doc))
	if err != nil {
		return mcp.NewToolResultError("invalid document: " + err.Error()), nil
	}
	return mcp.NewToolResultText(md), nil
}

func (s *Server) mergeSection(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	heading, err := req.RequireString("heading")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	existing := req.GetString("existing", "")
	return mcp.NewToolResultText(section.Merge(existing, heading, body)), nil
}

func (s *Server) listNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := req.GetString("folder", "")
	if folder != "" {
		ok, err := s.store.Exists(folder)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", folder)), nil
		}
	}
	items, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "%s\t%s\n", it.Path, it.Checksum)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) readSection(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	heading, err := req.RequireString("heading")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	text := string(data)
	start, end, ok := section.Find(text, heading)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("section %q not found in %s", heading, path)), nil
	}
	return mcp.NewToolResultText(text[start:end]), nil
}

func (s *Server) readOutputFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      OutputFormatURI,
			MIMEType: "text/markdown",
			Text:     OutputFormat,
		},
	}, nil
}
