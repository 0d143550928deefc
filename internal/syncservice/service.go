// Package syncservice pulls Granola documents and writes them into the vault.
package syncservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/credentials"
	"github.com/starford/granola-sync/internal/granola"
	"github.com/starford/granola-sync/internal/ledger"
	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/prosemirror"
	"github.com/starford/granola-sync/internal/route"
	"github.com/starford/granola-sync/internal/storage"
	"github.com/starford/granola-sync/internal/transcript"
)

// DefaultSectionHeading is the daily-note section used when none is configured.
const DefaultSectionHeading = "## Granola Notes"

// Fetcher retrieves documents and transcripts from the Granola API.
type Fetcher interface {
	Documents(ctx context.Context, token string) ([]granola.Document, error)
	Transcript(ctx context.Context, token, documentID string) ([]granola.TranscriptEntry, error)
}

// Notifier receives sync progress. *sse.Broker implements it.
type Notifier interface {
	SyncStarted(mode string)
	SyncCompleted(report models.SyncReport)
	SyncFailed(err error, reason string)
	DocumentSkipped(item models.SkippedItem)
}

// Deps are the collaborators of a Service. Ledger and Notifier are optional.
type Deps struct {
	Store       storage.Provider
	Credentials credentials.Resolver
	API         Fetcher
	Ledger      ledger.Store
	Notifier    Notifier
	Logger      *slog.Logger
}

// Options control where and how documents are written.
type Options struct {
	Mode route.Mode

	// Folder is the target of flat mode and of transcripts.
	Folder string

	// DailyNoteFolder and DailyNoteFormat locate daily notes; daily_folder
	// mode roots its date folders at DailyNoteFolder too.
	DailyNoteFolder string
	DailyNoteFormat string
	SectionHeading  string

	Transcripts bool
	Speakers    transcript.Speakers

	// Concurrency bounds the number of daily notes merged at once.
	Concurrency     int
	RenderCacheSize int
	Now             func() time.Time
}

// Status is the externally visible sync state.
type Status struct {
	LastSync   *time.Time         `json:"last_sync"`
	LastReport *models.SyncReport `json:"last_report"`
	Running    bool               `json:"running"`
}

// Service coordinates credential resolution, retrieval, rendering and writes.
type Service struct {
	store  storage.Provider
	creds  credentials.Resolver
	api    Fetcher
	ledger ledger.Store
	notify Notifier
	logger *slog.Logger
	opts   Options

	renders *lru.Cache[string, string]
	running atomic.Bool

	mu   sync.Mutex
	last *models.SyncReport
}

// New creates a sync service.
func New(deps Deps, opts Options) (*Service, error) {
	if deps.Store == nil || deps.Credentials == nil || deps.API == nil {
		return nil, fmt.Errorf("syncservice: store, credentials and api are required: %w", apperr.ErrInvalidInput)
	}
	if opts.Mode == "" {
		opts.Mode = route.ModeFlat
	}
	if opts.DailyNoteFormat == "" {
		opts.DailyNoteFormat = route.DefaultDateFormat
	}
	if opts.SectionHeading == "" {
		opts.SectionHeading = DefaultSectionHeading
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.RenderCacheSize <= 0 {
		opts.RenderCacheSize = 512
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	renders, err := lru.New[string, string](opts.RenderCacheSize)
	if err != nil {
		return nil, fmt.Errorf("syncservice: render cache: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notify := deps.Notifier
	if notify == nil {
		notify = nopNotifier{}
	}
	return &Service{
		store:   deps.Store,
		creds:   deps.Credentials,
		api:     deps.API,
		ledger:  deps.Ledger,
		notify:  notify,
		logger:  logger,
		opts:    opts,
		renders: renders,
	}, nil
}

// Mode returns the configured destination mode.
func (s *Service) Mode() route.Mode { return s.opts.Mode }

// Sync runs one full sync. It returns apperr.ErrConflict when a run is
// already in progress. Per-document failures are reported in the returned
// report; credential and document-list failures fail the whole run.
func (s *Service) Sync(ctx context.Context) (models.SyncReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return models.SyncReport{}, fmt.Errorf("syncservice: sync in progress: %w", apperr.ErrConflict)
	}
	defer s.running.Store(false)

	report := models.SyncReport{
		Mode:      string(s.opts.Mode),
		Location:  s.location(),
		StartedAt: s.opts.Now().UTC(),
	}
	s.notify.SyncStarted(report.Mode)
	s.logger.Info("sync: started", slog.String("mode", report.Mode))

	if err := s.sync(ctx, &report); err != nil {
		report.FinishedAt = s.opts.Now().UTC()
		s.recordRun(report, err)
		reason := Reason(err)
		s.notify.SyncFailed(err, reason)
		s.logger.Error("sync: failed", slog.String("reason", reason), slog.String("error", err.Error()))
		return report, err
	}

	report.FinishedAt = s.opts.Now().UTC()
	s.recordRun(report, nil)
	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
	s.notify.SyncCompleted(report)
	s.logger.Info("sync: completed",
		slog.Int("synced", report.Synced),
		slog.Int("unchanged", report.Unchanged),
		slog.Int("transcripts", report.Transcripts),
		slog.Int("skipped", len(report.Skipped)),
		slog.String("location", report.Location))
	return report, nil
}

func (s *Service) sync(ctx context.Context, report *models.SyncReport) error {
	token, err := s.creds.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("syncservice: credentials: %w", err)
	}
	docs, err := s.api.Documents(ctx, token)
	if err != nil {
		return fmt.Errorf("syncservice: fetch documents: %w", err)
	}
	s.logger.Debug("sync: fetched documents", slog.Int("count", len(docs)))

	switch s.opts.Mode {
	case route.ModeDailyNote:
		err = s.syncDailyNotes(ctx, docs, report)
	default:
		err = s.syncStandalone(ctx, docs, report)
	}
	if err != nil {
		return err
	}

	if s.opts.Transcripts {
		return s.syncTranscripts(ctx, token, docs, report)
	}
	return nil
}

// Running reports whether a sync is in progress.
func (s *Service) Running() bool { return s.running.Load() }

// Status returns the last successful run and whether a run is in progress.
// The ledger is consulted until this process completes its first run.
func (s *Service) Status(_ context.Context) (Status, error) {
	st := Status{Running: s.running.Load()}

	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil && s.ledger != nil {
		run, err := s.ledger.LastRun(models.RunSucceeded)
		switch {
		case err == nil:
			last = &run.Report
		case !errors.Is(err, apperr.ErrNotFound):
			return st, err
		}
	}
	if last != nil {
		finished := last.FinishedAt
		st.LastSync = &finished
		st.LastReport = last
	}
	return st, nil
}

// ListDocuments returns synced documents from the ledger.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, query string) ([]models.SyncedDocument, int, error) {
	if s.ledger == nil {
		return []models.SyncedDocument{}, 0, nil
	}
	return s.ledger.ListDocuments(limit, offset, query)
}

// GetDocument returns one synced document, or apperr.ErrNotFound.
func (s *Service) GetDocument(_ context.Context, id string) (*models.SyncedDocument, error) {
	if s.ledger == nil {
		return nil, apperr.ErrNotFound
	}
	return s.ledger.GetDocument(id)
}

// render returns the Markdown for a document, or false when it carries no
// renderable notes tree.
func (s *Service) render(doc granola.Document) (string, bool) {
	content := doc.Content()
	if !content.Valid() {
		return "", false
	}
	if doc.UpdatedAt == "" {
		return prosemirror.Render(content), true
	}
	key := doc.ID + "\x00" + doc.UpdatedAt
	if md, ok := s.renders.Get(key); ok {
		return md, true
	}
	md := prosemirror.Render(content)
	s.renders.Add(key, md)
	return md, true
}

func (s *Service) skip(report *models.SyncReport, doc granola.Document, reason string) {
	item := models.SkippedItem{DocumentID: doc.ID, Title: doc.DisplayTitle(), Reason: reason}
	report.Skipped = append(report.Skipped, item)
	s.notify.DocumentSkipped(item)
	s.logger.Warn("sync: document skipped",
		slog.String("id", doc.ID),
		slog.String("title", item.Title),
		slog.String("reason", reason))
}

func (s *Service) recordRun(report models.SyncReport, runErr error) {
	if s.ledger == nil {
		return
	}
	if _, err := s.ledger.RecordRun(report, runErr); err != nil {
		s.logger.Warn("sync: record run failed", slog.String("error", err.Error()))
	}
}

func (s *Service) recordDocument(doc models.SyncedDocument) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.UpsertDocument(doc); err != nil {
		s.logger.Warn("sync: ledger update failed", slog.String("id", doc.ID), slog.String("error", err.Error()))
	}
}

func (s *Service) location() string {
	switch s.opts.Mode {
	case route.ModeDailyNote:
		return "daily notes"
	case route.ModeDailyFolder:
		return "daily note folder structure"
	default:
		if f := route.NormalizePath(s.opts.Folder); f != "" {
			return "'" + f + "'"
		}
		return "vault root"
	}
}

// Reason returns a machine-readable cause for a failed run: a credentials
// reason, a Granola error kind, or "" when unclassified.
func Reason(err error) string {
	var cerr *credentials.Error
	if errors.As(err, &cerr) {
		return string(cerr.Reason)
	}
	var aerr *granola.APIError
	if errors.As(err, &aerr) {
		return string(aerr.Kind)
	}
	if errors.Is(err, granola.ErrInvalidResponse) {
		return "invalid_response"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return ""
}

type nopNotifier struct{}

func (nopNotifier) SyncStarted(string)                 {}
func (nopNotifier) SyncCompleted(models.SyncReport)    {}
func (nopNotifier) SyncFailed(error, string)           {}
func (nopNotifier) DocumentSkipped(models.SkippedItem) {}
