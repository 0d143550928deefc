package syncservice

import (
	"context"
	"log/slog"
	"path"

	"github.com/starford/granola-sync/internal/granola"
	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/notefmt"
	"github.com/starford/granola-sync/internal/route"
	"github.com/starford/granola-sync/internal/transcript"
)

// syncTranscripts writes "<title>-transcript.md" into the flat folder for
// every document that has a transcript.
func (s *Service) syncTranscripts(ctx context.Context, token string, docs []granola.Document, report *models.SyncReport) error {
	folder := route.NormalizePath(s.opts.Folder)
	if err := s.ensureFolder(folder); err != nil {
		for _, doc := range docs {
			s.skip(report, doc, "transcript folder unavailable: "+err.Error())
		}
		return nil
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, err := s.api.Transcript(ctx, token, doc.ID)
		if err != nil {
			s.skip(report, doc, "transcript unavailable: "+err.Error())
			continue
		}
		if len(entries) == 0 {
			continue
		}
		title := doc.DisplayTitle()
		target := path.Join(folder, notefmt.SanitizeFilename(title)+"-transcript.md")
		content := transcript.Format(title, entries, s.opts.Speakers)
		if err := s.store.Write(target, []byte(content)); err != nil {
			s.skip(report, doc, "transcript write failed: "+err.Error())
			continue
		}
		report.Transcripts++
		s.logger.Debug("sync: wrote transcript", slog.String("id", doc.ID), slog.String("path", target))
	}
	return nil
}
