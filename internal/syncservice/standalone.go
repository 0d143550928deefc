package syncservice

import (
	"context"
	"log/slog"
	"path"

	"github.com/starford/granola-sync/internal/checksum"
	"github.com/starford/granola-sync/internal/granola"
	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/notefmt"
	"github.com/starford/granola-sync/internal/parser"
	"github.com/starford/granola-sync/internal/route"
)

// syncStandalone writes one note file per document, into the flat folder or
// into date folders. Documents are processed one at a time.
func (s *Service) syncStandalone(ctx context.Context, docs []granola.Document, report *models.SyncReport) error {
	base := s.opts.Folder
	if s.opts.Mode == route.ModeDailyFolder {
		base = s.opts.DailyNoteFolder
	}
	folders := newFolderCache(s)
	now := s.opts.Now()

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, ok := s.render(doc)
		if !ok {
			s.skip(report, doc, "no content")
			continue
		}

		var folder string
		switch d := route.Route(doc.Timestamps(), s.opts.Mode, s.opts.DailyNoteFormat, base, now).(type) {
		case route.FlatFolder:
			folder = d.Path
		case route.DateFolder:
			folder = d.Path
		default:
			s.skip(report, doc, "unsupported destination")
			continue
		}
		if err := folders.ensure(folder); err != nil {
			s.skip(report, doc, "folder unavailable: "+err.Error())
			continue
		}

		content := notefmt.Standalone(meta(doc), body)
		target, err := s.standalonePath(folder, doc)
		if err != nil {
			s.skip(report, doc, "target unavailable: "+err.Error())
			continue
		}
		sum := checksum.SumString(content)

		if s.unchanged(doc.ID, target, sum) {
			report.Synced++
			report.Unchanged++
			s.logger.Debug("sync: unchanged", slog.String("id", doc.ID), slog.String("path", target))
			continue
		}
		if err := s.store.Write(target, []byte(content)); err != nil {
			s.skip(report, doc, "write failed: "+err.Error())
			continue
		}
		s.recordDocument(models.SyncedDocument{
			ID:        doc.ID,
			Title:     doc.DisplayTitle(),
			Path:      target,
			Checksum:  sum,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
		report.Synced++
		s.logger.Debug("sync: wrote note", slog.String("id", doc.ID), slog.String("path", target))
	}
	return nil
}

// standalonePath picks the note file for doc inside folder. A file with the
// same name that belongs to another document is left alone and the new
// note gets the document id as a suffix.
func (s *Service) standalonePath(folder string, doc granola.Document) (string, error) {
	stem := notefmt.SanitizeFilename(doc.DisplayTitle())
	target := path.Join(folder, stem+".md")

	exists, err := s.store.Exists(target)
	if err != nil || !exists {
		return target, err
	}
	data, err := s.store.Read(target)
	if err != nil {
		return "", err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return "", err
	}
	if owner := res.ID(); owner != "" && owner != doc.ID {
		return path.Join(folder, stem+"_"+notefmt.SanitizeFilename(doc.ID)+".md"), nil
	}
	return target, nil
}

// unchanged reports whether the ledger already holds sum for doc at target
// and the file is still there.
func (s *Service) unchanged(id, target, sum string) bool {
	if s.ledger == nil {
		return false
	}
	prevSum, prevPath, err := s.ledger.Checksum(id)
	if err != nil || prevSum != sum || prevPath != target {
		return false
	}
	exists, err := s.store.Exists(target)
	return err == nil && exists
}

func meta(doc granola.Document) notefmt.Meta {
	return notefmt.Meta{
		ID:        doc.ID,
		Title:     doc.DisplayTitle(),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// folderCache creates each folder at most once per run and remembers
// failures so later documents for the same folder are skipped quickly.
type folderCache struct {
	s    *Service
	seen map[string]error
}

func newFolderCache(s *Service) *folderCache {
	return &folderCache{s: s, seen: make(map[string]error)}
}

func (c *folderCache) ensure(folder string) error {
	if err, ok := c.seen[folder]; ok {
		return err
	}
	err := c.s.ensureFolder(folder)
	c.seen[folder] = err
	return err
}

func (s *Service) ensureFolder(folder string) error {
	if folder == "" {
		return nil
	}
	exists, err := s.store.Exists(folder)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.store.CreateFolder(folder); err != nil {
		return err
	}
	s.logger.Info("sync: created folder", slog.String("path", folder))
	return nil
}
