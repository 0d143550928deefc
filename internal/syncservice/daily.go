package syncservice

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/granola-sync/internal/checksum"
	"github.com/starford/granola-sync/internal/granola"
	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/notefmt"
	"github.com/starford/granola-sync/internal/route"
	"github.com/starford/granola-sync/internal/section"
)

// dailyGroup is every document merged into one daily-note file.
type dailyGroup struct {
	target  string
	docs    []granola.Document
	entries []notefmt.DailyEntry
}

type groupResult struct {
	failure   string
	unchanged bool
}

// syncDailyNotes merges documents into the section of their daily note.
// Groups are keyed by target file so each file has exactly one writer;
// distinct files are merged concurrently.
func (s *Service) syncDailyNotes(ctx context.Context, docs []granola.Document, report *models.SyncReport) error {
	groups := s.groupByDailyNote(docs, report)

	results := make([]groupResult, len(groups))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, grp := range groups {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = s.mergeDailyNote(grp)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, grp := range groups {
		res := results[i]
		if res.failure != "" {
			for _, doc := range grp.docs {
				s.skip(report, doc, res.failure)
			}
			continue
		}
		report.Synced += len(grp.docs)
		if res.unchanged {
			report.Unchanged += len(grp.docs)
		}
	}
	return nil
}

func (s *Service) groupByDailyNote(docs []granola.Document, report *models.SyncReport) []*dailyGroup {
	byTarget := make(map[string]*dailyGroup)
	var order []*dailyGroup
	now := s.opts.Now()

	for _, doc := range docs {
		body, ok := s.render(doc)
		if !ok {
			s.skip(report, doc, "no content")
			continue
		}
		d, ok := route.Route(doc.Timestamps(), route.ModeDailyNote, "", "", now).(route.DailyNote)
		if !ok {
			s.skip(report, doc, "unsupported destination")
			continue
		}
		target := s.dailyNotePath(d.DateKey)
		grp := byTarget[target]
		if grp == nil {
			grp = &dailyGroup{target: target}
			byTarget[target] = grp
			order = append(order, grp)
		}
		grp.docs = append(grp.docs, doc)
		grp.entries = append(grp.entries, notefmt.DailyEntry{Meta: meta(doc), Body: body})
	}
	return order
}

// dailyNotePath maps a YYYY-MM-DD key to the daily-note file.
func (s *Service) dailyNotePath(dateKey string) string {
	t, err := time.Parse("2006-01-02", dateKey)
	if err != nil {
		t = s.opts.Now()
	}
	name := route.FormatDate(t, s.opts.DailyNoteFormat) + ".md"
	return route.NormalizePath(path.Join(s.opts.DailyNoteFolder, name))
}

// mergeDailyNote runs in its own goroutine; it only touches its group's file.
func (s *Service) mergeDailyNote(grp *dailyGroup) groupResult {
	if err := s.ensureFolder(route.NormalizePath(path.Dir(grp.target))); err != nil {
		return groupResult{failure: "folder unavailable: " + err.Error()}
	}

	var existing string
	exists, err := s.store.Exists(grp.target)
	if err != nil {
		return groupResult{failure: "daily note unavailable: " + err.Error()}
	}
	if exists {
		data, err := s.store.Read(grp.target)
		if err != nil {
			return groupResult{failure: "daily note unavailable: " + err.Error()}
		}
		existing = string(data)
	}

	heading := s.opts.SectionHeading
	body := notefmt.DailySection(section.Level(heading), grp.entries)
	merged := section.Merge(existing, heading, body)

	if exists && merged == existing {
		s.logger.Debug("sync: daily note unchanged", slog.String("path", grp.target))
		s.recordDailyDocuments(grp)
		return groupResult{unchanged: true}
	}
	if err := s.store.Write(grp.target, []byte(merged)); err != nil {
		return groupResult{failure: fmt.Sprintf("write %s failed: %v", grp.target, err)}
	}
	s.recordDailyDocuments(grp)
	s.logger.Debug("sync: merged daily note",
		slog.String("path", grp.target),
		slog.Int("documents", len(grp.docs)))
	return groupResult{}
}

func (s *Service) recordDailyDocuments(grp *dailyGroup) {
	for i, doc := range grp.docs {
		s.recordDocument(models.SyncedDocument{
			ID:        doc.ID,
			Title:     doc.DisplayTitle(),
			Path:      grp.target,
			Checksum:  checksum.SumString(grp.entries[i].Body),
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
}
