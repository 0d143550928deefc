package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/models"
)

// UpsertDocument inserts or replaces the ledger row for a synced document.
func (db *DB) UpsertDocument(d models.SyncedDocument) error {
	if d.SyncedAt.IsZero() {
		d.SyncedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO documents (id, title, path, checksum, created_at, updated_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			path       = excluded.path,
			checksum   = excluded.checksum,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			synced_at  = excluded.synced_at
	`, d.ID, d.Title, d.Path, d.Checksum, d.CreatedAt, d.UpdatedAt, d.SyncedAt)
	if err != nil {
		return fmt.Errorf("ledger: upsert document: %w", err)
	}
	return nil
}

// GetDocument returns the ledger row for id, or apperr.ErrNotFound.
func (db *DB) GetDocument(id string) (*models.SyncedDocument, error) {
	var d models.SyncedDocument
	err := db.conn.QueryRow(`
		SELECT id, title, path, checksum, created_at, updated_at, synced_at
		FROM documents WHERE id = ?
	`, id).Scan(&d.ID, &d.Title, &d.Path, &d.Checksum, &d.CreatedAt, &d.UpdatedAt, &d.SyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger: document %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get document: %w", err)
	}
	return &d, nil
}

// Checksum returns the stored checksum and path for id. Both are empty when
// the document was never synced.
func (db *DB) Checksum(id string) (sum, path string, err error) {
	err = db.conn.QueryRow(`SELECT checksum, path FROM documents WHERE id = ?`, id).Scan(&sum, &path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("ledger: checksum: %w", err)
	}
	return sum, path, nil
}

// ListDocuments returns a page of synced documents, most recently synced
// first, and the total number matching query. A non-empty query filters on
// title or path.
func (db *DB) ListDocuments(limit, offset int, query string) ([]models.SyncedDocument, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	var args []any
	if q := strings.TrimSpace(query); q != "" {
		where = ` WHERE title LIKE ? ESCAPE '\' OR path LIKE ? ESCAPE '\'`
		pattern := "%" + escapeLike(q) + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ledger: count documents: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, title, path, checksum, created_at, updated_at, synced_at
		FROM documents`+where+`
		ORDER BY synced_at DESC, id
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger: list documents: %w", err)
	}
	defer rows.Close()

	out := []models.SyncedDocument{}
	for rows.Next() {
		var d models.SyncedDocument
		if err := rows.Scan(&d.ID, &d.Title, &d.Path, &d.Checksum, &d.CreatedAt, &d.UpdatedAt, &d.SyncedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// RecordRun persists the outcome of a sync run. runErr is nil for a
// successful run.
func (db *DB) RecordRun(report models.SyncReport, runErr error) (int64, error) {
	status, msg := models.RunSucceeded, ""
	if runErr != nil {
		status, msg = models.RunFailed, runErr.Error()
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("ledger: encode report: %w", err)
	}
	res, err := db.conn.Exec(`
		INSERT INTO sync_runs (started_at, finished_at, status, error, report)
		VALUES (?, ?, ?, ?, ?)
	`, report.StartedAt.UTC(), report.FinishedAt.UTC(), status, msg, string(reportJSON))
	if err != nil {
		return 0, fmt.Errorf("ledger: record run: %w", err)
	}
	return res.LastInsertId()
}

// LastRun returns the most recent run with the given status, or any status
// when status is empty. apperr.ErrNotFound means no run was recorded.
func (db *DB) LastRun(status string) (*models.SyncRun, error) {
	q := `SELECT id, started_at, finished_at, status, error, report FROM sync_runs`
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY id DESC LIMIT 1`

	var (
		run        models.SyncRun
		reportJSON string
	)
	err := db.conn.QueryRow(q, args...).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Error, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger: last run: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: last run: %w", err)
	}
	if err := json.Unmarshal([]byte(reportJSON), &run.Report); err != nil {
		return nil, fmt.Errorf("ledger: decode report: %w", err)
	}
	return &run, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
