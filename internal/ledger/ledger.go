package ledger

import "github.com/starford/granola-sync/internal/models"

// Store defines the ledger operations used by the sync service and the
// transport layers. Consumers depend on this interface rather than *DB.
type Store interface {
	UpsertDocument(d models.SyncedDocument) error
	GetDocument(id string) (*models.SyncedDocument, error)
	Checksum(id string) (sum, path string, err error)
	ListDocuments(limit, offset int, query string) ([]models.SyncedDocument, int, error)
	RecordRun(report models.SyncReport, runErr error) (int64, error)
	LastRun(status string) (*models.SyncRun, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
