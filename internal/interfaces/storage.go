// -----------------------------------------------------------------------
// Last Modified: Tuesday, 14th July 2026 3:41:08 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/rednote/pkg/models"
)

// ErrNoteNotFound is returned when no cached note matches the lookup
var ErrNoteNotFound = errors.New("note not found")

// ErrKeyNotFound is returned when a key is not found in the key/value store
var ErrKeyNotFound = errors.New("key not found")

// NoteStorage - cached scrape results
type NoteStorage interface {
	Save(ctx context.Context, note *models.CachedNote) error
	GetByID(ctx context.Context, id string) (*models.CachedNote, error)
	GetByURL(ctx context.Context, url string) (*models.CachedNote, error)
	Delete(ctx context.Context, id string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	Count(ctx context.Context) (int, error)
}

// KVStorage - string key/value settings persistence
type KVStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// LoginEventStorage - append-only login session audit trail
type LoginEventStorage interface {
	Append(ctx context.Context, event *models.LoginEvent) error
	Recent(ctx context.Context, limit int) ([]*models.LoginEvent, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// StorageManager provides access to all storage domains and owns the
// underlying database connection.
type StorageManager interface {
	NoteStorage() NoteStorage
	KVStorage() KVStorage
	LoginEventStorage() LoginEventStorage

	// RunValueLogGC reclaims space in the on-disk value log. Badger never
	// compacts the value log on its own, so a maintenance job calls this
	// periodically.
	RunValueLogGC(discardRatio float64) error

	Close() error
}
