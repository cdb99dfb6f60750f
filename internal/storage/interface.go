package storage

import (
	"errors"

	"github.com/julianstephens/calhours/internal/models"
)

// ErrNoSnapshot is returned when no snapshot exists for the requested range.
var ErrNoSnapshot = errors.New("no snapshot stored for range")

// ErrNotInitialized is returned by Load before `calhours init` has run.
var ErrNotInitialized = errors.New("storage not initialized, run 'calhours init' first")

// Provider persists successful responses so they can be listed or rendered
// offline. Implementations are not safe for concurrent use.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Snapshots
	SaveSnapshot(models.Snapshot) error
	LatestSnapshot(r models.Range) (models.Snapshot, error)
	// ListSnapshots returns newest first. An empty range matches all ranges;
	// limit <= 0 means no limit.
	ListSnapshots(r models.Range, limit int) ([]models.Snapshot, error)

	// Utils
	GetConfigPath() string
}
