package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/julianstephens/calhours/internal/models"
)

// maxJSONSnapshots bounds the file size; older snapshots are dropped first.
const maxJSONSnapshots = 500

type Store struct {
	Version   int               `json:"version"`
	Snapshots []models.Snapshot `json:"snapshots"`
}

// JSONStore keeps snapshots in a single JSON file. Selected when the config
// path ends in .json.
type JSONStore struct {
	path  string
	store *Store
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.Load()
	}

	s.store = &Store{Version: 1}
	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotInitialized
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.store = &Store{}
	if err := json.Unmarshal(data, s.store); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

func (s *JSONStore) SaveSnapshot(snap models.Snapshot) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}

	replaced := false
	for i := range s.store.Snapshots {
		if s.store.Snapshots[i].ID == snap.ID {
			s.store.Snapshots[i] = snap
			replaced = true
			break
		}
	}
	if !replaced {
		s.store.Snapshots = append(s.store.Snapshots, snap)
	}

	if over := len(s.store.Snapshots) - maxJSONSnapshots; over > 0 {
		sortNewestFirst(s.store.Snapshots)
		s.store.Snapshots = s.store.Snapshots[:maxJSONSnapshots]
	}
	return s.save()
}

func (s *JSONStore) LatestSnapshot(r models.Range) (models.Snapshot, error) {
	snaps, err := s.ListSnapshots(r, 1)
	if err != nil {
		return models.Snapshot{}, err
	}
	if len(snaps) == 0 {
		return models.Snapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, r)
	}
	return snaps[0], nil
}

func (s *JSONStore) ListSnapshots(r models.Range, limit int) ([]models.Snapshot, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	var out []models.Snapshot
	for _, snap := range s.store.Snapshots {
		if r == "" || snap.Range == r {
			out = append(out, snap)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetConfigPath returns the path to the underlying storage file.
func (s *JSONStore) GetConfigPath() string {
	return s.path
}

func sortNewestFirst(snaps []models.Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].FetchedAt.After(snaps[j].FetchedAt)
	})
}
