package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hamed0406/monitor247/internal/domain"
	"github.com/hamed0406/monitor247/internal/store"
)

// Store keeps the whole snapshot in one JSON file. A single mutex serializes
// every Mutate, which is what makes the read-modify-write cycle safe for the
// scheduler and the API writing concurrently.
type Store struct {
	mu    sync.Mutex
	path  string
	state *domain.Snapshot
}

// New loads the snapshot from path, seeding and writing the default state if
// the file does not exist yet.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	s := &Store{path: path}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		var snap domain.Snapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			return nil, fmt.Errorf("parse state file %s: %w", path, err)
		}
		s.state = &snap
	case os.IsNotExist(err):
		s.state = store.Seed(domain.NowMillis())
		if err := s.persist(s.state); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("read state file %s: %w", path, err)
	}

	return s, nil
}

func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

func (s *Store) Mutate(ctx context.Context, fn func(*domain.Snapshot) error) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.persist(next); err != nil {
		// keep the previous in-memory state so memory and disk stay in step
		return nil, err
	}
	s.state = next
	return next.Clone(), nil
}

func (s *Store) Close() {}

// persist writes via a temp file and rename so a crash mid-write never
// leaves a truncated state file behind.
func (s *Store) persist(snap *domain.Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
