package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hamed0406/monitor247/internal/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitor.json")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, path
}

func TestNew_SeedsWhenMissing(t *testing.T) {
	s, path := newTestStore(t)

	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Incidents) != 0 {
		t.Fatalf("seed should have no incidents, got %d", len(snap.Incidents))
	}
	if len(snap.Checks) != 2 {
		t.Fatalf("seed should have 2 checks, got %d", len(snap.Checks))
	}
	for _, c := range snap.Checks {
		if c.ID == "" || c.Type != "http" || c.LastStatus != domain.CheckUnknown {
			t.Fatalf("bad seeded check: %+v", c)
		}
	}
	if snap.OnCall.Name == "" || snap.OnCall.Until <= domain.NowMillis() {
		t.Fatalf("bad seeded oncall: %+v", snap.OnCall)
	}

	// seed must be on disk already
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("seed not persisted: %v", err)
	}
}

func TestMutate_PersistsAcrossReopen(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	_, err := s.Mutate(ctx, func(snap *domain.Snapshot) error {
		inc := domain.NewIncident("disk test", domain.SevMedium, domain.SourceManual, 30, nil, domain.NowMillis())
		snap.Incidents = append(snap.Incidents, inc)
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	snap, _ := reopened.Load(ctx)
	if len(snap.Incidents) != 1 || snap.Incidents[0].Title != "disk test" {
		t.Fatalf("mutation not persisted: %+v", snap.Incidents)
	}
}

func TestMutate_ErrorAbortsWithoutPersisting(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := s.Mutate(ctx, func(snap *domain.Snapshot) error {
		snap.Incidents = append(snap.Incidents, domain.NewIncident("nope", domain.SevLow, domain.SourceManual, 30, nil, 0))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Mutate err = %v, want boom", err)
	}

	snap, _ := s.Load(ctx)
	if len(snap.Incidents) != 0 {
		t.Fatalf("aborted mutation leaked state: %+v", snap.Incidents)
	}
}

func TestMutate_PersistFailureRollsBackAndReports(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	// point writes at a directory that does not exist so persist fails
	goodPath := s.path
	s.path = filepath.Join(t.TempDir(), "missing", "sub", "monitor.json")

	_, err := s.Mutate(ctx, func(snap *domain.Snapshot) error {
		snap.Incidents = append(snap.Incidents,
			domain.NewIncident("never lands", domain.SevLow, domain.SourceManual, 30, nil, domain.NowMillis()))
		return nil
	})
	if err == nil {
		t.Fatalf("expected persist error")
	}

	// in-memory view must still match the last persisted state
	snap, _ := s.Load(ctx)
	if len(snap.Incidents) != 0 {
		t.Fatalf("failed persist leaked into memory: %+v", snap.Incidents)
	}

	// once the path is healthy again the store keeps working
	s.path = goodPath
	after, err := s.Mutate(ctx, func(snap *domain.Snapshot) error {
		snap.Incidents = append(snap.Incidents,
			domain.NewIncident("lands", domain.SevLow, domain.SourceManual, 30, nil, domain.NowMillis()))
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate after recovery: %v", err)
	}
	if len(after.Incidents) != 1 || after.Incidents[0].Title != "lands" {
		t.Fatalf("store did not recover: %+v", after.Incidents)
	}
}

func TestMutate_SerializesConcurrentWriters(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Mutate(ctx, func(snap *domain.Snapshot) error {
				snap.Incidents = append(snap.Incidents,
					domain.NewIncident("concurrent", domain.SevLow, domain.SourceManual, 30, nil, domain.NowMillis()))
				return nil
			})
			if err != nil {
				t.Errorf("Mutate: %v", err)
			}
		}()
	}
	wg.Wait()

	snap, _ := s.Load(ctx)
	if len(snap.Incidents) != n {
		t.Fatalf("lost updates: got %d incidents, want %d", len(snap.Incidents), n)
	}
}

func TestLoad_ReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	snap, _ := s.Load(ctx)
	snap.Checks[0].Name = "tampered"

	again, _ := s.Load(ctx)
	if again.Checks[0].Name == "tampered" {
		t.Fatalf("Load handed out store-owned memory")
	}
}
