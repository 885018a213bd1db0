package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hamed0406/monitor247/internal/domain"
)

// ErrNotFound is returned (wrapped) by mutation closures when an entity an
// operation targets does not exist.
var ErrNotFound = errors.New("not found")

// Store is the single point of truth for monitoring state. Mutate applies fn
// under the store's writer lock: concurrent callers never interleave a
// read-modify-write cycle. If fn returns an error, nothing is persisted and
// the error is returned as-is; if persisting fails, the in-memory view is
// rolled back so memory and disk cannot silently diverge.
type Store interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Mutate(ctx context.Context, fn func(*domain.Snapshot) error) (*domain.Snapshot, error)
	Close()
}

// Seed is the state a fresh store starts from: no incidents, two example
// HTTP checks and a default on-call record.
func Seed(now int64) *domain.Snapshot {
	return &domain.Snapshot{
		Incidents: []domain.Incident{},
		Checks: []domain.Check{
			{
				ID: newID(), Name: "Portal Health", Type: "http", URL: "https://example.org/",
				FreqSec: 60, LastStatus: domain.CheckUnknown, SLAMin: 30, Sev: domain.SevHigh,
			},
			{
				ID: newID(), Name: "API Health", Type: "http", URL: "https://example.com/",
				FreqSec: 60, LastStatus: domain.CheckUnknown, SLAMin: 15, Sev: domain.SevCritical,
			},
		},
		OnCall: domain.OnCall{Name: "SOC – Vakt A", Until: now + 6*3600_000},
	}
}

func newID() string { return uuid.NewString() }

