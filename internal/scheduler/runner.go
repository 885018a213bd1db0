package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/monitor247/internal/domain"
	"github.com/hamed0406/monitor247/internal/hub"
	"github.com/hamed0406/monitor247/internal/probe"
	"github.com/hamed0406/monitor247/internal/store"
)

// Runner drives the periodic probes. Each pass stamps lastRun on every due
// check in a single mutation before any probe fires, then fans the probes
// out with bounded concurrency. All resulting state changes go through the
// store's serialized mutation path; events are only published once the
// mutation has been persisted.
type Runner struct {
	Logger      *zap.Logger
	Store       store.Store
	Hub         *hub.Hub
	Checker     probe.Checker
	Interval    time.Duration
	Timeout     time.Duration
	Concurrency int
}

func NewRunner(
	logger *zap.Logger,
	st store.Store,
	h *hub.Hub,
	checker probe.Checker,
	interval time.Duration,
	timeout time.Duration,
	concurrency int,
) *Runner {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		Logger:      logger,
		Store:       st,
		Hub:         h,
		Checker:     checker,
		Interval:    interval,
		Timeout:     timeout,
		Concurrency: concurrency,
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("runner_stopped")
			return
		case <-t.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single pass and returns once every due probe has been
// applied to the store.
func (r *Runner) RunOnce(ctx context.Context) {
	now := domain.NowMillis()

	var due []domain.Check
	_, err := r.Store.Mutate(ctx, func(s *domain.Snapshot) error {
		due = due[:0]
		for i := range s.Checks {
			c := &s.Checks[i]
			if now-c.LastRun < int64(c.FreqSec)*1000 {
				continue
			}
			// stamp before probing so an overlapping tick can't re-trigger
			// a slow probe
			c.LastRun = now
			due = append(due, *c)
		}
		return nil
	})
	if err != nil {
		r.Logger.Warn("runner_mark_due_error", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	sem := make(chan struct{}, r.Concurrency)
	var wg sync.WaitGroup

	for _, chk := range due {
		c := chk
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, r.Timeout)
			defer cancel()

			out := r.Checker.Check(cctx, c.URL)
			r.apply(ctx, c.ID, out)
		}()
	}

	wg.Wait()
}

// apply records one probe outcome: status update, incident creation on down
// (unless one is already open for the check), resolution on up.
func (r *Runner) apply(ctx context.Context, checkID string, out probe.CheckResult) {
	now := domain.NowMillis()

	var created *domain.Incident
	var resolved *domain.Incident
	var changed *domain.Check

	_, err := r.Store.Mutate(ctx, func(s *domain.Snapshot) error {
		created, resolved, changed = nil, nil, nil

		c := s.FindCheck(checkID)
		if c == nil {
			return store.ErrNotFound
		}

		prev := c.LastStatus
		if out.Success {
			c.LastStatus = domain.CheckUp
		} else {
			c.LastStatus = domain.CheckDown
		}

		if !out.Success && c.OpenIncidentID == nil {
			sev := c.Sev
			if !domain.ValidSeverity(sev) {
				sev = domain.SevHigh
			}
			sla := c.SLAMin
			if sla <= 0 {
				sla = 30
			}
			inc := domain.NewIncident(
				c.Name+" er NED",
				sev,
				domain.SourceCheck,
				sla,
				map[string]any{"checkId": c.ID, "url": c.URL},
				now,
			)
			s.Incidents = append(s.Incidents, inc)
			id := inc.ID
			c.OpenIncidentID = &id
			created = &inc
		}

		if out.Success && c.OpenIncidentID != nil {
			if inc := s.FindIncident(*c.OpenIncidentID); inc != nil && inc.Status != domain.StatusDone {
				_ = inc.Resolve(now)
				cp := *inc
				resolved = &cp
			}
			c.OpenIncidentID = nil
		}

		if prev != c.LastStatus {
			cp := *c
			changed = &cp
		}
		return nil
	})
	if err != nil {
		// skip this check, retried on the next tick
		r.Logger.Warn("runner_apply_error", zap.String("check_id", checkID), zap.Error(err))
		return
	}

	if created != nil {
		r.Hub.Publish(hub.EventIncidentCreated, *created)
		r.Logger.Info("incident_opened",
			zap.String("check_id", checkID),
			zap.String("incident_id", created.ID),
			zap.String("sev", string(created.Sev)),
		)
	}
	if resolved != nil {
		r.Hub.Publish(hub.EventIncidentUpdated, *resolved)
		r.Logger.Info("incident_auto_resolved",
			zap.String("check_id", checkID),
			zap.String("incident_id", resolved.ID),
		)
	}
	if changed != nil {
		r.Hub.Publish(hub.EventCheckUpdated, map[string]any{
			"id":         changed.ID,
			"lastStatus": changed.LastStatus,
			"lastRun":    changed.LastRun,
		})
	}

	r.Logger.Debug("runner_checked",
		zap.String("check_id", checkID),
		zap.Bool("up", out.Success),
		zap.Int("status", out.StatusCode),
		zap.Float64("latency_ms", out.LatencyMS),
		zap.String("reason", out.Message),
	)
}
