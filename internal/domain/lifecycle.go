package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Incident lifecycle: open -> wip -> done. done is terminal. Callers get an
// explicit error when a transition does not apply, so "nothing to do" is
// never confused with "request honored".
var (
	ErrNotOpen         = errors.New("incident is not open")
	ErrAlreadyResolved = errors.New("incident is already resolved")
	ErrNoAssignee      = errors.New("assignee required")
)

func NewIncident(title string, sev Severity, source Source, slaMin int, data map[string]any, now int64) Incident {
	if data == nil {
		data = map[string]any{}
	}
	return Incident{
		ID:        uuid.NewString(),
		Title:     title,
		Sev:       sev,
		Source:    source,
		Data:      data,
		Status:    StatusOpen,
		CreatedAt: now,
		SLAMin:    slaMin,
	}
}

// Ack moves an open incident to wip and stamps AcknowledgedAt. The assignee
// is optional; an empty string leaves it untouched.
func (i *Incident) Ack(assignee string, now int64) error {
	if i.Status != StatusOpen {
		return ErrNotOpen
	}
	i.Status = StatusWIP
	i.AcknowledgedAt = &now
	if assignee != "" {
		i.Assignee = &assignee
	}
	return nil
}

// Resolve closes an incident from any non-terminal status.
func (i *Incident) Resolve(now int64) error {
	if i.Status == StatusDone {
		return ErrAlreadyResolved
	}
	i.Status = StatusDone
	i.ResolvedAt = &now
	return nil
}

// Assign sets the assignee without touching status or timestamps. It is
// deliberately allowed on done incidents (post-mortem ownership handoff).
func (i *Incident) Assign(assignee string) error {
	if assignee == "" {
		return ErrNoAssignee
	}
	i.Assignee = &assignee
	return nil
}
