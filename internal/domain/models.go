package domain

import "time"

type Severity string

const (
	SevCritical Severity = "critical"
	SevHigh     Severity = "high"
	SevMedium   Severity = "medium"
	SevLow      Severity = "low"
)

func ValidSeverity(s Severity) bool {
	switch s {
	case SevCritical, SevHigh, SevMedium, SevLow:
		return true
	}
	return false
}

type IncidentStatus string

const (
	StatusOpen IncidentStatus = "open"
	StatusWIP  IncidentStatus = "wip"
	StatusDone IncidentStatus = "done"
)

type Source string

const (
	SourceManual Source = "manual"
	SourceCheck  Source = "check"
)

func ValidSource(s Source) bool {
	return s == SourceManual || s == SourceCheck
}

type CheckStatus string

const (
	CheckUnknown CheckStatus = "unknown"
	CheckUp      CheckStatus = "up"
	CheckDown    CheckStatus = "down"
)

// All timestamps are epoch milliseconds; the dashboard feeds them straight
// into new Date(...). Nullable ones are pointers so they serialize as null.

type Incident struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Sev            Severity       `json:"sev"`
	Source         Source         `json:"source"`
	Data           map[string]any `json:"data"`
	Status         IncidentStatus `json:"status"`
	CreatedAt      int64          `json:"createdAt"`
	AcknowledgedAt *int64         `json:"acknowledgedAt"`
	ResolvedAt     *int64         `json:"resolvedAt"`
	Assignee       *string        `json:"assignee"`
	SLAMin         int            `json:"slaMin"`
}

type Check struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Type           string      `json:"type"` // only "http" for now
	URL            string      `json:"url"`
	FreqSec        int         `json:"freqSec"`
	LastStatus     CheckStatus `json:"lastStatus"`
	LastRun        int64       `json:"lastRun"`
	OpenIncidentID *string     `json:"openIncidentId"`
	SLAMin         int         `json:"slaMin"`
	Sev            Severity    `json:"sev"`
}

type OnCall struct {
	Name  string `json:"name"`
	Until int64  `json:"until"`
}

// Snapshot is the whole persisted state. The store hands out copies; nobody
// holds a reference into store-owned memory across calls.
type Snapshot struct {
	Incidents []Incident `json:"incidents"`
	Checks    []Check    `json:"checks"`
	OnCall    OnCall     `json:"oncall"`
}

func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Incidents: make([]Incident, len(s.Incidents)),
		Checks:    make([]Check, len(s.Checks)),
		OnCall:    s.OnCall,
	}
	for i := range s.Incidents {
		out.Incidents[i] = s.Incidents[i].clone()
	}
	for i := range s.Checks {
		out.Checks[i] = s.Checks[i].clone()
	}
	return out
}

func (i Incident) clone() Incident {
	c := i
	c.AcknowledgedAt = cloneInt64(i.AcknowledgedAt)
	c.ResolvedAt = cloneInt64(i.ResolvedAt)
	c.Assignee = cloneString(i.Assignee)
	if i.Data != nil {
		c.Data = make(map[string]any, len(i.Data))
		for k, v := range i.Data {
			c.Data[k] = v
		}
	}
	return c
}

func (c Check) clone() Check {
	cp := c
	cp.OpenIncidentID = cloneString(c.OpenIncidentID)
	return cp
}

// FindIncident returns a pointer into the snapshot's slice, or nil.
func (s *Snapshot) FindIncident(id string) *Incident {
	for i := range s.Incidents {
		if s.Incidents[i].ID == id {
			return &s.Incidents[i]
		}
	}
	return nil
}

// FindCheck returns a pointer into the snapshot's slice, or nil.
func (s *Snapshot) FindCheck(id string) *Check {
	for i := range s.Checks {
		if s.Checks[i].ID == id {
			return &s.Checks[i]
		}
	}
	return nil
}

func NowMillis() int64 { return time.Now().UnixMilli() }

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
