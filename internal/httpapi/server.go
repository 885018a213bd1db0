package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/monitor247/internal/domain"
	"github.com/hamed0406/monitor247/internal/hub"
	apimw "github.com/hamed0406/monitor247/internal/httpapi/middleware"
	"github.com/hamed0406/monitor247/internal/store"
)

type Server struct {
	Logger *zap.Logger
	Store  store.Store
	Hub    *hub.Hub
}

func NewServer(l *zap.Logger, st store.Store, h *hub.Hub) *Server {
	return &Server{Logger: l, Store: st, Hub: h}
}

func (s *Server) Router(keys apimw.Keys, publicRPM, publicBurst, adminRPM, adminBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// reads + stream: any key
	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(publicRPM, publicBurst))
		r.Use(apimw.RequireAny(keys))
		r.Get("/stream", s.handleStream)
		r.Get("/incidents", s.handleListIncidents)
		r.Get("/checks", s.handleListChecks)
	})

	// mutations: admin key
	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(adminRPM, adminBurst))
		r.Use(apimw.RequireAdmin(keys))
		r.Post("/incidents", s.handleCreateIncident)
		r.Patch("/incidents/{id}", s.handleUpdateIncident)
	})

	return r
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Store.Load(r.Context())
	if err != nil {
		s.Logger.Error("list_incidents_load", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load error")
		return
	}

	status := r.URL.Query().Get("status")
	items := make([]domain.Incident, 0, len(snap.Incidents))
	for _, inc := range snap.Incidents {
		if status != "" && string(inc.Status) != status {
			continue
		}
		items = append(items, inc)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})

	writeJSON(w, http.StatusOK, items)
}

type createIncidentPayload struct {
	Title  string          `json:"title"`
	Sev    domain.Severity `json:"sev"`
	Source domain.Source   `json:"source"`
	SLAMin int             `json:"slaMin"`
	Data   map[string]any  `json:"data"`
}

func (s *Server) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	var p createIncidentPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if p.Title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}
	if p.Sev == "" {
		p.Sev = domain.SevMedium
	}
	if !domain.ValidSeverity(p.Sev) {
		writeError(w, http.StatusBadRequest, "invalid sev")
		return
	}
	if p.Source == "" {
		p.Source = domain.SourceManual
	}
	if !domain.ValidSource(p.Source) {
		writeError(w, http.StatusBadRequest, "invalid source")
		return
	}
	if p.SLAMin <= 0 {
		p.SLAMin = 30
	}

	var created domain.Incident
	_, err := s.Store.Mutate(r.Context(), func(snap *domain.Snapshot) error {
		created = domain.NewIncident(p.Title, p.Sev, p.Source, p.SLAMin, p.Data, domain.NowMillis())
		snap.Incidents = append(snap.Incidents, created)
		return nil
	})
	if err != nil {
		s.Logger.Error("create_incident_store", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save")
		return
	}

	s.Hub.Publish(hub.EventIncidentCreated, created)
	s.Logger.Info("incident_created",
		zap.String("incident_id", created.ID),
		zap.String("sev", string(created.Sev)),
		zap.String("source", string(created.Source)),
	)
	writeJSON(w, http.StatusOK, created)
}

type updateIncidentPayload struct {
	Action   string `json:"action"`
	Assignee string `json:"assignee"`
}

func (s *Server) handleUpdateIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p updateIncidentPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	switch p.Action {
	case "ack", "resolve", "assign":
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	var updated domain.Incident
	_, err := s.Store.Mutate(r.Context(), func(snap *domain.Snapshot) error {
		inc := snap.FindIncident(id)
		if inc == nil {
			return store.ErrNotFound
		}
		now := domain.NowMillis()
		var terr error
		switch p.Action {
		case "ack":
			terr = inc.Ack(p.Assignee, now)
		case "resolve":
			terr = inc.Resolve(now)
		case "assign":
			terr = inc.Assign(p.Assignee)
		}
		if terr != nil {
			return terr
		}
		updated = *inc
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, domain.ErrNotOpen), errors.Is(err, domain.ErrAlreadyResolved):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrNoAssignee):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.Logger.Error("update_incident_store", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not save")
		}
		return
	}

	s.Hub.Publish(hub.EventIncidentUpdated, updated)
	s.Logger.Info("incident_updated",
		zap.String("incident_id", updated.ID),
		zap.String("action", p.Action),
		zap.String("status", string(updated.Status)),
	)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Store.Load(r.Context())
	if err != nil {
		s.Logger.Error("list_checks_load", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load error")
		return
	}
	if snap.Checks == nil {
		snap.Checks = []domain.Check{}
	}
	writeJSON(w, http.StatusOK, snap.Checks)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
