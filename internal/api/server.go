package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"incident-assignment/internal/assignment"
	"incident-assignment/internal/models"
	"incident-assignment/internal/store"
)

// MemberStore is the roster surface the API needs.
type MemberStore interface {
	UpsertMember(ctx context.Context, m *models.Member) error
	ListMembers(ctx context.Context, groupSysID string) ([]*models.Member, error)
	DeactivateMember(ctx context.Context, groupSysID, memberSysID, updatedBy string) error
	RecentAssignments(ctx context.Context, memberSysID string, window time.Duration) ([]*models.AssignmentHistory, error)
	Ping(ctx context.Context) error
}

// Assigner makes on-demand assignment decisions.
type Assigner interface {
	Assign(ctx context.Context, incident *models.Incident) (*assignment.Decision, error)
}

// Server exposes roster management, history queries, and on-demand
// assignment over HTTP.
type Server struct {
	store    MemberStore
	assigner Assigner
	logger   *slog.Logger
	registry *prometheus.Registry
}

func NewServer(st MemberStore, assigner Assigner, logger *slog.Logger, registry *prometheus.Registry) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, assigner: assigner, logger: logger, registry: registry}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/members", s.handleCreateMember)
		r.Put("/members", s.handleUpdateMember)
		r.Get("/members", s.handleListMembers)
		r.Delete("/members", s.handleDeactivateMember)
		r.Get("/history", s.handleHistory)
		r.Post("/assign", s.handleAssign)
	})
	r.Get("/healthz", s.handleHealth)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUniquenessViolation):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "member already exists in this group"})
	case errors.Is(err, store.ErrInvalidWeight):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "weight_modifier must be positive"})
	case errors.Is(err, store.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "member not found"})
	default:
		s.logger.Error("request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) decodeMember(w http.ResponseWriter, r *http.Request) (*models.Member, bool) {
	var m models.Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return nil, false
	}
	if m.GroupSysID == "" || m.Name == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "assignment_group_sys_id and member_name are required"})
		return nil, false
	}
	if m.LastManualUpdateBy == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "last_manual_update_by is required"})
		return nil, false
	}
	return &m, true
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	m, ok := s.decodeMember(w, r)
	if !ok {
		return
	}
	m.ID = 0
	if m.MemberSysID == "" {
		m.MemberSysID = uuid.NewString()
	}
	if m.Role == "" {
		m.Role = models.DefaultRole
	}
	if err := s.store.UpsertMember(r.Context(), m); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	m, ok := s.decodeMember(w, r)
	if !ok {
		return
	}
	if m.ID == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id is required for updates"})
		return
	}
	if err := s.store.UpsertMember(r.Context(), m); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	if group == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "group query parameter is required"})
		return
	}
	members, err := s.store.ListMembers(r.Context(), group)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if members == nil {
		members = []*models.Member{}
	}
	s.writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleDeactivateMember(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	group, member, updatedBy := q.Get("group"), q.Get("member"), q.Get("updated_by")
	if group == "" || member == "" || updatedBy == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "group, member, and updated_by query parameters are required"})
		return
	}
	if err := s.store.DeactivateMember(r.Context(), group, member, updatedBy); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	member := q.Get("member")
	if member == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "member query parameter is required"})
		return
	}
	window := 30 * 24 * time.Hour
	if raw := q.Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "window must be a positive duration such as 168h"})
			return
		}
		window = parsed
	}
	history, err := s.store.RecentAssignments(r.Context(), member, window)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if history == nil {
		history = []*models.AssignmentHistory{}
	}
	s.writeJSON(w, http.StatusOK, history)
}

type assignResponse struct {
	Success   bool                      `json:"success"`
	Member    *models.Member            `json:"member,omitempty"`
	HistoryID int64                     `json:"history_id,omitempty"`
	Snapshot  *models.AlgorithmSnapshot `json:"snapshot,omitempty"`
	Reason    string                    `json:"reason,omitempty"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var inc models.Incident
	if err := json.NewDecoder(r.Body).Decode(&inc); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if inc.GroupSysID == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "assignment_group_sys_id is required"})
		return
	}

	decision, err := s.assigner.Assign(r.Context(), &inc)
	if errors.Is(err, assignment.ErrNoEligibleMember) {
		// A recorded no-eligible outcome is a normal result, not a failure.
		s.writeJSON(w, http.StatusOK, assignResponse{
			Success: false,
			Reason:  "no eligible member on shift",
		})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, assignResponse{
		Success:   true,
		Member:    decision.Member,
		HistoryID: decision.HistoryID,
		Snapshot:  decision.Snapshot,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
