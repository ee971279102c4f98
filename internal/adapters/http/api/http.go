// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/pitwall/internal/adapters/repository"
	service "github.com/okian/pitwall/internal/app"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/whatif"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	SessionDependencies
	ScenarioDependencies
}

// SessionDependencies covers analysis and session bookkeeping.
type SessionDependencies interface {
	Analyze(ctx context.Context, in service.SessionInput) (*repository.Session, error)
	Session(ctx context.Context, id string) (*repository.Session, error)
	Sessions(ctx context.Context) ([]repository.Summary, error)
	DeleteSession(ctx context.Context, id string) error
}

// ScenarioDependencies covers the counterfactual queries.
type ScenarioDependencies interface {
	WhatIf(ctx context.Context, id, label string, filter whatif.Filter) (service.Scenario, error)
	Compare(ctx context.Context, id, vehicleID string, filters map[string]whatif.Filter) (map[string]whatif.Projection, error)
	DriverPayload(ctx context.Context, id, vehicleID, label string, filter whatif.Filter) (whatif.Payload, error)
	RoleImpact(ctx context.Context, id string, role model.Role) (map[string]whatif.Payload, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionHandler  *SessionHandler
	scenarioHandler *ScenarioHandler
	maxBodyBytes    int64
}

// NewServer creates a new API server with all handlers. maxBodyBytes caps
// every request body; non-positive values disable the cap.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxBodyBytes int64) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionHandler:  NewSessionHandler(deps),
		scenarioHandler: NewScenarioHandler(deps),
		maxBodyBytes:    maxBodyBytes,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(BodyLimit(h, s.maxBodyBytes), endpoint))
	}

	handle("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	handle("GET /stats", "stats", s.statsHandler.HandleStats)

	handle("POST /sessions", "sessions", s.sessionHandler.HandleCreate)
	handle("GET /sessions", "sessions", s.sessionHandler.HandleList)
	handle("GET /sessions/{id}", "session", s.sessionHandler.HandleGet)
	handle("DELETE /sessions/{id}", "session", s.sessionHandler.HandleDelete)
	handle("GET /sessions/{id}/events", "events", s.sessionHandler.HandleEvents)

	handle("POST /sessions/{id}/whatif", "whatif", s.scenarioHandler.HandleWhatIf)
	handle("POST /sessions/{id}/compare", "compare", s.scenarioHandler.HandleCompare)
	handle("POST /sessions/{id}/payload", "payload", s.scenarioHandler.HandlePayload)
	handle("GET /sessions/{id}/roles/{role}", "roles", s.scenarioHandler.HandleRole)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service and domain errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, whatif.ErrVehicleNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return wrapKind(ErrBadRequest, err)
	}
	return nil
}
