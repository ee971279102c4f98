package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/whatif"
)

// whatIfRequest is the body of POST /sessions/{id}/whatif.
type whatIfRequest struct {
	Label  string        `json:"label"`
	Filter whatif.Filter `json:"filter"`
}

func (r *whatIfRequest) validate() error {
	for _, id := range r.Filter.EventIDs {
		if strings.TrimSpace(id) == "" {
			return errors.New("empty event id in filter")
		}
	}
	if r.Filter.Type != "" && !r.Filter.Type.Valid() {
		return errUnknownType(r.Filter.Type)
	}
	if r.Filter.Role != model.RoleNone {
		if _, err := parseRole(string(r.Filter.Role)); err != nil {
			return err
		}
	}
	return nil
}

// compareRequest is the body of POST /sessions/{id}/compare.
type compareRequest struct {
	VehicleID string                   `json:"vehicle_id"`
	Scenarios map[string]whatif.Filter `json:"scenarios"`
}

func (r *compareRequest) validate() error {
	if strings.TrimSpace(r.VehicleID) == "" {
		return errors.New("missing vehicle_id")
	}
	if len(r.Scenarios) == 0 {
		return errors.New("missing scenarios")
	}
	for label, f := range r.Scenarios {
		req := whatIfRequest{Label: label, Filter: f}
		if err := req.validate(); err != nil {
			return fmt.Errorf("scenario %q: %w", label, err)
		}
	}
	return nil
}

// payloadRequest is the body of POST /sessions/{id}/payload.
type payloadRequest struct {
	VehicleID string        `json:"vehicle_id"`
	Label     string        `json:"label"`
	Filter    whatif.Filter `json:"filter"`
}

type compareResponse struct {
	VehicleID   string                       `json:"vehicle_id"`
	Projections map[string]whatif.Projection `json:"projections"`
}

// ScenarioHandler serves what-if simulations.
type ScenarioHandler struct {
	deps ScenarioDependencies
}

// NewScenarioHandler creates a new scenario handler.
func NewScenarioHandler(deps ScenarioDependencies) *ScenarioHandler {
	return &ScenarioHandler{deps: deps}
}

// HandleWhatIf handles POST /sessions/{id}/whatif.
func (h *ScenarioHandler) HandleWhatIf(w http.ResponseWriter, r *http.Request) {
	var req whatIfRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeServiceError(w, wrapKind(ErrBadRequest, err))
		return
	}
	sc, err := h.deps.WhatIf(r.Context(), r.PathValue("id"), req.Label, req.Filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// HandleCompare handles POST /sessions/{id}/compare.
func (h *ScenarioHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeServiceError(w, wrapKind(ErrBadRequest, err))
		return
	}
	out, err := h.deps.Compare(r.Context(), r.PathValue("id"), req.VehicleID, req.Scenarios)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{VehicleID: req.VehicleID, Projections: out})
}

// HandlePayload handles POST /sessions/{id}/payload.
func (h *ScenarioHandler) HandlePayload(w http.ResponseWriter, r *http.Request) {
	var req payloadRequest
	if err := decode(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if strings.TrimSpace(req.VehicleID) == "" {
		writeServiceError(w, wrapKind(ErrBadRequest, errors.New("missing vehicle_id")))
		return
	}
	check := whatIfRequest{Label: req.Label, Filter: req.Filter}
	if err := check.validate(); err != nil {
		writeServiceError(w, wrapKind(ErrBadRequest, err))
		return
	}
	p, err := h.deps.DriverPayload(r.Context(), r.PathValue("id"), req.VehicleID, req.Label, req.Filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleRole handles GET /sessions/{id}/roles/{role}.
func (h *ScenarioHandler) HandleRole(w http.ResponseWriter, r *http.Request) {
	role, err := parseRole(r.PathValue("role"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.RoleImpact(r.Context(), r.PathValue("id"), role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func parseRole(raw string) (model.Role, error) {
	switch role := model.Role(raw); role {
	case model.RoleTurningPoint, model.RoleMajorMistake:
		return role, nil
	default:
		return model.RoleNone, fmt.Errorf("%w: %w %q", ErrBadRequest, ErrUnknownRole, raw)
	}
}
