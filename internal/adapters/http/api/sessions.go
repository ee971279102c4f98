package api

import (
	"net/http"
	"time"

	"github.com/okian/pitwall/internal/adapters/repository"
	service "github.com/okian/pitwall/internal/app"
	"github.com/okian/pitwall/internal/domain/detect"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/profile"
	"github.com/okian/pitwall/internal/domain/whatif"
)

// sessionResponse is the full analysis of one session.
type sessionResponse struct {
	ID         string               `json:"session_id"`
	CreatedAt  time.Time            `json:"created_at"`
	Totals     []model.VehicleTotal `json:"totals"`
	Events     []model.Event        `json:"events"`
	KeyEvents  []model.Event        `json:"key_events"`
	Report     detect.Report        `json:"report"`
	Profiles   []profile.Profile    `json:"profiles"`
	Population profile.Population   `json:"population"`
	Base       whatif.Base          `json:"base"`
	Official   map[string]int       `json:"official_positions,omitempty"`
	Summary    repository.Summary   `json:"summary"`
}

func newSessionResponse(s *repository.Session) sessionResponse {
	return sessionResponse{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		Totals:     s.Totals,
		Events:     nonNil(s.Events),
		KeyEvents:  nonNil(s.KeyEvents),
		Report:     s.Report,
		Profiles:   s.Profiles,
		Population: s.Population,
		Base:       s.Base,
		Official:   s.Official,
		Summary:    s.Summarize(),
	}
}

type eventsResponse struct {
	SessionID string        `json:"session_id"`
	Count     int           `json:"count"`
	Events    []model.Event `json:"events"`
}

// SessionHandler serves analysis and session lookups.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleCreate handles POST /sessions.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.SessionInput
	if err := decode(r, &in); err != nil {
		writeServiceError(w, err)
		return
	}
	if len(in.Laps) == 0 && len(in.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(ErrBadRequest, errNoData))
		return
	}
	sess, err := h.deps.Analyze(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

// HandleList handles GET /sessions.
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Sessions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []repository.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEvents handles GET /sessions/{id}/events. The vehicle_id,
// event_type and role query parameters narrow the list; key=true returns
// only the key events.
func (h *SessionHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	q := r.URL.Query()
	events := sess.Events
	if q.Get("key") == "true" {
		events = sess.KeyEvents
	}
	filter := whatif.Filter{
		VehicleID: q.Get("vehicle_id"),
		Type:      model.EventType(q.Get("event_type")),
	}
	if raw := q.Get("role"); raw != "" {
		role, err := parseRole(raw)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		filter.Role = role
	}
	if filter.Type != "" && !filter.Type.Valid() {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(ErrBadRequest, errUnknownType(filter.Type)))
		return
	}
	if !filter.Empty() {
		events = filter.Select(events)
	}

	events = nonNil(events)
	writeJSON(w, http.StatusOK, eventsResponse{SessionID: sess.ID, Count: len(events), Events: events})
}

func nonNil(events []model.Event) []model.Event {
	if events == nil {
		return []model.Event{}
	}
	return events
}
