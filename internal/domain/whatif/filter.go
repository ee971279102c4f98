package whatif

import "github.com/okian/pitwall/internal/domain/model"

// Filter selects the events a scenario pretends never happened.
//
// Explicit EventIDs take precedence. Otherwise every set criterion among
// VehicleID, Type and Role must match. All removes every event. A filter
// with no criteria removes nothing.
type Filter struct {
	EventIDs  []string        `json:"event_ids,omitempty"`
	VehicleID string          `json:"vehicle_id,omitempty"`
	Type      model.EventType `json:"event_type,omitempty"`
	Role      model.Role      `json:"role,omitempty"`
	All       bool            `json:"all,omitempty"`
}

// Empty reports whether the filter matches nothing.
func (f Filter) Empty() bool {
	return !f.All && len(f.EventIDs) == 0 && f.VehicleID == "" && f.Type == "" && f.Role == model.RoleNone
}

// Matcher compiles the filter into a predicate.
func (f Filter) Matcher() func(*model.Event) bool {
	switch {
	case f.All:
		return func(*model.Event) bool { return true }
	case len(f.EventIDs) > 0:
		ids := make(map[string]struct{}, len(f.EventIDs))
		for _, id := range f.EventIDs {
			ids[id] = struct{}{}
		}
		return func(e *model.Event) bool {
			_, ok := ids[e.ID]
			return ok
		}
	case f.Empty():
		return func(*model.Event) bool { return false }
	}
	return func(e *model.Event) bool {
		if f.VehicleID != "" && e.VehicleID != f.VehicleID {
			return false
		}
		if f.Type != "" && e.Type != f.Type {
			return false
		}
		if f.Role != model.RoleNone && e.Role != f.Role {
			return false
		}
		return true
	}
}

// Select returns the matching events in their original order.
func (f Filter) Select(events []model.Event) []model.Event {
	match := f.Matcher()
	var out []model.Event
	for i := range events {
		if match(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}
