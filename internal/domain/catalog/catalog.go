// Package catalog picks the events that tell the story of a race and labels
// them with narrative roles.
package catalog

import (
	"sort"

	"github.com/okian/pitwall/internal/domain/model"
)

// Default selection sizes.
const (
	DefaultKeyEventLimit = 6
	DefaultMajorMistakes = 3
)

// Catalog is the labelled view of one session's events.
type Catalog struct {
	// Events is every detected event in detection order, with roles applied.
	Events []model.Event `json:"events"`
	// Key is the ranked selection, most significant first.
	Key []model.Event `json:"key_events"`
}

// Selector ranks events. The zero value is not usable; call New.
type Selector struct {
	limit  int
	majors int
}

// Option configures a Selector.
type Option func(*Selector)

// WithKeyEventLimit caps how many key events are selected.
func WithKeyEventLimit(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithMajorMistakes sets how many events after the turning point are
// labelled major mistakes.
func WithMajorMistakes(n int) Option {
	return func(s *Selector) {
		if n >= 0 {
			s.majors = n
		}
	}
}

// New creates a Selector with the default sizes.
func New(opts ...Option) *Selector {
	s := &Selector{limit: DefaultKeyEventLimit, majors: DefaultMajorMistakes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build ranks events by descending severity, then descending time loss,
// keeping detection order for ties. The first key event becomes the race
// turning point and the following ones major mistakes. Input events are
// never modified; the catalog holds copies.
func (s *Selector) Build(events []model.Event) Catalog {
	order := make([]int, len(events))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := &events[order[a]], &events[order[b]]
		if ea.Severity != eb.Severity {
			return ea.Severity > eb.Severity
		}
		return ea.TimeLoss > eb.TimeLoss
	})
	if len(order) > s.limit {
		order = order[:s.limit]
	}

	roles := make(map[int]model.Role, len(order))
	for rank, idx := range order {
		switch {
		case rank == 0:
			roles[idx] = model.RoleTurningPoint
		case rank <= s.majors:
			roles[idx] = model.RoleMajorMistake
		}
	}

	out := Catalog{
		Events: make([]model.Event, len(events)),
		Key:    make([]model.Event, 0, len(order)),
	}
	for i := range events {
		out.Events[i] = events[i].WithRole(roles[i])
	}
	for _, idx := range order {
		out.Key = append(out.Key, out.Events[idx])
	}
	return out
}

// Roles counts events per role.
func (c Catalog) Roles() map[model.Role]int {
	out := make(map[model.Role]int)
	for i := range c.Events {
		if r := c.Events[i].Role; r != model.RoleNone {
			out[r]++
		}
	}
	return out
}
