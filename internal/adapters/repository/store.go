// Package repository keeps analysed sessions in memory for later what-if
// queries.
package repository

import (
	"context"
	"time"

	"github.com/okian/pitwall/internal/domain/detect"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/profile"
	"github.com/okian/pitwall/internal/domain/whatif"
)

// Session is one analysed race. A stored session is never modified; callers
// must treat every slice and map as read-only.
type Session struct {
	ID        string
	CreatedAt time.Time

	Laps     []model.LapRecord
	Totals   []model.VehicleTotal
	Official map[string]int

	// Events carry their catalog roles.
	Events     []model.Event
	KeyEvents  []model.Event
	Report     detect.Report
	Profiles   []profile.Profile
	Population profile.Population
	Base       whatif.Base
}

// Summary is the listing view of a session.
type Summary struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Vehicles  int       `json:"vehicles"`
	Laps      int       `json:"laps"`
	Events    int       `json:"events"`
}

// Summarize builds the listing view.
func (s *Session) Summarize() Summary {
	return Summary{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Vehicles:  len(s.Totals),
		Laps:      len(s.Laps),
		Events:    len(s.Events),
	}
}

// Store provides access to analysed sessions.
type Store interface {
	// Put stores a new session. Returns ErrDuplicateKey if the id exists.
	Put(ctx context.Context, s *Session) error

	// Get returns a session by id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id string) error

	// List returns summaries, newest first.
	List(ctx context.Context) []Summary

	// Count returns the number of sessions held.
	Count(ctx context.Context) int
}
