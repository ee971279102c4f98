package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Stats summarises one run.
type Stats struct {
	RaceID    string
	SessionID string
	Vehicles  int
	Laps      int
	Samples   int
	Incidents int
	Events    int
	ByType    map[model.EventType]int
	Duration  time.Duration
}

// Run generates a race, analyses it and checks that every injected
// incident was detected.
func Run(ctx context.Context, cfg Config, analyzer Analyzer) (*Stats, error) {
	log := logger.Get().Named("synth")
	start := time.Now()

	race, err := Generate(cfg)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	log.Info(ctx, "generated race",
		logger.String("raceID", race.ID),
		logger.Int("vehicles", cfg.Vehicles),
		logger.Int("laps", len(race.Laps)),
		logger.Int("samples", len(race.Samples)),
		logger.Int("incidents", len(race.Incidents)),
	)

	if cfg.OutputFile != "" {
		if err := SaveRace(race, cfg.OutputFile); err != nil {
			log.Warn(ctx, "failed to save race", logger.Error(err))
		} else {
			log.Info(ctx, "race saved", logger.String("file", cfg.OutputFile))
		}
	}

	out, err := analyzer.Analyze(ctx, race)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		RaceID:    race.ID,
		SessionID: out.SessionID,
		Vehicles:  cfg.Vehicles,
		Laps:      len(race.Laps),
		Samples:   len(race.Samples),
		Incidents: len(race.Incidents),
		Events:    len(out.Events),
		ByType:    make(map[model.EventType]int),
	}
	for i := range out.Events {
		e := &out.Events[i]
		stats.ByType[e.Type]++
		if cfg.Verbose {
			log.Info(ctx, "event",
				logger.String("id", e.ID),
				logger.String("type", string(e.Type)),
				logger.Float64("severity", e.Severity),
				logger.Float64("timeLoss", e.TimeLoss),
				logger.String("role", string(e.Role)),
			)
		}
	}
	stats.Duration = time.Since(start)

	if err := Verify(race, out.Events); err != nil {
		return stats, err
	}

	log.Info(ctx, "all incidents detected",
		logger.String("sessionID", stats.SessionID),
		logger.Int("events", stats.Events),
		logger.Int("keyEvents", len(out.KeyEvents)),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// SaveRace writes race as indented JSON to filename.
func SaveRace(race *Race, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(race, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal race: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("write race: %w", err)
	}
	return nil
}
