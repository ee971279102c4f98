// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	repository "github.com/okian/pitwall/internal/adapters/repository"
	workerpool "github.com/okian/pitwall/internal/adapters/worker"
	"github.com/okian/pitwall/internal/domain/catalog"
	"github.com/okian/pitwall/internal/domain/detect"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/profile"
	"github.com/okian/pitwall/internal/domain/signal"
	"github.com/okian/pitwall/internal/domain/whatif"
	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
)

// SessionInput is the raw data of one race.
type SessionInput struct {
	Laps     []model.LapRecord       `json:"laps"`
	Samples  []model.TelemetrySample `json:"samples"`
	Official map[string]int          `json:"official_positions"`
}

// Scenario is the outcome of one what-if run.
type Scenario struct {
	Label   string                 `json:"label"`
	Filter  whatif.Filter          `json:"filter"`
	Removed int                    `json:"removed_events"`
	Results []model.ScenarioResult `json:"results"`
}

// Service implements the API dependencies for race analysis.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions repository.Store
	pool     *workerpool.Pool
	detector *detect.Detector
	selector *catalog.Selector

	// Configuration
	workerCount         int
	maxSessions         int
	keyEventLimit       int
	majorMistakes       int
	formationLapSeconds float64
	thresholds          detect.Thresholds

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets how many vehicles are analysed concurrently.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMaxSessions caps the number of stored sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithKeyEvents sets the key event limit and the major mistake count.
func WithKeyEvents(limit, majors int) Option {
	return func(s *Service) {
		if limit > 0 && majors >= 0 {
			s.keyEventLimit = limit
			s.majorMistakes = majors
		}
	}
}

// WithFormationLapSeconds sets the lap time above which laps are excluded
// from driver profiles.
func WithFormationLapSeconds(secs float64) Option {
	return func(s *Service) {
		if secs > 0 {
			s.formationLapSeconds = secs
		}
	}
}

// WithThresholds sets the detection thresholds.
func WithThresholds(th detect.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = th
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:         runtime.NumCPU() * 2,
		maxSessions:         64,
		keyEventLimit:       catalog.DefaultKeyEventLimit,
		majorMistakes:       catalog.DefaultMajorMistakes,
		formationLapSeconds: profile.DefaultFormationLapSeconds,
		thresholds:          detect.DefaultThresholds(),
		logger:              nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting analysis service...")

	s.sessions = repository.NewMemoryStore(repository.WithMaxSessions(s.maxSessions))
	s.pool = workerpool.NewPool(
		workerpool.WithWorkers(s.workerCount),
		workerpool.WithName("detect"),
		workerpool.WithLogger(s.logger.Named("pool")),
	)
	s.detector = detect.New(
		detect.WithThresholds(s.thresholds),
		detect.WithRunner(s.pool),
	)
	s.selector = catalog.New(
		catalog.WithKeyEventLimit(s.keyEventLimit),
		catalog.WithMajorMistakes(s.majorMistakes),
	)

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("maxSessions", s.maxSessions),
		logger.Int("keyEventLimit", s.keyEventLimit),
	)
	return nil
}

// Stop marks the service stopped. Stored sessions are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.sessions = nil
	metrics.UpdateSessionsStored(0)
	s.logger.Info(context.Background(), "analysis service stopped")
}

// components returns the running components or ErrNotStarted.
func (s *Service) components() (repository.Store, *detect.Detector, *catalog.Selector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.sessions, s.detector, s.selector, nil
}

// Analyze runs detection, cataloguing and profiling over one race and
// stores the result under a new session id. When no lap records are given
// they are derived from the samples.
func (s *Service) Analyze(ctx context.Context, in SessionInput) (*repository.Session, error) {
	store, detector, selector, err := s.components()
	if err != nil {
		return nil, err
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	laps := in.Laps
	if len(laps) == 0 && len(in.Samples) > 0 {
		laps = lapsFromSamples(in.Samples)
		s.logger.Debug(ctx, "derived laps from samples", logger.Int("laps", len(laps)))
	}

	start := time.Now()
	res, err := detector.Detect(ctx, detect.Input{Laps: laps, Samples: in.Samples})
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	elapsed := time.Since(start)
	recordDetection(res.Report, elapsed)

	cat := selector.Build(res.Events)
	totals := whatif.Totals(laps)
	profiles, pop := profile.Build(laps, in.Samples, s.formationLapSeconds)

	sess := &repository.Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Laps:       laps,
		Totals:     totals,
		Official:   in.Official,
		Events:     cat.Events,
		KeyEvents:  cat.Key,
		Report:     res.Report,
		Profiles:   profiles,
		Population: pop,
		Base:       whatif.NewBase(totals, cat.Events),
	}
	if err := store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.logger.Info(ctx, "session analysed",
		logger.String("sessionID", sess.ID),
		logger.Int("vehicles", res.Report.Vehicles),
		logger.Int("laps", res.Report.LapsEvaluated),
		logger.Int("samples", res.Report.SamplesEvaluated),
		logger.Int("events", len(cat.Events)),
		logger.Duration("elapsed", elapsed),
	)
	return sess, nil
}

// Session returns a stored session.
func (s *Service) Session(ctx context.Context, id string) (*repository.Session, error) {
	store, _, _, err := s.components()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// Sessions lists stored sessions, newest first.
func (s *Service) Sessions(ctx context.Context) ([]repository.Summary, error) {
	store, _, _, err := s.components()
	if err != nil {
		return nil, err
	}
	return store.List(ctx), nil
}

// DeleteSession removes a stored session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	store, _, _, err := s.components()
	if err != nil {
		return err
	}
	return store.Delete(ctx, id)
}

// WhatIf simulates the session with the events matching filter removed.
func (s *Service) WhatIf(ctx context.Context, id, label string, filter whatif.Filter) (Scenario, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return Scenario{}, err
	}
	if label == "" {
		label = "scenario"
	}
	return s.simulate(ctx, sess, label, filter), nil
}

// Compare runs every labelled filter against the session and projects the
// results onto one vehicle. Scenarios run concurrently on the worker pool.
func (s *Service) Compare(ctx context.Context, id, vehicleID string, filters map[string]whatif.Filter) (map[string]whatif.Projection, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(filters))
	for label := range filters {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	s.mu.RLock()
	pool := s.pool
	s.mu.RUnlock()

	runs, err := workerpool.Map(ctx, pool, labels, func(ctx context.Context, label string) (Scenario, error) {
		return s.simulate(ctx, sess, label, filters[label]), nil
	})
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	byLabel := make(map[string][]model.ScenarioResult, len(runs))
	for _, r := range runs {
		byLabel[r.Label] = r.Results
	}
	return whatif.Compare(byLabel, vehicleID), nil
}

// DriverPayload builds the report view of one scenario for one vehicle.
func (s *Service) DriverPayload(ctx context.Context, id, vehicleID, label string, filter whatif.Filter) (whatif.Payload, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return whatif.Payload{}, err
	}
	baseline := whatif.Simulate(sess.Totals, sess.Events, whatif.Filter{}, sess.Official)
	sc := s.simulate(ctx, sess, label, filter)
	return whatif.BuildPayload(label, vehicleID, baseline, sc.Results)
}

// RoleImpact removes every event with role and reports each affected
// vehicle's gain.
func (s *Service) RoleImpact(ctx context.Context, id string, role model.Role) (map[string]whatif.Payload, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out := whatif.SimulateByRole(sess.Totals, sess.Events, sess.Official, role)
	metrics.RecordSimulation("role", float64(time.Since(start).Milliseconds()), len(sess.Totals))
	return out, nil
}

func (s *Service) simulate(ctx context.Context, sess *repository.Session, label string, filter whatif.Filter) Scenario {
	start := time.Now()
	results := whatif.Simulate(sess.Totals, sess.Events, filter, sess.Official)
	removed := len(filter.Select(sess.Events))
	metrics.RecordSimulation(simulationKind(filter), float64(time.Since(start).Milliseconds()), len(results))

	s.logger.Debug(ctx, "scenario simulated",
		logger.String("sessionID", sess.ID),
		logger.String("label", label),
		logger.Int("removed", removed),
	)
	return Scenario{Label: label, Filter: filter, Removed: removed, Results: results}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"maxSessions":   s.maxSessions,
		"keyEventLimit": s.keyEventLimit,
	}
	if s.started {
		stats["sessions"] = s.sessions.Count(context.Background())
	}
	return stats
}

func validateInput(in *SessionInput) error {
	for i := range in.Laps {
		if in.Laps[i].VehicleID == "" {
			return fmt.Errorf("%w: lap %d has no vehicle_id", ErrInvalidInput, i)
		}
	}
	for i := range in.Samples {
		if in.Samples[i].VehicleID == "" {
			return fmt.Errorf("%w: sample %d has no vehicle_id", ErrInvalidInput, i)
		}
	}
	for v, pos := range in.Official {
		if pos < 1 {
			return fmt.Errorf("%w: official position of %s must be positive", ErrInvalidInput, v)
		}
	}
	return nil
}

func lapsFromSamples(samples []model.TelemetrySample) []model.LapRecord {
	var laps []model.LapRecord
	for _, v := range signal.PartitionSamples(samples) {
		for _, l := range v.Laps {
			if rec, ok := signal.SummarizeLap(v.VehicleID, l.Lap, l.Samples); ok {
				laps = append(laps, rec)
			}
		}
	}
	return laps
}

func recordDetection(rep detect.Report, elapsed time.Duration) {
	metrics.RecordSessionAnalyzed()
	metrics.RecordLapsEvaluated(rep.LapsEvaluated)
	metrics.RecordSamplesEvaluated(rep.SamplesEvaluated)
	metrics.RecordDetectionDuration(float64(elapsed.Milliseconds()))
	for typ, n := range rep.Events {
		metrics.RecordEventsDetected(string(typ), n)
	}
	for reason, n := range rep.Skipped {
		metrics.RecordRulesSkipped(string(reason), n)
	}
}

func simulationKind(f whatif.Filter) string {
	switch {
	case f.All:
		return "all"
	case len(f.EventIDs) > 0:
		return "event_ids"
	case f.Empty():
		return "baseline"
	default:
		return "criteria"
	}
}
