package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/pitwall/internal/app"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/pkg/logger"
)

// Outcome is what an analysis returned for a race.
type Outcome struct {
	SessionID string        `json:"session_id"`
	Events    []model.Event `json:"events"`
	KeyEvents []model.Event `json:"key_events"`
}

// Analyzer runs a generated race through detection.
type Analyzer interface {
	Analyze(ctx context.Context, race *Race) (*Outcome, error)
}

// HTTPAnalyzer posts races to a running service.
type HTTPAnalyzer struct {
	client  *http.Client
	baseURL string
}

// NewHTTPAnalyzer creates an analyzer for the service at baseURL.
func NewHTTPAnalyzer(baseURL string, timeout time.Duration) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// CheckHealth verifies the service is running.
func (a *HTTPAnalyzer) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer closeBody(ctx, resp)

	// Any 200 is healthy; the body is Prometheus metrics.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check status %d", ErrUnexpected, resp.StatusCode)
	}
	return nil
}

// Analyze posts the race to /sessions.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, race *Race) (*Outcome, error) {
	body, err := json.Marshal(sessionInput(race))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post session: %w", err)
	}
	defer closeBody(ctx, resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnexpected, resp.StatusCode, bytes.TrimSpace(data))
	}

	var out Outcome
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// LocalAnalyzer runs races through an in-process service.
type LocalAnalyzer struct {
	svc *service.Service
}

// NewLocalAnalyzer wraps a started service.
func NewLocalAnalyzer(svc *service.Service) *LocalAnalyzer {
	return &LocalAnalyzer{svc: svc}
}

// Analyze runs the race through the service.
func (a *LocalAnalyzer) Analyze(ctx context.Context, race *Race) (*Outcome, error) {
	sess, err := a.svc.Analyze(ctx, sessionInput(race))
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return &Outcome{SessionID: sess.ID, Events: sess.Events, KeyEvents: sess.KeyEvents}, nil
}

func sessionInput(race *Race) service.SessionInput {
	return service.SessionInput{Laps: race.Laps, Samples: race.Samples, Official: race.Official}
}

func closeBody(ctx context.Context, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logger.Get().Error(ctx, "failed to close response body", logger.Error(err))
	}
}
