package main

import (
	"context"
	"flag"
	"os"
	"time"

	app "github.com/okian/pitwall/internal/app"
	"github.com/okian/pitwall/internal/synth"
	"github.com/okian/pitwall/pkg/logger"
)

const defaultRunTimeout = 5 * time.Minute

func main() {
	defaults := synth.DefaultConfig()
	var (
		baseURL    = flag.String("url", "", "Service to post the race to (default: analyse in process)")
		vehicles   = flag.Int("vehicles", defaults.Vehicles, "Number of cars")
		laps       = flag.Int("laps", defaults.Laps, "Laps per car")
		rate       = flag.Int("rate", defaults.SampleRate, "Telemetry samples per second")
		segment    = flag.Int("segment", defaults.SegmentSeconds, "Seconds of telemetry per lap")
		lapSeconds = flag.Float64("lap-seconds", defaults.LapSeconds, "Nominal lap time")
		seed       = flag.Int64("seed", defaults.Seed, "Random seed")
		clean      = flag.Bool("clean", false, "Generate without incidents")
		timeout    = flag.Duration("timeout", defaults.Timeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write the generated race to this JSON file")
		verbose    = flag.Bool("verbose", false, "Log every detected event")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		synth.ShowHelp()
		return
	}

	if err := logger.Init(logger.WithFormat("text")); err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := synth.Config{
		BaseURL:        *baseURL,
		Vehicles:       *vehicles,
		Laps:           *laps,
		SampleRate:     *rate,
		SegmentSeconds: *segment,
		LapSeconds:     *lapSeconds,
		Seed:           *seed,
		Incidents:      !*clean,
		Timeout:        *timeout,
		OutputFile:     *outputFile,
		Verbose:        *verbose,
	}

	analyzer, stop, err := newAnalyzer(ctx, &cfg)
	if err != nil {
		_, _ = os.Stderr.WriteString("setup failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer stop()

	if _, err := synth.Run(ctx, cfg, analyzer); err != nil {
		_, _ = os.Stderr.WriteString("synthetic race failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// newAnalyzer talks to a running service when a URL is given and to an
// in-process one otherwise.
func newAnalyzer(ctx context.Context, cfg *synth.Config) (synth.Analyzer, func(), error) {
	if cfg.BaseURL != "" {
		a := synth.NewHTTPAnalyzer(cfg.BaseURL, cfg.Timeout)
		if err := a.CheckHealth(ctx); err != nil {
			return nil, nil, err
		}
		return a, func() {}, nil
	}

	svc := app.New()
	if err := svc.Start(ctx); err != nil {
		return nil, nil, err
	}
	return synth.NewLocalAnalyzer(svc), svc.Stop, nil
}
