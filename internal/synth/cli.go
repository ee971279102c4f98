package synth

import "os"

// ShowHelp prints usage information for the synth tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`pitwall synthetic race
======================

Generates a reproducible race with injected driving incidents, analyses it
and checks that every incident is reported.

Usage:
  go run ./cmd/synth [options]

Options:
  -url string        Service to post the race to (default: analyse in process)
  -vehicles int      Number of cars (default 8)
  -laps int          Laps per car (default 8)
  -rate int          Telemetry samples per second (default 10)
  -segment int       Seconds of telemetry per lap (default 6)
  -lap-seconds float Nominal lap time (default 92)
  -seed int          Random seed (default 1)
  -clean             Generate without incidents
  -timeout duration  HTTP request timeout (default 30s)
  -output string     Write the generated race to this JSON file
  -verbose           Log every detected event
  -help              Show this help message

Examples:
  go run ./cmd/synth -vehicles 20 -laps 15
  go run ./cmd/synth -url http://localhost:9080 -output race.json
`)
}
