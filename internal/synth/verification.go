package synth

import (
	"fmt"
	"strings"

	"github.com/okian/pitwall/internal/domain/model"
)

// Verify checks that every injected incident was reported with a matching
// vehicle, lap and type. Extra events are allowed.
func Verify(race *Race, events []model.Event) error {
	type key struct {
		vehicle string
		lap     int
		typ     model.EventType
	}
	seen := make(map[key]bool, len(events))
	for i := range events {
		e := &events[i]
		seen[key{e.VehicleID, e.Lap, e.Type}] = true
	}

	var missed []string
	for _, inc := range race.Incidents {
		if !seen[key{inc.VehicleID, inc.Lap, inc.Type}] {
			missed = append(missed, fmt.Sprintf("%s lap %d %s", inc.VehicleID, inc.Lap, inc.Type))
		}
	}
	if len(missed) > 0 {
		return fmt.Errorf("%w: %s", ErrMissedEvents, strings.Join(missed, ", "))
	}
	return nil
}
