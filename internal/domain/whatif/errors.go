package whatif

import "errors"

// ErrVehicleNotFound is returned when a payload is requested for a vehicle
// absent from the scenario results.
var ErrVehicleNotFound = errors.New("vehicle not found in scenario")
