package model

// VehicleTotal is a vehicle's summed lap time.
type VehicleTotal struct {
	VehicleID string  `json:"vehicle_id"`
	TotalTime float64 `json:"total_time_seconds"`
}

// ScenarioResult is one vehicle's outcome in a single counterfactual run.
type ScenarioResult struct {
	VehicleID         string  `json:"vehicle_id"`
	RealTotalTime     float64 `json:"real_total_time"`
	TotalEventLoss    float64 `json:"total_event_loss"`
	AdjustedTotalTime float64 `json:"adjusted_total_time"`
	RealPosition      *int    `json:"real_position"`
	AdjustedPosition  int     `json:"adjusted_position"`
	// PositionChange is real minus adjusted position; positive is a gain.
	PositionChange *int `json:"position_change"`
}
