package detect

import (
	"fmt"

	"github.com/okian/pitwall/internal/domain/signal"
)

// Thresholds holds the numeric trigger points of every rule. Field tags let
// the config layer unmarshal a detection block directly into it.
type Thresholds struct {
	// MinPriorLaps is the number of earlier laps a lap rule needs.
	MinPriorLaps   int `koanf:"min_prior_laps" json:"min_prior_laps"`
	TrailingWindow int `koanf:"trailing_window" json:"trailing_window"`

	PaceCollapseRatio     float64 `koanf:"pace_collapse_ratio" json:"pace_collapse_ratio"`
	PaceCollapseLatGDrop  float64 `koanf:"pace_collapse_lat_g_drop" json:"pace_collapse_lat_g_drop"`
	PaceCollapseLongGDrop float64 `koanf:"pace_collapse_long_g_drop" json:"pace_collapse_long_g_drop"`
	PaceCollapseSeverity  float64 `koanf:"pace_collapse_severity" json:"pace_collapse_severity"`
	PaceCollapseMinLoss   float64 `koanf:"pace_collapse_min_loss" json:"pace_collapse_min_loss"`

	DegradationLapSlope  float64 `koanf:"degradation_lap_slope" json:"degradation_lap_slope"`
	DegradationLatGSlope float64 `koanf:"degradation_lat_g_slope" json:"degradation_lat_g_slope"`
	// DegradationSlopeScale is the lap-time slope that maps to severity 1.
	DegradationSlopeScale float64 `koanf:"degradation_slope_scale" json:"degradation_slope_scale"`

	LockupBrakeRise float64 `koanf:"lockup_brake_rise" json:"lockup_brake_rise"`
	LockupSpeedDrop float64 `koanf:"lockup_speed_drop" json:"lockup_speed_drop"`
	LockupLatGDrop  float64 `koanf:"lockup_lat_g_drop" json:"lockup_lat_g_drop"`

	NearSpinSteerChange float64 `koanf:"near_spin_steer_change" json:"near_spin_steer_change"`
	NearSpinLatGRise    float64 `koanf:"near_spin_lat_g_rise" json:"near_spin_lat_g_rise"`
	NearSpinSpeedDrop   float64 `koanf:"near_spin_speed_drop" json:"near_spin_speed_drop"`

	UndersteerSteerRise float64 `koanf:"understeer_steer_rise" json:"understeer_steer_rise"`
	UndersteerLatGBand  float64 `koanf:"understeer_lat_g_band" json:"understeer_lat_g_band"`
	UndersteerSpeedDrop float64 `koanf:"understeer_speed_drop" json:"understeer_speed_drop"`

	MissedShiftRPMDrop   float64 `koanf:"missed_shift_rpm_drop" json:"missed_shift_rpm_drop"`
	MissedShiftSpeedBand float64 `koanf:"missed_shift_speed_band" json:"missed_shift_speed_band"`
	MissedShiftLoss      float64 `koanf:"missed_shift_loss" json:"missed_shift_loss"`

	// SpeedLossPerSecond converts a speed drop into seconds lost.
	SpeedLossPerSecond float64 `koanf:"speed_loss_per_second" json:"speed_loss_per_second"`
}

// DefaultThresholds returns the calibrated rule constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinPriorLaps:   3,
		TrailingWindow: signal.DefaultTrailingWindow,

		PaceCollapseRatio:     1.015,
		PaceCollapseLatGDrop:  0.2,
		PaceCollapseLongGDrop: 0.15,
		PaceCollapseSeverity:  0.7,
		PaceCollapseMinLoss:   0.5,

		DegradationLapSlope:   0.1,
		DegradationLatGSlope:  -0.01,
		DegradationSlopeScale: 0.5,

		LockupBrakeRise: 10,
		LockupSpeedDrop: 6,
		LockupLatGDrop:  0.3,

		NearSpinSteerChange: 20,
		NearSpinLatGRise:    1.5,
		NearSpinSpeedDrop:   4,

		UndersteerSteerRise: 8,
		UndersteerLatGBand:  0.2,
		UndersteerSpeedDrop: 3,

		MissedShiftRPMDrop:   1200,
		MissedShiftSpeedBand: 1.5,
		MissedShiftLoss:      0.5,

		SpeedLossPerSecond: 9,
	}
}

// Validate checks the values that would otherwise divide by zero or make a
// rule unreachable.
func (t Thresholds) Validate() error {
	if t.MinPriorLaps < 1 {
		return fmt.Errorf("%w: min_prior_laps must be positive, got %d", ErrInvalidThresholds, t.MinPriorLaps)
	}
	if t.TrailingWindow < 1 {
		return fmt.Errorf("%w: trailing_window must be positive, got %d", ErrInvalidThresholds, t.TrailingWindow)
	}
	if t.SpeedLossPerSecond <= 0 {
		return fmt.Errorf("%w: speed_loss_per_second must be positive", ErrInvalidThresholds)
	}
	if t.DegradationSlopeScale <= 0 {
		return fmt.Errorf("%w: degradation_slope_scale must be positive", ErrInvalidThresholds)
	}
	if t.PaceCollapseSeverity < 0 || t.PaceCollapseSeverity > 1 {
		return fmt.Errorf("%w: pace_collapse_severity must be within [0,1]", ErrInvalidThresholds)
	}
	return nil
}
