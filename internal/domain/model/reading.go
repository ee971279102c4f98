// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Reading is an optional numeric value. Telemetry channels and some lap
// aggregates can be absent or non-numeric in the source data; both cases
// are represented by an invalid Reading so rule code can ask directly.
type Reading struct {
	Value float64
	Valid bool
}

// Some wraps v. NaN and ±Inf produce an invalid Reading.
func Some(v float64) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{}
	}
	return Reading{Value: v, Valid: true}
}

// None is the absent Reading.
func None() Reading { return Reading{} }

// Get returns the value and whether it is present.
func (r Reading) Get() (float64, bool) {
	return r.Value, r.Valid
}

// Or returns the value or def when absent.
func (r Reading) Or(def float64) float64 {
	if !r.Valid {
		return def
	}
	return r.Value
}

// MarshalJSON writes the value or null.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything else
// decodes to an absent Reading rather than failing the whole document.
func (r *Reading) UnmarshalJSON(b []byte) error {
	*r = Reading{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil //nolint:nilerr // non-numeric is treated as missing
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*r = Some(v)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil //nolint:nilerr // non-numeric is treated as missing
	}
	*r = Some(v)
	return nil
}
