package models

import "math"

// Reading is one environmental sensor sample for a monitored asset.
// The wire shape matches the hardware endpoint and the readings topic:
// ts is optional (seconds, epoch or monotonic), gas_ppm defaults to 0.
type Reading struct {
	TS           *float64 `json:"ts,omitempty"`
	Product      string   `json:"product"`
	TempInsideC  float64  `json:"temp_inside_c"`
	TempOutsideC float64  `json:"temp_outside_c"`
	HumidityPct  float64  `json:"humidity_pct"`
	DoorOpen     int      `json:"door_open"`
	GasPPM       float64  `json:"gas_ppm,omitempty"`
}

// Finite reports whether all required numeric fields are finite.
func (r *Reading) Finite() bool {
	for _, v := range []float64{r.TempInsideC, r.TempOutsideC, r.HumidityPct, r.GasPPM} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if r.TS != nil && (math.IsNaN(*r.TS) || math.IsInf(*r.TS, 0)) {
		return false
	}
	return true
}
