package models

import "time"

// RollupRow is one time bucket of aggregated readings for a product.
// DoorOpenPct is the share of samples in the bucket with the door open.
type RollupRow struct {
	Bucket         time.Time `json:"bucket"`
	Product        string    `json:"product"`
	AvgInsideC     float64   `json:"avg_inside_c"`
	MinInsideC     float64   `json:"min_inside_c"`
	MaxInsideC     float64   `json:"max_inside_c"`
	AvgHumidityPct float64   `json:"avg_humidity_pct"`
	DoorOpenPct    float64   `json:"door_open_pct"`
	AvgGasPPM      float64   `json:"avg_gas_ppm"`
	Samples        uint64    `json:"samples"`
}
