package models

// Requests for the scoring HTTP endpoints. Defined in domain for consistency and reuse.

type LatestRequest struct {
	Product string `query:"product" json:"product" validate:"required"`
}

type HistoryRequest struct {
	Product string `query:"product" json:"product" validate:"required"`
	From    string `query:"from" json:"from"`
	To      string `query:"to" json:"to"`
	Limit   int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type QualityRequest struct {
	Product string `query:"product" json:"product" validate:"required"`
}

// ScoreRequest is an ad-hoc reading submitted over HTTP for scoring.
// Mirrors the Reading wire shape with validation applied at the edge.
type ScoreRequest struct {
	TS           *float64 `json:"ts"`
	Product      string   `json:"product" validate:"required"`
	TempInsideC  float64  `json:"temp_inside_c"`
	TempOutsideC float64  `json:"temp_outside_c"`
	HumidityPct  float64  `json:"humidity_pct" validate:"gte=0,lte=100"`
	DoorOpen     int      `json:"door_open" validate:"oneof=0 1"`
	GasPPM       float64  `json:"gas_ppm" validate:"gte=0"`
}

// Reading converts the request to the domain reading.
func (r *ScoreRequest) Reading() *Reading {
	return &Reading{
		TS:           r.TS,
		Product:      r.Product,
		TempInsideC:  r.TempInsideC,
		TempOutsideC: r.TempOutsideC,
		HumidityPct:  r.HumidityPct,
		DoorOpen:     r.DoorOpen,
		GasPPM:       r.GasPPM,
	}
}

type RollupRequest struct {
	Product string `query:"product" json:"product" validate:"required"`
	From    string `query:"from" json:"from"`
	To      string `query:"to" json:"to"`
	Bucket  string `query:"bucket" json:"bucket" default:"1m" validate:"oneof=1m 5m 1h"`
	Limit   int    `query:"limit" json:"limit" default:"1440" validate:"gte=1,lte=50000"`
}

type ExportRequest struct {
	Product string `json:"product" validate:"required"`
	From    string `json:"from"`
	To      string `json:"to"`
	Format  string `json:"format" default:"xlsx" validate:"oneof=xlsx csv"`
}
