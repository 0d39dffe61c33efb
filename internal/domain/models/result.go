package models

// RiskLevel is the debounced triage classification of a reading.
type RiskLevel string

const (
	RiskOK       RiskLevel = "ok"
	RiskWarning  RiskLevel = "warning"
	RiskCritical RiskLevel = "critical"
)

// AnomalyFlags marks which detectors fired for a reading.
type AnomalyFlags struct {
	ZScore bool `json:"zscore"`
	EWMA   bool `json:"ewma"`
}

// Thresholds carries the dynamic limits that were in effect when a
// result was produced.
type Thresholds struct {
	Z         float64 `json:"z"`
	EWMALimit float64 `json:"ewma_L"`
	Warn      float64 `json:"warn"`
	Crit      float64 `json:"crit"`
}

// Contributions is the per-factor breakdown of the weighted spoilage
// index (each entry is the factor value times its dynamic weight).
type Contributions struct {
	Temp        float64 `json:"temp"`
	Humidity    float64 `json:"humidity"`
	Door        float64 `json:"door"`
	Gas         float64 `json:"gas"`
	Interaction float64 `json:"interaction"`
	Outside     float64 `json:"outside"`
}

// Result is the scored output for one reading. Immutable once emitted.
type Result struct {
	TS                    *float64      `json:"ts"`
	Product               string        `json:"product"`
	InstantSpoilagePct    float64       `json:"instant_spoilage_pct"`
	CumulativeSpoilagePct float64       `json:"cumulative_spoilage_pct"`
	RiskLevel             RiskLevel     `json:"risk_level"`
	Anomalies             AnomalyFlags  `json:"anomalies"`
	Thresholds            Thresholds    `json:"adaptive_thresholds"`
	Contributions         Contributions `json:"contributions"`
	Notes                 []string      `json:"notes"`
}
