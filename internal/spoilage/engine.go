package spoilage

import (
	"fmt"
	"math"

	"ColdPull/internal/domain/models"
)

// Mode selects between the two rate models. Adaptive still falls back
// to the static Q10 law until enough inside-temperature history exists.
type Mode string

const (
	ModeAdaptive Mode = "adaptive"
	ModeSimple   Mode = "simple"
)

const (
	// defaultRequireConsecutive is how many consecutive breaches are
	// needed before the risk level is upgraded.
	defaultRequireConsecutive = 2

	// adaptiveMinSamples is the inside-temperature history needed before
	// the adaptive rate model engages.
	adaptiveMinSamples = 5

	// variabilityMinSamples is the spoilage history needed before a
	// variability estimate is passed to profile derivation.
	variabilityMinSamples = 5
)

// Engine is the stateful per-asset scoring pipeline. One instance per
// monitored stream; Update is not reentrant and the caller owns
// serialization (a single consumer goroutine per stream).
type Engine struct {
	catalog *Catalog
	product string
	window  int
	mode    Mode

	quality float64 // multiplicative quality, 1.0 = pristine
	instant *Window
	inside  *Window
	outside *Window
	hum     *Window
	door    *Window
	lastTS  *float64

	requireConsecutive int
	warnBreaches       int
	critBreaches       int
}

// NewEngine creates an engine with empty histories and pristine quality.
// window bounds every rolling history; mode picks the rate model.
func NewEngine(catalog *Catalog, product string, window int, mode Mode) *Engine {
	if window < 1 {
		window = 1
	}
	return &Engine{
		catalog:            catalog,
		product:            product,
		window:             window,
		mode:               mode,
		quality:            1.0,
		instant:            NewWindow(window),
		inside:             NewWindow(window),
		outside:            NewWindow(window),
		hum:                NewWindow(window),
		door:               NewWindow(window),
		requireConsecutive: defaultRequireConsecutive,
	}
}

// SetRequireConsecutive tunes the debounce depth (minimum 1).
func (e *Engine) SetRequireConsecutive(n int) {
	if n >= 1 {
		e.requireConsecutive = n
	}
}

// Product returns the product currently scored by this engine.
func (e *Engine) Product() string { return e.product }

// Quality returns the remaining quality fraction in [0,1].
func (e *Engine) Quality() float64 { return e.quality }

// Update scores one reading and advances the engine state. On error the
// state is left exactly as it was, so the stream can continue with the
// next reading.
func (e *Engine) Update(r *models.Reading) (*models.Result, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reading", ErrInvalidReading)
	}
	if !r.Finite() {
		return nil, fmt.Errorf("%w: non-finite numeric field", ErrInvalidReading)
	}

	product := e.product
	if r.Product != "" {
		product = r.Product
	}

	ti := r.TempInsideC
	to := r.TempOutsideC
	h := r.HumidityPct
	d := r.DoorOpen
	g := r.GasPPM

	// Variability of the spoilage signal, available once the history is
	// deep enough. Derivation and anomaly detection use different
	// minimums on purpose.
	var variability *float64
	if e.instant.Len() > variabilityMinSamples {
		v := Std(e.instant.Values())
		variability = &v
	}

	// Derivation is pure, so validation failures here leave the engine
	// untouched.
	profile, err := e.catalog.Derive(product, &to, d, variability)
	if err != nil {
		return nil, err
	}

	// State mutation starts here.
	e.product = product
	dt := e.dtMinutes(r.TS)

	// Rate selection: adaptive needs enough inside history, otherwise
	// the static law applies regardless of the configured mode.
	var rate float64
	if e.mode == ModeAdaptive && e.inside.Len() >= adaptiveMinSamples {
		win := e.inside.Len()
		if win > 10 {
			win = 10
		}
		rate = AdaptiveRate(ti, e.inside.Values(), e.outside.Values(), e.hum.Values(), e.door.Values(),
			profile.Q10, 1.0, win)
	} else {
		rate = StaticRate(ti, profile.RefTemp, profile.Q10Dynamic, 1.0)
	}
	rate = clamp(rate, profile.MinRate, profile.MaxRateDynamic)

	// Factor composition.
	humidity := h / 100.0
	doorPenalty := 0.0
	if d == 1 {
		doorPenalty = 1.0
	}
	gas := g / 1000.0
	interaction := humidity * (ti / 30.0)
	outsidePenalty := outsidePenalty(ti, to)

	w := profile.Weights
	raw := rate*w.Temp +
		humidity*w.Humidity +
		doorPenalty*w.Door +
		gas*w.Gas +
		interaction*w.Interaction +
		outsidePenalty*w.Outside

	// Logistic bounding onto 0..100.
	slope := math.Max(1e-6, profile.Logistic.Slope)
	instant := 100.0 / (1.0 + math.Exp(-(raw*100.0-profile.Logistic.Midpoint)/slope))
	instant = clamp(instant, 0.0, 100.0)

	// Multiplicative, time-weighted, irreversible quality loss.
	e.quality *= math.Max(0.0, 1.0-(instant/100.0)*dt)
	cumulative := clamp(100.0*(1.0-e.quality), 0.0, 100.0)

	e.instant.Push(instant)
	e.inside.Push(ti)
	e.outside.Push(to)
	e.hum.Push(h)
	e.door.Push(float64(d))

	hist := e.instant.Values()
	histStd := Std(hist)
	histMean := Mean(hist)

	// Adaptive Z-score anomaly.
	z := 0.0
	zAnom := false
	if len(hist) > 3 && histStd > 1e-8 {
		z = (hist[len(hist)-1] - histMean) / histStd
		zAnom = math.Abs(z) > profile.ZThresholdDyn
	}

	// Adaptive EWMA control-limit anomaly.
	alpha := profile.EWMAAlpha
	if alpha == 0 {
		alpha = 0.3
	}
	ewAnom := false
	dev := 0.0
	if len(hist) > 1 {
		ew := hist[0]
		for _, v := range hist[1:] {
			ew = alpha*v + (1-alpha)*ew
		}
		lambda := math.Sqrt((alpha / (2 - alpha)) * (1 - math.Pow(1-alpha, 2*float64(len(hist)))))
		dev = math.Abs(hist[len(hist)-1] - ew)
		limitStd := histStd
		if limitStd <= 0 {
			limitStd = 1.0
		}
		ewAnom = dev > profile.EWMAThresholdDyn*limitStd*lambda
	}

	// Dynamic risk thresholds with a fixed fallback for short histories.
	warn, crit := 60.0, 80.0
	if len(hist) >= 5 {
		warn = clamp(histMean+0.5*histStd, 30.0, 100.0)
		crit = clamp(histMean+1.0*histStd, 40.0, 100.0)
	}

	risk := e.debounce(instant, warn, crit)

	res := &models.Result{
		TS:                    r.TS,
		Product:               e.product,
		InstantSpoilagePct:    round2(instant),
		CumulativeSpoilagePct: round2(cumulative),
		RiskLevel:             risk,
		Anomalies:             models.AnomalyFlags{ZScore: zAnom, EWMA: ewAnom},
		Thresholds: models.Thresholds{
			Z:         profile.ZThresholdDyn,
			EWMALimit: profile.EWMAThresholdDyn,
			Warn:      round2(warn),
			Crit:      round2(crit),
		},
		Contributions: models.Contributions{
			Temp:        round3(rate * w.Temp),
			Humidity:    round3(humidity * w.Humidity),
			Door:        round3(doorPenalty * w.Door),
			Gas:         round3(gas * w.Gas),
			Interaction: round3(interaction * w.Interaction),
			Outside:     round3(outsidePenalty * w.Outside),
		},
		Notes: []string{
			fmt.Sprintf("ΔT=%.1f°C", math.Abs(ti-to)),
			fmt.Sprintf("z=%.2f", z),
			fmt.Sprintf("EW_dev=%.2f", dev),
		},
	}
	return res, nil
}

// dtMinutes returns the elapsed minutes since the previous reading,
// clamped to at least 0.1, defaulting to 1.0 when either timestamp is
// unknown. The last-seen timestamp always advances.
func (e *Engine) dtMinutes(ts *float64) float64 {
	if ts == nil || e.lastTS == nil {
		e.lastTS = ts
		return 1.0
	}
	dt := math.Max(0.1, (*ts-*e.lastTS)/60.0)
	e.lastTS = ts
	return dt
}

// debounce runs the hysteresis state machine over the breach counters.
// A breach only promotes the risk level once it has persisted for
// requireConsecutive readings; a calm reading resets both counters.
func (e *Engine) debounce(instant, warn, crit float64) models.RiskLevel {
	switch {
	case instant > crit:
		e.critBreaches++
		e.warnBreaches = maxInt(e.warnBreaches-1, 0)
		if e.critBreaches >= e.requireConsecutive {
			return models.RiskCritical
		}
	case instant > warn:
		e.warnBreaches++
		e.critBreaches = maxInt(e.critBreaches-1, 0)
		if e.warnBreaches >= e.requireConsecutive {
			return models.RiskWarning
		}
	default:
		e.warnBreaches = 0
		e.critBreaches = 0
	}
	return models.RiskOK
}

// outsidePenalty is a smooth decreasing function of the inside/outside
// temperature gap, centered at 10 °C with slope 2. Close to 1 when the
// gap is small (failing thermal barrier), close to 0 when intact.
func outsidePenalty(ti, to float64) float64 {
	delta := math.Abs(ti - to)
	return 1.0 / (1.0 + math.Exp((delta-10.0)/2.0))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
