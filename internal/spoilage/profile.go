package spoilage

import (
	"fmt"
	"math"
)

// Weights are the six factor weights of the spoilage index. A derived
// profile always carries weights normalized to sum 1.0.
type Weights struct {
	Temp        float64 `json:"temp"`
	Humidity    float64 `json:"humidity"`
	Door        float64 `json:"door"`
	Gas         float64 `json:"gas"`
	Interaction float64 `json:"interaction"`
	Outside     float64 `json:"outside"`
}

// Sum returns the total of all six weights.
func (w Weights) Sum() float64 {
	return w.Temp + w.Humidity + w.Door + w.Gas + w.Interaction + w.Outside
}

func (w Weights) normalized() Weights {
	total := w.Sum()
	if total == 0 {
		total = 1.0
	}
	return Weights{
		Temp:        w.Temp / total,
		Humidity:    w.Humidity / total,
		Door:        w.Door / total,
		Gas:         w.Gas / total,
		Interaction: w.Interaction / total,
		Outside:     w.Outside / total,
	}
}

// Logistic holds the parameters of the bounding curve that maps the raw
// weighted index onto the 0..100 spoilage scale.
type Logistic struct {
	Midpoint float64 `json:"midpoint"`
	Slope    float64 `json:"slope"`
}

// BaseProfile is the static per-product parameter set. Loaded once and
// never mutated; all per-reading adaptation happens in Derive.
type BaseProfile struct {
	Q10            float64
	RefTemp        float64
	ZThreshold     float64
	EWMAThreshold  float64
	EWMAAlpha      float64
	MaxSafeTemp    float64
	MinRate        float64
	MaxRate        float64
	Weights        Weights
	AdaptiveQ10    bool
	AdaptiveWindow int
	AdaptiveEWMA   bool
	Logistic       Logistic
	Alerts         map[string]string
}

// DynamicProfile is a per-reading adaptation of a BaseProfile. It is a
// pure function of (product, outside temp, door state, variability) and
// carries everything the engine needs for one update.
type DynamicProfile struct {
	Product           string
	Q10               float64 // base decay constant
	Q10Dynamic        float64
	RefTemp           float64
	MaxSafeTemp       float64
	MinRate           float64
	MaxRateDynamic    float64
	ZThresholdDyn     float64
	EWMAThresholdDyn  float64
	EWMAAlpha         float64
	Weights           Weights // normalized, sums to 1.0
	Logistic          Logistic
	AdaptiveQ10       bool
	AdaptiveWindow    int
	AdaptiveEWMA      bool
}

// Catalog is a registry of base product profiles with a pure derivation
// function. It has no mutable state after construction and is safe for
// concurrent use across engine instances.
type Catalog struct {
	profiles map[string]BaseProfile
}

// NewCatalog returns a catalog seeded with the built-in cold-chain
// product profiles (fruit, vaccine, seafood).
func NewCatalog() *Catalog {
	return &Catalog{profiles: builtinProfiles()}
}

// NewCatalogWith returns a catalog backed by the supplied profile table.
// The map is copied; later changes to the argument do not leak in.
func NewCatalogWith(profiles map[string]BaseProfile) *Catalog {
	cp := make(map[string]BaseProfile, len(profiles))
	for name, p := range profiles {
		cp[name] = p
	}
	return &Catalog{profiles: cp}
}

// Products lists the registered product names.
func (c *Catalog) Products() []string {
	names := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		names = append(names, name)
	}
	return names
}

// Base returns the static profile for a product.
func (c *Catalog) Base(product string) (BaseProfile, error) {
	base, ok := c.profiles[product]
	if !ok {
		return BaseProfile{}, fmt.Errorf("%w: %q", ErrUnknownProduct, product)
	}
	return base, nil
}

// Derive adapts the base profile of product to the current context:
// outside temperature (nil when unknown), door state (0 or 1), and the
// recent variability of the spoilage signal (nil until enough history
// exists). Identical inputs always produce identical outputs.
func (c *Catalog) Derive(product string, outsideTemp *float64, doorOpen int, variability *float64) (DynamicProfile, error) {
	base, ok := c.profiles[product]
	if !ok {
		return DynamicProfile{}, fmt.Errorf("%w: %q", ErrUnknownProduct, product)
	}
	if doorOpen != 0 && doorOpen != 1 {
		return DynamicProfile{}, fmt.Errorf("%w: door_open must be 0 or 1, got %d", ErrInvalidInput, doorOpen)
	}
	if outsideTemp != nil && (*outsideTemp < -30 || *outsideTemp > 50) {
		return DynamicProfile{}, fmt.Errorf("%w: temp_outside %.1f outside realistic range (-30..50 °C)", ErrInvalidInput, *outsideTemp)
	}

	p := DynamicProfile{
		Product:        product,
		Q10:            base.Q10,
		RefTemp:        base.RefTemp,
		MinRate:        base.MinRate,
		EWMAAlpha:      base.EWMAAlpha,
		Logistic:       base.Logistic,
		AdaptiveQ10:    base.AdaptiveQ10,
		AdaptiveWindow: base.AdaptiveWindow,
		AdaptiveEWMA:   base.AdaptiveEWMA,
	}

	// Safe-temperature bound shifts smoothly toward the outside
	// temperature, plus a gentle nudge when the door is open, bounded to
	// ref_temp-5 .. ref_temp+10.
	safe := base.MaxSafeTemp
	if outsideTemp != nil {
		safe += 5.0 * math.Tanh((*outsideTemp-base.RefTemp)/10.0)
	}
	safe += 0.5 * float64(doorOpen)
	safe = math.Min(safe, base.RefTemp+10.0)
	safe = math.Max(safe, base.RefTemp-5.0)
	p.MaxSafeTemp = safe

	// Rate ceiling gains headroom as the safe bound rises.
	maxRate := base.MaxRate * (1 + 0.05*(safe-base.RefTemp))
	p.MaxRateDynamic = math.Max(base.MinRate, math.Min(maxRate, base.MaxRate*1.5))

	// Decay constant inflated by signal variability, capped at 1.5x base.
	if base.AdaptiveQ10 && variability != nil {
		p.Q10Dynamic = math.Min(base.Q10*(1+0.01**variability), base.Q10*1.5)
	} else {
		p.Q10Dynamic = base.Q10
	}

	// Anomaly thresholds inflated by variability, capped at 2x base.
	if variability != nil {
		p.ZThresholdDyn = math.Min(base.ZThreshold*(1+0.1**variability), base.ZThreshold*2.0)
		p.EWMAThresholdDyn = math.Min(base.EWMAThreshold*(1+0.1**variability), base.EWMAThreshold*2.0)
	} else {
		p.ZThresholdDyn = base.ZThreshold
		p.EWMAThresholdDyn = base.EWMAThreshold
	}

	// Weight adaptation: outdoor heat pulls temperature weight up, an
	// open door pulls door and interaction weights up, variability pulls
	// gas weight up. Renormalized afterwards.
	w := base.Weights
	if outsideTemp != nil {
		w.Temp *= 1 + 0.1*math.Tanh((*outsideTemp-base.RefTemp)/10.0)
	}
	if doorOpen == 1 {
		w.Door *= 1.2
		w.Interaction *= 1.1
	}
	if variability != nil {
		w.Gas *= 1 + 0.05**variability
	}
	p.Weights = w.normalized()

	return p, nil
}

func builtinProfiles() map[string]BaseProfile {
	return map[string]BaseProfile{
		// General fresh produce: safe at 4-10 °C, faster spoilage above 20 °C.
		"fruit": {
			Q10: 2.5, RefTemp: 10,
			ZThreshold: 3.0, EWMAThreshold: 2.5, EWMAAlpha: 0.35,
			MaxSafeTemp: 20, MinRate: 0.0, MaxRate: 5.0,
			Weights:     Weights{Temp: 0.35, Humidity: 0.25, Door: 0.1, Gas: 0.2, Interaction: 0.05, Outside: 0.05},
			AdaptiveQ10: true, AdaptiveWindow: 25, AdaptiveEWMA: true,
			Logistic: Logistic{Midpoint: 40.0, Slope: 8.0},
			Alerts: map[string]string{
				"high_temp":      "Fruit temperature exceeds safe limit!",
				"rapid_spoilage": "Fruit spoilage rate too high!",
			},
		},
		// CDC/WHO: 2-8 °C strict storage.
		"vaccine": {
			Q10: 2.0, RefTemp: 5,
			ZThreshold: 2.0, EWMAThreshold: 1.8, EWMAAlpha: 0.2,
			MaxSafeTemp: 8, MinRate: 0.0, MaxRate: 2.0,
			Weights:     Weights{Temp: 0.55, Humidity: 0.05, Door: 0.25, Gas: 0.05, Interaction: 0.05, Outside: 0.05},
			AdaptiveQ10: true, AdaptiveWindow: 40, AdaptiveEWMA: true,
			Logistic: Logistic{Midpoint: 50.0, Slope: 12.0},
			Alerts: map[string]string{
				"high_temp":      "Vaccine temperature exceeds WHO limit!",
				"rapid_spoilage": "Vaccine degradation rate too high!",
			},
		},
		// FDA/FAO: keep at or below 4 °C, spoilage rapid above.
		"seafood": {
			Q10: 3.0, RefTemp: 4,
			ZThreshold: 2.5, EWMAThreshold: 2.2, EWMAAlpha: 0.3,
			MaxSafeTemp: 5, MinRate: 0.0, MaxRate: 7.0,
			Weights:     Weights{Temp: 0.5, Humidity: 0.2, Door: 0.15, Gas: 0.15, Interaction: 0.03, Outside: 0.02},
			AdaptiveQ10: true, AdaptiveWindow: 35, AdaptiveEWMA: true,
			Logistic: Logistic{Midpoint: 35.0, Slope: 7.0},
			Alerts: map[string]string{
				"high_temp":      "Seafood temperature exceeds safe limit!",
				"rapid_spoilage": "Seafood spoilage rate too high!",
			},
		},
	}
}
