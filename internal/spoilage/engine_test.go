package spoilage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ColdPull/internal/domain/models"
)

func stableVaccineReading(ts float64) *models.Reading {
	return &models.Reading{
		TS:           fp(ts),
		Product:      "vaccine",
		TempInsideC:  4.8,
		TempOutsideC: 31.2,
		HumidityPct:  62,
		DoorOpen:     0,
		GasPPM:       520,
	}
}

func newVaccineEngine() *Engine {
	return NewEngine(NewCatalog(), "vaccine", 30, ModeAdaptive)
}

func TestFirstUpdateUsesFallbacks(t *testing.T) {
	e := newVaccineEngine()
	res, err := e.Update(stableVaccineReading(0))
	require.NoError(t, err)

	// Empty history: no anomaly detection, fixed thresholds.
	assert.False(t, res.Anomalies.ZScore)
	assert.False(t, res.Anomalies.EWMA)
	assert.Equal(t, 60.0, res.Thresholds.Warn)
	assert.Equal(t, 80.0, res.Thresholds.Crit)
	assert.Equal(t, models.RiskOK, res.RiskLevel)
}

func TestBoundednessAndMonotonicDecay(t *testing.T) {
	e := newVaccineEngine()
	readings := []*models.Reading{
		stableVaccineReading(0),
		{TS: fp(60), Product: "vaccine", TempInsideC: 7, TempOutsideC: 35, HumidityPct: 70, DoorOpen: 1, GasPPM: 600},
		{TS: fp(120), Product: "vaccine", TempInsideC: 12, TempOutsideC: 38, HumidityPct: 80, DoorOpen: 1, GasPPM: 900},
		{TS: fp(180), Product: "vaccine", TempInsideC: 3, TempOutsideC: 20, HumidityPct: 40, DoorOpen: 0},
		{TS: fp(240), Product: "vaccine", TempInsideC: 25, TempOutsideC: 45, HumidityPct: 95, DoorOpen: 1, GasPPM: 999},
	}

	prevCumulative := 0.0
	prevQuality := 1.0
	for _, r := range readings {
		res, err := e.Update(r)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, res.InstantSpoilagePct, 0.0)
		assert.LessOrEqual(t, res.InstantSpoilagePct, 100.0)
		assert.GreaterOrEqual(t, res.CumulativeSpoilagePct, 0.0)
		assert.LessOrEqual(t, res.CumulativeSpoilagePct, 100.0)

		assert.GreaterOrEqual(t, res.CumulativeSpoilagePct, prevCumulative, "cumulative must not decrease")
		assert.LessOrEqual(t, e.Quality(), prevQuality, "quality must not increase")
		assert.GreaterOrEqual(t, e.Quality(), 0.0)

		prevCumulative = res.CumulativeSpoilagePct
		prevQuality = e.Quality()
	}
}

func TestStableStreamConverges(t *testing.T) {
	e := newVaccineEngine()
	var instants []float64
	for i := 0; i < 10; i++ {
		res, err := e.Update(stableVaccineReading(float64(i * 60)))
		require.NoError(t, err)
		instants = append(instants, res.InstantSpoilagePct)
	}

	// Identical conditions: the instant score settles once the adaptive
	// rate model has engaged (after 5 samples of raw history).
	last := instants[len(instants)-1]
	for _, v := range instants[6:] {
		assert.InDelta(t, last, v, 0.5)
	}
	// And never swings far from the static value even during warm-up.
	assert.InDelta(t, instants[0], last, 3.0)
}

func TestWarningDebounce(t *testing.T) {
	// A stable vaccine reading lands between the fallback warn (60) and
	// crit (80) thresholds. One breach must not flip the level.
	e := newVaccineEngine()

	res, err := e.Update(stableVaccineReading(0))
	require.NoError(t, err)
	assert.Equal(t, models.RiskOK, res.RiskLevel)

	res, err = e.Update(stableVaccineReading(60))
	require.NoError(t, err)
	assert.Equal(t, models.RiskWarning, res.RiskLevel)
}

func TestCriticalDebounce(t *testing.T) {
	// Hot interior with the door open pushes instant far above the
	// fallback critical threshold.
	hot := func(ts float64) *models.Reading {
		return &models.Reading{
			TS: fp(ts), Product: "vaccine",
			TempInsideC: 20, TempOutsideC: 35, HumidityPct: 90, DoorOpen: 1, GasPPM: 900,
		}
	}
	e := newVaccineEngine()

	res, err := e.Update(hot(0))
	require.NoError(t, err)
	assert.Equal(t, models.RiskOK, res.RiskLevel, "single breach must not promote")

	res, err = e.Update(hot(60))
	require.NoError(t, err)
	assert.Equal(t, models.RiskCritical, res.RiskLevel, "second consecutive breach promotes")
}

func TestCalmReadingResetsBreachCounters(t *testing.T) {
	e := newVaccineEngine()

	// Build five identical readings: by the fifth, the dynamic warn
	// threshold equals the history mean and the breach counters reset.
	for i := 0; i < 5; i++ {
		_, err := e.Update(stableVaccineReading(float64(i * 60)))
		require.NoError(t, err)
	}

	// Door-open excursion: instant jumps well past the dynamic critical
	// threshold, but the first breach is debounced.
	excursion := func(ts float64) *models.Reading {
		return &models.Reading{
			TS: fp(ts), Product: "vaccine",
			TempInsideC: 15, TempOutsideC: 31.2, HumidityPct: 62, DoorOpen: 1, GasPPM: 520,
		}
	}
	res, err := e.Update(excursion(300))
	require.NoError(t, err)
	assert.Equal(t, models.RiskOK, res.RiskLevel)

	res, err = e.Update(excursion(360))
	require.NoError(t, err)
	assert.Equal(t, models.RiskCritical, res.RiskLevel)
}

func TestAnomalyFlagsFireOnSpike(t *testing.T) {
	// A long stable run gives the detectors a tight baseline; a door-open
	// excursion to 18 °C then lands far outside it.
	e := newVaccineEngine()
	for i := 0; i < 8; i++ {
		_, err := e.Update(stableVaccineReading(float64(i * 60)))
		require.NoError(t, err)
	}

	spike := stableVaccineReading(480)
	spike.TempInsideC = 18
	spike.DoorOpen = 1
	res, err := e.Update(spike)
	require.NoError(t, err)

	assert.True(t, res.Anomalies.ZScore)
	assert.True(t, res.Anomalies.EWMA)
	// The first threshold breach is still debounced.
	assert.Equal(t, models.RiskOK, res.RiskLevel)
}

func TestZeroVarianceHistoryStaysCalm(t *testing.T) {
	// The simple rate model scores identical readings identically, so
	// the history std is exactly zero and the EWMA limit falls back to
	// its unit-std floor. Neither detector may fire on a flat stream.
	e := NewEngine(NewCatalog(), "vaccine", 30, ModeSimple)
	for i := 0; i < 8; i++ {
		res, err := e.Update(stableVaccineReading(float64(i * 60)))
		require.NoError(t, err)
		assert.False(t, res.Anomalies.ZScore)
		assert.False(t, res.Anomalies.EWMA)
	}
}

func TestUnknownProductPropagates(t *testing.T) {
	e := NewEngine(NewCatalog(), "mystery_meat", 30, ModeAdaptive)
	r := stableVaccineReading(0)
	r.Product = "mystery_meat"
	_, err := e.Update(r)
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestInvalidOutsideTempPropagates(t *testing.T) {
	e := newVaccineEngine()
	r := stableVaccineReading(0)
	r.TempOutsideC = 200
	_, err := e.Update(r)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInvalidReadingLeavesStateUntouched(t *testing.T) {
	e := newVaccineEngine()

	bad := stableVaccineReading(0)
	bad.TempInsideC = math.NaN()
	_, err := e.Update(bad)
	require.ErrorIs(t, err, ErrInvalidReading)

	_, err = e.Update(nil)
	require.ErrorIs(t, err, ErrInvalidReading)

	assert.Equal(t, 1.0, e.Quality())

	// The next valid reading behaves exactly like a first one.
	res, err := e.Update(stableVaccineReading(0))
	require.NoError(t, err)
	assert.Equal(t, 60.0, res.Thresholds.Warn)
	assert.Equal(t, 80.0, res.Thresholds.Crit)
	assert.False(t, res.Anomalies.ZScore)
	assert.False(t, res.Anomalies.EWMA)
}

func TestProductSwitchInPlace(t *testing.T) {
	e := newVaccineEngine()
	_, err := e.Update(stableVaccineReading(0))
	require.NoError(t, err)

	r := stableVaccineReading(60)
	r.Product = "seafood"
	res, err := e.Update(r)
	require.NoError(t, err)
	assert.Equal(t, "seafood", res.Product)
	assert.Equal(t, "seafood", e.Product())
}

func TestMissingTimestampDefaultsToOneMinute(t *testing.T) {
	// Two engines fed the same reading, one with timestamps one minute
	// apart and one with no timestamps at all, must decay identically.
	withTS := newVaccineEngine()
	withoutTS := newVaccineEngine()

	for i := 0; i < 3; i++ {
		_, err := withTS.Update(stableVaccineReading(float64(i * 60)))
		require.NoError(t, err)

		r := stableVaccineReading(0)
		r.TS = nil
		_, err = withoutTS.Update(r)
		require.NoError(t, err)
	}
	assert.InDelta(t, withTS.Quality(), withoutTS.Quality(), 1e-9)
}

func TestElapsedTimeFloor(t *testing.T) {
	// Out-of-order timestamps clamp dt to 0.1 minutes instead of going
	// negative and restoring quality.
	e := newVaccineEngine()
	_, err := e.Update(stableVaccineReading(600))
	require.NoError(t, err)
	q1 := e.Quality()

	_, err = e.Update(stableVaccineReading(0))
	require.NoError(t, err)
	assert.Less(t, e.Quality(), q1)
}

func TestRequireConsecutiveTunable(t *testing.T) {
	e := newVaccineEngine()
	e.SetRequireConsecutive(1)

	res, err := e.Update(stableVaccineReading(0))
	require.NoError(t, err)
	// With depth 1 the very first warn breach promotes immediately.
	assert.Equal(t, models.RiskWarning, res.RiskLevel)
}

func TestHistoryRespectsWindowCapacity(t *testing.T) {
	e := NewEngine(NewCatalog(), "vaccine", 4, ModeAdaptive)
	for i := 0; i < 12; i++ {
		_, err := e.Update(stableVaccineReading(float64(i * 60)))
		require.NoError(t, err)
	}
	assert.Equal(t, 4, e.instant.Len())
	assert.Equal(t, 4, e.inside.Len())
	assert.Equal(t, 4, e.outside.Len())
	assert.Equal(t, 4, e.hum.Len())
	assert.Equal(t, 4, e.door.Len())
}
