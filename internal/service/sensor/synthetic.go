package sensor

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"ColdPull/internal/domain/models"
	drepo "ColdPull/internal/domain/repository"
)

// Scenario phases, repeating every cycleLen samples per product.
const (
	phaseStableEnd = 15 // 0..14 nominal operation
	phaseDoorEnd   = 20 // 15..19 door left open
	phaseHeatEnd   = 30 // 20..29 heat wave, cooling struggling
	cycleLen       = 40 // 30..39 recovery back to nominal
)

// Synthetic implements a SensorStream that fabricates fridge telemetry
// following a fixed excursion scenario. Handy for demos and for
// exercising the scoring path without hardware.
type Synthetic struct {
	products []string
	interval time.Duration
	rng      *rand.Rand

	step      map[string]int // per-product position in the scenario
	connected bool
}

// NewSynthetic creates a seeded synthetic sensor stream.
func NewSynthetic(products []string, interval time.Duration, seed int64) drepo.SensorStream {
	if interval <= 0 {
		interval = time.Second
	}
	if len(products) == 0 {
		products = []string{"default"}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthetic{
		products: products,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
		step:     make(map[string]int),
	}
}

// Connect marks the generator ready.
func (s *Synthetic) Connect(_ context.Context) error {
	s.connected = true
	log.Printf("sensor synthetic: generating products=%v interval=%s", s.products, s.interval)
	return nil
}

// Subscribe is a no-op for the generator.
func (s *Synthetic) Subscribe(_ context.Context) error {
	if !s.connected {
		return fmt.Errorf("synthetic not connected")
	}
	return nil
}

// Read emits one reading per interval, cycling through products.
func (s *Synthetic) Read(ctx context.Context) (<-chan *models.Reading, <-chan error) {
	readings := make(chan *models.Reading, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(readings)
		defer close(errs)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				product := s.products[i%len(s.products)]
				i++
				r := s.generate(product)
				select {
				case readings <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return readings, errs
}

func (s *Synthetic) generate(product string) *models.Reading {
	ts := float64(time.Now().UnixNano()) / 1e9
	step := s.step[product] % cycleLen
	s.step[product]++

	inside := 4.0
	outside := 22.0
	door := 0
	gas := 120.0

	switch {
	case step < phaseStableEnd:
		// nominal
	case step < phaseDoorEnd:
		door = 1
		inside += 2.0 + 0.8*float64(step-phaseStableEnd)
		gas += 60.0
	case step < phaseHeatEnd:
		outside = 35.0
		inside += 3.0 + 0.5*float64(step-phaseDoorEnd)
		gas += 100.0
	default:
		// recovery, drifting back down
		inside += 1.5 * float64(cycleLen-step) / float64(cycleLen-phaseHeatEnd)
	}

	inside += s.rng.NormFloat64() * 0.3
	outside += s.rng.NormFloat64() * 1.0
	humidity := clamp(60.0+s.rng.NormFloat64()*6.0, 0, 100)
	gas += s.rng.Float64() * 20.0

	return &models.Reading{
		TS:           &ts,
		Product:      product,
		TempInsideC:  inside,
		TempOutsideC: outside,
		HumidityPct:  humidity,
		DoorOpen:     door,
		GasPPM:       gas,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Reconnect is a no-op for the generator.
func (s *Synthetic) Reconnect(ctx context.Context) error { return s.Connect(ctx) }

// Close stops the generator.
func (s *Synthetic) Close() error {
	s.connected = false
	return nil
}

// IsConnected indicates status.
func (s *Synthetic) IsConnected() bool { return s.connected }
