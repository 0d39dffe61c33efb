package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ColdPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

type stubProc struct {
	mu    sync.Mutex
	seen  []*models.Reading
	fail  bool
	calls int
}

func (p *stubProc) Process(_ context.Context, r *models.Reading) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail {
		return errors.New("downstream unavailable")
	}
	p.seen = append(p.seen, r)
	return nil
}

func (p *stubProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

type stubMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{errors: make(map[string]int)}
}

func (m *stubMetrics) RecordReadingScored(string)            {}
func (m *stubMetrics) RecordMessageSent(string, string)      {}
func (m *stubMetrics) RecordAnomaly(string, string)          {}
func (m *stubMetrics) RecordRiskTransition(string, string)   {}
func (m *stubMetrics) RecordSpoilage(string, float64, float64) {}
func (m *stubMetrics) RecordLatency(string, float64)         {}

func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *stubMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func validSample(product string) *models.Reading {
	ts := float64(time.Now().UnixNano()) / 1e9
	return &models.Reading{
		TS:           &ts,
		Product:      product,
		TempInsideC:  4.2,
		TempOutsideC: 22.0,
		HumidityPct:  60.0,
		DoorOpen:     0,
		GasPPM:       130.0,
	}
}

func TestPipelineForwardsValidReading(t *testing.T) {
	proc := &stubProc{}
	p := NewRealtimePipeline(proc, newStubMetrics())

	err := p.Process(context.Background(), validSample("dairy"))
	assert.NoError(t, err)
	assert.Equal(t, 1, proc.count())
}

func TestPipelineRejectsInvalidReadings(t *testing.T) {
	proc := &stubProc{}
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m)

	cases := []*models.Reading{
		nil,
		{Product: "", TempInsideC: 4},
		{Product: "dairy", DoorOpen: 2},
		{Product: "dairy", HumidityPct: 140},
		{Product: "dairy", GasPPM: -5},
	}
	for _, r := range cases {
		assert.Error(t, p.Process(context.Background(), r))
	}
	assert.Equal(t, 0, proc.count())
	assert.Equal(t, len(cases), m.errorCount("pipeline_validate"))
}

func TestPipelineThrottlesPerProduct(t *testing.T) {
	proc := &stubProc{}
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m, WithMaxRPS(1))

	assert.NoError(t, p.Process(context.Background(), validSample("dairy")))
	// second reading inside the same second gets dropped silently
	assert.NoError(t, p.Process(context.Background(), validSample("dairy")))
	assert.Equal(t, 1, proc.count())
	assert.Equal(t, 1, m.errorCount("pipeline_throttle"))

	// a different product is not affected
	assert.NoError(t, p.Process(context.Background(), validSample("meat")))
	assert.Equal(t, 2, proc.count())
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &stubProc{fail: true}
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m, WithBufferSize(4))

	err := p.Process(context.Background(), validSample("dairy"))
	assert.Error(t, err)
	assert.Equal(t, 1, m.errorCount("pipeline_process"))
	assert.Equal(t, 1, len(p.bufCh))
}

func TestPipelineFlushesBufferWhenDownstreamRecovers(t *testing.T) {
	proc := &stubProc{fail: true}
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m, WithBufferSize(4))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, p.Process(ctx, validSample("dairy")))

	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	p.Start(ctx)
	defer p.Stop()

	assert.Eventually(t, func() bool { return proc.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestPipelineTransformApplied(t *testing.T) {
	proc := &stubProc{}
	p := NewRealtimePipeline(proc, newStubMetrics(), WithTransform(func(r *models.Reading) *models.Reading {
		r.Product = "relabeled"
		return r
	}))

	assert.NoError(t, p.Process(context.Background(), validSample("dairy")))
	assert.Equal(t, "relabeled", proc.seen[0].Product)
}
