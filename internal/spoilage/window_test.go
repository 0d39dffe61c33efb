package spoilage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Push(v)
	}
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []float64{3, 4, 5}, w.Values())
	assert.Equal(t, 5.0, w.Last())
}

func TestWindowPartialFill(t *testing.T) {
	w := NewWindow(10)
	w.Push(1.5)
	w.Push(2.5)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 10, w.Cap())
	assert.Equal(t, []float64{1.5, 2.5}, w.Values())
}

func TestWindowMinimumCapacity(t *testing.T) {
	w := NewWindow(0)
	w.Push(7)
	w.Push(8)
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 8.0, w.Last())
}

func TestMeanStd(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Std(nil))
	assert.InDelta(t, 3.0, Mean([]float64{1, 2, 3, 4, 5}), 1e-12)
	// population std of 1..5 is sqrt(2)
	assert.InDelta(t, math.Sqrt2, Std([]float64{1, 2, 3, 4, 5}), 1e-12)
	assert.Equal(t, 0.0, Std([]float64{4, 4, 4}))
}

func TestTail(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	assert.Equal(t, []float64{3, 4}, tail(xs, 2))
	assert.Equal(t, xs, tail(xs, 10))
}
