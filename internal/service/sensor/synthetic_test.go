package sensor

import (
	"context"
	"testing"
	"time"

	"ColdPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticCyclesProducts(t *testing.T) {
	s := NewSynthetic([]string{"dairy", "meat"}, time.Millisecond, 7)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Subscribe(ctx))

	readings, _ := s.Read(ctx)
	var got []*models.Reading
	for rd := range readings {
		got = append(got, rd)
		if len(got) == 4 {
			cancel()
		}
	}

	require.GreaterOrEqual(t, len(got), 4)
	assert.Equal(t, "dairy", got[0].Product)
	assert.Equal(t, "meat", got[1].Product)
	assert.Equal(t, "dairy", got[2].Product)
	assert.Equal(t, "meat", got[3].Product)
}

func TestSyntheticReadingsArePlausible(t *testing.T) {
	s := NewSynthetic([]string{"produce"}, time.Millisecond, 42)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	readings, _ := s.Read(ctx)

	n := 0
	for rd := range readings {
		require.NotNil(t, rd.TS)
		assert.True(t, rd.Finite())
		assert.GreaterOrEqual(t, rd.HumidityPct, 0.0)
		assert.LessOrEqual(t, rd.HumidityPct, 100.0)
		assert.GreaterOrEqual(t, rd.GasPPM, 0.0)
		assert.Contains(t, []int{0, 1}, rd.DoorOpen)
		n++
		if n == 20 {
			cancel()
		}
	}
	assert.GreaterOrEqual(t, n, 20)
}

func TestSyntheticScenarioHasExcursionPhases(t *testing.T) {
	s := NewSynthetic([]string{"seafood"}, time.Millisecond, 3).(*Synthetic)

	var doorSteps []int
	insides := make([]float64, 0, cycleLen)
	for i := 0; i < cycleLen; i++ {
		rd := s.generate("seafood")
		if rd.DoorOpen == 1 {
			doorSteps = append(doorSteps, i)
		}
		insides = append(insides, rd.TempInsideC)
	}

	assert.Equal(t, []int{15, 16, 17, 18, 19}, doorSteps)
	// heat wave phase runs well above nominal
	assert.Greater(t, insides[25], insides[5]+3.0)
}

func TestSyntheticSubscribeRequiresConnect(t *testing.T) {
	s := NewSynthetic([]string{"dairy"}, time.Millisecond, 1)
	assert.Error(t, s.Subscribe(context.Background()))
}
