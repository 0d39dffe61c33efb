package spoilage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestDeriveUnknownProduct(t *testing.T) {
	c := NewCatalog()
	_, err := c.Derive("unknown_product", fp(20), 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestDeriveInvalidDoor(t *testing.T) {
	c := NewCatalog()
	_, err := c.Derive("vaccine", fp(20), 2, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeriveOutsideTempRange(t *testing.T) {
	c := NewCatalog()
	_, err := c.Derive("vaccine", fp(200), 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.Derive("vaccine", fp(-40), 0, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// nil outside temperature is a documented fallback, not an error
	_, err = c.Derive("vaccine", nil, 0, nil)
	assert.NoError(t, err)
}

func TestDeriveWeightsNormalized(t *testing.T) {
	c := NewCatalog()
	cases := []struct {
		name        string
		outside     *float64
		door        int
		variability *float64
	}{
		{"plain", nil, 0, nil},
		{"hot outside", fp(45), 0, nil},
		{"door open", fp(30), 1, nil},
		{"variability", fp(30), 1, fp(12.0)},
		{"cold outside", fp(-20), 0, fp(3.0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, product := range []string{"fruit", "vaccine", "seafood"} {
				p, err := c.Derive(product, tc.outside, tc.door, tc.variability)
				require.NoError(t, err)
				assert.InDelta(t, 1.0, p.Weights.Sum(), 1e-6, "product %s", product)
			}
		})
	}
}

func TestDeriveIdempotent(t *testing.T) {
	c := NewCatalog()
	a, err := c.Derive("seafood", fp(33.3), 1, fp(7.5))
	require.NoError(t, err)
	b, err := c.Derive("seafood", fp(33.3), 1, fp(7.5))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDeriveSafeTempBounds(t *testing.T) {
	c := NewCatalog()

	// Hot outside plus open door: shift saturates at ref_temp+10.
	p, err := c.Derive("vaccine", fp(50), 1, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, p.MaxSafeTemp, p.RefTemp+10.0)

	// Deep cold: shift floors at ref_temp-5.
	p, err = c.Derive("vaccine", fp(-30), 0, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.MaxSafeTemp, p.RefTemp-5.0)
}

func TestDeriveRateCeiling(t *testing.T) {
	c := NewCatalog()
	base, err := c.Base("fruit")
	require.NoError(t, err)

	p, err := c.Derive("fruit", fp(50), 1, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, p.MaxRateDynamic, base.MaxRate*1.5)
	assert.GreaterOrEqual(t, p.MaxRateDynamic, base.MinRate)
}

func TestDeriveQ10Caps(t *testing.T) {
	c := NewCatalog()
	base, err := c.Base("vaccine")
	require.NoError(t, err)

	// Huge variability saturates the decay constant at 1.5x base.
	p, err := c.Derive("vaccine", fp(30), 0, fp(1000))
	require.NoError(t, err)
	assert.InDelta(t, base.Q10*1.5, p.Q10Dynamic, 1e-12)

	// Without variability the base constant is untouched.
	p, err = c.Derive("vaccine", fp(30), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, base.Q10, p.Q10Dynamic)
}

func TestDeriveThresholdCaps(t *testing.T) {
	c := NewCatalog()
	base, err := c.Base("fruit")
	require.NoError(t, err)

	p, err := c.Derive("fruit", fp(25), 0, fp(500))
	require.NoError(t, err)
	assert.InDelta(t, base.ZThreshold*2.0, p.ZThresholdDyn, 1e-12)
	assert.InDelta(t, base.EWMAThreshold*2.0, p.EWMAThresholdDyn, 1e-12)

	// Moderate variability inflates without saturating.
	p, err = c.Derive("fruit", fp(25), 0, fp(2.0))
	require.NoError(t, err)
	assert.InDelta(t, base.ZThreshold*1.2, p.ZThresholdDyn, 1e-12)
	assert.InDelta(t, base.EWMAThreshold*1.2, p.EWMAThresholdDyn, 1e-12)
}

func TestCatalogProductsAndCustomTable(t *testing.T) {
	c := NewCatalog()
	assert.ElementsMatch(t, []string{"fruit", "vaccine", "seafood"}, c.Products())

	custom := NewCatalogWith(map[string]BaseProfile{
		"cheese": {
			Q10: 2.2, RefTemp: 6,
			ZThreshold: 2.5, EWMAThreshold: 2.0, EWMAAlpha: 0.25,
			MaxSafeTemp: 10, MinRate: 0, MaxRate: 4,
			Weights:  Weights{Temp: 0.4, Humidity: 0.2, Door: 0.15, Gas: 0.1, Interaction: 0.1, Outside: 0.05},
			Logistic: Logistic{Midpoint: 45, Slope: 9},
		},
	})
	p, err := custom.Derive("cheese", fp(22), 0, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.Weights.Sum(), 1e-6)

	_, err = custom.Derive("vaccine", fp(22), 0, nil)
	assert.ErrorIs(t, err, ErrUnknownProduct)
}
