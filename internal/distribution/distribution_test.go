package distribution

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolatedAt(t *testing.T) {
	d := NewInterpolated([]Point{{X: 0, Y: 0}, {X: 10, Y: 100}, {X: 5, Y: 40}})
	assert.InDelta(t, 0.0, d.At(-5), 1e-9, "clamps below range")
	assert.InDelta(t, 100.0, d.At(50), 1e-9, "clamps above range")
	assert.InDelta(t, 20.0, d.At(2.5), 1e-9, "interpolates first segment")
	assert.InDelta(t, 70.0, d.At(7.5), 1e-9, "interpolates second segment")
}

func TestEquallySpacedAt(t *testing.T) {
	d := NewEquallySpaced(0, 2, []float64{0, 4, 8, 12})
	assert.InDelta(t, 0.0, d.At(-1), 1e-9)
	assert.InDelta(t, 2.0, d.At(1), 1e-9)
	assert.InDelta(t, 8.0, d.At(4), 1e-9)
	assert.InDelta(t, 12.0, d.At(100), 1e-9)
}

func TestAliasSampleDistribution(t *testing.T) {
	a := NewAlias([]float64{0, 1, 0})
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		require.Equal(t, 1, a.Sample(rng))
	}
}

func TestAliasSampleNLength(t *testing.T) {
	a := NewAlias([]float64{1, 2, 3, 4})
	rng := rand.New(rand.NewSource(42))
	samples := a.SampleN(rng, 50)
	require.Len(t, samples, 50)
	for _, s := range samples {
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 4)
	}
}
