package scenario

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/dailab/elvis-go/internal/result"
	"github.com/dailab/elvis-go/internal/simulate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAssembly(t *testing.T, asm *Assembly) *result.Store {
	t.Helper()
	sim, err := simulate.New(asm.SimConfig)
	require.NoError(t, err)
	store, err := sim.Run(context.Background())
	require.NoError(t, err)
	return store
}

func smallScenario() *Scenario {
	s := validScenario()
	s.NumChargingEvents = 5
	s.MeanPark = 4
	s.StdDeviationPark = 1
	s.MeanSOC = 0.4
	s.StdDeviationSOC = 0.1
	s.MaxParkingTimeHrs = 12
	s.ArrivalDistribution = []float64{0, 1, 0, 0, 0, 0, 0, 0}
	return s
}

func TestBuildProducesRunnableSimulation(t *testing.T) {
	s := smallScenario()
	require.NoError(t, s.Validate())

	asm, err := s.Build(rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.NotEmpty(t, asm.Tree.AllChargingPoints())

	store := runAssembly(t, asm)
	assert.GreaterOrEqual(t, store.StepCount, 1)
}

// TestBuildDeterministicWithSameSeed is the S6 persistence-round-trip
// check: saving a scenario to YAML and reloading it, then running both
// with the same seed, must produce identical traces.
func TestBuildDeterministicWithSameSeed(t *testing.T) {
	s := smallScenario()
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, Save(s, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	asm1, err := s.Build(rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	asm2, err := loaded.Build(rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	require.Equal(t, len(asm1.Events), len(asm2.Events))
	for i := range asm1.Events {
		assert.Equal(t, asm1.Events[i].ArrivalTime, asm2.Events[i].ArrivalTime)
		assert.InDelta(t, asm1.Events[i].SOC, asm2.Events[i].SOC, 1e-9)
	}

	store1 := runAssembly(t, asm1)
	store2 := runAssembly(t, asm2)

	load1 := store1.AggregatedLoadProfile()
	load2 := store2.AggregatedLoadProfile()
	require.Equal(t, len(load1), len(load2))
	for i := range load1 {
		assert.InDelta(t, load1[i], load2[i], 1e-9)
	}
}

func TestBuildRejectsUnknownPolicy(t *testing.T) {
	s := smallScenario()
	s.SchedulingPolicy = "nonexistent"
	_, err := s.Build(rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestBuildWiresDiscriminationFreePeriod(t *testing.T) {
	s := smallScenario()
	s.SchedulingPolicy = "DiscriminationFree"
	s.DFChargingPeriod = Duration(30 * time.Minute)
	asm, err := s.Build(rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	assert.Equal(t, "discrimination_free", asm.SimConfig.Policy.Name())
}
