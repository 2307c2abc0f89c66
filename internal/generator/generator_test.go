package generator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/dailab/elvis-go/internal/distribution"
	"github.com/dailab/elvis-go/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWeeklyClustersAtSpike(t *testing.T) {
	weights := make([]float64, 168)
	weights[0] = 1 // all mass at Monday 00:00

	start := time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC) // a Tuesday
	end := start.Add(14 * 24 * time.Hour)

	rng := rand.New(rand.NewSource(7))
	alloc := event.NewAllocator()
	events, err := GenerateWeekly(rng, alloc, WeeklyParams{
		ArrivalWeights: weights,
		EventsPerWeek:  168,
		SimStart:       start,
		SimEnd:         end,
		Resolution:     time.Hour,
		ParkingTime:    GaussianParam{Mean: 2, StdDev: 0.1},
		MaxParkingTime: 24 * time.Hour,
		SOC:            GaussianParam{Mean: 0.5, StdDev: 0.1},
		SOCTarget:      1.0,
	})
	require.NoError(t, err)
	require.NotEmpty(t, events)

	onMonday := 0
	for _, e := range events {
		if e.ArrivalTime.Weekday() == time.Monday && e.ArrivalTime.Hour() == 0 {
			onMonday++
		}
	}
	ratio := float64(onMonday) / float64(len(events))
	assert.Greater(t, ratio, 0.9, "nearly all arrivals should land on Monday 00:00")
}

func TestGenerateWeeklyEventsSortedAscending(t *testing.T) {
	weights := make([]float64, 24)
	for i := range weights {
		weights[i] = 1
	}
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)
	rng := rand.New(rand.NewSource(1))
	alloc := event.NewAllocator()

	events, err := GenerateWeekly(rng, alloc, WeeklyParams{
		ArrivalWeights: weights,
		EventsPerWeek:  50,
		SimStart:       start,
		SimEnd:         end,
		Resolution:     time.Hour,
		ParkingTime:    GaussianParam{Mean: 4, StdDev: 1},
		MaxParkingTime: 24 * time.Hour,
		SOC:            GaussianParam{Mean: 0.5, StdDev: 0.2},
		SOCTarget:      1.0,
	})
	require.NoError(t, err)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].ArrivalTime.Before(events[i-1].ArrivalTime))
	}
}

func TestShiftDayWrap(t *testing.T) {
	assert.InDelta(t, 23+19, shiftDayWrap(23, 5), 1e-9, "just before midnight pushes past it")
	assert.InDelta(t, 24-19, shiftDayWrap(24, 5), 1e-9, "just after midnight pulls back before it")
	assert.InDelta(t, 12, shiftDayWrap(12, 5), 1e-9, "mid-day untouched")
}

func TestGenerateGMMRespectsHorizonAndParkingFloor(t *testing.T) {
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)
	rng := rand.New(rand.NewSource(3))
	alloc := event.NewAllocator()

	events, err := GenerateGMM(rng, alloc, GMMParams{
		Components: []GMMComponent{
			{Mean: [2]float64{36, 4}, Cov: [2][2]float64{{4, 0}, {0, 1}}, Weight: 0.6},
			{Mean: [2]float64{132, 8}, Cov: [2][2]float64{{9, 0}, {0, 2}}, Weight: 0.4},
		},
		NumEventsPerWeek: 20,
		SimStart:         start,
		SimEnd:           end,
		Resolution:       time.Hour,
		MaxParkingTime:   24 * time.Hour,
		SOC:              GaussianParam{Mean: 0.5, StdDev: 0.1},
		SOCTarget:        1.0,
	})
	require.NoError(t, err)

	for _, e := range events {
		assert.False(t, e.ArrivalTime.Before(start))
		assert.True(t, e.ArrivalTime.Before(end))
		assert.GreaterOrEqual(t, e.ParkingTime, time.Duration(0))
	}
}

func TestGMMValidateRejectsBadWeights(t *testing.T) {
	p := GMMParams{
		Components: []GMMComponent{
			{Mean: [2]float64{10, 1}, Cov: [2][2]float64{{1, 0}, {0, 1}}, Weight: 0.5},
		},
	}
	assert.Error(t, p.validate())
}

func TestVehicleTypeAliasAttachesType(t *testing.T) {
	alias := distribution.NewAlias([]float64{0, 1})
	rng := rand.New(rand.NewSource(1))
	alloc := event.NewAllocator()
	weights := make([]float64, 24)
	for i := range weights {
		weights[i] = 1
	}
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	events, err := GenerateWeekly(rng, alloc, WeeklyParams{
		ArrivalWeights: weights,
		EventsPerWeek:  10,
		SimStart:       start,
		SimEnd:         start.Add(7 * 24 * time.Hour),
		Resolution:     time.Hour,
		ParkingTime:    GaussianParam{Mean: 2, StdDev: 0.5},
		MaxParkingTime: 24 * time.Hour,
		SOC:            GaussianParam{Mean: 0.5, StdDev: 0.1},
		VehicleTypes:   VehicleTypeWeights{Alias: alias},
		SOCTarget:      1.0,
	})
	require.NoError(t, err)
	for _, e := range events {
		assert.Equal(t, 1, e.VehicleType)
	}
}
