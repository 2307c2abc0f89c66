package simulate

import (
	"context"
	"testing"
	"time"

	"github.com/dailab/elvis-go/internal/battery"
	"github.com/dailab/elvis-go/internal/event"
	"github.com/dailab/elvis-go/internal/infra"
	"github.com/dailab/elvis-go/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateS1Sanity(t *testing.T) {
	tree := infra.NewTree()
	tr, err := tree.AddTransformer(0, 1000)
	require.NoError(t, err)
	st, err := tree.AddStation(tr, 0, 1000)
	require.NoError(t, err)
	cp, err := tree.AddChargingPoint(st, 0, 11)
	require.NoError(t, err)
	tree.Finalize()

	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)

	vt := &battery.EVBattery{Capacity: 30, MaxChargePower: 11, MaxDegradationLevel: 1, StartPowerDegradation: 1}

	events := []event.ChargingEvent{
		{ID: 1, ArrivalTime: start, ParkingTime: 4 * time.Hour, SOC: 0.5, SOCTarget: 1.0, VehicleType: 0},
	}

	sim, err := New(Config{
		Tree:         tree,
		Policy:       scheduler.Uncontrolled{},
		VehicleTypes: []*battery.EVBattery{vt},
		Events:       events,
		StartTime:    start,
		EndTime:      end,
		Resolution:   time.Hour,
		QueueLength:  1,
		Preload:      make([]float64, 7),
	})
	require.NoError(t, err)

	res, err := sim.Run(context.Background())
	require.NoError(t, err)

	load := res.AggregatedLoadProfile()
	require.Len(t, load, 7)

	// Charging needs (1-0.5)*30 = 15 kWh total, capped at 11 kW/step:
	// step0 = 11 (15 needed, capped), step1 = 4 (remaining 4 needed), rest 0.
	assert.InDelta(t, 11.0, load[0], 1e-6)
	assert.InDelta(t, 4.0, load[1], 1e-6)
	for i := 2; i < len(load); i++ {
		assert.InDelta(t, 0.0, load[i], 1e-6, "step %d", i)
	}

	assert.InDelta(t, 15.0, res.TotalEnergyKWh(), 1e-6, "conservation: total energy equals soc delta * capacity")
	_ = cp
}
