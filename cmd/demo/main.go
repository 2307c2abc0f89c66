package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/dailab/elvis-go/internal/scenario"
	"github.com/dailab/elvis-go/internal/simulate"
)

// Demo:
// - Build a small hardcoded scenario (one transformer, one station, three
//   charging points, two vehicle types)
// - Run it under the Uncontrolled, FCFS and DiscriminationFree policies in turn
// - Print a short walkthrough of the resulting load profile and KPIs
func main() {
	n := flag.Int("n", 12, "Number of steps to print per policy")
	seed := flag.Int64("seed", 42, "RNG seed")
	flag.Parse()

	s := demoScenario()
	if err := s.Validate(); err != nil {
		panic(err)
	}

	for _, policy := range []string{"Uncontrolled", "FCFS", "DiscriminationFree"} {
		s.SchedulingPolicy = policy

		asm, err := s.Build(rand.New(rand.NewSource(*seed)))
		if err != nil {
			panic(err)
		}
		sim, err := simulate.New(asm.SimConfig)
		if err != nil {
			panic(err)
		}
		store, err := sim.Run(context.Background())
		if err != nil {
			panic(err)
		}

		fmt.Printf("=== policy=%s ===\n", policy)
		fmt.Printf("events=%d total_energy=%.3fkWh max_load=%.3fkW simultaneity=%.3f rejections=%d\n",
			len(asm.Events), store.TotalEnergyKWh(), store.MaxLoad(), store.SimultaneityFactorMax(), store.Rejections)

		load := store.AggregatedLoadProfile()
		for i := 0; i < min(*n, len(load)); i++ {
			fmt.Printf("  step %3d  load=%7.3f kW\n", i, load[i])
		}
		fmt.Println()
	}
}

func demoScenario() *scenario.Scenario {
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC) // a Monday
	return &scenario.Scenario{
		StartDate:  start,
		EndDate:    start.Add(7 * 24 * time.Hour),
		Resolution: scenario.Duration(15 * time.Minute),
		Infrastructure: scenario.InfrastructureConfig{
			Transformers: []scenario.TransformerConfig{{
				MaxPower: 100,
				ChargingStations: []scenario.ChargingStationConfig{{
					MaxPower: 60,
					ChargingPoints: []scenario.ChargingPointConfig{
						{MaxPower: 22},
						{MaxPower: 22},
						{MaxPower: 11},
					},
				}},
			}},
		},
		VehicleTypes: []scenario.VehicleTypeConfig{
			{
				Brand:       "Generic",
				Model:       "Compact EV",
				Probability: 0.6,
				Battery: scenario.BatteryConfig{
					Capacity:              40,
					MaxChargePower:        22,
					MaxDegradationLevel:   1,
					StartPowerDegradation: 0.8,
				},
			},
			{
				Brand:       "Generic",
				Model:       "Long-Range EV",
				Probability: 0.4,
				Battery: scenario.BatteryConfig{
					Capacity:              80,
					MaxChargePower:        11,
					MaxDegradationLevel:   1,
					StartPowerDegradation: 1,
				},
			},
		},
		SampleMethod:        "independent_normal_dist",
		ArrivalDistribution: dailyArrivalCurve(),
		NumChargingEvents:   30,
		MeanPark:            6,
		StdDeviationPark:    2,
		MaxParkingTimeHrs:   14,
		MeanSOC:             0.4,
		StdDeviationSOC:     0.15,
		QueueLength:         2,
		SchedulingPolicy:    "Uncontrolled",
		TransformerPreload:  scenario.SeriesConfig{Scalar: floatPtr(0)},
	}
}

// dailyArrivalCurve gives a weekday morning arrival peak and a weekend
// lull, repeated across the 168-hour week.
func dailyArrivalCurve() []float64 {
	curve := make([]float64, 168)
	for h := 0; h < 168; h++ {
		day := h / 24
		hourOfDay := h % 24
		weight := 0.1
		if hourOfDay >= 7 && hourOfDay <= 9 {
			weight = 1.0
		}
		if day >= 5 { // weekend
			weight *= 0.3
		}
		curve[h] = weight
	}
	return curve
}

func floatPtr(v float64) *float64 { return &v }

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
