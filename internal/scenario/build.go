package scenario

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dailab/elvis-go/internal/battery"
	"github.com/dailab/elvis-go/internal/distribution"
	"github.com/dailab/elvis-go/internal/event"
	"github.com/dailab/elvis-go/internal/generator"
	"github.com/dailab/elvis-go/internal/infra"
	"github.com/dailab/elvis-go/internal/scheduler"
	"github.com/dailab/elvis-go/internal/simulate"
	"github.com/dailab/elvis-go/internal/units"
)

// Assembly bundles everything one simulation run needs, built from a
// validated Scenario plus a run-scoped RNG and ID allocator (OQ-2/OQ-3:
// neither is ever package-level state).
type Assembly struct {
	Tree         *infra.Tree
	VehicleTypes []*battery.EVBattery
	Events       []event.ChargingEvent
	SimConfig    simulate.Config
}

// Build constructs the infrastructure tree, samples the charging events,
// and assembles a ready-to-run simulate.Config from s. rng drives both the
// event sampler and (if unseeded by the caller) should already be seeded
// from s.Seed.
func (s *Scenario) Build(rng *rand.Rand) (*Assembly, error) {
	tree := infra.NewTree()
	tc := s.Infrastructure.Transformers[0]
	tr, err := tree.AddTransformer(tc.MinPower, tc.MaxPower)
	if err != nil {
		return nil, err
	}
	for _, stc := range tc.ChargingStations {
		st, err := tree.AddStation(tr, stc.MinPower, stc.MaxPower)
		if err != nil {
			return nil, err
		}
		for _, cpc := range stc.ChargingPoints {
			if _, err := tree.AddChargingPoint(st, cpc.MinPower, cpc.MaxPower); err != nil {
				return nil, err
			}
		}
	}
	if tc.Storage != nil {
		base := battery.EVBattery{
			Capacity:       tc.Storage.Capacity,
			MaxChargePower: tc.Storage.MaxPower,
			MinChargePower: tc.Storage.MinPower,
			Efficiency:     tc.Storage.Efficiency,
			// A stationary battery has no SOC-dependent power derating in
			// this scenario schema: it always offers its full rated power.
			StartPowerDegradation: 1,
			MaxDegradationLevel:   1,
		}
		sb, err := battery.NewStationaryBattery(base, tc.Storage.MinSOC, tc.Storage.InitialSOC)
		if err != nil {
			return nil, fmt.Errorf("scenario: storage: %w", err)
		}
		if _, err := tree.AddStorage(tr, sb); err != nil {
			return nil, err
		}
	}
	tree.Finalize()

	vehicleTypes := make([]*battery.EVBattery, len(s.VehicleTypes))
	weights := make([]float64, len(s.VehicleTypes))
	for i, vtc := range s.VehicleTypes {
		b := &battery.EVBattery{
			Capacity:              vtc.Battery.Capacity,
			MaxChargePower:        vtc.Battery.MaxChargePower,
			MinChargePower:        vtc.Battery.MinChargePower,
			Efficiency:            vtc.Battery.Efficiency,
			StartPowerDegradation: vtc.Battery.StartPowerDegradation,
			MaxDegradationLevel:   vtc.Battery.MaxDegradationLevel,
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("scenario: vehicle_type %s/%s: %w", vtc.Brand, vtc.Model, err)
		}
		vehicleTypes[i] = b
		weights[i] = vtc.Probability
	}
	vtWeights := generator.VehicleTypeWeights{Alias: distribution.NewAlias(weights)}

	alloc := event.NewAllocator()
	var events []event.ChargingEvent
	soc := generator.GaussianParam{Mean: s.MeanSOC, StdDev: s.StdDeviationSOC}
	parking := generator.GaussianParam{Mean: s.MeanPark, StdDev: s.StdDeviationPark}
	maxParking := time.Duration(s.MaxParkingTimeHrs * float64(time.Hour))

	switch s.SampleMethod {
	case "independent_normal_dist":
		events, err = generator.GenerateWeekly(rng, alloc, generator.WeeklyParams{
			ArrivalWeights: s.ArrivalDistribution,
			EventsPerWeek:  s.NumChargingEvents,
			SimStart:       s.StartDate,
			SimEnd:         s.EndDate,
			Resolution:     s.Resolution.Std(),
			ParkingTime:    parking,
			MaxParkingTime: maxParking,
			SOC:            soc,
			VehicleTypes:   vtWeights,
			SOCTarget:      1.0,
		})
	case "gmm":
		components := make([]generator.GMMComponent, len(s.GMMWeights))
		for i := range s.GMMWeights {
			components[i] = generator.GMMComponent{
				Mean:   s.GMMMeans[i],
				Cov:    s.GMMCovariances[i],
				Weight: s.GMMWeights[i],
			}
		}
		events, err = generator.GenerateGMM(rng, alloc, generator.GMMParams{
			Components:       components,
			NumEventsPerWeek: int(s.NumChargingEvents),
			SimStart:         s.StartDate,
			SimEnd:           s.EndDate,
			Resolution:       s.Resolution.Std(),
			MaxParkingTime:   maxParking,
			SOC:              soc,
			VehicleTypes:     vtWeights,
			SOCTarget:        1.0,
		})
	default:
		return nil, fmt.Errorf("scenario: unknown sample_method %q", s.SampleMethod)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario: generating charging events: %w", err)
	}

	policy, err := s.buildPolicy()
	if err != nil {
		return nil, err
	}

	stepCount := units.NumTimeSteps(s.StartDate, s.EndDate, s.Resolution.Std())
	preload := s.TransformerPreload.Resolve(stepCount, s.Resolution.Std())

	var openingHours *simulate.OpeningHours
	if s.OpeningHours != nil {
		openingHours = &simulate.OpeningHours{Open: s.OpeningHours[0], Close: s.OpeningHours[1]}
	}

	cfg := simulate.Config{
		Tree:             tree,
		Policy:           policy,
		VehicleTypes:     vehicleTypes,
		Events:           events,
		StartTime:        s.StartDate,
		EndTime:          s.EndDate,
		Resolution:       s.Resolution.Std(),
		QueueLength:      s.QueueLength,
		DisconnectByTime: s.DisconnectByTime,
		DisconnectBySOC:  !s.DisconnectByTime,
		OpeningHours:     openingHours,
		Preload:          preload,
	}

	return &Assembly{Tree: tree, VehicleTypes: vehicleTypes, Events: events, SimConfig: cfg}, nil
}

func (s *Scenario) buildPolicy() (scheduler.Policy, error) {
	switch s.SchedulingPolicy {
	case "Uncontrolled":
		return scheduler.Uncontrolled{}, nil
	case "FCFS":
		return scheduler.FCFS{}, nil
	case "DiscriminationFree":
		period := s.DFChargingPeriod
		if period <= 0 {
			period = Duration(15 * time.Minute)
		}
		return scheduler.NewDiscriminationFree(period.Std().Seconds()), nil
	case "WithStorage":
		return scheduler.WithStorage{}, nil
	case "Optimized":
		return scheduler.Optimized{}, nil
	default:
		return nil, fmt.Errorf("scenario: unknown scheduling_policy %q", s.SchedulingPolicy)
	}
}
