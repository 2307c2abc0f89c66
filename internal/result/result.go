// Package result implements the sparse per-CP/per-storage power traces and
// the KPI derivations computed from them: load profile, simultaneity
// factor, energy, emissions, cost, and charging-time statistics.
package result

import (
	"fmt"
	"sort"

	"github.com/dailab/elvis-go/internal/infra"
	"github.com/dailab/elvis-go/internal/units"
	"gonum.org/v1/gonum/stat"
)

// ChargingPeriod tracks the first and last step at which an event received
// positive power.
type ChargingPeriod struct {
	Arrival     int // step index of first charge
	LastCharged int // step index of most recent charge
}

// Store is the delta-encoded result trace for one simulation run: a new
// entry is written per CP/storage only if its assigned power changed since
// the last recorded step, except the final step, which is always written.
type Store struct {
	StepCount   int
	Resolution  float64 // seconds

	cpTraces      map[infra.NodeID]map[int]units.Power
	cpLastValue   map[infra.NodeID]units.Power
	storageTrace  map[int]units.Power
	storageLast   units.Power

	Rejections     int
	ChargingPeriods map[int64]*ChargingPeriod

	InstalledCPPowerKW units.Power
}

// NewStore creates an empty result store for a run of stepCount steps at
// the given resolution (seconds).
func NewStore(stepCount int, resolutionSeconds float64, installedCPPower units.Power) *Store {
	return &Store{
		StepCount:          stepCount,
		Resolution:         resolutionSeconds,
		cpTraces:           make(map[infra.NodeID]map[int]units.Power),
		cpLastValue:        make(map[infra.NodeID]units.Power),
		storageTrace:       make(map[int]units.Power),
		ChargingPeriods:    make(map[int64]*ChargingPeriod),
		InstalledCPPowerKW: installedCPPower,
	}
}

// RecordStep writes per-CP and storage power for step i, applying the
// delta-encoding rule (always write on the final step).
func (s *Store) RecordStep(step int, cpPower map[infra.NodeID]units.Power, storagePower units.Power) {
	final := step == s.StepCount-1
	for cp, p := range cpPower {
		last, seen := s.cpLastValue[cp]
		if !seen || p != last || final {
			if s.cpTraces[cp] == nil {
				s.cpTraces[cp] = make(map[int]units.Power)
			}
			s.cpTraces[cp][step] = p
		}
		s.cpLastValue[cp] = p
	}
	if storagePower != s.storageLast || final {
		s.storageTrace[step] = storagePower
	}
	s.storageLast = storagePower
}

// RecordCharge updates the charging_periods map for event eventID at step.
func (s *Store) RecordCharge(eventID int64, step int) {
	p, ok := s.ChargingPeriods[eventID]
	if !ok {
		s.ChargingPeriods[eventID] = &ChargingPeriod{Arrival: step, LastCharged: step}
		return
	}
	p.LastCharged = step
}

// denseValueAt reconstructs the value of a sparse per-key trace at step i by
// finding the latest recorded step <= i.
func denseValueAt(trace map[int]units.Power, step int) units.Power {
	best := -1
	var value units.Power
	for k, v := range trace {
		if k <= step && k > best {
			best = k
			value = v
		}
	}
	return value
}

// AggregatedLoadProfile returns the dense per-step total CP power.
func (s *Store) AggregatedLoadProfile() []units.Power {
	profile := make([]units.Power, s.StepCount)
	for _, trace := range s.cpTraces {
		for step := 0; step < s.StepCount; step++ {
			profile[step] += denseValueAt(trace, step)
		}
	}
	return profile
}

// StorageProfile returns the dense per-step storage power.
func (s *Store) StorageProfile() []units.Power {
	profile := make([]units.Power, s.StepCount)
	for step := 0; step < s.StepCount; step++ {
		profile[step] = denseValueAt(s.storageTrace, step)
	}
	return profile
}

// TotalEnergyKWh is Σ load[i] · Δt/3600.
func (s *Store) TotalEnergyKWh() units.Energy {
	hours := s.Resolution / 3600
	total := 0.0
	for _, p := range s.AggregatedLoadProfile() {
		total += p * hours
	}
	return total
}

// MaxLoad is max(load). Empty traces return 0 per spec's
// empty-result-query convention.
func (s *Store) MaxLoad() units.Power {
	max := 0.0
	for _, p := range s.AggregatedLoadProfile() {
		if p > max {
			max = p
		}
	}
	return max
}

// SimultaneityFactorMax returns max(load)/installed_power.
func (s *Store) SimultaneityFactorMax() float64 {
	if s.InstalledCPPowerKW == 0 {
		return 0
	}
	return s.MaxLoad() / s.InstalledCPPowerKW
}

// SimultaneityFactorQuantile returns the q-quantile (q in [0,1]) of the
// per-step simultaneity ratio series.
func (s *Store) SimultaneityFactorQuantile(q float64) float64 {
	if s.InstalledCPPowerKW == 0 {
		return 0
	}
	ratios := s.simultaneityRatios()
	if len(ratios) == 0 {
		return 0
	}
	sort.Float64s(ratios)
	return stat.Quantile(q, stat.Empirical, ratios, nil)
}

// SimultaneityFactorHistogram bins the per-step simultaneity ratio series
// into the given bin edges (length n+1 for n bins), mirroring numpy's
// histogram semantics.
func (s *Store) SimultaneityFactorHistogram(bins []float64) []int {
	ratios := s.simultaneityRatios()
	sort.Float64s(ratios)
	dividers := bins
	counts := make([]float64, len(dividers)-1)
	stat.Histogram(counts, dividers, ratios, nil)
	out := make([]int, len(counts))
	for i, c := range counts {
		out[i] = int(c)
	}
	return out
}

func (s *Store) simultaneityRatios() []float64 {
	load := s.AggregatedLoadProfile()
	ratios := make([]float64, len(load))
	for i, p := range load {
		ratios[i] = p / s.InstalledCPPowerKW
	}
	return ratios
}

// Emissions is Σ load[i] · emissions[i], both aligned to step resolution.
func (s *Store) Emissions(emissionsSeries []float64) (float64, error) {
	load := s.AggregatedLoadProfile()
	if len(emissionsSeries) != len(load) {
		return 0, fmt.Errorf("result: emissions series length %d does not match step count %d", len(emissionsSeries), len(load))
	}
	total := 0.0
	for i, p := range load {
		total += p * emissionsSeries[i]
	}
	return total, nil
}

// FixedCost is total_energy · rate.
func (s *Store) FixedCost(ratePerKWh float64) float64 {
	return s.TotalEnergyKWh() * ratePerKWh
}

// VariableCost24h computes Σ load[i]·rate(clock(i)) where rate is a
// length-24 daily curve interpolated and wrapped at 24h, and clock(i) is
// the hour-of-day (as a fraction) at step i given the simulation's start
// hour-of-day and resolution.
func (s *Store) VariableCost24h(rateCurve []float64, startHourOfDay float64) (float64, error) {
	if len(rateCurve) == 0 {
		return 0, fmt.Errorf("result: rate curve must be non-empty")
	}
	load := s.AggregatedLoadProfile()
	hoursPerStep := s.Resolution / 3600
	total := 0.0
	n := len(rateCurve)
	for i, p := range load {
		clock := startHourOfDay + float64(i)*hoursPerStep
		clock = wrapMod(clock, 24)
		rate := interpolate24h(rateCurve, clock, n)
		total += p * rate
	}
	return total, nil
}

func wrapMod(x, m float64) float64 {
	r := x - m*float64(int(x/m))
	if r < 0 {
		r += m
	}
	return r
}

func interpolate24h(curve []float64, hour float64, n int) float64 {
	step := 24.0 / float64(n)
	pos := hour / step
	lo := int(pos) % n
	hi := (lo + 1) % n
	frac := pos - float64(int(pos))
	return curve[lo] + frac*(curve[hi]-curve[lo])
}

// AverageChargingTimeSteps is the mean over charging_periods of
// (last_charged - arrival), in step units. Requires at least one charging
// period, per spec's empty-result-query exception.
func (s *Store) AverageChargingTimeSteps() (float64, error) {
	if len(s.ChargingPeriods) == 0 {
		return 0, fmt.Errorf("result: average_charging_time requires at least one charging period")
	}
	total := 0
	for _, p := range s.ChargingPeriods {
		total += p.LastCharged - p.Arrival
	}
	return float64(total) / float64(len(s.ChargingPeriods)), nil
}

// ChargingTimeHistogramMinutes returns a histogram (in minutes) of charging
// durations across all periods, per the given bin edges.
func (s *Store) ChargingTimeHistogramMinutes(bins []float64) []int {
	durations := make([]float64, 0, len(s.ChargingPeriods))
	minutesPerStep := s.Resolution / 60
	for _, p := range s.ChargingPeriods {
		durations = append(durations, float64(p.LastCharged-p.Arrival)*minutesPerStep)
	}
	sort.Float64s(durations)
	counts := make([]float64, len(bins)-1)
	stat.Histogram(counts, bins, durations, nil)
	out := make([]int, len(counts))
	for i, c := range counts {
		out[i] = int(c)
	}
	return out
}
