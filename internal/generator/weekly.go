// Package generator implements the two stochastic charging-event samplers:
// the weekly-marginals independent sampler and the 2-D Gaussian-Mixture
// sampler, both grounded on the original implementation's
// charging_event_generator module.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/dailab/elvis-go/internal/distribution"
	"github.com/dailab/elvis-go/internal/event"
)

const hoursPerWeek = 168.0
const secondsPerWeek = 7 * 24 * 3600.0

// VehicleTypeWeights pairs a weighted alias sampler over vehicle type
// indices for attaching a type to each generated event.
type VehicleTypeWeights struct {
	Alias *distribution.Alias
}

// GaussianParam is a (mean, stddev) pair used for parking-time and SOC
// sampling.
type GaussianParam struct {
	Mean, StdDev float64
}

func sampleGaussianClamped(rng *rand.Rand, p GaussianParam, lo, hi float64) float64 {
	v := rng.NormFloat64()*p.StdDev + p.Mean
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WeeklyParams bundles the inputs to the weekly-marginals sampler.
type WeeklyParams struct {
	ArrivalWeights    []float64 // length L, uniform spacing over 168h
	EventsPerWeek     float64
	SimStart          time.Time
	SimEnd            time.Time
	Resolution        time.Duration
	ParkingTime       GaussianParam
	MaxParkingTime    time.Duration
	SOC               GaussianParam
	VehicleTypes      VehicleTypeWeights
	SOCTarget         float64
}

// alignWeekly computes the equally-spaced arrival-probability distribution
// over hours-from-SimStart, implementing align_distribution's fractional
// offset correction and week-lifting.
func alignWeekly(p WeeklyParams) (*distribution.EquallySpaced, error) {
	L := len(p.ArrivalWeights)
	if L == 0 {
		return nil, fmt.Errorf("generator: arrival_distribution must be non-empty")
	}

	weekday := int(p.SimStart.Weekday())
	// time.Sunday == 0; align to Monday == 0 per the source's weekly convention.
	mondayOffset := (weekday + 6) % 7
	offsetSeconds := float64(mondayOffset)*86400 +
		float64(p.SimStart.Hour())*3600 +
		float64(p.SimStart.Minute())*60 +
		float64(p.SimStart.Second())

	secondsPerValue := secondsPerWeek / float64(L)
	startingPosF := offsetSeconds / secondsPerValue
	startingPos := int(math.Floor(startingPosF))
	delta := (startingPosF - float64(startingPos)) * secondsPerValue / 3600 // hours

	totalHours := p.SimEnd.Sub(p.SimStart).Hours()
	weeks := int(math.Ceil(totalHours/hoursPerWeek)) + 1

	lifted := make([]float64, 0, L*weeks)
	rotated := make([]float64, L)
	for i := 0; i < L; i++ {
		rotated[i] = p.ArrivalWeights[(startingPos+i)%L]
	}
	for w := 0; w < weeks; w++ {
		lifted = append(lifted, rotated...)
	}

	step := hoursPerWeek / float64(L)
	return distribution.NewEquallySpaced(-delta, step, lifted), nil
}

// GenerateWeekly draws charging events from the independent-marginals
// weekly sampler.
func GenerateWeekly(rng *rand.Rand, alloc *event.Allocator, p WeeklyParams) ([]event.ChargingEvent, error) {
	dist, err := alignWeekly(p)
	if err != nil {
		return nil, err
	}

	numSteps := int(p.SimEnd.Sub(p.SimStart)/p.Resolution) + 1
	if numSteps <= 0 {
		return nil, fmt.Errorf("generator: simulation horizon must contain at least one step")
	}
	resHours := p.Resolution.Hours()

	probs := make([]float64, numSteps)
	sum := 0.0
	for i := 0; i < numSteps; i++ {
		x := float64(i) * resHours
		v := dist.At(x)
		if v < 0 {
			v = 0
		}
		probs[i] = v
		sum += v
	}
	if sum > 0 {
		for i := range probs {
			probs[i] /= sum
		}
	}

	weeks := p.SimEnd.Sub(p.SimStart).Hours() / hoursPerWeek
	n := int(math.Ceil(p.EventsPerWeek * weeks))
	if n < 0 {
		n = 0
	}

	alias := distribution.NewAlias(probs)
	indices := alias.SampleN(rng, n)

	events := make([]event.ChargingEvent, 0, n)
	for _, idx := range indices {
		arrival := p.SimStart.Add(time.Duration(idx) * p.Resolution)
		parking := time.Duration(sampleGaussianClamped(rng, p.ParkingTime, 0, p.MaxParkingTime.Hours()) * float64(time.Hour))
		soc := sampleGaussianClamped(rng, p.SOC, 0, 1)
		vt := 0
		if p.VehicleTypes.Alias != nil {
			vt = p.VehicleTypes.Alias.Sample(rng)
		}
		events = append(events, event.ChargingEvent{
			ID:          alloc.Next(),
			ArrivalTime: arrival,
			ParkingTime: parking,
			SOC:         soc,
			SOCTarget:   p.SOCTarget,
			VehicleType: vt,
		})
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ArrivalTime.Before(events[j].ArrivalTime) })
	return events, nil
}
