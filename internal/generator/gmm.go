package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/dailab/elvis-go/internal/distribution"
	"github.com/dailab/elvis-go/internal/event"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// GMMComponent is one Gaussian component of the 2-D arrival/parking
// mixture: mean is (hour_of_week, parking_hours), cov is its 2x2
// covariance matrix.
type GMMComponent struct {
	Mean   [2]float64
	Cov    [2][2]float64
	Weight float64
}

// GMMParams bundles the inputs to the GMM sampler.
type GMMParams struct {
	Components        []GMMComponent
	NumEventsPerWeek   int
	CutOffHours        float64 // default 5
	SimStart           time.Time
	SimEnd             time.Time
	Resolution         time.Duration
	MaxParkingTime     time.Duration
	SOC                GaussianParam
	VehicleTypes       VehicleTypeWeights
	SOCTarget          float64
}

// validate checks the GMM component assertions the spec requires: weights
// sum to 1 within 1%, arrival means inside (0,168), 2x2 covariances.
func (p GMMParams) validate() error {
	if len(p.Components) == 0 {
		return fmt.Errorf("generator: gmm requires at least one component")
	}
	sum := 0.0
	for _, c := range p.Components {
		sum += c.Weight
		if c.Mean[0] <= 0 || c.Mean[0] >= hoursPerWeek {
			return fmt.Errorf("generator: gmm component arrival mean %v must be in (0,168)", c.Mean[0])
		}
	}
	if math.Abs(sum-1) > 0.01 {
		return fmt.Errorf("generator: gmm component weights must sum to ~1, got %v", sum)
	}
	return nil
}

// normal builds the component's sampling distribution seeded from rng, so
// draws from it are reproducible under the run's shared RNG rather than
// gonum's default global source.
func (c GMMComponent) normal(rng *rand.Rand) (*distmv.Normal, error) {
	cov := mat.NewSymDense(2, []float64{c.Cov[0][0], c.Cov[0][1], c.Cov[1][0], c.Cov[1][1]})
	n, ok := distmv.NewNormal(c.Mean[:], cov, rng)
	if !ok {
		return nil, fmt.Errorf("generator: gmm component covariance is not positive-definite")
	}
	return n, nil
}

type gmmSample struct {
	arrivalHour float64 // hours into the week
	parkingHrs  float64
}

func sampleGMM(rng *rand.Rand, alias *distribution.Alias, normals []*distmv.Normal) gmmSample {
	comp := alias.Sample(rng)
	draw := normals[comp].Rand(nil)
	return gmmSample{arrivalHour: draw[0], parkingHrs: draw[1]}
}

// shiftDayWrap applies the day-wrap buffer shift: a sample landing within
// cutOff hours of one of the 7 daily boundaries (24*k) is pushed across it
// by ±(24-cutOff), so the arrival density doesn't have an artificial gap or
// pileup at midnight.
func shiftDayWrap(hour, cutOff float64) float64 {
	for k := 1; k <= 7; k++ {
		boundary := 24 * float64(k)
		if hour > boundary-cutOff && hour < boundary {
			return hour + (24 - cutOff)
		}
		if hour >= boundary && hour < boundary+cutOff {
			return hour - (24 - cutOff)
		}
	}
	return hour
}

const minParkingHours = 1.0 / 60.0

// buildResamplePool draws poolSize valid (parking >= 1 minute) samples.
func buildResamplePool(rng *rand.Rand, alias *distribution.Alias, normals []*distmv.Normal, poolSize int) []gmmSample {
	pool := make([]gmmSample, 0, poolSize)
	for len(pool) < poolSize {
		s := sampleGMM(rng, alias, normals)
		if s.parkingHrs >= minParkingHours {
			pool = append(pool, s)
		}
	}
	return pool
}

// GenerateGMM draws charging events from the 2-D Gaussian-Mixture sampler
// over (arrival-hour-of-week, parking-duration).
func GenerateGMM(rng *rand.Rand, alloc *event.Allocator, p GMMParams) ([]event.ChargingEvent, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	cutOff := p.CutOffHours
	if cutOff <= 0 {
		cutOff = 5
	}

	weights := make([]float64, len(p.Components))
	normals := make([]*distmv.Normal, len(p.Components))
	for i, c := range p.Components {
		weights[i] = c.Weight
		n, err := c.normal(rng)
		if err != nil {
			return nil, err
		}
		normals[i] = n
	}
	alias := distribution.NewAlias(weights)

	resHours := p.Resolution.Hours()
	simDurationHours := p.SimEnd.Sub(p.SimStart).Hours()

	// GMM component means are hour-of-week from Monday 00:00, so arrivals
	// must be referenced off the Monday 00:00 of SimStart's week, not
	// SimStart itself: firstStepHours is how far SimStart sits into that
	// week, and refDate is the Monday origin the sampled hours are added to.
	weekday := int(p.SimStart.Weekday())
	mondayOffset := (weekday + 6) % 7
	firstStepHours := float64(mondayOffset)*24 +
		float64(p.SimStart.Hour()) +
		float64(p.SimStart.Minute())/60 +
		float64(p.SimStart.Second())/3600
	refDate := p.SimStart.Add(-time.Duration(firstStepHours * float64(time.Hour)))

	pool := buildResamplePool(rng, alias, normals, 256)
	popPool := func() gmmSample {
		if len(pool) == 0 {
			pool = buildResamplePool(rng, alias, normals, 256)
		}
		s := pool[len(pool)-1]
		pool = pool[:len(pool)-1]
		return s
	}

	var events []event.ChargingEvent
	weeks := int(math.Ceil(simDurationHours/hoursPerWeek)) + 1
	for w := 0; w < weeks; w++ {
		weekOffset := hoursPerWeek * float64(w)
		for i := 0; i < p.NumEventsPerWeek; i++ {
			s := sampleGMM(rng, alias, normals)
			if s.parkingHrs < minParkingHours {
				s = popPool()
			}
			arrivalHour := shiftDayWrap(s.arrivalHour, cutOff) + weekOffset
			arrivalHour = math.Ceil(arrivalHour/resHours) * resHours

			if arrivalHour < firstStepHours || arrivalHour >= firstStepHours+simDurationHours {
				continue
			}

			parking := s.parkingHrs
			maxParkHours := p.MaxParkingTime.Hours()
			if parking > maxParkHours {
				parking = maxParkHours
			}

			arrival := refDate.Add(time.Duration(arrivalHour * float64(time.Hour)))
			soc := sampleGaussianClamped(rng, p.SOC, 0, 1)
			vt := 0
			if p.VehicleTypes.Alias != nil {
				vt = p.VehicleTypes.Alias.Sample(rng)
			}

			events = append(events, event.ChargingEvent{
				ID:          alloc.Next(),
				ArrivalTime: arrival,
				ParkingTime: time.Duration(parking * float64(time.Hour)),
				SOC:         soc,
				SOCTarget:   p.SOCTarget,
				VehicleType: vt,
			})
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ArrivalTime.Before(events[j].ArrivalTime) })
	return events, nil
}
