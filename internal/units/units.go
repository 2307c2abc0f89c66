// Package units holds the small dimensioned-scalar helpers shared across the
// simulator: power/energy aliases, the floor-to-3-decimals numeric-stability
// helper, and time-step/resolution arithmetic.
package units

import (
	"math"
	"time"
)

// Power is an instantaneous power value in kW. Positive values charge a
// connection point or storage unit. The scheduler never assigns negative
// power to a charging point; a storage discharge is a negative storage
// power in the scheduler's Assignment, applied by
// StationaryBattery.Discharge.
type Power = float64

// Energy is an energy value in kWh.
type Energy = float64

// Floor3 rounds value down (toward negative infinity) to 3 decimal places,
// so -1.0001 becomes -1.001.
//
// This mirrors a numeric-stability fix applied throughout the charging
// pipeline: repeated floating point subtraction of residual power at each
// tree level can leave a value like 6.999999999999 where 7.0 is meant,
// which then fails a strict "available >= requested" comparison one level
// up. Every cap-combination point (transformer residual, station hardware
// cap, battery discharge cap) floors its result before it is compared or
// assigned further.
func Floor3(value float64) float64 {
	const scale = 1000.0
	return math.Floor(value*scale) / scale
}

// Clamp01 restricts v to the closed interval [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NumTimeSteps returns the number of simulation steps between start and end
// (inclusive of both endpoints) at the given resolution, matching the
// reference formula int((end-start)/resolution) + 1.
func NumTimeSteps(start, end time.Time, resolution time.Duration) int {
	if resolution <= 0 {
		return 0
	}
	return int(end.Sub(start)/resolution) + 1
}

// TimeSteps enumerates every simulation time stamp from start to end
// (inclusive) at the given resolution.
func TimeSteps(start, end time.Time, resolution time.Duration) []time.Time {
	n := NumTimeSteps(start, end, resolution)
	if n <= 0 {
		return nil
	}
	steps := make([]time.Time, n)
	t := start
	for i := 0; i < n; i++ {
		steps[i] = t
		t = t.Add(resolution)
	}
	return steps
}

// AdjustResolution resamples a series recorded at stepLen to a series of
// length numSteps at a (possibly different) target resolution, via
// piecewise-linear interpolation over fractional source-index positions.
// This grounds the preload/emissions-series alignment rule: a series given
// at one resolution is upsampled or downsampled to the simulation's own
// resolution by linear interpolation between the nearest recorded points.
func AdjustResolution(series []float64, seriesRes, targetRes time.Duration, numSteps int) []float64 {
	if len(series) == 0 || numSteps <= 0 {
		return make([]float64, numSteps)
	}
	if len(series) == 1 {
		out := make([]float64, numSteps)
		for i := range out {
			out[i] = series[0]
		}
		return out
	}

	ratio := float64(targetRes) / float64(seriesRes)
	out := make([]float64, numSteps)
	lastIdx := len(series) - 1
	for i := 0; i < numSteps; i++ {
		x := float64(i) * ratio
		if x <= 0 {
			out[i] = series[0]
			continue
		}
		if x >= float64(lastIdx) {
			out[i] = series[lastIdx]
			continue
		}
		lo := int(math.Floor(x))
		hi := lo + 1
		frac := x - float64(lo)
		out[i] = series[lo] + frac*(series[hi]-series[lo])
	}
	return out
}

// Repeat tiles series end-to-end until numSteps values are produced, padding
// any remainder from the start of the series. This grounds the "repeat"
// alignment mode for a preload/emissions series shorter than the simulation
// horizon.
func Repeat(series []float64, numSteps int) []float64 {
	if len(series) == 0 || numSteps <= 0 {
		return make([]float64, numSteps)
	}
	out := make([]float64, numSteps)
	for i := range out {
		out[i] = series[i%len(series)]
	}
	return out
}
