// Package distribution implements the piecewise-linear point distributions
// and the weighted categorical (alias-method) sampler used to draw vehicle
// arrival times, vehicle types, and GMM mixture components.
package distribution

import "sort"

// Point is one (x, y) sample of a distribution.
type Point struct {
	X, Y float64
}

// Interpolated is a piecewise-linear distribution over an arbitrary set of
// x positions. Values outside the covered range clamp to the nearest
// endpoint's y value rather than extrapolating.
type Interpolated struct {
	points []Point
}

// NewInterpolated builds an Interpolated distribution from points, which
// need not be sorted by X.
func NewInterpolated(points []Point) *Interpolated {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })
	return &Interpolated{points: sorted}
}

// At evaluates the distribution at x via linear interpolation between the
// two bracketing points, clamping outside the range.
func (d *Interpolated) At(x float64) float64 {
	n := len(d.points)
	if n == 0 {
		return 0
	}
	if n == 1 || x <= d.points[0].X {
		return d.points[0].Y
	}
	if x >= d.points[n-1].X {
		return d.points[n-1].Y
	}
	i := sort.Search(n, func(i int) bool { return d.points[i].X >= x })
	lo, hi := d.points[i-1], d.points[i]
	if hi.X == lo.X {
		return lo.Y
	}
	frac := (x - lo.X) / (hi.X - lo.X)
	return lo.Y + frac*(hi.Y-lo.Y)
}

// Min and Max return the distribution's x-domain bounds.
func (d *Interpolated) Min() float64 {
	if len(d.points) == 0 {
		return 0
	}
	return d.points[0].X
}

func (d *Interpolated) Max() float64 {
	if len(d.points) == 0 {
		return 0
	}
	return d.points[len(d.points)-1].X
}

// EquallySpaced is an Interpolated distribution whose points sit on a
// regular grid, so the bracketing pair can be found in O(1) instead of by
// binary search.
type EquallySpaced struct {
	start, step float64
	values      []float64
}

// NewEquallySpaced builds a distribution over values sampled at start,
// start+step, start+2*step, ...
func NewEquallySpaced(start, step float64, values []float64) *EquallySpaced {
	return &EquallySpaced{start: start, step: step, values: values}
}

// At evaluates the distribution at x, clamping outside the covered range.
func (d *EquallySpaced) At(x float64) float64 {
	n := len(d.values)
	if n == 0 {
		return 0
	}
	if n == 1 || d.step == 0 {
		return d.values[0]
	}
	pos := (x - d.start) / d.step
	if pos <= 0 {
		return d.values[0]
	}
	last := float64(n - 1)
	if pos >= last {
		return d.values[n-1]
	}
	lo := int(pos)
	frac := pos - float64(lo)
	return d.values[lo] + frac*(d.values[lo+1]-d.values[lo])
}

func (d *EquallySpaced) Min() float64 { return d.start }

func (d *EquallySpaced) Max() float64 {
	if len(d.values) == 0 {
		return d.start
	}
	return d.start + d.step*float64(len(d.values)-1)
}
