// Package event defines the charging event: the immutable record produced
// by the generator and consumed by the simulator's admission logic.
package event

import "time"

// ChargingEvent is immutable once created. The simulator may snapshot
// selected fields into a mutable connected-vehicle state on a Charging
// Point.
type ChargingEvent struct {
	ID          int64
	ArrivalTime time.Time
	ParkingTime time.Duration
	SOC         float64
	SOCTarget   float64
	VehicleType int
}

// LeavingTime is ArrivalTime + ParkingTime, computed rather than stored so
// it can never drift out of sync.
func (e ChargingEvent) LeavingTime() time.Time {
	return e.ArrivalTime.Add(e.ParkingTime)
}

// Allocator hands out per-run, monotonically increasing event IDs. A fresh
// Allocator is created per simulation run rather than using a package-level
// counter, so independent concurrent runs never share ID state.
type Allocator struct {
	next int64
}

// NewAllocator creates an allocator starting at ID 0.
func NewAllocator() *Allocator { return &Allocator{} }

// Next returns the next unused ID.
func (a *Allocator) Next() int64 {
	id := a.next
	a.next++
	return id
}
