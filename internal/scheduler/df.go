package scheduler

import (
	"math"
	"sort"

	"github.com/dailab/elvis-go/internal/infra"
	"github.com/dailab/elvis-go/internal/units"
)

// dfKey identifies one (CP, connected event) pairing for the
// times-charged counter.
type dfKey struct {
	cp      infra.NodeID
	eventID int64
}

// DiscriminationFree rotates charging priority across connected vehicles
// so that, over any rolling window of W steps, every vehicle receives
// roughly the same number of full-charge-attempt steps.
type DiscriminationFree struct {
	// ChargingPeriod is df_charging_period in seconds (default 15 min,
	// applied by the caller before constructing this policy).
	ChargingPeriod float64

	timesCharged map[dfKey]int
}

// NewDiscriminationFree constructs a DF policy with the given fairness
// window duration in seconds.
func NewDiscriminationFree(chargingPeriodSeconds float64) *DiscriminationFree {
	return &DiscriminationFree{
		ChargingPeriod: chargingPeriodSeconds,
		timesCharged:   make(map[dfKey]int),
	}
}

func (d *DiscriminationFree) Name() string { return "discrimination_free" }

func (d *DiscriminationFree) window(resolution float64) float64 {
	w := d.ChargingPeriod / resolution
	if w < 1 {
		w = 1
	}
	return w
}

// updateState drops counters for CPs no longer busy or whose connected
// event changed, inserts new CPs at 0, then subtracts the window-aligned
// minimum from every remaining counter.
func (d *DiscriminationFree) updateState(ctx Context) {
	live := make(map[dfKey]bool, len(ctx.BusyCPs))
	for _, cp := range ctx.BusyCPs {
		conn := ctx.Tree.Node(cp).Connected
		key := dfKey{cp: cp, eventID: conn.EventID}
		live[key] = true
		if _, ok := d.timesCharged[key]; !ok {
			d.timesCharged[key] = 0
		}
	}
	for key := range d.timesCharged {
		if !live[key] {
			delete(d.timesCharged, key)
		}
	}

	if len(d.timesCharged) == 0 {
		return
	}
	w := d.window(ctx.Resolution)
	minTC := math.MaxInt64
	for _, tc := range d.timesCharged {
		if tc < minTC {
			minTC = tc
		}
	}
	sub := minTC - int(math.Mod(float64(minTC), w))
	if sub > 0 {
		for key := range d.timesCharged {
			d.timesCharged[key] -= sub
		}
	}
}

func (d *DiscriminationFree) Schedule(ctx Context) (Assignment, error) {
	d.updateState(ctx)
	w := d.window(ctx.Resolution)

	ordered := make([]infra.NodeID, len(ctx.BusyCPs))
	copy(ordered, ctx.BusyCPs)
	sort.Slice(ordered, func(i, j int) bool {
		ki := dfKey{cp: ordered[i], eventID: ctx.Tree.Node(ordered[i]).Connected.EventID}
		kj := dfKey{cp: ordered[j], eventID: ctx.Tree.Node(ordered[j]).Connected.EventID}
		tci, tcj := float64(d.timesCharged[ki]), float64(d.timesCharged[kj])

		phaseI, phaseJ := math.Mod(tci/w, 1), math.Mod(tcj/w, 1)
		if phaseI != phaseJ {
			return phaseI > phaseJ // descending
		}
		return tci/w < tcj/w // ascending
	})

	a := newAssignment()
	storageUsed := units.Power(0)

	for _, cp := range ordered {
		conn := ctx.Tree.Node(cp).Connected
		cap := hardwareWalk(ctx.Tree, cp, a.CPs, ctx.Preload, storageUsed, ctx.Resolution)
		powerToFull := units.Floor3(infra.PowerToChargeTarget(conn, ctx.Resolution))
		hwMax := ctx.Tree.MaxHardwarePowerLocal(cp, conn)

		p := cap
		if powerToFull < p {
			p = powerToFull
		}
		if p < 0 {
			p = 0
		}
		a.CPs[cp] = p

		key := dfKey{cp: cp, eventID: conn.EventID}
		counted := p == powerToFull || p >= hwMax
		if counted {
			d.timesCharged[key]++
		}
	}

	initialResidual := ctx.Tree.Residual(ctx.Tree.Transformer(), map[infra.NodeID]units.Power{}, ctx.Preload)
	cumulative := units.Power(0)
	for _, p := range a.CPs {
		cumulative += p
	}
	if cumulative > initialResidual {
		excess := cumulative - initialResidual
		if st := ctx.Tree.Storage(); st != infra.NoNode {
			maxDischarge := ctx.Tree.Node(st).Storage.MaxDischargePower(storageUsed, ctx.Resolution)
			if excess > maxDischarge {
				excess = maxDischarge
			}
			a.Storage = -excess
		}
	}
	return a, nil
}
