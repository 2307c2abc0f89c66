package scheduler

import (
	"sort"

	"github.com/dailab/elvis-go/internal/infra"
	"github.com/dailab/elvis-go/internal/units"
)

// FCFS assigns power to busy CPs in order of their connected vehicle's
// leaving time (earliest first), walking the tree's capacity bounds for
// each in turn against the running assignment. Once the cumulative
// assignment exceeds the transformer's initial residual, the excess is
// debited from storage.
type FCFS struct{}

func (FCFS) Name() string { return "fcfs" }

func (FCFS) Schedule(ctx Context) (Assignment, error) {
	a := newAssignment()

	ordered := make([]infra.NodeID, len(ctx.BusyCPs))
	copy(ordered, ctx.BusyCPs)
	sort.Slice(ordered, func(i, j int) bool {
		ti := ctx.Tree.Node(ordered[i]).Connected.LeavingTime
		tj := ctx.Tree.Node(ordered[j]).Connected.LeavingTime
		return ti < tj
	})

	initialResidual := ctx.Tree.Residual(ctx.Tree.Transformer(), a.CPs, ctx.Preload)

	storageUsed := units.Power(0)
	cumulative := units.Power(0)
	for _, cp := range ordered {
		conn := ctx.Tree.Node(cp).Connected
		cap := hardwareWalk(ctx.Tree, cp, a.CPs, ctx.Preload, storageUsed, ctx.Resolution)
		powerToFull := units.Floor3(infra.PowerToChargeTarget(conn, ctx.Resolution))

		p := cap
		if powerToFull < p {
			p = powerToFull
		}
		if p < 0 {
			p = 0
		}
		a.CPs[cp] = p
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
