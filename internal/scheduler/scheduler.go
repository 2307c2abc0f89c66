// Package scheduler implements the scheduling policies: Uncontrolled,
// FCFS, Discrimination-Free, and the WithStorage/Optimized stubs. Each
// policy consumes the infrastructure tree's residual-capacity queries and
// the storage battery's discharge capacity to decide per-step power
// assignments.
package scheduler

import (
	"github.com/dailab/elvis-go/internal/infra"
	"github.com/dailab/elvis-go/internal/units"
)

// Assignment is the result of one scheduling call: power per CP, plus a
// signed storage power (positive = charging storage, negative =
// discharging it).
type Assignment struct {
	CPs     map[infra.NodeID]units.Power
	Storage units.Power
}

// Context bundles everything a policy needs to make one step's decision.
type Context struct {
	Tree        *infra.Tree
	FreeCPs     []infra.NodeID
	BusyCPs     []infra.NodeID // CPs with a connected vehicle
	Resolution  float64        // seconds
	Preload     units.Power
	StepIndex   int
}

// Policy is the scheduling policy interface every scheduling kind
// implements.
type Policy interface {
	Name() string
	Schedule(ctx Context) (Assignment, error)
}

func newAssignment() Assignment {
	return Assignment{CPs: make(map[infra.NodeID]units.Power)}
}

// hardwareWalk computes the capacity available to CP cp given the running
// assignment so far, walking up the tree from the CP's parent to the
// transformer, per the common capacity walk shared by FCFS and DF.
func hardwareWalk(tree *infra.Tree, cp infra.NodeID, running map[infra.NodeID]units.Power, preload units.Power, storagePowerUsed units.Power, resolution float64) units.Power {
	conn := tree.Node(cp).Connected
	cap := tree.MaxHardwarePowerLocal(cp, conn)

	parent := tree.Node(cp).Parent
	for parent != infra.NoNode {
		node := tree.Node(parent)
		if node.Kind == infra.KindTransformer {
			rT := tree.Residual(parent, running, preload)
			rS := units.Power(0)
			if st := tree.Storage(); st != infra.NoNode {
				rS = tree.Node(st).Storage.MaxDischargePower(storagePowerUsed, resolution)
			}
			combined := units.Floor3(rT + rS)
			if combined < cap {
				cap = combined
			}
		} else {
			r := tree.Residual(parent, running, 0)
			if r < cap {
				cap = r
			}
		}
		parent = node.Parent
	}
	return cap
}
