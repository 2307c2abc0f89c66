package scheduler

import "github.com/dailab/elvis-go/internal/infra"

// Uncontrolled assigns every busy CP the most it could possibly draw,
// ignoring station/transformer bounds entirely. If the resulting total
// would exceed the transformer's max power, the excess is recorded as a
// storage discharge (if a storage exists) so the overflow can be measured,
// even though no CP assignment is actually reduced.
type Uncontrolled struct{}

func (Uncontrolled) Name() string { return "uncontrolled" }

func (Uncontrolled) Schedule(ctx Context) (Assignment, error) {
	a := newAssignment()
	total := 0.0
	for _, cp := range ctx.BusyCPs {
		conn := ctx.Tree.Node(cp).Connected
		powerToFull := infra.PowerToChargeTarget(conn, ctx.Resolution)
		maxPower := ctx.Tree.MaxHardwarePowerLocal(cp, conn)
		cpMax := ctx.Tree.Node(cp).MaxPower

		p := powerToFull
		if maxPower < p {
			p = maxPower
		}
		if cpMax < p {
			p = cpMax
		}
		a.CPs[cp] = p
		total += p
	}

	transformerMax := ctx.Tree.Node(ctx.Tree.Transformer()).MaxPower
	overflow := total - transformerMax
	if overflow > 0 {
		if st := ctx.Tree.Storage(); st != infra.NoNode {
			maxDischarge := ctx.Tree.Node(st).Storage.MaxDischargePower(0, ctx.Resolution)
			discharge := overflow
			if discharge > maxDischarge {
				discharge = maxDischarge
			}
			a.Storage = -discharge
		}
	}
	return a, nil
}
