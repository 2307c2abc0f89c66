package infra

import (
	"testing"

	"github.com/dailab/elvis-go/internal/battery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSimpleTree(t *testing.T) (*Tree, NodeID, NodeID) {
	t.Helper()
	tree := NewTree()
	tr, err := tree.AddTransformer(0, 100)
	require.NoError(t, err)
	st, err := tree.AddStation(tr, 0, 50)
	require.NoError(t, err)
	cp, err := tree.AddChargingPoint(st, 0, 11)
	require.NoError(t, err)
	tree.Finalize()
	return tree, st, cp
}

func TestTreeResidual(t *testing.T) {
	tree, _, cp := buildSimpleTree(t)
	assigned := map[NodeID]float64{cp: 30}
	r := tree.Residual(tree.Transformer(), assigned, 0)
	assert.InDelta(t, 70.0, r, 1e-9)
}

func TestTreeResidualFloorsAndClampsZero(t *testing.T) {
	tree, _, cp := buildSimpleTree(t)
	assigned := map[NodeID]float64{cp: 150}
	r := tree.Residual(tree.Transformer(), assigned, 0)
	assert.Equal(t, 0.0, r)
}

func TestMaxHardwarePowerLocalUsesBatteryDerating(t *testing.T) {
	tree, _, cp := buildSimpleTree(t)
	b := &battery.EVBattery{
		Capacity:              30,
		MaxChargePower:        11,
		StartPowerDegradation: 0.8,
		MaxDegradationLevel:   0.5,
	}
	conn := &ConnectedVehicle{Battery: b, SOC: 1.0}
	got := tree.MaxHardwarePowerLocal(cp, conn)
	assert.InDelta(t, 5.5, got, 1e-9)
}

func TestPowerToChargeTarget(t *testing.T) {
	b := &battery.EVBattery{Capacity: 30}
	conn := &ConnectedVehicle{Battery: b, SOC: 0.5, SOCTarget: 1.0}
	p := PowerToChargeTarget(conn, 3600)
	assert.InDelta(t, 15.0, p, 1e-9)
}

func TestCPLeavesExcludeStorage(t *testing.T) {
	tree := NewTree()
	tr, _ := tree.AddTransformer(0, 100)
	st, _ := tree.AddStation(tr, 0, 50)
	cp, _ := tree.AddChargingPoint(st, 0, 11)
	sb, err := battery.NewStationaryBattery(battery.EVBattery{Capacity: 30, MaxChargePower: 10}, 0.1, 0.5)
	require.NoError(t, err)
	_, err = tree.AddStorage(tr, sb)
	require.NoError(t, err)
	tree.Finalize()

	leaves := tree.AllChargingPoints()
	require.Len(t, leaves, 1)
	assert.Equal(t, cp, leaves[0])
}
