package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEV() EVBattery {
	return EVBattery{
		Capacity:              30,
		MaxChargePower:        11,
		MinChargePower:        1.4,
		Efficiency:            0.95,
		StartPowerDegradation: 0.8,
		MaxDegradationLevel:   0.5,
	}
}

func TestEVBatteryValidate(t *testing.T) {
	b := baseEV()
	require.NoError(t, b.Validate())

	bad := b
	bad.Capacity = 0
	assert.Error(t, bad.Validate())
}

func TestEVBatteryMaxPowerDerating(t *testing.T) {
	b := baseEV()
	assert.InDelta(t, 11.0, b.MaxPower(0.5), 1e-9, "below threshold, no derating")
	assert.InDelta(t, 11.0, b.MaxPower(0.8), 1e-9, "at threshold, no derating")
	// at soc=1: max_charge_power - 1*(max_charge_power*(1-0.5)) = 11 - 5.5 = 5.5
	assert.InDelta(t, 5.5, b.MaxPower(1.0), 1e-9)
	// halfway between 0.8 and 1.0 -> half the derating
	assert.InDelta(t, 8.25, b.MaxPower(0.9), 1e-9)
}

func TestEVBatteryMinPowerSOCIndependent(t *testing.T) {
	b := baseEV()
	assert.Equal(t, b.MinChargePower, b.MinPower(0.1))
	assert.Equal(t, b.MinChargePower, b.MinPower(0.99))
}

func TestStationaryBatteryCharge(t *testing.T) {
	sb, err := NewStationaryBattery(baseEV(), 0.2, 0.5)
	require.NoError(t, err)

	applied, err := sb.Charge(11, 3600)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, applied, 1e-9)
	assert.InDelta(t, 0.5+11.0/30.0, sb.SOC, 1e-9)
}

func TestStationaryBatteryChargeClampsToFull(t *testing.T) {
	sb, err := NewStationaryBattery(baseEV(), 0.2, 0.99)
	require.NoError(t, err)

	applied, err := sb.Charge(11, 3600)
	require.NoError(t, err)
	assert.InDelta(t, sb.Capacity*0.01, applied, 1e-6)
	assert.InDelta(t, 1.0, sb.SOC, 1e-9)
}

func TestStationaryBatteryDischargeWithinLimit(t *testing.T) {
	sb, err := NewStationaryBattery(baseEV(), 0.2, 0.5)
	require.NoError(t, err)

	maxD := sb.MaxDischargePower(0, 3600)
	require.NoError(t, sb.Discharge(maxD, 3600))
	assert.InDelta(t, 0.5-maxD/30.0, sb.SOC, 1e-6)
}

func TestStationaryBatteryDischargeExceedsLimit(t *testing.T) {
	sb, err := NewStationaryBattery(baseEV(), 0.2, 0.25)
	require.NoError(t, err)

	maxD := sb.MaxDischargePower(0, 3600)
	err = sb.Discharge(maxD+1, 3600)
	assert.Error(t, err)
}
