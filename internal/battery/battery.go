// Package battery implements the EV and stationary battery models: SOC-
// dependent power derating and (for stationary batteries) mutable SOC with
// charge/discharge accounting.
package battery

import (
	"fmt"

	"github.com/dailab/elvis-go/internal/units"
)

// EVBattery is the generic battery model shared by vehicles and the
// stationary storage unit: capacity plus a power-derating curve.
type EVBattery struct {
	Capacity             units.Energy // kWh, > 0
	MaxChargePower       units.Power  // kW
	MinChargePower       units.Power  // kW, >= 0
	Efficiency           float64      // [0,1]
	StartPowerDegradation float64     // SOC fraction in [0,1] where derating begins
	MaxDegradationLevel  float64      // fraction in [0,1] of MaxChargePower at soc=1
}

// Validate checks the battery's static invariants.
func (b *EVBattery) Validate() error {
	if b.Capacity <= 0 {
		return fmt.Errorf("battery: capacity must be > 0, got %v", b.Capacity)
	}
	if b.MinChargePower < 0 {
		return fmt.Errorf("battery: min_charge_power must be >= 0, got %v", b.MinChargePower)
	}
	if b.MaxChargePower < b.MinChargePower {
		return fmt.Errorf("battery: max_charge_power (%v) must be >= min_charge_power (%v)", b.MaxChargePower, b.MinChargePower)
	}
	if b.Efficiency < 0 || b.Efficiency > 1 {
		return fmt.Errorf("battery: efficiency must be in [0,1], got %v", b.Efficiency)
	}
	if b.StartPowerDegradation < 0 || b.StartPowerDegradation > 1 {
		return fmt.Errorf("battery: start_power_degradation must be in [0,1], got %v", b.StartPowerDegradation)
	}
	if b.MaxDegradationLevel < 0 || b.MaxDegradationLevel > 1 {
		return fmt.Errorf("battery: max_degradation_level must be in [0,1], got %v", b.MaxDegradationLevel)
	}
	if b.MaxDegradationLevel*b.MaxChargePower < b.MinChargePower {
		return fmt.Errorf("battery: max_degradation_level*max_charge_power must be >= min_charge_power")
	}
	return nil
}

// MaxPower returns the derated maximum charge power at the given SOC.
// Linear derating from MaxChargePower down to MaxDegradationLevel fraction
// of it, starting at StartPowerDegradation SOC and reaching the floor at
// soc=1.
func (b *EVBattery) MaxPower(soc float64) units.Power {
	if soc <= b.StartPowerDegradation {
		return b.MaxChargePower
	}
	span := 1 - b.StartPowerDegradation
	if span <= 0 {
		return b.MaxChargePower * b.MaxDegradationLevel
	}
	frac := (soc - b.StartPowerDegradation) / span
	return b.MaxChargePower - frac*b.MaxChargePower*(1-b.MaxDegradationLevel)
}

// MinPower returns the minimum charge power. The source battery model notes
// (but never implements) SOC-dependence here; minimum charge power is
// SOC-independent in this implementation, matching the source's actual
// behavior.
func (b *EVBattery) MinPower(float64) units.Power {
	return b.MinChargePower
}

// StationaryBattery adds mutable SOC state and charge/discharge operations
// to the generic battery model, used for the site's optional storage node.
type StationaryBattery struct {
	EVBattery
	SOC    float64 // mutable, in [MinSOC, 1]
	MinSOC float64
}

// NewStationaryBattery constructs a stationary battery at the given initial
// SOC, validating its invariants.
func NewStationaryBattery(base EVBattery, minSOC, initialSOC float64) (*StationaryBattery, error) {
	sb := &StationaryBattery{EVBattery: base, MinSOC: minSOC, SOC: initialSOC}
	if err := sb.Validate(); err != nil {
		return nil, err
	}
	if initialSOC < minSOC || initialSOC > 1 {
		return nil, fmt.Errorf("battery: initial soc %v out of [%v,1]", initialSOC, minSOC)
	}
	return sb, nil
}

// Validate checks the stationary battery's invariants, including the
// embedded EVBattery's.
func (sb *StationaryBattery) Validate() error {
	if err := sb.EVBattery.Validate(); err != nil {
		return err
	}
	if sb.MinSOC < 0 || sb.MinSOC > 1 {
		return fmt.Errorf("battery: min_soc must be in [0,1], got %v", sb.MinSOC)
	}
	return nil
}

// checkSOC asserts the SOC invariant holds, matching the source's defensive
// check_soc assertion.
func (sb *StationaryBattery) checkSOC() error {
	if sb.SOC < sb.MinSOC || sb.SOC > 1 {
		return fmt.Errorf("battery: soc %v out of bounds [%v,1]", sb.SOC, sb.MinSOC)
	}
	return nil
}

// MaxDischargePower returns the maximum power this battery can discharge
// this step, given the power already committed to discharge earlier in the
// same step (curAssignedPower) and the step length. It is the smaller of
// the SOC-derated theoretical max and the power that would empty the
// battery down to MinSOC over the step, floored to 3 decimals.
func (sb *StationaryBattery) MaxDischargePower(curAssignedPower units.Power, stepLen float64) units.Power {
	hours := stepLen / 3600
	maxTheoretical := sb.MaxPower(sb.SOC) - curAssignedPower
	if maxTheoretical < 0 {
		maxTheoretical = 0
	}
	powerToEmpty := (sb.SOC - sb.MinSOC) * sb.Capacity / hours
	if powerToEmpty < 0 {
		powerToEmpty = 0
	}
	result := maxTheoretical
	if powerToEmpty < result {
		result = powerToEmpty
	}
	return units.Floor3(result)
}

// Charge applies up to availablePower of charging power over stepLen
// seconds, clamped to [0, min(max charge to full, MaxChargePower,
// availablePower)], and returns the power actually applied.
func (sb *StationaryBattery) Charge(availablePower units.Power, stepLen float64) (units.Power, error) {
	hours := stepLen / 3600
	maxToFull := (1 - sb.SOC) * sb.Capacity / hours
	if maxToFull < 0 {
		maxToFull = 0
	}
	applied := availablePower
	if applied > maxToFull {
		applied = maxToFull
	}
	if applied > sb.MaxChargePower {
		applied = sb.MaxChargePower
	}
	if applied < 0 {
		applied = 0
	}
	sb.SOC += applied * hours / sb.Capacity
	if sb.SOC > 1 {
		sb.SOC = 1
	}
	if err := sb.checkSOC(); err != nil {
		return 0, err
	}
	return applied, nil
}

// Discharge applies powerToDischarge over stepLen seconds. It fails if the
// requested power exceeds MaxDischargePower at the current SOC: the
// scheduler must never ask for more than the battery can deliver, so this
// surfaces as a domain-violation error rather than a silent clamp.
func (sb *StationaryBattery) Discharge(powerToDischarge units.Power, stepLen float64) error {
	maxDischarge := sb.MaxDischargePower(0, stepLen)
	if units.Floor3(powerToDischarge) > maxDischarge {
		return fmt.Errorf("battery: requested discharge %v exceeds max discharge %v at soc %v", powerToDischarge, maxDischarge, sb.SOC)
	}
	hours := stepLen / 3600
	sb.SOC -= powerToDischarge * hours / sb.Capacity
	return sb.checkSOC()
}
