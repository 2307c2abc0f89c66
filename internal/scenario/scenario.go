// Package scenario defines the Elvis scenario schema: a single validated
// struct loaded from YAML (generalizing the teacher's config.Load/merge
// pattern), not a builder API. It also implements the preload/emissions
// series alignment rules.
package scenario

import (
	"fmt"
	"os"
	"time"

	"github.com/dailab/elvis-go/internal/units"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so scenario YAML can spell it as "1h" or
// "15m" instead of a raw nanosecond integer — yaml.v3 has no built-in
// string-to-duration conversion for a plain time.Duration field.
type Duration time.Duration

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML accepts either a duration string ("1h30m") or a bare
// number of seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var seconds float64
	if err := value.Decode(&seconds); err == nil {
		*d = Duration(seconds * float64(time.Second))
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("scenario: duration must be a string like \"1h\" or a number of seconds")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("scenario: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back out as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// BatteryConfig mirrors the EV-battery schema fields.
type BatteryConfig struct {
	Capacity              float64 `yaml:"capacity"`
	MaxChargePower        float64 `yaml:"max_charge_power"`
	MinChargePower        float64 `yaml:"min_charge_power"`
	Efficiency            float64 `yaml:"efficiency"`
	StartPowerDegradation float64 `yaml:"start_power_degradation"`
	MaxDegradationLevel   float64 `yaml:"max_degradation_level"`
}

// VehicleTypeConfig is one entry of the scenario's vehicle_types list.
type VehicleTypeConfig struct {
	Brand       string        `yaml:"brand"`
	Model       string        `yaml:"model"`
	Probability float64       `yaml:"probability"`
	Battery     BatteryConfig `yaml:"battery"`
}

// ChargingPointConfig is a leaf in the infrastructure tree.
type ChargingPointConfig struct {
	MinPower float64 `yaml:"min_power"`
	MaxPower float64 `yaml:"max_power"`
}

// ChargingStationConfig groups charging points.
type ChargingStationConfig struct {
	MinPower       float64               `yaml:"min_power"`
	MaxPower       float64               `yaml:"max_power"`
	ChargingPoints []ChargingPointConfig `yaml:"charging_points"`
}

// StorageConfig is the optional storage sibling.
type StorageConfig struct {
	Capacity   float64 `yaml:"capacity"`
	MaxPower   float64 `yaml:"max_power"`
	MinPower   float64 `yaml:"min_power"`
	Efficiency float64 `yaml:"efficiency"`
	InitialSOC float64 `yaml:"initial_soc"`
	MinSOC     float64 `yaml:"min_soc"`
}

// TransformerConfig is the tree root.
type TransformerConfig struct {
	MinPower        float64                 `yaml:"min_power"`
	MaxPower        float64                 `yaml:"max_power"`
	ChargingStations []ChargingStationConfig `yaml:"charging_stations"`
	Storage         *StorageConfig          `yaml:"storage"`
}

// InfrastructureConfig is the scenario's nested tree description. Exactly
// one transformer per scenario in the current core.
type InfrastructureConfig struct {
	Transformers []TransformerConfig `yaml:"transformers"`
}

// GMMComponentConfig is one component of the GMM arrival/parking mixture.
type GMMComponentConfig struct {
	Mean       [2]float64    `yaml:"mean"`
	Covariance [2][2]float64 `yaml:"covariance"`
	Weight     float64       `yaml:"weight"`
}

// SeriesConfig describes a scalar/list/table preload or emissions series
// with optional alignment hints.
type SeriesConfig struct {
	Scalar      *float64  `yaml:"scalar,omitempty"`
	Values      []float64 `yaml:"values,omitempty"`
	ResDataSecs float64   `yaml:"res_data_seconds,omitempty"`
	Repeat      bool      `yaml:"repeat,omitempty"`
}

// Scenario is the complete, validated simulation input.
type Scenario struct {
	StartDate  time.Time `yaml:"start_date"`
	EndDate    time.Time `yaml:"end_date"`
	Resolution Duration  `yaml:"resolution"`

	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	VehicleTypes   []VehicleTypeConfig  `yaml:"vehicle_types"`

	SampleMethod      string               `yaml:"sample_method"` // "independent_normal_dist" | "gmm"
	ArrivalDistribution []float64          `yaml:"arrival_distribution,omitempty"`
	GMMMeans          [][2]float64         `yaml:"gmm_means,omitempty"`
	GMMWeights        []float64            `yaml:"gmm_weights,omitempty"`
	GMMCovariances    [][2][2]float64      `yaml:"gmm_covariances,omitempty"`

	NumChargingEvents float64 `yaml:"num_charging_events"`
	MeanPark          float64 `yaml:"mean_park"`
	StdDeviationPark  float64 `yaml:"std_deviation_park"`
	MeanSOC           float64 `yaml:"mean_soc"`
	StdDeviationSOC   float64 `yaml:"std_deviation_soc"`
	MaxParkingTimeHrs float64 `yaml:"max_parking_time"`

	QueueLength      int  `yaml:"queue_length"`
	DisconnectByTime bool `yaml:"disconnect_by_time"`

	OpeningHours *[2]float64 `yaml:"opening_hours"`

	TransformerPreload SeriesConfig `yaml:"transformer_preload"`
	EmissionsScenario  SeriesConfig `yaml:"emissions_scenario"`

	SchedulingPolicy string   `yaml:"scheduling_policy"` // Uncontrolled|FCFS|DiscriminationFree|WithStorage|Optimized
	DFChargingPeriod Duration `yaml:"df_charging_period"`

	Seed int64 `yaml:"seed"`
}

// Load reads and validates a Scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("scenario: parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save serializes the scenario to a YAML file.
func Save(s *Scenario, path string) error {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("scenario: marshal: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("scenario: write %s: %w", path, err)
	}
	return nil
}

// Validate fails fast on the config-error taxonomy (§7): missing mandatory
// fields, inconsistent battery bounds, GMM weights off by >1%, preload too
// short with no alignment hint.
func (s *Scenario) Validate() error {
	if !s.EndDate.After(s.StartDate) {
		return fmt.Errorf("scenario: end_date must be after start_date")
	}
	if s.Resolution.Std() < time.Minute {
		return fmt.Errorf("scenario: resolution must be >= 1 minute")
	}
	if len(s.Infrastructure.Transformers) != 1 {
		return fmt.Errorf("scenario: exactly one transformer is required, got %d", len(s.Infrastructure.Transformers))
	}
	if len(s.VehicleTypes) == 0 {
		return fmt.Errorf("scenario: at least one vehicle_type is required")
	}
	for _, vt := range s.VehicleTypes {
		if vt.Probability <= 0 {
			return fmt.Errorf("scenario: vehicle_type %s/%s probability must be > 0", vt.Brand, vt.Model)
		}
		if vt.Battery.MaxDegradationLevel*vt.Battery.MaxChargePower < vt.Battery.MinChargePower {
			return fmt.Errorf("scenario: vehicle_type %s/%s has inconsistent battery degradation bounds", vt.Brand, vt.Model)
		}
	}

	switch s.SampleMethod {
	case "independent_normal_dist":
		if len(s.ArrivalDistribution) == 0 {
			return fmt.Errorf("scenario: arrival_distribution is required for independent_normal_dist")
		}
	case "gmm":
		sum := 0.0
		for _, w := range s.GMMWeights {
			sum += w
		}
		if len(s.GMMWeights) == 0 || (sum < 0.99 || sum > 1.01) {
			return fmt.Errorf("scenario: gmm_weights must sum to ~1 within 1%%, got %v", sum)
		}
		if len(s.GMMMeans) != len(s.GMMWeights) || len(s.GMMCovariances) != len(s.GMMWeights) {
			return fmt.Errorf("scenario: gmm_means/gmm_weights/gmm_covariances must have matching lengths")
		}
	default:
		return fmt.Errorf("scenario: sample_method must be independent_normal_dist or gmm, got %q", s.SampleMethod)
	}

	stepCount := units.NumTimeSteps(s.StartDate, s.EndDate, s.Resolution.Std())
	if err := validateSeries(s.TransformerPreload, stepCount, "transformer_preload"); err != nil {
		return err
	}
	if s.EmissionsScenario.Scalar != nil || len(s.EmissionsScenario.Values) > 0 {
		if err := validateSeries(s.EmissionsScenario, stepCount, "emissions_scenario"); err != nil {
			return err
		}
	}

	if s.OpeningHours != nil {
		open, close := s.OpeningHours[0], s.OpeningHours[1]
		if open < 0 || close > 24 || open > close {
			return fmt.Errorf("scenario: opening_hours must satisfy 0 <= open <= close <= 24")
		}
	}

	switch s.SchedulingPolicy {
	case "Uncontrolled", "FCFS", "DiscriminationFree", "WithStorage", "Optimized":
	default:
		return fmt.Errorf("scenario: unknown scheduling_policy %q", s.SchedulingPolicy)
	}

	return nil
}

func validateSeries(sc SeriesConfig, stepCount int, name string) error {
	if sc.Scalar != nil {
		return nil
	}
	if len(sc.Values) >= stepCount {
		return nil
	}
	if sc.ResDataSecs > 0 {
		return nil
	}
	if sc.Repeat {
		return nil
	}
	return fmt.Errorf("scenario: %s has %d values (< %d steps) with no res_data_seconds or repeat hint", name, len(sc.Values), stepCount)
}

// Resolve expands a SeriesConfig into a dense per-step series, applying the
// §6 alignment rules in order: truncate, resolution-adjust, repeat.
func (sc SeriesConfig) Resolve(stepCount int, targetRes time.Duration) []units.Power {
	if sc.Scalar != nil {
		out := make([]units.Power, stepCount)
		for i := range out {
			out[i] = *sc.Scalar
		}
		return out
	}
	if len(sc.Values) >= stepCount {
		return sc.Values[:stepCount]
	}
	if sc.ResDataSecs > 0 {
		return units.AdjustResolution(sc.Values, time.Duration(sc.ResDataSecs*float64(time.Second)), targetRes, stepCount)
	}
	if sc.Repeat {
		return units.Repeat(sc.Values, stepCount)
	}
	return make([]units.Power, stepCount)
}
