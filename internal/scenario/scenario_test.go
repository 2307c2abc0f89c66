package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScenario() *Scenario {
	return &Scenario{
		StartDate:  time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC),
		Resolution: Duration(time.Hour),
		Infrastructure: InfrastructureConfig{
			Transformers: []TransformerConfig{{
				MaxPower: 100,
				ChargingStations: []ChargingStationConfig{{
					MaxPower:       50,
					ChargingPoints: []ChargingPointConfig{{MaxPower: 11}},
				}},
			}},
		},
		VehicleTypes: []VehicleTypeConfig{{
			Brand:       "Tesla",
			Model:       "Model 3",
			Probability: 1.0,
			Battery: BatteryConfig{
				Capacity:              60,
				MaxChargePower:        11,
				MaxDegradationLevel:   1,
				StartPowerDegradation: 1,
			},
		}},
		SampleMethod:        "independent_normal_dist",
		ArrivalDistribution: []float64{1, 2, 3},
		QueueLength:         2,
		SchedulingPolicy:    "Uncontrolled",
		TransformerPreload:  SeriesConfig{Scalar: ptr(0.0)},
	}
}

func ptr(v float64) *float64 { return &v }

func TestValidScenarioPasses(t *testing.T) {
	s := validScenario()
	assert.NoError(t, s.Validate())
}

func TestValidateRejectsBadHorizon(t *testing.T) {
	s := validScenario()
	s.EndDate = s.StartDate
	assert.Error(t, s.Validate())
}

func TestValidateRejectsMissingVehicleTypes(t *testing.T) {
	s := validScenario()
	s.VehicleTypes = nil
	assert.Error(t, s.Validate())
}

func TestValidateRejectsBadGMMWeights(t *testing.T) {
	s := validScenario()
	s.SampleMethod = "gmm"
	s.GMMWeights = []float64{0.5, 0.3}
	s.GMMMeans = [][2]float64{{1, 1}, {2, 2}}
	s.GMMCovariances = [][2][2]float64{{{1, 0}, {0, 1}}, {{1, 0}, {0, 1}}}
	assert.Error(t, s.Validate())
}

func TestValidateRejectsShortPreloadWithNoHint(t *testing.T) {
	s := validScenario()
	s.TransformerPreload = SeriesConfig{Values: []float64{1, 2}}
	assert.Error(t, s.Validate())
}

func TestValidateAcceptsShortPreloadWithRepeatHint(t *testing.T) {
	s := validScenario()
	s.TransformerPreload = SeriesConfig{Values: []float64{1, 2}, Repeat: true}
	assert.NoError(t, s.Validate())
}

func TestLoadSaveRoundTrip(t *testing.T) {
	s := validScenario()
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, Save(s, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.SchedulingPolicy, loaded.SchedulingPolicy)
	assert.Equal(t, s.Resolution, loaded.Resolution)
	assert.Len(t, loaded.VehicleTypes, 1)
}

func TestSeriesResolveScalar(t *testing.T) {
	sc := SeriesConfig{Scalar: ptr(5.0)}
	out := sc.Resolve(3, time.Hour)
	assert.Equal(t, []float64{5, 5, 5}, out)
}

func TestSeriesResolveRepeat(t *testing.T) {
	sc := SeriesConfig{Values: []float64{1, 2}, Repeat: true}
	out := sc.Resolve(5, time.Hour)
	assert.Equal(t, []float64{1, 2, 1, 2, 1}, out)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(os.TempDir(), "does-not-exist-elvis.yaml"))
	assert.Error(t, err)
}
