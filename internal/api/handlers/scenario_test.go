package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoYAML = `
start_date: 2022-01-03T00:00:00Z
end_date: 2022-01-04T00:00:00Z
resolution: 1h
infrastructure:
  transformers:
    - max_power: 100
      charging_stations:
        - max_power: 60
          charging_points:
            - max_power: 22
vehicle_types:
  - brand: Generic
    model: Compact
    probability: 1.0
    battery:
      capacity: 40
      max_charge_power: 22
      max_degradation_level: 1
      start_power_degradation: 1
sample_method: independent_normal_dist
arrival_distribution: [0, 1, 0, 0]
num_charging_events: 3
mean_park: 4
std_deviation_park: 1
mean_soc: 0.3
std_deviation_soc: 0.1
max_parking_time: 10
queue_length: 2
scheduling_policy: Uncontrolled
transformer_preload:
  scalar: 0
`

func newTestRouter() (*gin.Engine, *ScenarioHandler) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewScenarioHandler()
	r.POST("/api/v1/scenarios", h.RunScenario)
	r.GET("/api/v1/scenarios/:id", h.GetScenario)
	return r, h
}

func TestRunScenarioReturnsSummary(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scenarios?seed=7", strings.NewReader(demoYAML))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)
}

func TestRunScenarioRejectsInvalidYAML(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scenarios", strings.NewReader("not: [valid"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetScenarioRoundTrip(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scenarios?seed=7", strings.NewReader(demoYAML))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/scenarios/"+created.ID, nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestGetScenarioMissingReturns404(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scenarios/does-not-exist", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
