package handlers

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dailab/elvis-go/internal/api/models"
	"github.com/dailab/elvis-go/internal/result"
	"github.com/dailab/elvis-go/internal/scenario"
	"github.com/dailab/elvis-go/internal/simulate"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ScenarioHandler handles scenario submission and result retrieval. Runs
// are kept in memory for the lifetime of the process — there is no
// persistence layer in scope.
type ScenarioHandler struct {
	mu      sync.RWMutex
	results map[string]*result.Store
}

// NewScenarioHandler creates an empty scenario handler.
func NewScenarioHandler() *ScenarioHandler {
	return &ScenarioHandler{results: make(map[string]*result.Store)}
}

// RunScenario handles POST /api/v1/scenarios: the request body is a YAML
// scenario document; the response is the run's ID plus its KPI summary.
func (h *ScenarioHandler) RunScenario(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	var s scenario.Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_YAML", err.Error())
		return
	}
	if err := s.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_SCENARIO", err.Error())
		return
	}

	seed := s.Seed
	if q, ok := c.GetQuery("seed"); ok {
		if v, err := strconv.ParseInt(q, 10, 64); err == nil {
			seed = v
		}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	asm, err := s.Build(rand.New(rand.NewSource(seed)))
	if err != nil {
		writeError(c, http.StatusBadRequest, "BUILD_ERROR", err.Error())
		return
	}

	sim, err := simulate.New(asm.SimConfig)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_SIMULATION", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	store, err := sim.Run(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "SIMULATION_ERROR", err.Error())
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.results[id] = store
	h.mu.Unlock()

	includeTraces := c.Query("include_traces") == "true"
	c.JSON(http.StatusOK, models.ScenarioResponse{
		ID:      id,
		Status:  "completed",
		Summary: buildSummary(store, includeTraces),
	})
}

// GetScenario handles GET /api/v1/scenarios/:id, returning the stored KPI
// summary for a previously run scenario.
func (h *ScenarioHandler) GetScenario(c *gin.Context) {
	id := c.Param("id")
	h.mu.RLock()
	store, ok := h.results[id]
	h.mu.RUnlock()
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "no scenario run with that id")
		return
	}
	includeTraces := c.Query("include_traces") == "true"
	c.JSON(http.StatusOK, models.ScenarioResponse{
		ID:      id,
		Status:  "completed",
		Summary: buildSummary(store, includeTraces),
	})
}

func buildSummary(store *result.Store, includeTraces bool) models.ScenarioSummary {
	summary := models.ScenarioSummary{
		StepCount:             store.StepCount,
		TotalEnergyKWh:        store.TotalEnergyKWh(),
		MaxLoadKW:             store.MaxLoad(),
		SimultaneityFactorMax: store.SimultaneityFactorMax(),
		Rejections:            store.Rejections,
	}
	if avg, err := store.AverageChargingTimeSteps(); err == nil {
		summary.AverageChargingTimeSteps = &avg
	}
	if includeTraces {
		summary.LoadProfileKW = store.AggregatedLoadProfile()
		summary.StorageProfileKW = store.StorageProfile()
	}
	return summary
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{Error: models.ErrorDetail{Code: code, Message: message}})
}
