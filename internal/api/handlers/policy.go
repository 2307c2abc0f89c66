package handlers

import (
	"net/http"

	"github.com/dailab/elvis-go/internal/api/models"
	"github.com/gin-gonic/gin"
)

// PolicyHandler lists the scheduling policies a scenario may select.
type PolicyHandler struct{}

// NewPolicyHandler creates a new policy handler.
func NewPolicyHandler() *PolicyHandler {
	return &PolicyHandler{}
}

// ListPolicies handles GET /api/v1/policies.
func (h *PolicyHandler) ListPolicies(c *gin.Context) {
	policies := []models.PolicyInfo{
		{Name: "Uncontrolled", Description: "Every connected vehicle charges at the most its battery and charging point can deliver, ignoring station/transformer bounds."},
		{Name: "FCFS", Description: "Vehicles are served in order of earliest departure, capped by hardware residual capacity at every tree level."},
		{Name: "DiscriminationFree", Description: "Rotates charging priority across a rolling window so every vehicle receives a comparable share of full-power steps."},
		{Name: "WithStorage", Description: "Reserved for a storage-aware dispatch policy; currently a no-op stub."},
		{Name: "Optimized", Description: "Reserved for a cost/tariff-aware optimizer; currently a no-op stub."},
	}
	c.JSON(http.StatusOK, gin.H{"policies": policies})
}
