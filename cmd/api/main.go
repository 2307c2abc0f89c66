package main

import (
	"fmt"
	"log"
	"os"

	"github.com/dailab/elvis-go/internal/api/handlers"
	"github.com/dailab/elvis-go/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	scenarioHandler := handlers.NewScenarioHandler()
	policyHandler := handlers.NewPolicyHandler()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/scenarios", scenarioHandler.RunScenario)
		api.GET("/scenarios/:id", scenarioHandler.GetScenario)
		api.GET("/policies", policyHandler.ListPolicies)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting Elvis API on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
