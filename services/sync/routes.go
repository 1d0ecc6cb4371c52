// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sync

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all sync routes with the router.
//
// Description:
//
//	Registers all /v1/sync/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Core Endpoints:
//
//	POST /v1/sync/scan - Scan a header into cached prototypes
//	POST /v1/sync/implementations - Locate implementations for a scanned header
//	POST /v1/sync/plan - Compute a reorder plan (preview, no write)
//	POST /v1/sync/apply - Compute and atomically apply a reorder plan
//
// Health Endpoints:
//
//	GET  /v1/sync/health - Health check
//	GET  /v1/sync/ready - Readiness check
//
// Debug Endpoints:
//
//	GET  /v1/sync/debug/cache - Header cache statistics
//
// Example:
//
//	svc, _ := sync.NewService(cfg)
//	handlers := sync.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	sync.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	sync := rg.Group("/sync")
	{
		// Core operations
		sync.POST("/scan", handlers.HandleScan)
		sync.POST("/implementations", handlers.HandleImplementations)
		sync.POST("/plan", handlers.HandlePlan)
		sync.POST("/apply", handlers.HandleApply)

		// Health checks
		sync.GET("/health", handlers.HandleHealth)
		sync.GET("/ready", handlers.HandleReady)

		debug := sync.Group("/debug")
		{
			debug.GET("/cache", handlers.HandleCacheStats)
		}
	}
}
