// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// serviceName labels otelgin spans for this server.
const serviceName = "biotrace"

// RegisterRoutes registers the agent endpoints with the router group.
//
// Description:
//
//	Registers the /v1 agent endpoints. The group should already carry
//	any required middleware.
//
// Endpoints:
//
//	POST /v1/ask       - Answer a free-form question
//	POST /v1/cq/:id    - Answer one competency question
//	GET  /v1/cqs       - List competency questions
//	POST /v1/cqs/run   - Evaluate all competency questions
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/ask", handlers.HandleAsk)
	rg.GET("/cqs", handlers.HandleListCQs)
	rg.POST("/cqs/run", handlers.HandleRunAllCQs)
	rg.POST("/cq/:id", handlers.HandleCQ)
}

// NewRouter assembles the full gin engine: OTel middleware, the /v1
// agent routes, the Prometheus scrape endpoint, and the health check.
func NewRouter(handlers *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))

	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)

	router.GET("/healthz", handlers.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
