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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianSync/services/sync/planner"
)

// requestIDHeader carries the caller-supplied request ID, when present.
const requestIDHeader = "X-Request-ID"

// Handlers holds the HTTP handlers for the sync service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers over the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// getOrCreateRequestID returns the caller's request ID or generates one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader(requestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

// HandleScan handles POST /v1/sync/scan.
//
// Description:
//
//	Scans the header named in the request and caches its prototypes.
//	Zero prototypes is a normal 200 response with count 0.
//
// Response:
//
//	200 OK: ScanResponse
//	400 Bad Request: Missing body field or not a header file
//	500 Internal Server Error: Header could not be read
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleScan(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleScan")

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	protos, err := h.svc.ScanHeader(c.Request.Context(), req.HeaderPath)
	if err != nil {
		if errors.Is(err, ErrNotHeader) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: err.Error(),
				Code:  "NOT_A_HEADER",
			})
			return
		}
		logger.Error("scan failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "SCAN_FAILED",
		})
		return
	}

	resp := ScanResponse{
		HeaderPath: req.HeaderPath,
		Count:      len(protos),
		Prototypes: make([]PrototypeInfo, 0, len(protos)),
	}
	for _, p := range protos {
		resp.Prototypes = append(resp.Prototypes, PrototypeInfoFromScan(p))
	}

	logger.Info("scan complete",
		slog.String("header", req.HeaderPath),
		slog.Int("prototypes", resp.Count),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleImplementations handles POST /v1/sync/implementations.
//
// Response:
//
//	200 OK: ImplementationsResponse (count may be zero)
//	400 Bad Request: Missing body field
//	409 Conflict: Header has not been scanned
//	500 Internal Server Error: Enumeration failure
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleImplementations(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleImplementations")

	var req ImplementationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	impls, err := h.svc.FindImplementations(c.Request.Context(), req.HeaderPath)
	if err != nil {
		if errors.Is(err, ErrNotScanned) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error: err.Error(),
				Code:  "NOT_SCANNED",
			})
			return
		}
		logger.Error("locate failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "LOCATE_FAILED",
		})
		return
	}

	resp := ImplementationsResponse{
		HeaderPath:      req.HeaderPath,
		Count:           len(impls),
		Implementations: make([]ImplementationInfo, 0, len(impls)),
	}
	for _, im := range impls {
		resp.Implementations = append(resp.Implementations, ImplementationInfoFromScan(im))
	}

	c.JSON(http.StatusOK, resp)
}

// HandlePlan handles POST /v1/sync/plan.
//
// Description:
//
//	Computes the reorder plan without applying it, so callers can preview
//	the replacement range — including any non-prototype code the range
//	necessarily sweeps — before committing.
//
// Response:
//
//	200 OK: PlanResponse (NoOp true when there is nothing to reorder)
//	400 Bad Request: Missing body field
//	409 Conflict: Header has not been scanned
//	500 Internal Server Error: Read or enumeration failure
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandlePlan(c *gin.Context) {
	h.planOrApply(c, false)
}

// HandleApply handles POST /v1/sync/apply.
//
// Description:
//
//	Recomputes the plan server-side from current file contents (never
//	trusting a client-supplied plan, which could be stale) and commits
//	it atomically through the workspace capability.
//
// Response:
//
//	200 OK: PlanResponse with Applied true (NoOp true when nothing to do)
//	400 Bad Request: Missing body field
//	409 Conflict: Header has not been scanned
//	500 Internal Server Error: Read failure or apply failure
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleApply(c *gin.Context) {
	h.planOrApply(c, true)
}

// planOrApply implements HandlePlan and HandleApply.
func (h *Handlers) planOrApply(c *gin.Context, apply bool) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandlePlan")
	if apply {
		logger = slog.With("request_id", requestID, "handler", "HandleApply")
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	plan, err := h.svc.SynchronizeOrder(c.Request.Context(), req.HeaderPath, req.TargetFile)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrNothingToReorder):
			c.JSON(http.StatusOK, PlanResponse{NoOp: true})
		case errors.Is(err, ErrNotScanned):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error: err.Error(),
				Code:  "NOT_SCANNED",
			})
		default:
			logger.Error("plan failed", slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: err.Error(),
				Code:  "PLAN_FAILED",
			})
		}
		return
	}

	applied := false
	if apply {
		if err := h.svc.ApplyPlan(c.Request.Context(), plan); err != nil {
			logger.Error("apply failed", slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: err.Error(),
				Code:  "APPLY_FAILED",
			})
			return
		}
		applied = true
	}

	logger.Info("plan computed",
		slog.String("header", req.HeaderPath),
		slog.String("target", req.TargetFile),
		slog.Int("reordered", plan.Reordered),
		slog.Bool("applied", applied),
	)
	c.JSON(http.StatusOK, PlanResponseFromPlan(plan, applied))
}

// HandleCacheStats handles GET /v1/sync/debug/cache.
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CacheStats())
}

// HandleHealth handles GET /v1/sync/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady handles GET /v1/sync/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
