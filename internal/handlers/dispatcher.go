package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/godispatch/core/api/v1"
	"github.com/godispatch/core/internal/services"
	srvErrors "github.com/godispatch/core/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetStats returns the dispatcher statistics
// (GET /stats)
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, v1.NewStatsFromModel(h.dispatcherSrv.Stats()))
}

// ListFailures returns a page of the failure journal
// (GET /failures?cancelled=&since=&limit=&offset=)
func (h *Handler) ListFailures(c *gin.Context) {
	params := services.FailureListParams{Limit: defaultPageSize}

	if v := c.Query("cancelled"); v != "" {
		cancelled, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, v1.ErrorResponse{Error: "invalid cancelled parameter"})
			return
		}
		params.Cancelled = &cancelled
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, v1.ErrorResponse{Error: "invalid since parameter"})
			return
		}
		params.Since = &since
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 64)
		if err != nil || limit == 0 {
			c.JSON(http.StatusBadRequest, v1.ErrorResponse{Error: "invalid limit parameter"})
			return
		}
		params.Limit = min(limit, maxPageSize)
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, v1.ErrorResponse{Error: "invalid offset parameter"})
			return
		}
		params.Offset = offset
	}

	result, err := h.dispatcherSrv.Failures(c.Request.Context(), params)
	if err != nil {
		zap.S().Named("dispatcher_handler").Errorw("failed to list failures", "error", err)
		c.JSON(http.StatusInternalServerError, v1.ErrorResponse{Error: "failed to list failures"})
		return
	}

	failures := make([]v1.Failure, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, v1.NewFailureFromModel(f))
	}

	c.JSON(http.StatusOK, v1.FailureListResponse{
		Total:    result.Total,
		Failures: failures,
	})
}

// GetFailure returns one journaled failure
// (GET /failures/{id})
func (h *Handler) GetFailure(c *gin.Context) {
	f, err := h.dispatcherSrv.Failure(c.Request.Context(), c.Param("id"))
	switch {
	case srvErrors.IsResourceNotFoundError(err):
		c.JSON(http.StatusNotFound, v1.ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		zap.S().Named("dispatcher_handler").Errorw("failed to get failure", "error", err)
		c.JSON(http.StatusInternalServerError, v1.ErrorResponse{Error: "failed to get failure"})
		return
	}

	c.JSON(http.StatusOK, v1.NewFailureFromModel(*f))
}

// PostProbe posts a synthetic work item
// (POST /probe)
func (h *Handler) PostProbe(c *gin.Context) {
	var req v1.ProbeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, v1.ErrorResponse{Error: "invalid request body"})
		return
	}

	probe, err := req.ToModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, v1.ErrorResponse{Error: "invalid delay"})
		return
	}

	if err := h.dispatcherSrv.Probe(probe); err != nil {
		zap.S().Named("dispatcher_handler").Errorw("failed to post probe", "error", err)
		c.JSON(http.StatusServiceUnavailable, v1.ErrorResponse{Error: "dispatcher is not accepting work"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
