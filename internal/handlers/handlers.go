package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/godispatch/core/internal/models"
	"github.com/godispatch/core/internal/services"
)

// DispatcherService is the part of services.Dispatcher used by the handlers.
type DispatcherService interface {
	Stats() models.DispatcherStats
	Failures(ctx context.Context, params services.FailureListParams) (*services.FailureListResult, error)
	Failure(ctx context.Context, id string) (*models.Failure, error)
	Probe(p models.Probe) error
}

type Handler struct {
	dispatcherSrv DispatcherService
}

func New(dispatcherSrv DispatcherService) *Handler {
	return &Handler{
		dispatcherSrv: dispatcherSrv,
	}
}

// Register mounts the API routes on router.
func (h *Handler) Register(router *gin.RouterGroup) {
	router.GET("/stats", h.GetStats)
	router.GET("/failures", h.ListFailures)
	router.GET("/failures/:id", h.GetFailure)
	router.POST("/probe", h.PostProbe)
}
