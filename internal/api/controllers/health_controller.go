package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tripcraft/internal/models/response_models"
	"tripcraft/internal/repositories"
	"tripcraft/internal/services"
	"tripcraft/pkg/utils"
)

const (
	healthCheckTimeout = 10 * time.Second

	// a model health check is a billed completion, so its verdict is reused
	modelHealthTTL = 30 * time.Second
)

type HealthController struct {
	recommendationService services.RecommendationServiceInterface
	sessions              repositories.SessionRepositoryInterface

	// guards the cached model verdict; held across the check so concurrent
	// requests share one completion
	mu           sync.Mutex
	modelHealthy bool
	checkedAt    time.Time
	now          func() time.Time
}

func NewHealthController(recommendationService services.RecommendationServiceInterface, sessions repositories.SessionRepositoryInterface) *HealthController {
	return &HealthController{
		recommendationService: recommendationService,
		sessions:              sessions,
		now:                   time.Now,
	}
}

func (h *HealthController) modelHealth(ctx context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.checkedAt.IsZero() && h.now().Sub(h.checkedAt) < modelHealthTTL {
		return h.modelHealthy
	}
	h.modelHealthy = h.recommendationService.CheckServiceHealth(ctx)
	h.checkedAt = h.now()
	return h.modelHealthy
}

// Health godoc
// @Summary Model service and session store health
// @Description The model verdict is cached for 30 seconds.
// @Tags Health
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /health [get]
func (h *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	report := response_models.HealthResponse{Model: "ok", Sessions: "ok"}
	healthy := true
	if !h.modelHealth(ctx) {
		report.Model = "unavailable"
		healthy = false
	}
	if err := h.sessions.Ping(ctx); err != nil {
		report.Sessions = "unavailable"
		healthy = false
	}

	if healthy {
		utils.RespondSuccess(c, report, "All systems operational")
		return
	}
	c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
		Status:  "error",
		Code:    http.StatusServiceUnavailable,
		Message: "Some dependencies are unavailable",
		TraceID: c.GetString("trace_id"),
		Data:    report,
	})
}
