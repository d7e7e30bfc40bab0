package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tripcraft/internal/models/response_models"
	"tripcraft/internal/services"
	"tripcraft/pkg/utils"
)

type AnalyticsController struct {
	analyticsService services.AnalyticsServiceInterface
}

func NewAnalyticsController(analyticsService services.AnalyticsServiceInterface) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
	}
}

// GetSummary godoc
// @Summary Usage summary
// @Description Category starts, recommendations, alternative requests, fallbacks and top destinations
// @Tags Analytics
// @Produce json
// @Param start    query string false "RFC3339 start (e.g. 2026-10-01T00:00:00Z)"
// @Param end      query string false "RFC3339 end   (e.g. 2026-10-19T23:59:59Z)"
// @Param last_days query int   false "Relative lookback in days (mutually exclusive with start/end). Default 30"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Security BearerAuth
// @Router /analytics/summary [get]
func (a *AnalyticsController) GetSummary(c *gin.Context) {
	startStr := c.Query("start")
	endStr := c.Query("end")
	lastDaysStr := c.Query("last_days")

	if lastDaysStr != "" && (startStr != "" || endStr != "") {
		utils.RespondError(c, http.StatusBadRequest, "provide either last_days or start/end (not both)")
		return
	}

	var tr response_models.TimeRange
	if lastDaysStr != "" {
		d, err := strconv.Atoi(lastDaysStr)
		if err != nil || d <= 0 {
			utils.RespondError(c, http.StatusBadRequest, "last_days must be a positive integer")
			return
		}
		tr.End = time.Now().UTC()
		tr.Start = tr.End.AddDate(0, 0, -d)
	} else {
		var err error
		if startStr != "" {
			if tr.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
				utils.RespondError(c, http.StatusBadRequest, "start must be RFC3339 (e.g. 2026-10-01T00:00:00Z)")
				return
			}
		}
		if endStr != "" {
			if tr.End, err = time.Parse(time.RFC3339, endStr); err != nil {
				utils.RespondError(c, http.StatusBadRequest, "end must be RFC3339 (e.g. 2026-10-19T23:59:59Z)")
				return
			}
		}
	}

	summary, err := a.analyticsService.Summary(c.Request.Context(), tr)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, summary, "Analytics summary fetched successfully")
}
