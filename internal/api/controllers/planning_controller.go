package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripcraft/internal/models/domain_models"
	"tripcraft/internal/models/request_models"
	"tripcraft/internal/models/response_models"
	"tripcraft/internal/services"
	"tripcraft/pkg/middleware"
	"tripcraft/pkg/utils"
)

type PlanningController struct {
	planningService services.PlanningServiceInterface
	limiter         *middleware.UserRateLimiter
}

// NewPlanningController accepts a nil limiter, which disables per-user limits.
func NewPlanningController(planningService services.PlanningServiceInterface, limiter *middleware.UserRateLimiter) *PlanningController {
	return &PlanningController{
		planningService: planningService,
		limiter:         limiter,
	}
}

// StartPlanning godoc
// @Summary Start a new search
// @Description Drops any previous search of the user and opens a new one for the category
// @Tags Planning
// @Accept json
// @Produce json
// @Param request body request_models.StartPlanningRequest true "user and category"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /planning/start [post]
func (p *PlanningController) StartPlanning(c *gin.Context) {
	var req request_models.StartPlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id and category are required")
		return
	}

	category, err := domain_models.ParseTravelCategory(req.Category)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Unknown travel category")
		return
	}

	travelRequest, err := p.planningService.StartPlanning(c.Request.Context(), req.UserID, category)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, stateResponse(travelRequest, &domain_models.UserProgress{Category: category}), "Planning started")
}

// SubmitAnswer godoc
// @Summary Answer one question of the active search
// @Tags Planning
// @Accept json
// @Produce json
// @Param request body request_models.AnswerRequest true "answer"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /planning/answer [post]
func (p *PlanningController) SubmitAnswer(c *gin.Context) {
	var req request_models.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id, question_key and answer_value are required")
		return
	}

	travelRequest, complete, err := p.planningService.ProcessAnswer(c.Request.Context(),
		req.UserID, req.QuestionKey, req.AnswerValue, req.AnswerText)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	progress := &domain_models.UserProgress{
		Category:        travelRequest.Category,
		CurrentQuestion: travelRequest.Answers.Len(),
	}
	message := "Answer accepted"
	if complete {
		message = "All questions answered"
	}
	utils.RespondSuccess(c, stateResponse(travelRequest, progress), message)
}

// GetRecommendation godoc
// @Summary Get the main recommendation for a completed search
// @Tags Planning
// @Accept json
// @Produce json
// @Param request body request_models.UserRequest true "user"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 429 {object} utils.APIResponse
// @Router /planning/recommendation [post]
func (p *PlanningController) GetRecommendation(c *gin.Context) {
	var req request_models.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id is required")
		return
	}
	if !p.allow(req.UserID) {
		utils.RespondError(c, http.StatusTooManyRequests, "Too many requests, try again later")
		return
	}

	result, err := p.planningService.GetRecommendation(c.Request.Context(), req.UserID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, recommendationResponse(result), "Recommendation ready")
}

// GetAlternative godoc
// @Summary Get another destination, excluding the ones already shown
// @Tags Planning
// @Accept json
// @Produce json
// @Param request body request_models.UserRequest true "user"
// @Success 200 {object} utils.APIResponse
// @Failure 429 {object} utils.APIResponse
// @Router /planning/alternative [post]
func (p *PlanningController) GetAlternative(c *gin.Context) {
	var req request_models.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id is required")
		return
	}
	if !p.allow(req.UserID) {
		utils.RespondError(c, http.StatusTooManyRequests, "Too many requests, try again later")
		return
	}

	result, err := p.planningService.GetAlternative(c.Request.Context(), req.UserID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, recommendationResponse(result), "Alternative ready")
}

// GetState godoc
// @Summary Current search and progress of a user
// @Tags Planning
// @Produce json
// @Param user_id path int true "chat user id"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /planning/{user_id} [get]
func (p *PlanningController) GetState(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	travelRequest, progress, err := p.planningService.GetState(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, stateResponse(travelRequest, progress), "Planning state fetched")
}

// ClearState godoc
// @Summary Forget the user's search
// @Tags Planning
// @Produce json
// @Param user_id path int true "chat user id"
// @Success 200 {object} utils.APIResponse
// @Router /planning/{user_id} [delete]
func (p *PlanningController) ClearState(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := p.planningService.ClearState(c.Request.Context(), userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Planning state cleared")
}

func (p *PlanningController) allow(userID int64) bool {
	return p.limiter.Allow(strconv.FormatInt(userID, 10))
}

// ---- helpers ----

func userIDParam(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID == 0 {
		utils.RespondError(c, http.StatusBadRequest, "user_id must be a non-zero integer")
		return 0, false
	}
	return userID, true
}

func stateResponse(req *domain_models.TravelRequest, progress *domain_models.UserProgress) response_models.PlanningStateResponse {
	required := domain_models.RequiredQuestions(req.Category)
	remaining := make([]string, 0, len(required))
	for _, key := range required {
		if _, ok := req.GetAnswer(key); !ok {
			remaining = append(remaining, key)
		}
	}
	return response_models.PlanningStateResponse{
		Request:        req,
		Progress:       progress,
		TotalQuestions: len(required),
		RemainingKeys:  remaining,
		IsComplete:     req.IsCategoryComplete(),
	}
}

func recommendationResponse(r *services.RecommendationResult) response_models.RecommendationResponse {
	return response_models.RecommendationResponse{
		Recommendation:   r.Recommendation,
		Text:             r.Recommendation.FormatForTelegram(),
		Fallback:         r.Fallback,
		Repeated:         r.Repeated,
		AlternativesLeft: r.AlternativesLeft,
	}
}
