package response_models

import "tripcraft/internal/models/domain_models"

type PlanningStateResponse struct {
	Request        *domain_models.TravelRequest `json:"request"`
	Progress       *domain_models.UserProgress  `json:"progress,omitempty"`
	TotalQuestions int                          `json:"total_questions"`
	RemainingKeys  []string                     `json:"remaining_keys"`
	IsComplete     bool                         `json:"is_complete"`
}

type RecommendationResponse struct {
	Recommendation   domain_models.TravelRecommendation `json:"recommendation"`
	Text             string                             `json:"text"`
	Fallback         bool                               `json:"fallback"`
	Repeated         bool                               `json:"repeated,omitempty"`
	AlternativesLeft int                                `json:"alternatives_left"`
}

type HealthResponse struct {
	Model    string `json:"model"`
	Sessions string `json:"sessions"`
}
