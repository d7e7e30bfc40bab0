package request_models

type StartPlanningRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Category string `json:"category" binding:"required"`
}

type AnswerRequest struct {
	UserID      int64  `json:"user_id" binding:"required"`
	QuestionKey string `json:"question_key" binding:"required"`
	AnswerValue string `json:"answer_value" binding:"required"`
	// AnswerText is the label shown to the user; answer_value is used when empty.
	AnswerText string `json:"answer_text"`
}

type UserRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}
