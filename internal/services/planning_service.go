package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tripcraft/internal/models/domain_models"
	dbm "tripcraft/internal/models/db_models"
	"tripcraft/internal/repositories"
	"tripcraft/pkg/logger"
	"tripcraft/pkg/utils"
)

// RecommendationResult is what the planning flow hands back to the transport.
// Fallback is set when the apology recommendation was served instead of a
// real one. Repeated marks an alternative the model picked from the
// exclusion list anyway.
type RecommendationResult struct {
	Recommendation   domain_models.TravelRecommendation
	Fallback         bool
	Repeated         bool
	AlternativesLeft int
}

type PlanningServiceInterface interface {
	StartPlanning(ctx context.Context, userID int64, category domain_models.TravelCategory) (*domain_models.TravelRequest, error)
	// ProcessAnswer stores an answer and reports whether the request is now complete.
	ProcessAnswer(ctx context.Context, userID int64, questionKey, answerValue, answerText string) (*domain_models.TravelRequest, bool, error)
	GetState(ctx context.Context, userID int64) (*domain_models.TravelRequest, *domain_models.UserProgress, error)
	GetRecommendation(ctx context.Context, userID int64) (*RecommendationResult, error)
	GetAlternative(ctx context.Context, userID int64) (*RecommendationResult, error)
	ClearState(ctx context.Context, userID int64) error
}

type PlanningService struct {
	sessions        repositories.SessionRepositoryInterface
	recommendations RecommendationServiceInterface
	analytics       AnalyticsServiceInterface
	log             *logger.Logger
}

func NewPlanningService(
	sessions repositories.SessionRepositoryInterface,
	recommendations RecommendationServiceInterface,
	analytics AnalyticsServiceInterface,
	log *logger.Logger,
) PlanningServiceInterface {
	if log == nil {
		log = logger.NewNop()
	}
	if analytics == nil {
		analytics = NewAnalyticsService(nil, log)
	}
	return &PlanningService{
		sessions:        sessions,
		recommendations: recommendations,
		analytics:       analytics,
		log:             log.With("service", "PlanningService"),
	}
}

func (s *PlanningService) StartPlanning(ctx context.Context, userID int64, category domain_models.TravelCategory) (*domain_models.TravelRequest, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", utils.ErrInvalidInput, category)
	}
	s.log.Info("planning started", "user_id", userID, "category", category.String())

	if err := s.sessions.ClearRequest(ctx, userID); err != nil {
		return nil, err
	}
	request := domain_models.NewTravelRequest(userID, category, utils.NowRFC3339())
	if err := s.sessions.SaveRequest(ctx, request); err != nil {
		return nil, err
	}
	if err := s.sessions.SaveProgress(ctx, userID, domain_models.UserProgress{Category: category}); err != nil {
		return nil, err
	}

	s.analytics.TrackCategoryUsage(ctx, userID, category.String())
	return request, nil
}

func (s *PlanningService) loadRequest(ctx context.Context, userID int64) (*domain_models.TravelRequest, error) {
	request, err := s.sessions.GetRequest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("%w: user %d", utils.ErrInvalidTravelRequest, userID)
	}
	return request, nil
}

func (s *PlanningService) ProcessAnswer(ctx context.Context, userID int64, questionKey, answerValue, answerText string) (*domain_models.TravelRequest, bool, error) {
	questionKey = strings.TrimSpace(questionKey)
	answerValue = strings.TrimSpace(answerValue)
	if answerValue == "" {
		return nil, false, fmt.Errorf("%w: empty answer for %q", utils.ErrInvalidInput, questionKey)
	}
	if strings.TrimSpace(answerText) == "" {
		answerText = answerValue
	}

	request, err := s.loadRequest(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if !domain_models.IsKnownQuestion(request.Category, questionKey) {
		return nil, false, fmt.Errorf("%w: question %q does not belong to category %s", utils.ErrInvalidInput, questionKey, request.Category)
	}

	if prev, ok := request.GetAnswer(questionKey); ok {
		s.log.Info("answer replaced",
			"user_id", userID,
			"question_key", questionKey,
			"previous_value", prev.AnswerValue,
			"answer_value", answerValue,
		)
	} else {
		s.log.Info("answer recorded", "user_id", userID, "question_key", questionKey, "answer_value", answerValue)
	}
	request.AddAnswer(questionKey, answerValue, answerText)

	if err := s.sessions.SaveRequest(ctx, request); err != nil {
		return nil, false, err
	}
	progress := domain_models.UserProgress{Category: request.Category, CurrentQuestion: request.Answers.Len()}
	if err := s.sessions.SaveProgress(ctx, userID, progress); err != nil {
		return nil, false, err
	}
	return request, request.IsCategoryComplete(), nil
}

func (s *PlanningService) GetState(ctx context.Context, userID int64) (*domain_models.TravelRequest, *domain_models.UserProgress, error) {
	request, err := s.loadRequest(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	progress, err := s.sessions.GetProgress(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return request, progress, nil
}

func (s *PlanningService) loadCompleteRequest(ctx context.Context, userID int64) (*domain_models.TravelRequest, error) {
	request, err := s.loadRequest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !request.IsCategoryComplete() {
		return nil, fmt.Errorf("%w: user %d answered %d of %d questions", utils.ErrIncompleteRequest,
			userID, request.Answers.Len(), len(domain_models.RequiredQuestions(request.Category)))
	}
	return request, nil
}

func (s *PlanningService) GetRecommendation(ctx context.Context, userID int64) (*RecommendationResult, error) {
	request, err := s.loadCompleteRequest(ctx, userID)
	if err != nil {
		return nil, err
	}

	rec, err := s.recommendations.GetRecommendation(ctx, request)
	if err != nil {
		return s.fallback(ctx, request, s.alternativesUsed(ctx, userID), err)
	}

	s.remember(ctx, userID, rec.Destination)
	s.analytics.TrackRecommendation(ctx, userID, request.Category.String(), rec.Destination)
	s.log.Info("recommendation served", "user_id", userID, "destination", rec.Destination)

	return &RecommendationResult{Recommendation: rec, AlternativesLeft: alternativesLeft(s.alternativesUsed(ctx, userID))}, nil
}

func (s *PlanningService) GetAlternative(ctx context.Context, userID int64) (*RecommendationResult, error) {
	request, err := s.loadCompleteRequest(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude, err := s.sessions.ShownDestinations(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Counted before the model call so concurrent requests cannot overrun
	// the budget.
	used, err := s.sessions.IncrAlternatives(ctx, userID)
	if err != nil {
		return nil, err
	}
	if used > domain_models.MaxAlternativeRecommendations {
		return nil, fmt.Errorf("%w: user %d already requested %d alternatives", utils.ErrAlternativesExhausted,
			userID, domain_models.MaxAlternativeRecommendations)
	}

	s.analytics.TrackUserAction(ctx, userID, dbm.ActionAlternativeRequest, request.Category.String())

	rec, err := s.recommendations.GetAlternativeRecommendation(ctx, request, exclude)
	if err != nil {
		return s.fallback(ctx, request, used, err)
	}

	repeated := containsDestination(exclude, rec.Destination)
	if repeated {
		s.log.Warn("model repeated an excluded destination",
			"user_id", userID,
			"destination", rec.Destination,
			"excluded", len(exclude),
		)
	} else {
		s.remember(ctx, userID, rec.Destination)
	}
	s.analytics.TrackRecommendation(ctx, userID, request.Category.String(), rec.Destination)
	s.log.Info("alternative served", "user_id", userID, "destination", rec.Destination, "excluded", len(exclude))

	return &RecommendationResult{Recommendation: rec, Repeated: repeated, AlternativesLeft: alternativesLeft(used)}, nil
}

// fallback turns an external-service failure into the apology recommendation.
// Any other error is returned as is.
func (s *PlanningService) fallback(ctx context.Context, request *domain_models.TravelRequest, used int, err error) (*RecommendationResult, error) {
	if !errors.Is(err, utils.ErrExternalService) {
		return nil, err
	}
	s.log.Warn("recommendation pipeline unavailable, serving fallback",
		"user_id", request.UserID,
		"error", err.Error(),
	)
	s.analytics.TrackUserAction(ctx, request.UserID, dbm.ActionFallbackServed, request.Category.String())

	return &RecommendationResult{
		Recommendation:   s.recommendations.GetFallbackRecommendation(request),
		Fallback:         true,
		AlternativesLeft: alternativesLeft(used),
	}, nil
}

// remember adds destination to the exclusion list. Parser placeholders and
// names already on the list are skipped. A store failure is logged only: the
// recommendation has already been paid for.
func (s *PlanningService) remember(ctx context.Context, userID int64, destination string) {
	if !recordableDestination(destination) {
		return
	}
	shown, err := s.sessions.ShownDestinations(ctx, userID)
	if err != nil {
		s.log.Error("failed to load shown destinations", "user_id", userID, "error", err.Error())
		return
	}
	if containsDestination(shown, destination) {
		return
	}
	if err := s.sessions.AddShownDestination(ctx, userID, destination); err != nil {
		s.log.Error("failed to record shown destination",
			"user_id", userID,
			"destination", destination,
			"error", err.Error(),
		)
	}
}

func (s *PlanningService) alternativesUsed(ctx context.Context, userID int64) int {
	used, err := s.sessions.AlternativesUsed(ctx, userID)
	if err != nil {
		s.log.Warn("failed to read alternatives counter", "user_id", userID, "error", err.Error())
		return 0
	}
	return used
}

func recordableDestination(destination string) bool {
	d := strings.TrimSpace(destination)
	return d != "" && d != placeholderDestination && d != defaultDestination
}

func containsDestination(list []string, destination string) bool {
	d := strings.TrimSpace(destination)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), d) {
			return true
		}
	}
	return false
}

func alternativesLeft(used int) int {
	left := domain_models.MaxAlternativeRecommendations - used
	if left < 0 {
		return 0
	}
	return left
}

func (s *PlanningService) ClearState(ctx context.Context, userID int64) error {
	s.log.Info("clearing planning state", "user_id", userID)
	return s.sessions.ClearRequest(ctx, userID)
}
