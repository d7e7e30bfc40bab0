package services

import (
	"context"
	"errors"
	"fmt"

	"tripcraft/internal/models/domain_models"
	"tripcraft/pkg/llm"
	"tripcraft/pkg/logger"
	"tripcraft/pkg/utils"
)

const (
	recommendationMaxTokens   = 2000
	recommendationTemperature = 0.7
	alternativeTemperature    = 0.8

	unavailableValue = "Недоступно"
)

// RecommendationServiceInterface is what the planning flow talks to. Every
// error it returns matches utils.ErrExternalService.
type RecommendationServiceInterface interface {
	GetRecommendation(ctx context.Context, request *domain_models.TravelRequest) (domain_models.TravelRecommendation, error)
	GetAlternativeRecommendation(ctx context.Context, request *domain_models.TravelRequest, exclude []string) (domain_models.TravelRecommendation, error)
	GetFallbackRecommendation(request *domain_models.TravelRequest) domain_models.TravelRecommendation
	CheckServiceHealth(ctx context.Context) bool
}

type RecommendationService struct {
	client    llm.Completer
	formatter PromptFormatterInterface
	log       *logger.Logger
}

func NewRecommendationService(client llm.Completer, formatter PromptFormatterInterface, log *logger.Logger) RecommendationServiceInterface {
	if log == nil {
		log = logger.NewNop()
	}
	if formatter == nil {
		formatter = NewPromptFormatter(log)
	}
	return &RecommendationService{
		client:    client,
		formatter: formatter,
		log:       log.With("service", "RecommendationService"),
	}
}

func (s *RecommendationService) GetRecommendation(ctx context.Context, request *domain_models.TravelRequest) (domain_models.TravelRecommendation, error) {
	if request == nil {
		return domain_models.TravelRecommendation{}, asExternalError("Ошибка сервиса рекомендаций", errors.New("nil travel request"))
	}
	s.log.Info("requesting recommendation",
		"user_id", request.UserID,
		"category", request.Category.String(),
	)

	rec, err := s.complete(ctx, s.formatter.BuildPrompt(request), recommendationTemperature)
	if err != nil {
		s.log.Error("recommendation failed",
			"user_id", request.UserID,
			"error", err.Error(),
		)
		return domain_models.TravelRecommendation{}, asExternalError("Ошибка сервиса рекомендаций", err)
	}

	s.log.Info("recommendation ready",
		"user_id", request.UserID,
		"destination", rec.Destination,
	)
	return rec, nil
}

func (s *RecommendationService) GetAlternativeRecommendation(ctx context.Context, request *domain_models.TravelRequest, exclude []string) (domain_models.TravelRecommendation, error) {
	if request == nil {
		return domain_models.TravelRecommendation{}, asExternalError("Ошибка сервиса альтернативных рекомендаций", errors.New("nil travel request"))
	}
	s.log.Info("requesting alternative recommendation",
		"user_id", request.UserID,
		"category", request.Category.String(),
		"exclude", exclude,
	)

	rec, err := s.complete(ctx, s.formatter.BuildAlternativePrompt(request, exclude), alternativeTemperature)
	if err != nil {
		s.log.Error("alternative recommendation failed",
			"user_id", request.UserID,
			"error", err.Error(),
		)
		return domain_models.TravelRecommendation{}, asExternalError("Ошибка сервиса альтернативных рекомендаций", err)
	}

	s.log.Info("alternative recommendation ready",
		"user_id", request.UserID,
		"destination", rec.Destination,
	)
	return rec, nil
}

func (s *RecommendationService) complete(ctx context.Context, messages []llm.Message, temperature float32) (domain_models.TravelRecommendation, error) {
	text, err := s.client.GenerateCompletion(ctx, messages, llm.CompletionOptions{
		MaxTokens:   recommendationMaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return domain_models.TravelRecommendation{}, err
	}
	return s.formatter.ParseResponse(text), nil
}

// asExternalError returns errors that already are external-service errors
// unchanged and wraps anything else with the given prefix.
func asExternalError(prefix string, err error) error {
	if errors.Is(err, utils.ErrExternalService) {
		return err
	}
	return &llm.ServiceError{Msg: fmt.Sprintf("%s: %v", prefix, err), Err: err}
}

// categoryGenitiveName completes "сервис рекомендаций для ...".
func categoryGenitiveName(c domain_models.TravelCategory) string {
	switch c {
	case domain_models.CategoryFamily:
		return "семейного путешествия"
	case domain_models.CategoryPets:
		return "путешествия с питомцами"
	case domain_models.CategoryPhoto:
		return "фотографического путешествия"
	case domain_models.CategoryBudget:
		return "бюджетного путешествия"
	case domain_models.CategoryActive:
		return "активного отдыха"
	}
	return "путешествия"
}

// GetFallbackRecommendation is the apology shown when no real recommendation
// can be produced. It does no I/O.
func (s *RecommendationService) GetFallbackRecommendation(request *domain_models.TravelRequest) domain_models.TravelRecommendation {
	var category domain_models.TravelCategory
	if request != nil {
		category = request.Category
		s.log.Warn("serving fallback recommendation",
			"user_id", request.UserID,
			"category", category.String(),
		)
	}

	return domain_models.TravelRecommendation{
		Destination: "Сервис временно недоступен",
		Description: "К сожалению, наш сервис рекомендаций для " + categoryGenitiveName(category) +
			" временно недоступен. Мы не можем предоставить качественную персонализированную рекомендацию" +
			" в данный момент, так как каждое путешествие должно быть уникальным и подобранным специально" +
			" под ваши предпочтения.",
		Highlights: []string{
			"Попробуйте повторить запрос через несколько минут",
			"Проверьте стабильность интернет-соединения",
			"Обратитесь в поддержку, если проблема повторяется",
			"Мы работаем над восстановлением сервиса",
		},
		PracticalInfo: "Приносим извинения за временные неудобства. Наша команда разработчиков уже работает" +
			" над устранением технических проблем. Качественные персонализированные рекомендации будут" +
			" доступны в ближайшее время.",
		EstimatedCost: domain_models.StringPtr(unavailableValue),
		Duration:      domain_models.StringPtr(unavailableValue),
		BestTime:      domain_models.StringPtr(unavailableValue),
	}
}

func (s *RecommendationService) CheckServiceHealth(ctx context.Context) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("recommendation health check panicked", "panic", fmt.Sprint(r))
			healthy = false
		}
	}()
	return s.client.CheckHealth(ctx)
}
