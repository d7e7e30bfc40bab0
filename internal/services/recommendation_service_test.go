package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tripcraft/internal/models/domain_models"
	"tripcraft/pkg/llm"
	"tripcraft/pkg/utils"
)

type fakeCompleter struct {
	reply   string
	err     error
	healthy bool
	panics  bool

	calls    int
	messages []llm.Message
	opts     llm.CompletionOptions
}

func (f *fakeCompleter) GenerateCompletion(_ context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error) {
	f.calls++
	f.messages = messages
	f.opts = opts
	return f.reply, f.err
}

func (f *fakeCompleter) CheckHealth(context.Context) bool {
	if f.panics {
		panic("boom")
	}
	return f.healthy
}

func TestGetRecommendation_FamilyEndToEnd(t *testing.T) {
	fc := &fakeCompleter{reply: "```json\n{\"destination\":\"Анталья, Турция\",\"description\":\"Отели all inclusive\",\"highlights\":[\"Пляж Коньяалты\"]}\n```"}
	svc := NewRecommendationService(fc, nil, nil)
	req := familyRequest()

	rec, err := svc.GetRecommendation(context.Background(), req)
	if err != nil {
		t.Fatalf("GetRecommendation: %v", err)
	}
	if rec.Destination != "Анталья, Турция" {
		t.Fatalf("destination=%q", rec.Destination)
	}

	if len(fc.messages) != 2 {
		t.Fatalf("messages=%d", len(fc.messages))
	}
	user := fc.messages[1].Content
	prev := -1
	for _, ans := range req.Answers.All() {
		idx := strings.Index(user, ans.AnswerText)
		if idx <= prev {
			t.Fatalf("answer %q missing or out of order in %q", ans.AnswerText, user)
		}
		prev = idx
	}
	if fc.opts.MaxTokens != 2000 || fc.opts.Temperature != 0.7 {
		t.Fatalf("opts=%+v", fc.opts)
	}
}

func TestGetAlternativeRecommendation_UsesExclusionsAndHigherTemperature(t *testing.T) {
	fc := &fakeCompleter{reply: `{"destination":"Сочи","description":"Море"}`}
	svc := NewRecommendationService(fc, nil, nil)

	rec, err := svc.GetAlternativeRecommendation(context.Background(), familyRequest(), []string{"Анталья", "Анапа"})
	if err != nil {
		t.Fatalf("GetAlternativeRecommendation: %v", err)
	}
	if rec.Destination != "Сочи" {
		t.Fatalf("destination=%q", rec.Destination)
	}
	if fc.opts.Temperature != 0.8 {
		t.Fatalf("temperature=%v", fc.opts.Temperature)
	}
	user := fc.messages[len(fc.messages)-1].Content
	if !strings.Contains(user, "Анталья, Анапа") {
		t.Fatalf("exclusions not in prompt: %q", user)
	}
}

func TestGetRecommendation_ServiceErrorNotRewrapped(t *testing.T) {
	orig := &llm.ServiceError{StatusCode: 503, Msg: "both models unavailable"}
	svc := NewRecommendationService(&fakeCompleter{err: orig}, nil, nil)

	_, err := svc.GetRecommendation(context.Background(), familyRequest())
	var se *llm.ServiceError
	if !errors.As(err, &se) || se != orig {
		t.Fatalf("err=%v, want the original service error", err)
	}
}

func TestGetRecommendation_WrapsForeignErrors(t *testing.T) {
	cases := []struct {
		name   string
		call   func(RecommendationServiceInterface) error
		prefix string
	}{
		{
			name: "recommendation",
			call: func(s RecommendationServiceInterface) error {
				_, err := s.GetRecommendation(context.Background(), familyRequest())
				return err
			},
			prefix: "Ошибка сервиса рекомендаций: ",
		},
		{
			name: "alternative",
			call: func(s RecommendationServiceInterface) error {
				_, err := s.GetAlternativeRecommendation(context.Background(), familyRequest(), []string{"X"})
				return err
			},
			prefix: "Ошибка сервиса альтернативных рекомендаций: ",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cause := errors.New("socket closed")
			err := tc.call(NewRecommendationService(&fakeCompleter{err: cause}, nil, nil))
			if !errors.Is(err, utils.ErrExternalService) {
				t.Fatalf("err=%v is not an external service error", err)
			}
			if !errors.Is(err, cause) {
				t.Fatalf("cause lost: %v", err)
			}
			if !strings.HasPrefix(err.Error(), tc.prefix) {
				t.Fatalf("err=%q", err.Error())
			}
		})
	}
}

func TestGetFallbackRecommendation(t *testing.T) {
	svc := NewRecommendationService(&fakeCompleter{}, nil, nil)
	names := map[domain_models.TravelCategory]string{
		domain_models.CategoryFamily: "семейного путешествия",
		domain_models.CategoryPets:   "путешествия с питомцами",
		domain_models.CategoryPhoto:  "фотографического путешествия",
		domain_models.CategoryBudget: "бюджетного путешествия",
		domain_models.CategoryActive: "активного отдыха",
	}
	for c, name := range names {
		rec := svc.GetFallbackRecommendation(domain_models.NewTravelRequest(1, c, ""))
		if !strings.Contains(rec.Description, name) {
			t.Fatalf("%s: description=%q", c, rec.Description)
		}
		if rec.EstimatedCost == nil || *rec.EstimatedCost != "Недоступно" {
			t.Fatalf("%s: estimated_cost=%v", c, rec.EstimatedCost)
		}
		if *rec.Duration != "Недоступно" || *rec.BestTime != "Недоступно" {
			t.Fatalf("%s: duration/best_time not unavailable", c)
		}
		if len(rec.Highlights) != 4 {
			t.Fatalf("%s: highlights=%v", c, rec.Highlights)
		}
	}

	rec := svc.GetFallbackRecommendation(domain_models.NewTravelRequest(1, "cruise", ""))
	if !strings.Contains(rec.Description, "для путешествия временно") {
		t.Fatalf("unknown category description=%q", rec.Description)
	}
	if rec := svc.GetFallbackRecommendation(nil); rec.Destination == "" {
		t.Fatalf("nil request gave empty destination")
	}
}

func TestCheckServiceHealth(t *testing.T) {
	if !NewRecommendationService(&fakeCompleter{healthy: true}, nil, nil).CheckServiceHealth(context.Background()) {
		t.Fatalf("expected healthy")
	}
	if NewRecommendationService(&fakeCompleter{healthy: false}, nil, nil).CheckServiceHealth(context.Background()) {
		t.Fatalf("expected unhealthy")
	}
	if NewRecommendationService(&fakeCompleter{panics: true}, nil, nil).CheckServiceHealth(context.Background()) {
		t.Fatalf("panicking client must report unhealthy")
	}
}
