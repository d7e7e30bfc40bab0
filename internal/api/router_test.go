package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tripcraft/internal/api/controllers"
	dbm "tripcraft/internal/models/db_models"
	"tripcraft/internal/repositories"
	"tripcraft/internal/services"
	"tripcraft/pkg/llm"
	mem "tripcraft/pkg/memcache"
	"tripcraft/pkg/middleware"
	"tripcraft/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCompleter struct {
	replies []string
	err     error
	healthy bool
	checks  int
}

func (s *stubCompleter) GenerateCompletion(context.Context, []llm.Message, llm.CompletionOptions) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func (s *stubCompleter) CheckHealth(context.Context) bool {
	s.checks++
	return s.healthy
}

type envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	TraceID string          `json:"trace_id"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router    *gin.Engine
	completer *stubCompleter
}

func newAnalyticsRepo(t *testing.T) repositories.AnalyticsRepositoryInterface {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(&dbm.AnalyticsEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repositories.NewAnalyticsRepository(db)
}

func newTestServer(t *testing.T, jwt *utils.JWTManager, limiter *middleware.UserRateLimiter, replies ...string) *testServer {
	t.Helper()
	completer := &stubCompleter{replies: replies, healthy: true}
	sessions := repositories.NewMemorySessionRepository(mem.NewStore(), time.Hour, nil)
	recommendations := services.NewRecommendationService(completer, nil, nil)
	analytics := services.NewAnalyticsService(newAnalyticsRepo(t), nil)
	planning := services.NewPlanningService(sessions, recommendations, analytics, nil)

	ctrl := Controllers{
		Planning:  controllers.NewPlanningController(planning, limiter),
		Health:    controllers.NewHealthController(recommendations, sessions),
		Analytics: controllers.NewAnalyticsController(analytics),
	}
	opts := RouterOptions{Env: "testing", CORSOrigins: []string{"https://admin.tripcraft.example"}, JWT: jwt}
	return &testServer{router: NewRouter(opts, ctrl), completer: completer}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func (s *testServer) answerFamily(t *testing.T, userID int64) {
	t.Helper()
	if code, env := s.do(t, http.MethodPost, "/api/v1/planning/start", "", gin.H{"user_id": userID, "category": "FAMILY"}); code != http.StatusOK {
		t.Fatalf("start: %d %+v", code, env)
	}
	for _, a := range [][2]string{{"family_size", "2+1"}, {"travel_time", "month"}, {"priority", "beach"}} {
		code, env := s.do(t, http.MethodPost, "/api/v1/planning/answer", "", gin.H{
			"user_id": userID, "question_key": a[0], "answer_value": a[1],
		})
		if code != http.StatusOK {
			t.Fatalf("answer %s: %d %+v", a[0], code, env)
		}
	}
}

type recommendationData struct {
	Recommendation struct {
		Destination string `json:"destination"`
	} `json:"recommendation"`
	Text             string `json:"text"`
	Fallback         bool   `json:"fallback"`
	AlternativesLeft int    `json:"alternatives_left"`
}

func TestPlanningFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, nil, nil,
		`{"destination":"Анапа","description":"Песчаные пляжи","highlights":["Пляж"]}`,
		"Геленджик\nГорный воздух и море.",
	)

	code, env := s.do(t, http.MethodPost, "/api/v1/planning/recommendation", "", gin.H{"user_id": 1})
	if code != http.StatusNotFound {
		t.Fatalf("recommendation before start: %d %+v", code, env)
	}

	s.answerFamily(t, 1)

	code, env = s.do(t, http.MethodGet, "/api/v1/planning/1", "", nil)
	if code != http.StatusOK {
		t.Fatalf("state: %d %+v", code, env)
	}
	var state struct {
		Progress struct {
			CurrentQuestion int `json:"current_question"`
		} `json:"progress"`
		RemainingKeys []string `json:"remaining_keys"`
		IsComplete    bool     `json:"is_complete"`
	}
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("state decode: %v", err)
	}
	if !state.IsComplete || len(state.RemainingKeys) != 0 || state.Progress.CurrentQuestion != 3 {
		t.Fatalf("state=%+v", state)
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/planning/recommendation", "", gin.H{"user_id": 1})
	if code != http.StatusOK {
		t.Fatalf("recommendation: %d %+v", code, env)
	}
	var rec recommendationData
	if err := json.Unmarshal(env.Data, &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Recommendation.Destination != "Анапа" || rec.Fallback || !strings.Contains(rec.Text, "Анапа") {
		t.Fatalf("rec=%+v", rec)
	}
	if env.TraceID == "" {
		t.Fatalf("trace id missing")
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/planning/alternative", "", gin.H{"user_id": 1})
	if code != http.StatusOK {
		t.Fatalf("alternative: %d %+v", code, env)
	}
	if err := json.Unmarshal(env.Data, &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Recommendation.Destination != "Геленджик" || rec.AlternativesLeft != 4 {
		t.Fatalf("alt=%+v", rec)
	}

	if code, _ := s.do(t, http.MethodDelete, "/api/v1/planning/1", "", nil); code != http.StatusOK {
		t.Fatalf("delete: %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/v1/planning/1", "", nil); code != http.StatusNotFound {
		t.Fatalf("state after delete: %d", code)
	}
}

func TestPlanningValidation(t *testing.T) {
	s := newTestServer(t, nil, nil)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing user", http.MethodPost, "/api/v1/planning/start", gin.H{"category": "family"}, http.StatusBadRequest},
		{"unknown category", http.MethodPost, "/api/v1/planning/start", gin.H{"user_id": 1, "category": "cruise"}, http.StatusBadRequest},
		{"answer without start", http.MethodPost, "/api/v1/planning/answer", gin.H{"user_id": 1, "question_key": "budget", "answer_value": "low"}, http.StatusNotFound},
		{"bad path id", http.MethodGet, "/api/v1/planning/abc", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code, env := s.do(t, tc.method, tc.path, "", tc.body); code != tc.want {
				t.Fatalf("code=%d want %d (%+v)", code, tc.want, env)
			}
		})
	}

	if code, _ := s.do(t, http.MethodPost, "/api/v1/planning/start", "", gin.H{"user_id": 2, "category": "active"}); code != http.StatusOK {
		t.Fatalf("start: %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/planning/recommendation", "", gin.H{"user_id": 2}); code != http.StatusConflict {
		t.Fatalf("incomplete: %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/planning/answer", "", gin.H{"user_id": 2, "question_key": "budget", "answer_value": "low"}); code != http.StatusBadRequest {
		t.Fatalf("foreign question: %d", code)
	}
}

func TestFallbackOverHTTP(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.completer.err = &llm.ServiceError{StatusCode: http.StatusBadGateway, Msg: "upstream down"}
	s.answerFamily(t, 3)

	code, env := s.do(t, http.MethodPost, "/api/v1/planning/recommendation", "", gin.H{"user_id": 3})
	if code != http.StatusOK {
		t.Fatalf("code=%d %+v", code, env)
	}
	var rec recommendationData
	if err := json.Unmarshal(env.Data, &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !rec.Fallback || strings.Contains(string(env.Data), "upstream down") {
		t.Fatalf("rec=%+v", rec)
	}
}

func TestRateLimitPerUser(t *testing.T) {
	s := newTestServer(t, nil, middleware.NewUserRateLimiter(1, time.Hour),
		`{"destination":"Сочи"}`)
	s.answerFamily(t, 4)

	if code, _ := s.do(t, http.MethodPost, "/api/v1/planning/recommendation", "", gin.H{"user_id": 4}); code != http.StatusOK {
		t.Fatalf("first: %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/planning/alternative", "", gin.H{"user_id": 4}); code != http.StatusTooManyRequests {
		t.Fatalf("second: %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/planning/recommendation", "", gin.H{"user_id": 5}); code != http.StatusNotFound {
		t.Fatalf("other user: %d", code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, nil)
	if code, env := s.do(t, http.MethodGet, "/health", "", nil); code != http.StatusOK || env.Status != "success" {
		t.Fatalf("healthy: %d %+v", code, env)
	}

	// the model verdict is reused for the next requests on either path
	s.completer.healthy = false
	for _, path := range []string{"/health", "/api/v1/health", "/health"} {
		if code, _ := s.do(t, http.MethodGet, path, "", nil); code != http.StatusOK {
			t.Fatalf("%s: %d", path, code)
		}
	}
	if s.completer.checks != 1 {
		t.Fatalf("model checked %d times", s.completer.checks)
	}

	down := newTestServer(t, nil, nil)
	down.completer.healthy = false
	code, env := down.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if code != http.StatusServiceUnavailable || !strings.Contains(string(env.Data), `"model":"unavailable"`) {
		t.Fatalf("unhealthy: %d %s", code, env.Data)
	}
}

func TestAuthAndAnalyticsSummary(t *testing.T) {
	jwt, err := utils.NewJWTManager("0123456789abcdef-secret", "tripcraft")
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	service, _ := jwt.CreateToken("chat-transport", utils.RoleService, time.Hour)
	admin, _ := jwt.CreateToken("ops", utils.RoleAdmin, time.Hour)

	s := newTestServer(t, jwt, nil)

	if code, _ := s.do(t, http.MethodPost, "/api/v1/planning/start", "", gin.H{"user_id": 1, "category": "pets"}); code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/planning/start", service, gin.H{"user_id": 1, "category": "pets"}); code != http.StatusOK {
		t.Fatalf("service token: %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/health", "", nil); code != http.StatusOK {
		t.Fatalf("health must stay open: %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/v1/analytics/summary", service, nil); code != http.StatusForbidden {
		t.Fatalf("service on analytics: %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/v1/analytics/summary?last_days=2&start=2026-01-01T00:00:00Z", admin, nil); code != http.StatusBadRequest {
		t.Fatalf("mixed range: %d", code)
	}

	code, env := s.do(t, http.MethodGet, "/api/v1/analytics/summary?last_days=1", admin, nil)
	if code != http.StatusOK {
		t.Fatalf("summary: %d %+v", code, env)
	}
	var sum struct {
		CategoryStarts []struct {
			Category string `json:"category"`
			Count    int64  `json:"count"`
		} `json:"category_starts"`
	}
	if err := json.Unmarshal(env.Data, &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sum.CategoryStarts) != 1 || sum.CategoryStarts[0].Category != "pets" || sum.CategoryStarts[0].Count != 1 {
		t.Fatalf("summary=%s", env.Data)
	}
}

func TestAnalyticsSummaryWithoutStorage(t *testing.T) {
	analytics := services.NewAnalyticsService(nil, nil)
	ctrl := Controllers{
		Analytics: controllers.NewAnalyticsController(analytics),
	}
	r := gin.New()
	r.GET("/summary", ctrl.Analytics.GetSummary)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/summary", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("code=%d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analytics/summary", nil)
	req.Header.Set("Origin", "https://admin.tripcraft.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.tripcraft.example" {
		t.Fatalf("allow origin=%q code=%d", got, w.Code)
	}
}
