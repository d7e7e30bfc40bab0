package api

import (
	"github.com/gin-gonic/gin"

	"tripcraft/internal/api/controllers"
	"tripcraft/pkg/logger"
	"tripcraft/pkg/middleware"
	"tripcraft/pkg/utils"
)

// Controllers groups everything RegisterRoutes mounts.
type Controllers struct {
	Planning  *controllers.PlanningController
	Health    *controllers.HealthController
	Analytics *controllers.AnalyticsController
}

type RouterOptions struct {
	Env         string
	CORSOrigins []string
	// JWT nil leaves the API open, which is how the chat transport runs next
	// to the service on one host.
	JWT *utils.JWTManager
	Log *logger.Logger
}

func NewRouter(opts RouterOptions, ctrl Controllers) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware(opts.Log))
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORSMiddleware(opts.CORSOrigins))
	}

	RegisterRoutes(r, ctrl, opts.JWT)
	return r
}

func RegisterRoutes(r *gin.Engine, ctrl Controllers, jwtManager *utils.JWTManager) {
	r.GET("/health", ctrl.Health.Health)

	v1 := r.Group("/api/v1")
	v1.GET("/health", ctrl.Health.Health)

	planning := v1.Group("/planning")
	analytics := v1.Group("/analytics")
	if jwtManager != nil {
		planning.Use(middleware.JWTAuthMiddleware(jwtManager))
		analytics.Use(middleware.JWTAuthMiddleware(jwtManager), middleware.RoleMiddleware(utils.RoleAdmin))
	}

	planning.POST("/start", ctrl.Planning.StartPlanning)
	planning.POST("/answer", ctrl.Planning.SubmitAnswer)
	planning.POST("/recommendation", ctrl.Planning.GetRecommendation)
	planning.POST("/alternative", ctrl.Planning.GetAlternative)
	planning.GET("/:user_id", ctrl.Planning.GetState)
	planning.DELETE("/:user_id", ctrl.Planning.ClearState)

	analytics.GET("/summary", ctrl.Analytics.GetSummary)
}
