package planning_fx

import (
	"context"
	"time"

	"go.uber.org/fx"

	"tripcraft/internal/api/controllers"
	"tripcraft/internal/repositories"
	"tripcraft/internal/services"
	"tripcraft/pkg/config"
	"tripcraft/pkg/logger"
	"tripcraft/pkg/middleware"
)

var Module = fx.Provide(
	provideRateLimiter, providePlanningService, providePlanningController,
)

func provideRateLimiter(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) *middleware.UserRateLimiter {
	limiter := middleware.NewUserRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Interval)

	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(5 * time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if n := limiter.Cleanup(); n > 0 {
							log.Debug("idle rate limiters dropped", "count", n)
						}
					case <-stop:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			close(stop)
			return nil
		},
	})
	return limiter
}

func providePlanningService(
	sessions repositories.SessionRepositoryInterface,
	recommendations services.RecommendationServiceInterface,
	analytics services.AnalyticsServiceInterface,
	log *logger.Logger,
) services.PlanningServiceInterface {
	return services.NewPlanningService(sessions, recommendations, analytics, log)
}

func providePlanningController(planningService services.PlanningServiceInterface, limiter *middleware.UserRateLimiter) *controllers.PlanningController {
	return controllers.NewPlanningController(planningService, limiter)
}
