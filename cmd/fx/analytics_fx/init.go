package analytics_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"tripcraft/internal/api/controllers"
	"tripcraft/internal/repositories"
	"tripcraft/internal/services"
	"tripcraft/pkg/logger"
)

var Module = fx.Provide(
	provideAnalyticsRepo, provideAnalyticsService, provideAnalyticsController,
)

func provideAnalyticsRepo(db *gorm.DB) repositories.AnalyticsRepositoryInterface {
	if db == nil {
		return nil
	}
	return repositories.NewAnalyticsRepository(db)
}

func provideAnalyticsService(repo repositories.AnalyticsRepositoryInterface, log *logger.Logger) services.AnalyticsServiceInterface {
	return services.NewAnalyticsService(repo, log)
}

func provideAnalyticsController(analyticsService services.AnalyticsServiceInterface) *controllers.AnalyticsController {
	return controllers.NewAnalyticsController(analyticsService)
}
