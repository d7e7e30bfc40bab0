package controllers_fx

import (
	"go.uber.org/fx"

	"tripcraft/internal/api"
	"tripcraft/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewHealthController),
	fx.Provide(provideControllers))

func provideControllers(
	planning *controllers.PlanningController,
	health *controllers.HealthController,
	analytics *controllers.AnalyticsController,
) api.Controllers {
	return api.Controllers{Planning: planning, Health: health, Analytics: analytics}
}
