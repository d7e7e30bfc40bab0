package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"tripcraft/cmd/fx/analytics_fx"
	"tripcraft/cmd/fx/config_fx"
	"tripcraft/cmd/fx/controllers_fx"
	"tripcraft/cmd/fx/db_fx"
	"tripcraft/cmd/fx/llm_fx"
	"tripcraft/cmd/fx/planning_fx"
	"tripcraft/cmd/fx/session_fx"
	"tripcraft/internal/api"
	"tripcraft/pkg/config"
	"tripcraft/pkg/logger"
	"tripcraft/pkg/utils"
)

const jwtIssuer = "tripcraft"

func main() {
	app := fx.New(
		config_fx.Module,
		db_fx.Module,
		session_fx.Module,
		llm_fx.Module,
		analytics_fx.Module,
		planning_fx.Module,
		controllers_fx.Module,

		fx.WithLogger(func(log *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.SugaredLogger.Desugar()}
		}),
		fx.Provide(ProvideJWTManager),
		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

// ProvideJWTManager returns nil when JWT_SECRET is empty, leaving the API open.
func ProvideJWTManager(cfg *config.Config, log *logger.Logger) (*utils.JWTManager, error) {
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, API authentication is disabled")
		return nil, nil
	}
	return utils.NewJWTManager(cfg.JWTSecret, jwtIssuer)
}

func ProvideRouter(cfg *config.Config, ctrl api.Controllers, jwtManager *utils.JWTManager, log *logger.Logger) *gin.Engine {
	return api.NewRouter(api.RouterOptions{
		Env:         cfg.Env,
		CORSOrigins: cfg.CORSOrigins,
		JWT:         jwtManager,
		Log:         log,
	}, ctrl)
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, log *logger.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				log.Info("starting HTTP server", "addr", srv.Addr)
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("HTTP server failed", "error", err.Error())
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}
