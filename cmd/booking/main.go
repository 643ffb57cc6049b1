package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"asenso-booking/pkg/config"
	"asenso-booking/pkg/db"
	"asenso-booking/pkg/gen"
	"asenso-booking/pkg/hashistack/secretmanager"
	"asenso-booking/pkg/health"
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/middleware"
	"asenso-booking/pkg/minio"
	"asenso-booking/pkg/otelcol"
	"asenso-booking/pkg/redis"
	"asenso-booking/pkg/sequence"
	"asenso-booking/pkg/server"
	"asenso-booking/pkg/task"
	"asenso-booking/services/availability"
	"asenso-booking/services/booking"
	"asenso-booking/services/bootstrap"
	"asenso-booking/services/catalog"
	"asenso-booking/services/loyalty"
	"asenso-booking/services/membership"
	"asenso-booking/services/performance"
	"asenso-booking/services/pricing"
	"asenso-booking/services/rating"
	"asenso-booking/services/search"
	"asenso-booking/services/violation"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		otelcol.Module,
		db.Module,
		gen.Module,
		redis.Module,
		sequence.Module,
		task.Client,
		minio.Client,
		fx.Provide(middleware.NewJWTAuthenticator),
		bootstrap.Module,

		catalog.Module,
		membership.Module,
		pricing.Module,
		loyalty.Module,
		performance.Module,
		booking.Module,
		booking.Storage,
		availability.Module,
		violation.Module,
		rating.Module,
		search.Module,

		server.ProvideHTTPServer,
		health.Module,
		catalog.Routes,
		membership.Routes,
		pricing.Routes,
		loyalty.Routes,
		booking.Routes,
		availability.Routes,
		violation.Routes,
		rating.Routes,
		performance.Routes,
		search.Routes,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "development" {
		return &fxevent.ZapLogger{Logger: logger}
	}
	return fxevent.NopLogger
})
