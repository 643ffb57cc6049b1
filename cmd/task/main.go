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
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/otelcol"
	"asenso-booking/pkg/redis"
	"asenso-booking/pkg/sequence"
	"asenso-booking/pkg/task"
	"asenso-booking/services/booking"
	"asenso-booking/services/catalog"
	"asenso-booking/services/loyalty"
	"asenso-booking/services/membership"
	"asenso-booking/services/performance"
	"asenso-booking/services/pricing"
	"asenso-booking/services/scheduler"
	"asenso-booking/services/search"
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
		task.Server,

		catalog.Module,
		membership.Module,
		pricing.Module,
		loyalty.Module,
		performance.Module,
		booking.Module,
		search.Module,

		membership.Handlers,
		performance.Handlers,
		search.Handlers,
		scheduler.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
