package performance

import (
	"asenso-booking/pkg/middleware"
	"asenso-booking/pkg/task"
	"asenso-booking/pkg/taskname"
	"asenso-booking/services/booking"
	"asenso-booking/services/rating"
	"asenso-booking/services/violation"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("performance.service",
	fx.Provide(
		NewService,
		func(s *Service) booking.CompletionRecorder { return s },
		func(s *Service) rating.Recorder { return s },
		func(s *Service) violation.Recorder { return s },
	),
)

var Routes = fx.Module("performance.routes",
	fx.Invoke(registerRoutes),
)

// Handlers registers the worker side.
var Handlers = fx.Module("performance.handlers",
	fx.Invoke(registerHandlers),
)

func registerRoutes(r *gin.Engine, auth middleware.Authenticator, s *Service, enq task.Enqueuer) {
	g := r.Group("/v1/performance", middleware.Auth(auth))
	g.GET("/me", MySnapshot(s))

	admin := g.Group("", middleware.RequireAdmin())
	admin.POST("/workers/:id/rollup", Rollup(s))
	admin.POST("/rollups", ScheduleRollup(enq))
}

func registerHandlers(mux *asynq.ServeMux, s *Service) {
	mux.HandleFunc(taskname.PerformanceRollup, s.HandleRollupTask)
}
