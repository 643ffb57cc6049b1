package membership

import (
	"asenso-booking/pkg/middleware"
	"asenso-booking/pkg/taskname"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("membership.service",
	fx.Provide(
		NewService,
		func(s *Service) Validator { return s },
	),
)

var Routes = fx.Module("membership.routes",
	fx.Invoke(registerRoutes),
)

var Handlers = fx.Module("membership.handlers",
	fx.Invoke(registerHandlers),
)

func registerRoutes(r *gin.Engine, auth middleware.Authenticator, s *Service) {
	g := r.Group("/v1/memberships", middleware.Auth(auth))
	g.POST("", Purchase(s))
	g.GET("/:id", Get(s))
	g.POST("/:id/cancel", Cancel(s))
}

func registerHandlers(mux *asynq.ServeMux, s *Service) {
	mux.HandleFunc(taskname.MembershipExpire, s.HandleExpireTask)
}
