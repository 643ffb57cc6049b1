package violation

import (
	"asenso-booking/pkg/middleware"
	"asenso-booking/services/loyalty"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("violation.service",
	fx.Provide(
		func(s *loyalty.Service) Ledger { return s },
		NewService,
	),
)

var Routes = fx.Module("violation.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *gin.Engine, auth middleware.Authenticator, s *Service) {
	g := r.Group("/v1/violations", middleware.Auth(auth))
	g.GET("/me", Mine(s))
	g.GET("/types", ListTypes(s))

	admin := g.Group("", middleware.RequireAdmin())
	admin.POST("", Create(s))
	admin.GET("", List(s))
	admin.PUT("/types", UpsertType(s))
	admin.GET("/:id", Get(s))
	admin.POST("/:id/resolve", Resolve(s))
}
