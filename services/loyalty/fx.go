package loyalty

import (
	"asenso-booking/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("loyalty.service",
	fx.Provide(NewService),
)

var Routes = fx.Module("loyalty.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *gin.Engine, auth middleware.Authenticator, s *Service) {
	g := r.Group("/v1/loyalty", middleware.Auth(auth))
	g.GET("/me", MySummary(s))
	g.GET("/me/transactions", MyTransactions(s))
	g.POST("/me/redemptions", Redeem(s))
	g.GET("/tiers", ListTiers(s))

	admin := g.Group("", middleware.RequireAdmin())
	admin.POST("/workers/:id/adjustments", Adjust(s))
	admin.GET("/workers/:id/verify", Verify(s))
	admin.PUT("/tiers", UpsertTier(s))
}
