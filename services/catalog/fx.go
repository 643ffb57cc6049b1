package catalog

import (
	"asenso-booking/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(NewService),
)

var Routes = fx.Module("catalog.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *gin.Engine, auth middleware.Authenticator, s *Service) {
	g := r.Group("/v1/catalog", middleware.Auth(auth))
	g.GET("/skus", ListServiceSkus(s))

	admin := g.Group("", middleware.RequireAdmin())
	admin.PUT("/skus", UpsertServiceSku(s))
	admin.PUT("/flexi-rates", UpsertFlexiRateCard(s))
	admin.POST("/membership-skus", CreateMembershipSku(s))
}
