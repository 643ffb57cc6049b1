package rating

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("rating.service",
	fx.Provide(NewService),
)

var Routes = fx.Module("rating.routes",
	fx.Invoke(registerRoutes),
)

// Customers rate through the booking code they were sent, so these routes
// carry no worker token.
func registerRoutes(r *gin.Engine, s *Service) {
	g := r.Group("/v1/ratings")
	g.POST("/:code", Submit(s))
	g.GET("/:code", Get(s))
}
