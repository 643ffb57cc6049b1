package availability

import (
	"asenso-booking/pkg/middleware"
	"asenso-booking/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("availability.service",
	fx.Provide(
		NewService,
		func(s *Service) booking.AvailabilityChecker { return s },
	),
)

var Routes = fx.Module("availability.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *gin.Engine, auth middleware.Authenticator, s *Service) {
	g := r.Group("/v1/availability", middleware.Auth(auth))
	g.GET("/me", GetMine(s))
	g.PUT("/me", SetMine(s))
}
