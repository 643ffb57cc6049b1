package pricing

import (
	"asenso-booking/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(
		NewDBCalendar,
		func(c *DBCalendar) Calendar { return c },
		NewEngine,
	),
)

var Routes = fx.Module("pricing.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *gin.Engine, auth middleware.Authenticator, e *Engine, cal *DBCalendar) {
	g := r.Group("/v1/pricing", middleware.Auth(auth))
	g.POST("/quote", Calculate(e))
	g.GET("/holidays", ListHolidays(cal))
	g.POST("/holidays", middleware.RequireAdmin(), AddHoliday(cal))
}
