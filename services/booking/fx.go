package booking

import (
	"asenso-booking/pkg/middleware"
	"asenso-booking/pkg/minio"
	"asenso-booking/services/loyalty"
	"asenso-booking/services/pricing"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(
		func(e *pricing.Engine) Pricer { return e },
		func(s *loyalty.Service) PointsLedger { return s },
		NewService,
	),
)

// Storage backs attachments with the object store. Processes without it get
// ServiceUnavailable from AttachFile.
var Storage = fx.Module("booking.storage",
	fx.Provide(func(s *minio.Store) BlobStore { return s }),
)

var Routes = fx.Module("booking.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(r *gin.Engine, auth middleware.Authenticator, s *Service) {
	g := r.Group("/v1/bookings", middleware.Auth(auth))
	g.POST("", Create(s))
	g.GET("", List(s))
	g.GET("/:id", Get(s))
	g.GET("/code/:code", GetByCode(s))
	g.POST("/:id/transitions", Transition(s))
	g.PUT("/:id/payment", SetPayment(s, false))
	g.PUT("/:id/transport-payment", SetPayment(s, true))
	g.GET("/:id/activity", ActivityLog(s))
	g.POST("/:id/attachments", Attach(s))
	g.GET("/:id/attachments", Attachments(s))
}
