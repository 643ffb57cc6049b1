package search

import (
	"net/http"

	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/middleware"
	"asenso-booking/pkg/task"
	"asenso-booking/pkg/taskname"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("search.service",
	fx.Provide(
		NewLogIndexer,
		NewService,
	),
)

var Routes = fx.Module("search.routes",
	fx.Invoke(registerRoutes),
)

var Handlers = fx.Module("search.handlers",
	fx.Invoke(registerHandlers),
)

func registerRoutes(r *gin.Engine, auth middleware.Authenticator, enq task.Enqueuer) {
	r.POST("/v1/search/sync", middleware.Auth(auth), middleware.RequireAdmin(), func(c *gin.Context) {
		if err := EnqueueSync(c.Request.Context(), enq, SyncPayload{Cursor: c.Query("cursor")}); err != nil {
			_ = c.Error(errutil.Internal("failed to schedule search sync", err))
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
	})
}

func registerHandlers(mux *asynq.ServeMux, s *Service) {
	mux.HandleFunc(taskname.BookingSearchSync, s.HandleSyncTask)
}
