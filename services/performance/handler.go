package performance

import (
	"net/http"
	"strconv"

	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/middleware"
	"asenso-booking/pkg/task"

	"github.com/gin-gonic/gin"
)

type monthQuery struct {
	Month int `form:"month" binding:"required,gte=1,lte=12"`
	Year  int `form:"year" binding:"required,gte=2000"`
}

func MySnapshot(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		workerID, err := middleware.WorkerID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var q monthQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		snap, err := s.GetSnapshot(c.Request.Context(), workerID, q.Month, q.Year)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// Rollup rebuilds one worker's month synchronously.
func Rollup(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		workerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			_ = c.Error(errutil.BadRequest("invalid worker id", err))
			return
		}

		var q monthQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		snap, err := s.Rollup(c.Request.Context(), workerID, q.Month, q.Year)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// ScheduleRollup queues a rollup of every active worker in the month.
func ScheduleRollup(enq task.Enqueuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q monthQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		if err := EnqueueRollup(c.Request.Context(), enq, RollupPayload{Month: q.Month, Year: q.Year}); err != nil {
			_ = c.Error(errutil.Internal("failed to schedule rollup", err))
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
	}
}
