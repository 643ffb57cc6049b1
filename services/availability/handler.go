package availability

import (
	"net/http"

	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type monthQuery struct {
	Month int `form:"month" binding:"required,gte=1,lte=12"`
	Year  int `form:"year" binding:"required,gte=2000"`
}

func SetMine(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		workerID, err := middleware.WorkerID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req SetInput
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}
		req.WorkerID = workerID

		slot, err := s.SetAvailability(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, slot)
	}
}

func GetMine(s *Service) gin.HandlerFunc {
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

		slots, err := s.GetAvailability(c.Request.Context(), workerID, q.Month, q.Year)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": slots})
	}
}
