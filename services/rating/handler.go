package rating

import (
	"net/http"

	"asenso-booking/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	Stars    int    `json:"stars" binding:"required"`
	Feedback string `json:"feedback"`
}

func Submit(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		r, err := s.SubmitRating(c.Request.Context(), c.Param("code"), req.Stars, req.Feedback)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, r)
	}
}

func Get(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := s.ForBooking(c.Request.Context(), c.Param("code"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}
