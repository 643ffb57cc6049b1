package membership

import (
	"net/http"
	"strconv"

	"asenso-booking/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type purchaseRequest struct {
	CustomerID int64  `json:"customer_id,string" binding:"required"`
	SkuCode    string `json:"sku_code" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"`
}

func Purchase(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req purchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		m, err := s.Purchase(c.Request.Context(), req.CustomerID, req.SkuCode, req.StartDate)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

func Get(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			_ = c.Error(errutil.BadRequest("invalid membership id", err))
			return
		}

		m, err := s.Get(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func Cancel(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			_ = c.Error(errutil.BadRequest("invalid membership id", err))
			return
		}

		m, err := s.Cancel(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}
