package pricing

import (
	"net/http"
	"strconv"

	"asenso-booking/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func Calculate(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q Quote
		if err := c.ShouldBindJSON(&q); err != nil {
			_ = c.Error(errutil.BadRequest("invalid request body", err))
			return
		}

		out, err := e.Calculate(c.Request.Context(), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

type addHolidayRequest struct {
	Date string `json:"date" binding:"required"`
	Name string `json:"name" binding:"required"`
}

func AddHoliday(cal *DBCalendar) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addHolidayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		h, err := cal.AddHoliday(c.Request.Context(), req.Date, req.Name)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, h)
	}
}

func ListHolidays(cal *DBCalendar) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, err := strconv.Atoi(c.Query("year"))
		if err != nil {
			_ = c.Error(errutil.ValidationFailed("year is required", err))
			return
		}

		out, err := cal.ListHolidays(c.Request.Context(), year)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
	}
}
