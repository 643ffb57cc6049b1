package catalog

import (
	"net/http"

	"asenso-booking/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type upsertSkuRequest struct {
	Location    string          `json:"location" binding:"required"`
	Tier        string          `json:"tier" binding:"required"`
	Duration    Duration        `json:"duration" binding:"required,oneof=HALF_DAY WHOLE_DAY"`
	BookingType BookingType     `json:"booking_type" binding:"required,oneof=TRIAL ONE_TIME"`
	Price       decimal.Decimal `json:"price"`
}

type upsertRateRequest struct {
	Location string          `json:"location" binding:"required"`
	Tier     string          `json:"tier" binding:"required"`
	Duration Duration        `json:"duration" binding:"required,oneof=HALF_DAY WHOLE_DAY"`
	BaseRate decimal.Decimal `json:"base_rate"`
	Surge    decimal.Decimal `json:"surge"`
}

type createMembershipSkuRequest struct {
	Code     string          `json:"code" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Location string          `json:"location" binding:"required"`
	Tier     *string         `json:"tier"`
	TermDays int             `json:"term_days" binding:"required,gt=0"`
	Price    decimal.Decimal `json:"price"`
}

func ListServiceSkus(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		skus, err := s.ListServiceSkus(c.Request.Context(), c.Query("location"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": skus})
	}
}

func UpsertServiceSku(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req upsertSkuRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		sku, err := s.UpsertServiceSku(c.Request.Context(), &ServiceSku{
			Location:    req.Location,
			Tier:        req.Tier,
			Duration:    req.Duration,
			BookingType: req.BookingType,
			Price:       req.Price,
		})
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, sku)
	}
}

func UpsertFlexiRateCard(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req upsertRateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		card, err := s.UpsertFlexiRateCard(c.Request.Context(), &FlexiRateCard{
			Location: req.Location,
			Tier:     req.Tier,
			Duration: req.Duration,
			BaseRate: req.BaseRate,
			Surge:    req.Surge,
		})
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

func CreateMembershipSku(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createMembershipSkuRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		sku, err := s.CreateMembershipSku(c.Request.Context(), &MembershipSku{
			Code:     req.Code,
			Name:     req.Name,
			Location: req.Location,
			Tier:     req.Tier,
			TermDays: req.TermDays,
			Price:    req.Price,
		})
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, sku)
	}
}
