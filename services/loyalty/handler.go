package loyalty

import (
	"net/http"
	"strconv"

	"asenso-booking/pkg/db/pagination"
	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type pointsRequest struct {
	Points int64  `json:"points" binding:"required"`
	Notes  string `json:"notes"`
}

type tierRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	MinPoints int64  `json:"min_points" binding:"gte=0"`
	Rank      int    `json:"rank"`
}

func workerParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errutil.BadRequest("invalid worker id", err)
	}
	return id, nil
}

func MySummary(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		workerID, err := middleware.WorkerID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		out, err := s.Balance(c.Request.Context(), workerID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func MyTransactions(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		workerID, err := middleware.WorkerID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var p pagination.Pagination
		if err := c.ShouldBindQuery(&p); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		rows, info, err := s.ListTransactions(c.Request.Context(), workerID, p)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows, "page_info": info})
	}
}

func Redeem(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		workerID, err := middleware.WorkerID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req pointsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		txn, err := s.Debit(c.Request.Context(), workerID, nil, req.Points, SpendReward, req.Notes)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, txn)
	}
}

func Adjust(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		workerID, err := workerParam(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req pointsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		txn, err := s.Post(c.Request.Context(), Entry{WorkerID: workerID, Points: req.Points, Type: Adjustment, Notes: req.Notes})
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, txn)
	}
}

func Verify(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		workerID, err := workerParam(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		report, err := s.VerifyLedger(c.Request.Context(), workerID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func ListTiers(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tiers, err := s.ListTiers(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": tiers})
	}
}

func UpsertTier(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		tier, err := s.UpsertTier(c.Request.Context(), &Tier{Code: req.Code, Name: req.Name, MinPoints: req.MinPoints, Rank: req.Rank})
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, tier)
	}
}
