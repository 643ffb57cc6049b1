package violation

import (
	"net/http"
	"strconv"

	"asenso-booking/pkg/db/pagination"
	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type resolveRequest struct {
	Resolution Status `json:"resolution" binding:"required,oneof=RESOLVED WAIVED"`
	Notes      string `json:"notes"`
}

type typeRequest struct {
	Code     string   `json:"code" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Severity Severity `json:"severity" binding:"required,oneof=MAJOR MINOR"`
	Points   int64    `json:"points" binding:"required,lt=0"`
}

type listQuery struct {
	pagination.Pagination
	WorkerID int64  `form:"worker_id"`
	Status   Status `form:"status"`
}

func Create(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		v, err := s.Create(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

func Get(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			_ = c.Error(errutil.BadRequest("invalid violation id", err))
			return
		}

		v, err := s.Get(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func Resolve(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			_ = c.Error(errutil.BadRequest("invalid violation id", err))
			return
		}

		var req resolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		v, err := s.Resolve(c.Request.Context(), id, req.Resolution, req.Notes)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func List(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q listQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		rows, info, err := s.List(c.Request.Context(), q.WorkerID, q.Status, q.Pagination)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows, "page_info": info})
	}
}

// Mine lists the violations of the authenticated worker.
func Mine(s *Service) gin.HandlerFunc {
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

		rows, info, err := s.List(c.Request.Context(), workerID, "", p)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows, "page_info": info})
	}
}

func ListTypes(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := s.ListTypes(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
	}
}

func UpsertType(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req typeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		out, err := s.UpsertType(c.Request.Context(), &Type{
			Code:     req.Code,
			Name:     req.Name,
			Severity: req.Severity,
			Points:   req.Points,
		})
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
