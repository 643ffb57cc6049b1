package booking

import (
	"net/http"
	"strconv"

	"asenso-booking/pkg/db/pagination"
	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type transitionRequest struct {
	Status Status `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type paymentRequest struct {
	Status PaymentStatus `json:"status" binding:"required"`
	Note   string        `json:"note"`
}

type listQuery struct {
	pagination.Pagination
	WorkerID int64  `form:"worker_id"`
	Status   Status `form:"status"`
	From     string `form:"from"`
	To       string `form:"to"`
}

func bookingParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errutil.BadRequest("invalid booking id", err)
	}
	return id, nil
}

func actorFrom(c *gin.Context, note string) Actor {
	workerID, _ := middleware.WorkerID(c)
	return Actor{WorkerID: workerID, Note: note}
}

func Create(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		b, err := s.Create(c.Request.Context(), req, actorFrom(c, ""))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, b)
	}
}

func Get(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := bookingParam(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		b, err := s.Get(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func GetByCode(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := s.GetByCode(c.Request.Context(), c.Param("code"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func List(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q listQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		rows, info, err := s.List(c.Request.Context(), ListFilter{
			WorkerID: q.WorkerID,
			Status:   q.Status,
			From:     q.From,
			To:       q.To,
		}, q.Pagination)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows, "page_info": info})
	}
}

func Transition(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := bookingParam(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req transitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		b, err := s.Transition(c.Request.Context(), id, req.Status, actorFrom(c, req.Note))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func SetPayment(s *Service, transport bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := bookingParam(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req paymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.FromValidation(err))
			return
		}

		set := s.SetPaymentStatus
		if transport {
			set = s.SetTransportPaymentStatus
		}

		b, err := set(c.Request.Context(), id, req.Status, actorFrom(c, req.Note))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func ActivityLog(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := bookingParam(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		entries, err := s.ActivityLog(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": entries})
	}
}

// Attach takes a multipart upload in the "file" field.
func Attach(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := bookingParam(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		fh, err := c.FormFile("file")
		if err != nil {
			_ = c.Error(errutil.BadRequest("file is required", err))
			return
		}
		f, err := fh.Open()
		if err != nil {
			_ = c.Error(errutil.BadRequest("unreadable file", err))
			return
		}
		defer f.Close()

		a, err := s.AttachFile(c.Request.Context(), id, AttachInput{
			Kind:        AttachmentKind(c.PostForm("kind")),
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		}, actorFrom(c, c.PostForm("note")))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

func Attachments(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := bookingParam(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		out, err := s.Attachments(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
	}
}
