package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"asenso-booking/pkg/db/option"
	"asenso-booking/pkg/db/pagination"
	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/logger"
	"asenso-booking/pkg/repository"
	"asenso-booking/pkg/sequence"
	"asenso-booking/pkg/util"
	"asenso-booking/services/catalog"
	"asenso-booking/services/loyalty"
	"asenso-booking/services/pricing"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Pricer interface {
	Calculate(ctx context.Context, q pricing.Quote) (*pricing.Breakdown, error)
}

type PointsLedger interface {
	EarnForBookingTx(ctx context.Context, tx *gorm.DB, workerID, bookingID int64, bookingType catalog.BookingType) (*loyalty.Transaction, error)
}

// CompletionRecorder is told about every completed booking inside the
// completing transaction.
type CompletionRecorder interface {
	RecordCompletionTx(ctx context.Context, tx *gorm.DB, workerID int64, serviceDate string) error
}

type AvailabilityChecker interface {
	LockDayTx(ctx context.Context, tx *gorm.DB, workerID int64, date string) (bool, error)
}

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	seq  sequence.Generator

	pricer       Pricer
	points       PointsLedger
	completions  CompletionRecorder
	availability AvailabilityChecker
	blobs        BlobStore

	bookings    repository.Repository[Booking]
	activity    repository.Repository[ActivityLogEntry]
	attachments repository.Repository[Attachment]
}

type ServiceParams struct {
	fx.In
	DB           *gorm.DB
	Node         *snowflake.Node
	Seq          sequence.Generator
	Pricer       Pricer
	Points       PointsLedger
	Completions  CompletionRecorder
	Availability AvailabilityChecker `optional:"true"`
	Blobs        BlobStore           `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:           p.DB,
		node:         p.Node,
		seq:          p.Seq,
		pricer:       p.Pricer,
		points:       p.Points,
		completions:  p.Completions,
		availability: p.Availability,
		blobs:        p.Blobs,
		bookings:     repository.ProvideStore[Booking](p.DB),
		activity:     repository.ProvideStore[ActivityLogEntry](p.DB),
		attachments:  repository.ProvideStore[Attachment](p.DB),
	}
}

func (in *CreateInput) validate() error {
	var details []errutil.Detail
	if in.WorkerID == 0 {
		details = append(details, errutil.Detail{Field: "worker_id", Message: "is required"})
	}
	if in.CustomerID == 0 {
		details = append(details, errutil.Detail{Field: "customer_id", Message: "is required"})
	}
	if _, err := util.ParseDate(in.ServiceDate); err != nil {
		details = append(details, errutil.Detail{Field: "service_date", Message: err.Error()})
	}
	if in.TransportCost.IsNegative() {
		details = append(details, errutil.Detail{Field: "transport_cost", Message: "must not be negative"})
	}
	if len(details) > 0 {
		return errutil.ValidationFailed("invalid booking", nil, errutil.WithDetails(details...))
	}
	return nil
}

// Create prices the booking once and stores the breakdown as its snapshot.
func (s *Service) Create(ctx context.Context, in CreateInput, actor Actor) (*Booking, error) {
	log := logger.FromContext(ctx)

	if err := in.validate(); err != nil {
		return nil, err
	}

	quote := pricing.Quote{
		Location:    in.Location,
		Tier:        in.Tier,
		Duration:    in.Duration,
		Date:        in.ServiceDate,
		BookingType: in.BookingType,
		Adjustments: in.Adjustments,
	}
	if in.CustomerID != 0 {
		customerID := in.CustomerID
		quote.CustomerID = &customerID
	}

	price, err := s.pricer.Calculate(ctx, quote)
	if err != nil {
		return nil, err
	}

	code, err := s.seq.NextBookingCode(ctx)
	if err != nil {
		log.Error("failed to generate booking code", zap.Error(err))
		return nil, errutil.Internal("failed to generate booking code", err)
	}

	b := &Booking{
		ID:                     s.node.Generate().Int64(),
		Code:                   code,
		CustomerID:             in.CustomerID,
		CustomerName:           in.CustomerName,
		Address:                in.Address,
		City:                   in.City,
		WorkerID:               in.WorkerID,
		ServiceDate:            in.ServiceDate,
		Duration:               catalog.Duration(strings.ToUpper(string(in.Duration))),
		BookingType:            catalog.BookingType(strings.ToUpper(string(in.BookingType))),
		Location:               strings.ToUpper(strings.TrimSpace(in.Location)),
		Tier:                   strings.ToUpper(strings.TrimSpace(in.Tier)),
		Status:                 StatusNeedsConfirmation,
		PaymentStatus:          PaymentUnpaid,
		TransportPaymentStatus: PaymentUnpaid,
		PriceSnapshot:          datatypes.NewJSONType(*price),
		TotalPrice:             price.Total,
		TransportCost:          in.TransportCost,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.availability != nil {
			blocked, err := s.availability.LockDayTx(ctx, tx, in.WorkerID, in.ServiceDate)
			if err != nil {
				return errutil.Internal("failed to check worker availability", err)
			}
			if blocked {
				return errutil.Conflict("worker is unavailable on "+in.ServiceDate, nil)
			}
		}

		if err := s.bookings.WithTrx(tx).Create(ctx, b); err != nil {
			return errutil.Internal("failed to create booking", err)
		}
		return s.appendLog(ctx, tx, b.ID, b.Status, b.Status.Title(), messageOr(actor.Note, "Booking "+b.Code+" created"), actor, nil)
	})
	if err != nil {
		if errutil.Code(err) == errutil.StatusInternal {
			log.Error("failed to create booking", zap.Error(err))
		}
		return nil, err
	}

	bookingsCreated.WithLabelValues(string(b.BookingType)).Inc()
	log.Info("booking created", zap.String("code", b.Code), zap.Int64("worker_id", b.WorkerID), zap.String("total", b.TotalPrice.StringFixed(2)))

	return b, nil
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}

func (s *Service) appendLog(ctx context.Context, tx *gorm.DB, bookingID int64, status Status, title, message string, actor Actor, metadata map[string]any) error {
	entry := &ActivityLogEntry{
		ID:        s.node.Generate().Int64(),
		BookingID: bookingID,
		Status:    status,
		Title:     title,
		Message:   message,
		ActorID:   actor.WorkerID,
		CreatedAt: time.Now().UTC(),
	}
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return errutil.Internal("failed to encode activity metadata", err)
		}
		entry.Metadata = datatypes.JSON(b)
	}

	if err := s.activity.WithTrx(tx).Create(ctx, entry); err != nil {
		return errutil.Internal("failed to append activity log", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Booking, error) {
	b, err := s.bookings.FindOne(ctx, &Booking{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to query booking", err)
	}
	if b == nil {
		return nil, errutil.NotFound("booking not found", nil)
	}
	return b, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Booking, error) {
	return s.FindByCodeTx(ctx, s.db, code)
}

// FindByCodeTx looks a booking up by its human code on db, which may be an
// open transaction. opts may lock the row for the rest of that transaction.
func (s *Service) FindByCodeTx(ctx context.Context, db *gorm.DB, code string, opts ...option.QueryOption) (*Booking, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errutil.ValidationFailed("booking code is required", nil)
	}

	b, err := s.bookings.WithTrx(db).FindOne(ctx, &Booking{Code: code}, opts...)
	if err != nil {
		return nil, errutil.Internal("failed to query booking", err)
	}
	if b == nil {
		return nil, errutil.NotFound("booking "+code+" not found", nil)
	}
	return b, nil
}

// Transition moves a booking to target when the graph allows it. The row is
// only updated while it still holds the status that was read, so a racing
// writer gets a Conflict instead of overwriting.
func (s *Service) Transition(ctx context.Context, bookingID int64, target Status, actor Actor) (*Booking, error) {
	if !target.Valid() {
		return nil, errutil.ValidationFailed(fmt.Sprintf("unknown status %q", target), nil)
	}

	var from Status
	var out *Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.bookings.WithTrx(tx).FindOne(ctx, &Booking{ID: bookingID})
		if err != nil {
			return errutil.Internal("failed to query booking", err)
		}
		if b == nil {
			return errutil.NotFound("booking not found", nil)
		}
		from = b.Status

		if err := s.applyTransition(ctx, tx, b, target, actor); err != nil {
			return err
		}
		out = b
		return nil
	})

	result := "ok"
	if err != nil {
		result = string(errutil.Code(err))
	}
	transitionsTotal.WithLabelValues(string(from), string(target), result).Inc()

	if err != nil {
		if errutil.Code(err) == errutil.StatusInternal {
			logger.FromContext(ctx).Error("booking transition failed", zap.Int64("booking_id", bookingID), zap.String("target", string(target)), zap.Error(err))
		}
		return nil, err
	}

	return out, nil
}

// applyTransition writes the status change, its log entry and the completion
// side effects on tx. b is updated in place on success.
func (s *Service) applyTransition(ctx context.Context, tx *gorm.DB, b *Booking, target Status, actor Actor) error {
	if !CanTransition(b.Status, target) {
		return errutil.Conflict(fmt.Sprintf("cannot move booking from %s to %s", b.Status, target), nil)
	}

	now := time.Now().UTC()
	res := tx.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", b.ID, b.Status).
		Updates(map[string]any{"status": target, "updated_at": now})
	if res.Error != nil {
		return errutil.Internal("failed to update booking status", res.Error)
	}
	if res.RowsAffected == 0 {
		return errutil.Conflict("booking status changed concurrently", nil)
	}

	from := b.Status
	b.Status = target
	b.UpdatedAt = now

	message := messageOr(actor.Note, fmt.Sprintf("Status changed from %s to %s", from, target))
	if err := s.appendLog(ctx, tx, b.ID, target, target.Title(), message, actor, map[string]any{"from": from}); err != nil {
		return err
	}

	if target != StatusCompleted {
		return nil
	}

	if _, err := s.points.EarnForBookingTx(ctx, tx, b.WorkerID, b.ID, b.BookingType); err != nil {
		return err
	}
	if err := s.completions.RecordCompletionTx(ctx, tx, b.WorkerID, b.ServiceDate); err != nil {
		return errutil.Internal("failed to record completion", err)
	}
	return nil
}

func (s *Service) SetPaymentStatus(ctx context.Context, bookingID int64, status PaymentStatus, actor Actor) (*Booking, error) {
	return s.setPayment(ctx, bookingID, "payment_status", "Payment", status, actor)
}

func (s *Service) SetTransportPaymentStatus(ctx context.Context, bookingID int64, status PaymentStatus, actor Actor) (*Booking, error) {
	return s.setPayment(ctx, bookingID, "transport_payment_status", "Transport payment", status, actor)
}

// setPayment flips a payment column outside the status graph. Cancelled
// bookings are frozen.
func (s *Service) setPayment(ctx context.Context, bookingID int64, column, label string, status PaymentStatus, actor Actor) (*Booking, error) {
	if !status.Valid() {
		return nil, errutil.ValidationFailed(fmt.Sprintf("unknown payment status %q", status), nil)
	}

	var out *Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.bookings.WithTrx(tx).FindOne(ctx, &Booking{ID: bookingID})
		if err != nil {
			return errutil.Internal("failed to query booking", err)
		}
		if b == nil {
			return errutil.NotFound("booking not found", nil)
		}
		if b.Status == StatusCancelled {
			return errutil.Conflict("payment status cannot change on a cancelled booking", nil)
		}

		res := tx.WithContext(ctx).
			Model(&Booking{}).
			Where("id = ? AND status <> ?", b.ID, StatusCancelled).
			Updates(map[string]any{column: status, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return errutil.Internal("failed to update payment status", res.Error)
		}
		if res.RowsAffected == 0 {
			return errutil.Conflict("payment status cannot change on a cancelled booking", nil)
		}

		message := messageOr(actor.Note, fmt.Sprintf("%s marked %s", label, status))
		if err := s.appendLog(ctx, tx, b.ID, b.Status, label+" updated", message, actor, map[string]any{column: status}); err != nil {
			return err
		}

		out, err = s.bookings.WithTrx(tx).FindOne(ctx, &Booking{ID: bookingID})
		if err != nil {
			return errutil.Internal("failed to query booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ActivityLog(ctx context.Context, bookingID int64) ([]*ActivityLogEntry, error) {
	if _, err := s.Get(ctx, bookingID); err != nil {
		return nil, err
	}

	var out []*ActivityLogEntry
	if err := s.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, errutil.Internal("failed to list activity log", err)
	}
	return out, nil
}

type AttachInput struct {
	Kind        AttachmentKind
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Metadata    map[string]any
}

// AttachFile uploads proof files through the blob store and keeps the URL.
func (s *Service) AttachFile(ctx context.Context, bookingID int64, in AttachInput, actor Actor) (*Attachment, error) {
	if !in.Kind.Valid() {
		return nil, errutil.ValidationFailed(fmt.Sprintf("unknown attachment kind %q", in.Kind), nil)
	}
	if in.Body == nil || in.Size <= 0 {
		return nil, errutil.ValidationFailed("file is required", nil)
	}
	if s.blobs == nil {
		return nil, errutil.New(errutil.StatusServiceUnavailable, "file storage is not configured")
	}

	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("bookings/%s/%s/%s%s", b.Code, strings.ToLower(string(in.Kind)), uuid.NewString(), path.Ext(in.Filename))
	url, err := s.blobs.Put(ctx, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		logger.FromContext(ctx).Error("failed to store attachment", zap.String("key", key), zap.Error(err))
		return nil, errutil.Internal("failed to store attachment", err)
	}

	metadata := datatypes.JSONMap{}
	for k, v := range in.Metadata {
		metadata[k] = v
	}
	if in.Filename != "" {
		metadata["filename"] = in.Filename
	}

	a := &Attachment{
		ID:        s.node.Generate().Int64(),
		BookingID: b.ID,
		Kind:      in.Kind,
		URL:       url,
		Metadata:  metadata,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.attachments.WithTrx(tx).Create(ctx, a); err != nil {
			return errutil.Internal("failed to save attachment", err)
		}
		title := "Arrival proof uploaded"
		if in.Kind == AttachmentTransportReceipt {
			title = "Transport receipt uploaded"
		}
		return s.appendLog(ctx, tx, b.ID, b.Status, title, messageOr(actor.Note, url), actor, map[string]any{"attachment_id": strconv.FormatInt(a.ID, 10)})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Attachments(ctx context.Context, bookingID int64) ([]*Attachment, error) {
	out, err := s.attachments.Find(ctx, &Attachment{BookingID: bookingID}, option.WithSortBy(option.QuerySortBy{OrderBy: "asc"}))
	if err != nil {
		return nil, errutil.Internal("failed to list attachments", err)
	}
	return out, nil
}

type ListFilter struct {
	WorkerID int64
	Status   Status
	From     string
	To       string
}

// List pages through bookings in id order.
func (s *Service) List(ctx context.Context, f ListFilter, p pagination.Pagination) ([]*Booking, *pagination.PageInfo, error) {
	var conds []option.Condition
	if f.From != "" {
		conds = append(conds, option.Condition{Field: "service_date", Operator: option.GTE, Value: f.From})
	}
	if f.To != "" {
		conds = append(conds, option.Condition{Field: "service_date", Operator: option.LTE, Value: f.To})
	}

	rows, err := s.bookings.Find(ctx, &Booking{WorkerID: f.WorkerID, Status: f.Status}, option.ApplyOperator(conds...), option.ApplyPagination(p))
	if err != nil {
		return nil, nil, errutil.Internal("failed to list bookings", err)
	}

	rows, info := pagination.Trim(rows, p, func(b *Booking) int64 { return b.ID })
	return rows, info, nil
}

// SearchProjection produces the denormalized rows the search index consumes.
func (s *Service) SearchProjection(ctx context.Context, p pagination.Pagination) ([]SearchDocument, *pagination.PageInfo, error) {
	rows, err := s.bookings.Find(ctx, nil, option.ApplyPagination(p))
	if err != nil {
		return nil, nil, errutil.Internal("failed to load search projection", err)
	}

	rows, info := pagination.Trim(rows, p, func(b *Booking) int64 { return b.ID })

	docs := make([]SearchDocument, 0, len(rows))
	for _, b := range rows {
		docs = append(docs, SearchDocument{
			ID:           b.ID,
			Code:         b.Code,
			CustomerName: b.CustomerName,
			Address:      b.Address,
			City:         b.City,
			Status:       b.Status,
			ServiceDate:  b.ServiceDate,
			WorkerID:     b.WorkerID,
		})
	}
	return docs, info, nil
}

// HasActiveBooking reports whether workerID holds a non-terminal booking on
// date. db may be an open transaction.
func HasActiveBooking(ctx context.Context, db *gorm.DB, workerID int64, date string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&Booking{}).
		Where("worker_id = ? AND service_date = ?", workerID, date).
		Where("status IN ?", ActiveStatuses()).
		Count(&count).Error
	return count > 0, err
}
