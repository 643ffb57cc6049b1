package booking

import (
	"time"

	"asenso-booking/services/catalog"
	"asenso-booking/services/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

type Booking struct {
	ID                     int64                                 `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	Code                   string                                `gorm:"column:code;type:varchar(32);uniqueIndex;not null" json:"code"`
	CustomerID             int64                                 `gorm:"column:customer_id;index" json:"customer_id,string"`
	CustomerName           string                                `gorm:"column:customer_name;type:varchar(128)" json:"customer_name"`
	Address                string                                `gorm:"column:address;type:text" json:"address"`
	City                   string                                `gorm:"column:city;type:varchar(64)" json:"city"`
	WorkerID               int64                                 `gorm:"column:worker_id;index:idx_booking_worker_date;not null" json:"worker_id,string"`
	ServiceDate            string                                `gorm:"column:service_date;type:varchar(10);index:idx_booking_worker_date;not null" json:"service_date"`
	Duration               catalog.Duration                      `gorm:"column:duration;type:varchar(16);not null" json:"duration"`
	BookingType            catalog.BookingType                   `gorm:"column:booking_type;type:varchar(16);not null" json:"booking_type"`
	Location               string                                `gorm:"column:location;type:varchar(64);not null" json:"location"`
	Tier                   string                                `gorm:"column:tier;type:varchar(32);not null" json:"tier"`
	Status                 Status                                `gorm:"column:status;type:varchar(32);index;not null" json:"status"`
	PaymentStatus          PaymentStatus                         `gorm:"column:payment_status;type:varchar(16);not null" json:"payment_status"`
	TransportPaymentStatus PaymentStatus                         `gorm:"column:transport_payment_status;type:varchar(16);not null" json:"transport_payment_status"`
	PriceSnapshot          datatypes.JSONType[pricing.Breakdown] `gorm:"column:price_snapshot" json:"price_snapshot"`
	TotalPrice             decimal.Decimal                       `gorm:"column:total_price;type:numeric(12,2)" json:"total_price"`
	TransportCost          decimal.Decimal                       `gorm:"column:transport_cost;type:numeric(12,2)" json:"transport_cost"`
	CreatedAt              time.Time                             `gorm:"column:created_at" json:"created_at"`
	UpdatedAt              time.Time                             `gorm:"column:updated_at" json:"updated_at"`
}

// ActivityLogEntry is append-only. Entries of one booking are ordered by
// CreatedAt then ID.
type ActivityLogEntry struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	BookingID int64          `gorm:"column:booking_id;index;not null" json:"booking_id,string"`
	Status    Status         `gorm:"column:status;type:varchar(32);not null" json:"status"`
	Title     string         `gorm:"column:title;type:varchar(128)" json:"title"`
	Message   string         `gorm:"column:message;type:text" json:"message"`
	ActorID   int64          `gorm:"column:actor_id" json:"actor_id,omitempty,string"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ActivityLogEntry) TableName() string { return "booking_activity_logs" }

type AttachmentKind string

const (
	AttachmentArrivalProof     AttachmentKind = "ARRIVAL_PROOF"
	AttachmentTransportReceipt AttachmentKind = "TRANSPORT_RECEIPT"
)

func (k AttachmentKind) Valid() bool {
	return k == AttachmentArrivalProof || k == AttachmentTransportReceipt
}

type Attachment struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	BookingID int64             `gorm:"column:booking_id;index;not null" json:"booking_id,string"`
	Kind      AttachmentKind    `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	URL       string            `gorm:"column:url;type:text;not null" json:"url"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"created_at"`
}

func (Attachment) TableName() string { return "booking_attachments" }

// Actor is who asked for a change. WorkerID is zero for system actions.
type Actor struct {
	WorkerID int64
	Note     string
}

type CreateInput struct {
	CustomerID    int64                `json:"customer_id,string"`
	CustomerName  string               `json:"customer_name"`
	Address       string               `json:"address"`
	City          string               `json:"city"`
	WorkerID      int64                `json:"worker_id,string"`
	ServiceDate   string               `json:"service_date"`
	Duration      catalog.Duration     `json:"duration"`
	BookingType   catalog.BookingType  `json:"booking_type"`
	Location      string               `json:"location"`
	Tier          string               `json:"tier"`
	TransportCost decimal.Decimal      `json:"transport_cost"`
	Adjustments   []pricing.Adjustment `json:"adjustments,omitempty"`
}

// SearchDocument is the denormalized row handed to the search index.
type SearchDocument struct {
	ID           int64  `json:"id,string"`
	Code         string `json:"code"`
	CustomerName string `json:"customer_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Status       Status `json:"status"`
	ServiceDate  string `json:"service_date"`
	WorkerID     int64  `json:"worker_id,string"`
}
