package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Duration string

const (
	DurationHalfDay  Duration = "HALF_DAY"
	DurationWholeDay Duration = "WHOLE_DAY"
)

func (d Duration) Valid() bool {
	return d == DurationHalfDay || d == DurationWholeDay
}

type BookingType string

const (
	BookingTypeTrial   BookingType = "TRIAL"
	BookingTypeOneTime BookingType = "ONE_TIME"
	BookingTypeFlexi   BookingType = "FLEXI"
)

func (b BookingType) Valid() bool {
	switch b {
	case BookingTypeTrial, BookingTypeOneTime, BookingTypeFlexi:
		return true
	}
	return false
}

// ServiceSku is the flat price of a TRIAL or ONE_TIME visit.
type ServiceSku struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	Location    string          `gorm:"column:location;type:varchar(64);uniqueIndex:uq_service_sku_key" json:"location"`
	Tier        string          `gorm:"column:tier;type:varchar(32);uniqueIndex:uq_service_sku_key" json:"tier"`
	Duration    Duration        `gorm:"column:duration;type:varchar(16);uniqueIndex:uq_service_sku_key" json:"duration"`
	BookingType BookingType     `gorm:"column:booking_type;type:varchar(16);uniqueIndex:uq_service_sku_key" json:"booking_type"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2)" json:"price"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// FlexiRateCard prices one visit under a membership.
type FlexiRateCard struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	Location  string          `gorm:"column:location;type:varchar(64);uniqueIndex:uq_flexi_rate_key" json:"location"`
	Tier      string          `gorm:"column:tier;type:varchar(32);uniqueIndex:uq_flexi_rate_key" json:"tier"`
	Duration  Duration        `gorm:"column:duration;type:varchar(16);uniqueIndex:uq_flexi_rate_key" json:"duration"`
	BaseRate  decimal.Decimal `gorm:"column:base_rate;type:numeric(12,2)" json:"base_rate"`
	Surge     decimal.Decimal `gorm:"column:surge;type:numeric(12,2)" json:"surge"`
	CreatedAt time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// MembershipSku is a purchasable membership term. A nil Tier covers every tier.
type MembershipSku struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	Code      string          `gorm:"column:code;type:varchar(32);uniqueIndex" json:"code"`
	Name      string          `gorm:"column:name;type:varchar(128)" json:"name"`
	Location  string          `gorm:"column:location;type:varchar(64)" json:"location"`
	Tier      *string         `gorm:"column:tier;type:varchar(32)" json:"tier,omitempty"`
	TermDays  int             `gorm:"column:term_days" json:"term_days"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2)" json:"price"`
	CreatedAt time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

type SkuKey struct {
	Location    string
	Tier        string
	Duration    Duration
	BookingType BookingType
}

type RateKey struct {
	Location string
	Tier     string
	Duration Duration
}
