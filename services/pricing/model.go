package pricing

import (
	"asenso-booking/services/catalog"

	"github.com/shopspring/decimal"
)

type DayType string

const (
	DayTypeWeekday DayType = "WEEKDAY"
	DayTypeWeekend DayType = "WEEKEND"
	DayTypeHoliday DayType = "HOLIDAY"
)

// Adjustment is a signed delta. Discounts are negative.
type Adjustment struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type Quote struct {
	Location    string              `json:"location"`
	Tier        string              `json:"tier"`
	Duration    catalog.Duration    `json:"duration"`
	Date        string              `json:"date"`
	BookingType catalog.BookingType `json:"booking_type"`
	CustomerID  *int64              `json:"customer_id,omitempty,string"`
	Adjustments []Adjustment        `json:"adjustments,omitempty"`
}

type Breakdown struct {
	Base             decimal.Decimal `json:"base"`
	Surge            decimal.Decimal `json:"surge"`
	AdjustmentsTotal decimal.Decimal `json:"adjustments_total"`
	Total            decimal.Decimal `json:"total"`
	DayType          DayType         `json:"day_type"`
	Adjustments      []Adjustment    `json:"adjustments,omitempty"`
	ServiceSkuID     int64           `json:"service_sku_id,omitempty,string"`
	RateCardID       int64           `json:"rate_card_id,omitempty,string"`
	MembershipID     int64           `json:"membership_id,omitempty,string"`
}
