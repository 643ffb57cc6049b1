package membership

import "time"

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// Membership is a customer's instance of a MembershipSku. Dates are
// inclusive YYYY-MM-DD strings. A nil Tier matches any tier.
type Membership struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	CustomerID      int64     `gorm:"column:customer_id;index:idx_membership_lookup" json:"customer_id,string"`
	MembershipSkuID int64     `gorm:"column:membership_sku_id" json:"membership_sku_id,string"`
	Location        string    `gorm:"column:location;type:varchar(64);index:idx_membership_lookup" json:"location"`
	Tier            *string   `gorm:"column:tier;type:varchar(32)" json:"tier,omitempty"`
	StartDate       string    `gorm:"column:start_date;type:varchar(10)" json:"start_date"`
	EndDate         string    `gorm:"column:end_date;type:varchar(10)" json:"end_date"`
	Status          Status    `gorm:"column:status;type:varchar(16);index:idx_membership_lookup" json:"status"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// Covers reports whether m prices a visit at location/tier on date.
func (m *Membership) Covers(location, tier, date string) bool {
	if m.Status != StatusActive || m.Location != location {
		return false
	}
	if m.Tier != nil && *m.Tier != tier {
		return false
	}
	return m.StartDate <= date && date <= m.EndDate
}
