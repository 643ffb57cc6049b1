package availability

import (
	"time"

	"asenso-booking/services/catalog"
)

type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusUnavailable Status = "UNAVAILABLE"
	// StatusUnset marks days with no stored slot in a month view.
	StatusUnset Status = "UNSET"
)

func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusUnavailable
}

// Slot is one worker's availability on one date.
type Slot struct {
	ID             int64            `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string,omitempty"`
	WorkerID       int64            `gorm:"column:worker_id;uniqueIndex:uq_availability_worker_date;not null" json:"worker_id,string"`
	Date           string           `gorm:"column:date;type:varchar(10);uniqueIndex:uq_availability_worker_date;not null" json:"date"`
	Status         Status           `gorm:"column:status;type:varchar(16);not null" json:"status"`
	TimeCommitment catalog.Duration `gorm:"column:time_commitment;type:varchar(16)" json:"time_commitment,omitempty"`
	Reason         string           `gorm:"column:reason;type:text" json:"reason,omitempty"`
	CreatedAt      time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at" json:"updated_at"`
}

func (Slot) TableName() string { return "availability_slots" }

type SetInput struct {
	WorkerID       int64            `json:"-"`
	Date           string           `json:"date" binding:"required"`
	Status         Status           `json:"status" binding:"required"`
	TimeCommitment catalog.Duration `json:"time_commitment"`
	Reason         string           `json:"reason"`
}
