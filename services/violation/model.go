package violation

import "time"

type Severity string

const (
	SeverityMajor Severity = "MAJOR"
	SeverityMinor Severity = "MINOR"
)

func (s Severity) Valid() bool {
	return s == SeverityMajor || s == SeverityMinor
}

type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusResolved Status = "RESOLVED"
	StatusWaived   Status = "WAIVED"
)

// Type is the catalog entry a violation is raised against. Points is the
// (negative) deduction applied on creation.
type Type struct {
	Code      string    `gorm:"column:code;primaryKey;type:varchar(32)" json:"code"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Severity  Severity  `gorm:"column:severity;type:varchar(16);not null" json:"severity"`
	Points    int64     `gorm:"column:points;not null" json:"points"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Type) TableName() string { return "violation_types" }

type Violation struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	Code       string     `gorm:"column:code;type:varchar(32);uniqueIndex;not null" json:"code"`
	WorkerID   int64      `gorm:"column:worker_id;index:idx_violation_worker_date;not null" json:"worker_id,string"`
	BookingID  *int64     `gorm:"column:booking_id;index" json:"booking_id,omitempty,string"`
	TypeCode   string     `gorm:"column:type_code;type:varchar(32);not null" json:"type_code"`
	Severity   Severity   `gorm:"column:severity;type:varchar(16);not null" json:"severity"`
	Points     int64      `gorm:"column:points;not null" json:"points"`
	Date       string     `gorm:"column:date;type:varchar(10);index:idx_violation_worker_date;not null" json:"date"`
	Notes      string     `gorm:"column:notes;type:text" json:"notes,omitempty"`
	Status     Status     `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Resolution string     `gorm:"column:resolution;type:text" json:"resolution,omitempty"`
	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

type CreateInput struct {
	WorkerID  int64  `json:"worker_id,string" binding:"required"`
	BookingID *int64 `json:"booking_id,omitempty,string"`
	TypeCode  string `json:"type_code" binding:"required"`
	Date      string `json:"date"`
	Notes     string `json:"notes"`
}
