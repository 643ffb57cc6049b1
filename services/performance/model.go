package performance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot holds one worker's counters for a calendar month. PointsDeducted
// is the absolute number of points taken by violations that were not waived.
type Snapshot struct {
	WorkerID        int64           `gorm:"column:worker_id;primaryKey;autoIncrement:false" json:"worker_id,string"`
	Year            int             `gorm:"column:year;primaryKey;autoIncrement:false" json:"year"`
	Month           int             `gorm:"column:month;primaryKey;autoIncrement:false" json:"month"`
	CompletedCount  int64           `gorm:"column:completed_count;not null;default:0" json:"completed_count"`
	RatingCount     int64           `gorm:"column:rating_count;not null;default:0" json:"rating_count"`
	RatingSum       int64           `gorm:"column:rating_sum;not null;default:0" json:"rating_sum"`
	AverageRating   decimal.Decimal `gorm:"column:average_rating;type:numeric(4,2)" json:"average_rating"`
	MajorViolations int64           `gorm:"column:major_violations;not null;default:0" json:"major_violations"`
	MinorViolations int64           `gorm:"column:minor_violations;not null;default:0" json:"minor_violations"`
	PointsDeducted  int64           `gorm:"column:points_deducted;not null;default:0" json:"points_deducted"`
	UpdatedAt       time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Snapshot) TableName() string { return "performance_snapshots" }

func (s *Snapshot) average() decimal.Decimal {
	if s.RatingCount == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(s.RatingSum).Div(decimal.NewFromInt(s.RatingCount)).Round(2)
}

// RollupPayload selects what a rollup task rebuilds. A zero WorkerID means
// every worker with activity in the month.
type RollupPayload struct {
	WorkerID int64 `json:"worker_id,string,omitempty"`
	Month    int   `json:"month"`
	Year     int   `json:"year"`
}
