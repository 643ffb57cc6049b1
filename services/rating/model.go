package rating

import "time"

// Rating is the customer's score for one completed booking.
type Rating struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	BookingID   int64     `gorm:"column:booking_id;uniqueIndex;not null" json:"booking_id,string"`
	WorkerID    int64     `gorm:"column:worker_id;index;not null" json:"worker_id,string"`
	CustomerID  int64     `gorm:"column:customer_id;not null" json:"customer_id,string"`
	Stars       int       `gorm:"column:stars;not null" json:"stars"`
	Feedback    string    `gorm:"column:feedback;type:text" json:"feedback,omitempty"`
	ServiceDate string    `gorm:"column:service_date;type:varchar(10);not null" json:"service_date"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

const (
	MinStars = 1
	MaxStars = 5
)
