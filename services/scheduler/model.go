package scheduler

import (
	"time"

	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobEnqueued JobStatus = "enqueued"
	JobFailed   JobStatus = "failed"
)

// Job records one task the scheduler tried to enqueue.
type Job struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	TaskType  string         `gorm:"column:task_type;type:varchar(64);index;not null" json:"task_type"`
	TaskID    string         `gorm:"column:task_id;type:varchar(64)" json:"task_id,omitempty"`
	Status    JobStatus      `gorm:"column:status;type:varchar(20);not null" json:"status"`
	ErrorMsg  string         `gorm:"column:error_msg;type:text" json:"error_msg,omitempty"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (Job) TableName() string { return "scheduler_jobs" }
