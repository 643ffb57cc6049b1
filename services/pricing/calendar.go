package pricing

import (
	"context"
	"time"

	"asenso-booking/pkg/errutil"
	"asenso-booking/pkg/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Calendar reports public holidays. Weekends are classified by the engine.
type Calendar interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

// StaticCalendar is a fixed holiday set keyed by YYYY-MM-DD.
type StaticCalendar map[string]string

func (c StaticCalendar) IsHoliday(_ context.Context, date time.Time) (bool, error) {
	_, ok := c[util.FormatDate(date)]
	return ok, nil
}

type Holiday struct {
	Date      string    `gorm:"column:date;primaryKey;type:varchar(10)" json:"date"`
	Name      string    `gorm:"column:name;type:varchar(128)" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// DBCalendar reads holidays from the holidays table.
type DBCalendar struct {
	db *gorm.DB
}

func NewDBCalendar(db *gorm.DB) *DBCalendar {
	return &DBCalendar{db: db}
}

func (c *DBCalendar) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&Holiday{}).Where("date = ?", util.FormatDate(date)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *DBCalendar) AddHoliday(ctx context.Context, date, name string) (*Holiday, error) {
	d, err := util.ParseDate(date)
	if err != nil {
		return nil, errutil.ValidationFailed("invalid date", err)
	}

	h := &Holiday{Date: util.FormatDate(d), Name: name}
	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(h).Error; err != nil {
		return nil, errutil.Internal("failed to save holiday", err)
	}
	return h, nil
}

func (c *DBCalendar) ListHolidays(ctx context.Context, year int) ([]Holiday, error) {
	var out []Holiday
	first, _, _, err := util.MonthRange(1, year)
	if err != nil {
		return nil, errutil.ValidationFailed("invalid year", err)
	}
	last := first.AddDate(1, 0, -1)

	if err := c.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", util.FormatDate(first), util.FormatDate(last)).
		Order("date ASC").
		Find(&out).Error; err != nil {
		return nil, errutil.Internal("failed to list holidays", err)
	}
	return out, nil
}
