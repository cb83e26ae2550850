package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/washday/washday/domains/laundry"
)

type busySlotModel struct {
	Day   string `gorm:"column:busy_day;primaryKey"`
	Hour  int    `gorm:"column:busy_time;primaryKey;autoIncrement:false"`
	Count int    `gorm:"column:busy_count;not null;default:0"`
}

func (busySlotModel) TableName() string {
	return "busy_slots"
}

// CongestionGormRepository implements laundry.ICongestionRepository using
// GORM. Slots accumulate one count per started cycle per (weekday, hour).
type CongestionGormRepository struct {
	db *gorm.DB
}

func NewCongestionGormRepository(db *gorm.DB) *CongestionGormRepository {
	return &CongestionGormRepository{db: db}
}

func (r *CongestionGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&busySlotModel{})
}

func (r *CongestionGormRepository) ListSlots(ctx context.Context) ([]laundry.BusySlot, error) {
	var models []busySlotModel
	err := r.db.WithContext(ctx).
		Order("busy_day ASC, busy_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	slots := make([]laundry.BusySlot, len(models))
	for i, m := range models {
		slots[i] = laundry.BusySlot{Day: m.Day, Hour: m.Hour, Count: m.Count}
	}
	return slots, nil
}

func (r *CongestionGormRepository) Increment(ctx context.Context, day string, hour int) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "busy_day"}, {Name: "busy_time"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"busy_count": gorm.Expr("busy_count + 1")}),
	}).Create(&busySlotModel{
		Day:   day,
		Hour:  hour,
		Count: 1,
	}).Error
}
