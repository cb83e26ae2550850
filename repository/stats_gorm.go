package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/washday/washday/realtime/estimator"
)

// durationStatModel keeps one row per course carrying all three phase
// averages, so a finished cycle updates a single row.
type durationStatModel struct {
	CourseName         string `gorm:"primaryKey;column:course_name"`
	AvgMinutes         *int   `gorm:"column:avg_minutes"`
	SampleCount        int    `gorm:"column:sample_count;not null;default:0"`
	AvgWashingMinutes  *int   `gorm:"column:avg_washing_minutes"`
	WashingCount       int    `gorm:"column:washing_count;not null;default:0"`
	AvgSpinningMinutes *int   `gorm:"column:avg_spinning_minutes"`
	SpinningCount      int    `gorm:"column:spinning_count;not null;default:0"`
}

func (durationStatModel) TableName() string {
	return "duration_stats"
}

// StatsGormRepository implements estimator.StatsStore using GORM.
type StatsGormRepository struct {
	db *gorm.DB
}

func NewStatsGormRepository(db *gorm.DB) *StatsGormRepository {
	return &StatsGormRepository{db: db}
}

func (r *StatsGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&durationStatModel{})
}

func (r *StatsGormRepository) Get(ctx context.Context, courseName string) (*estimator.CourseStats, error) {
	var model durationStatModel
	err := r.db.WithContext(ctx).First(&model, "course_name = ?", courseName).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return fromStatModel(model), nil
}

func (r *StatsGormRepository) Save(ctx context.Context, stats *estimator.CourseStats) error {
	model := toStatModel(stats)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "course_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"avg_minutes", "sample_count",
			"avg_washing_minutes", "washing_count",
			"avg_spinning_minutes", "spinning_count",
		}),
	}).Create(&model).Error
}

func toStatModel(s *estimator.CourseStats) durationStatModel {
	return durationStatModel{
		CourseName:         s.CourseName,
		AvgMinutes:         s.AvgMinutes,
		SampleCount:        s.SampleCount,
		AvgWashingMinutes:  s.AvgWashingMinutes,
		WashingCount:       s.WashingCount,
		AvgSpinningMinutes: s.AvgSpinningMinutes,
		SpinningCount:      s.SpinningCount,
	}
}

func fromStatModel(m durationStatModel) *estimator.CourseStats {
	return &estimator.CourseStats{
		CourseName:         m.CourseName,
		AvgMinutes:         m.AvgMinutes,
		SampleCount:        m.SampleCount,
		AvgWashingMinutes:  m.AvgWashingMinutes,
		WashingCount:       m.WashingCount,
		AvgSpinningMinutes: m.AvgSpinningMinutes,
		SpinningCount:      m.SpinningCount,
	}
}
