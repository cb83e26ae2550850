package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/washday/washday/domains/laundry"
)

type surveyModel struct {
	ID           int64     `gorm:"primaryKey;column:survey_id;autoIncrement"`
	Satisfaction int       `gorm:"not null"`
	Suggestion   string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (surveyModel) TableName() string {
	return "surveys"
}

// SurveyGormRepository implements laundry.ISurveyRepository using GORM.
type SurveyGormRepository struct {
	db *gorm.DB
}

func NewSurveyGormRepository(db *gorm.DB) *SurveyGormRepository {
	return &SurveyGormRepository{db: db}
}

func (r *SurveyGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&surveyModel{})
}

func (r *SurveyGormRepository) Create(ctx context.Context, survey *laundry.Survey) error {
	model := surveyModel{
		Satisfaction: survey.Satisfaction,
		Suggestion:   survey.Suggestion,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	survey.ID = model.ID
	survey.CreatedAt = model.CreatedAt
	return nil
}
