package repository

import (
	"context"

	"gorm.io/gorm"
)

type initializer interface {
	Init(ctx context.Context) error
}

// InitSchema migrates every table in dependency order.
func InitSchema(ctx context.Context, db *gorm.DB) error {
	repos := []initializer{
		NewUserGormRepository(db),
		NewRoomGormRepository(db),
		NewMachineGormRepository(db),
		NewSubscriptionGormRepository(db),
		NewReservationGormRepository(db),
		NewStatsGormRepository(db),
		NewSurveyGormRepository(db),
		NewCongestionGormRepository(db),
	}
	for _, r := range repos {
		if err := r.Init(ctx); err != nil {
			return err
		}
	}
	return nil
}
