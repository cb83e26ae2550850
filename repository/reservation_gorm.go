package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reservationModel struct {
	UserID     int64 `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	RoomID     int64 `gorm:"column:room_id;primaryKey;autoIncrement:false"`
	IsReserved int   `gorm:"column:isreserved;not null;default:0"`
}

func (reservationModel) TableName() string {
	return "reservations"
}

// ReservationGormRepository implements laundry.IReservationRepository using GORM.
type ReservationGormRepository struct {
	db *gorm.DB
}

func NewReservationGormRepository(db *gorm.DB) *ReservationGormRepository {
	return &ReservationGormRepository{db: db}
}

func (r *ReservationGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&reservationModel{})
}

func (r *ReservationGormRepository) Upsert(ctx context.Context, userID, roomID int64, isReserved int) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "room_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"isreserved": isReserved}),
	}).Create(&reservationModel{
		UserID:     userID,
		RoomID:     roomID,
		IsReserved: isReserved,
	}).Error
}

func (r *ReservationGormRepository) MaxReservedForUser(ctx context.Context, userID int64) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(isreserved), 0)").
		Scan(&max).Error
	return max, err
}

func (r *ReservationGormRepository) CountReservedByRoom(ctx context.Context, roomIDs []int64) (map[int64]int, error) {
	if len(roomIDs) == 0 {
		return map[int64]int{}, nil
	}

	type roomCount struct {
		RoomID int64 `gorm:"column:room_id"`
		Count  int   `gorm:"column:count"`
	}
	var counts []roomCount
	err := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Select("room_id, COUNT(*) AS count").
		Where("room_id IN ? AND isreserved = 1", roomIDs).
		Group("room_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	result := make(map[int64]int, len(counts))
	for _, c := range counts {
		result[c.RoomID] = c.Count
	}
	return result, nil
}
