package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/washday/washday/domains/laundry"
)

type roomModel struct {
	ID   int64  `gorm:"primaryKey;column:room_id;autoIncrement"`
	Name string `gorm:"column:room_name;uniqueIndex;not null"`
}

func (roomModel) TableName() string {
	return "rooms"
}

// RoomGormRepository implements laundry.IRoomRepository using GORM.
type RoomGormRepository struct {
	db *gorm.DB
}

func NewRoomGormRepository(db *gorm.DB) *RoomGormRepository {
	return &RoomGormRepository{db: db}
}

func (r *RoomGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&roomModel{})
}

func (r *RoomGormRepository) GetByID(ctx context.Context, roomID int64) (*laundry.Room, error) {
	var model roomModel
	err := r.db.WithContext(ctx).First(&model, "room_id = ?", roomID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, laundry.ErrRoomNotFound
		}
		return nil, err
	}
	return &laundry.Room{ID: model.ID, Name: model.Name}, nil
}

func (r *RoomGormRepository) Create(ctx context.Context, room *laundry.Room) (int64, error) {
	model := roomModel{Name: room.Name}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, err
	}
	room.ID = model.ID
	return model.ID, nil
}

func (r *RoomGormRepository) ListForUser(ctx context.Context, userID int64) ([]laundry.Room, error) {
	var models []roomModel
	err := r.db.WithContext(ctx).
		Table("rooms").
		Joins("JOIN room_subscriptions ON room_subscriptions.room_id = rooms.room_id").
		Where("room_subscriptions.user_id = ?", userID).
		Order("rooms.room_id ASC").
		Scan(&models).Error
	if err != nil {
		return nil, err
	}

	rooms := make([]laundry.Room, len(models))
	for i, m := range models {
		rooms[i] = laundry.Room{ID: m.ID, Name: m.Name}
	}
	return rooms, nil
}
