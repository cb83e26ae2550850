package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type roomSubscriptionModel struct {
	UserID int64 `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	RoomID int64 `gorm:"column:room_id;primaryKey;autoIncrement:false"`
}

func (roomSubscriptionModel) TableName() string {
	return "room_subscriptions"
}

type deviceSubscriptionModel struct {
	UserID      int64  `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	MachineUUID string `gorm:"column:machine_uuid;primaryKey"`
}

func (deviceSubscriptionModel) TableName() string {
	return "device_subscriptions"
}

// SubscriptionGormRepository implements laundry.ISubscriptionRepository
// using GORM. Room subscriptions are persistent interest; device
// subscriptions are one-shot and cleared by the fanout after a finish push.
type SubscriptionGormRepository struct {
	db *gorm.DB
}

func NewSubscriptionGormRepository(db *gorm.DB) *SubscriptionGormRepository {
	return &SubscriptionGormRepository{db: db}
}

func (r *SubscriptionGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&roomSubscriptionModel{}, &deviceSubscriptionModel{})
}

func (r *SubscriptionGormRepository) SubscribeRoom(ctx context.Context, userID, roomID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&roomSubscriptionModel{UserID: userID, RoomID: roomID}).Error
}

func (r *SubscriptionGormRepository) RoomSubscribers(ctx context.Context, roomID int64) ([]int64, error) {
	var userIDs []int64
	err := r.db.WithContext(ctx).
		Model(&roomSubscriptionModel{}).
		Where("room_id = ?", roomID).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

func (r *SubscriptionGormRepository) SubscribeDevice(ctx context.Context, userID int64, machineUUID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&deviceSubscriptionModel{UserID: userID, MachineUUID: machineUUID}).Error
}

func (r *SubscriptionGormRepository) UnsubscribeDevice(ctx context.Context, userID int64, machineUUID string) error {
	return r.db.WithContext(ctx).
		Delete(&deviceSubscriptionModel{}, "user_id = ? AND machine_uuid = ?", userID, machineUUID).Error
}

func (r *SubscriptionGormRepository) DeviceSubscribers(ctx context.Context, machineUUID string) ([]int64, error) {
	var userIDs []int64
	err := r.db.WithContext(ctx).
		Model(&deviceSubscriptionModel{}).
		Where("machine_uuid = ?", machineUUID).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

func (r *SubscriptionGormRepository) DeleteDeviceSubscriptions(ctx context.Context, machineUUID string) error {
	return r.db.WithContext(ctx).
		Delete(&deviceSubscriptionModel{}, "machine_uuid = ?", machineUUID).Error
}

func (r *SubscriptionGormRepository) DeviceSubscriptionsForUser(ctx context.Context, userID int64) (map[string]bool, error) {
	var uuids []string
	err := r.db.WithContext(ctx).
		Model(&deviceSubscriptionModel{}).
		Where("user_id = ?", userID).
		Pluck("machine_uuid", &uuids).Error
	if err != nil {
		return nil, err
	}

	subscribed := make(map[string]bool, len(uuids))
	for _, uuid := range uuids {
		subscribed[uuid] = true
	}
	return subscribed, nil
}

func (r *SubscriptionGormRepository) CountDeviceSubscriptionsByRoom(ctx context.Context, roomIDs []int64) (map[int64]int, error) {
	if len(roomIDs) == 0 {
		return map[int64]int{}, nil
	}

	type roomCount struct {
		RoomID int64 `gorm:"column:room_id"`
		Count  int   `gorm:"column:count"`
	}
	var counts []roomCount
	err := r.db.WithContext(ctx).
		Table("device_subscriptions").
		Select("machines.room_id, COUNT(*) AS count").
		Joins("JOIN machines ON machines.machine_uuid = device_subscriptions.machine_uuid").
		Where("machines.room_id IN ?", roomIDs).
		Group("machines.room_id").
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
