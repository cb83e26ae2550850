package laundry

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMachineNotFound = errors.New("machine not found")
	ErrRoomNotFound    = errors.New("room not found")
)

type IMachineRepository interface {
	GetByID(ctx context.Context, machineID int64) (*Machine, error)
	GetByUUID(ctx context.Context, machineUUID string) (*Machine, error)
	// ListForUser returns the machines in every room the user subscribes to.
	ListForUser(ctx context.Context, userID int64) ([]Machine, error)
	// ListBusy returns all machines currently in a busy status.
	ListBusy(ctx context.Context) ([]Machine, error)
	Create(ctx context.Context, machine *Machine) error
	// UpdateRuntime persists a reported state change. spinStartedAt is only
	// written when non-nil; clearCycle wipes course and both phase markers.
	UpdateRuntime(ctx context.Context, machineUUID string, status MachineStatus, battery int, lastUpdate int64, spinStartedAt *time.Time, clearCycle bool) error
	// SetCourse stamps a new cycle: course name plus cycle start time.
	// A nil courseName clears the course.
	SetCourse(ctx context.Context, machineID int64, courseName *string, startedAt time.Time) error
}

type IRoomRepository interface {
	GetByID(ctx context.Context, roomID int64) (*Room, error)
	Create(ctx context.Context, room *Room) (int64, error)
	ListForUser(ctx context.Context, userID int64) ([]Room, error)
}

type ISubscriptionRepository interface {
	SubscribeRoom(ctx context.Context, userID, roomID int64) error
	RoomSubscribers(ctx context.Context, roomID int64) ([]int64, error)
	SubscribeDevice(ctx context.Context, userID int64, machineUUID string) error
	UnsubscribeDevice(ctx context.Context, userID int64, machineUUID string) error
	DeviceSubscribers(ctx context.Context, machineUUID string) ([]int64, error)
	// DeleteDeviceSubscriptions removes every device-level subscription for
	// the machine; device subscriptions are one-shot.
	DeleteDeviceSubscriptions(ctx context.Context, machineUUID string) error
	DeviceSubscriptionsForUser(ctx context.Context, userID int64) (map[string]bool, error)
	CountDeviceSubscriptionsByRoom(ctx context.Context, roomIDs []int64) (map[int64]int, error)
}

type IReservationRepository interface {
	Upsert(ctx context.Context, userID, roomID int64, isReserved int) error
	MaxReservedForUser(ctx context.Context, userID int64) (int, error)
	CountReservedByRoom(ctx context.Context, roomIDs []int64) (map[int64]int, error)
}

type Survey struct {
	ID           int64     `json:"id"`
	Satisfaction int       `json:"satisfaction"`
	Suggestion   string    `json:"suggestion"`
	CreatedAt    time.Time `json:"created_at"`
}

type ISurveyRepository interface {
	Create(ctx context.Context, survey *Survey) error
}

type BusySlot struct {
	Day   string `json:"busy_day"`
	Hour  int    `json:"busy_time"`
	Count int    `json:"busy_count"`
}

type ICongestionRepository interface {
	ListSlots(ctx context.Context) ([]BusySlot, error)
	// Increment bumps the busy count for a (weekday, hour) slot.
	Increment(ctx context.Context, day string, hour int) error
}
