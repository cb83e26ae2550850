package laundry

import (
	"context"
	"time"
)

// MachineStatus is the device-reported cycle state. Transitions are owned by
// the machines themselves; the server only reacts to reported changes.
type MachineStatus string

const (
	StatusIdle     MachineStatus = "IDLE"
	StatusWashing  MachineStatus = "WASHING"
	StatusSpinning MachineStatus = "SPINNING"
	StatusDrying   MachineStatus = "DRYING"
	StatusFinished MachineStatus = "FINISHED"
)

// IsBusy reports whether the machine is mid-cycle.
func (s MachineStatus) IsBusy() bool {
	switch s {
	case StatusWashing, StatusSpinning, StatusDrying:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends a cycle. Only terminal statuses
// trigger push notifications and duration-sample recording.
func (s MachineStatus) IsTerminal() bool {
	return s == StatusFinished
}

type Machine struct {
	ID              int64         `json:"machine_id"`
	UUID            string        `json:"machine_uuid"`
	RoomID          int64         `json:"room_id"`
	RoomName        string        `json:"room_name"`
	Name            string        `json:"machine_name"`
	Type            string        `json:"machine_type"`
	Status          MachineStatus `json:"status"`
	CourseName      string        `json:"course_name,omitempty"`
	CycleStartedAt  *time.Time    `json:"cycle_started_at,omitempty"`
	SpinStartedAt   *time.Time    `json:"spin_started_at,omitempty"`
	Battery         int           `json:"battery"`
	BatteryCapacity int           `json:"battery_capacity"`
	LastUpdate      int64         `json:"last_update"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Room struct {
	ID   int64  `json:"room_id"`
	Name string `json:"room_name"`
}

// --- Requests / Responses ---

type MachineItem struct {
	MachineID   int64  `json:"machine_id"`
	RoomName    string `json:"room_name"`
	MachineName string `json:"machine_name"`
	Status      string `json:"status"`
	MachineType string `json:"machine_type"`
	IsUsing     int    `json:"isusing"`
	Timer       *int   `json:"timer"`
}

type RoomSummary struct {
	RoomID               int64    `json:"room_id"`
	RoomName             string   `json:"room_name"`
	MachinesTotal        int      `json:"machines_total"`
	MachinesBusy         int      `json:"machines_busy"`
	MachinesIdle         int      `json:"machines_idle"`
	AvgRemainingMinutes  *float64 `json:"avg_remaining_minutes"`
	MaxRemainingMinutes  *int     `json:"max_remaining_minutes"`
	ReservationCount     int      `json:"reservation_count"`
	NotifyCount          int      `json:"notify_count"`
	EstimatedWaitMinutes *float64 `json:"estimated_wait_minutes"`
}

type LoadResponse struct {
	IsReserved  int           `json:"isreserved"`
	MachineList []MachineItem `json:"machine_list"`
	Rooms       []RoomSummary `json:"rooms"`
}

type ReserveRequest struct {
	RoomID     int64 `json:"room_id"`
	IsReserved int   `json:"isreserved"`
}

type NotifyMeRequest struct {
	MachineID int64 `json:"machine_id"`
	IsUsing   int   `json:"isusing"`
}

type DeviceSubscribeRequest struct {
	RoomID int64 `json:"room_id"`
}

type StartCourseRequest struct {
	MachineID  int64  `json:"machine_id"`
	CourseName string `json:"course_name"`
}

type StartCourseResponse struct {
	Timer *int `json:"timer"`
}

type SurveyRequest struct {
	Satisfaction int    `json:"satisfaction"`
	Suggestion   string `json:"suggestion"`
}

type AdminAddRoomRequest struct {
	RoomName string `json:"room_name"`
}

type AdminAddRoomResponse struct {
	RoomID int64 `json:"room_id"`
}

type AdminAddDeviceRequest struct {
	MachineID   int64  `json:"machine_id"`
	MachineName string `json:"machine_name"`
	RoomID      int64  `json:"room_id"`
}

// DeviceUpdateRequest is the telemetry payload a machine posts on every
// state change.
type DeviceUpdateRequest struct {
	MachineUUID string        `json:"machine_uuid"`
	Status      MachineStatus `json:"status"`
	Battery     int           `json:"battery"`
	LastUpdate  int64         `json:"last_update"`
}

// CongestionResponse maps weekday label -> 24 hourly busy counts.
type CongestionResponse map[string][]int

type ILaundryUsecase interface {
	Load(ctx context.Context, userID int64) (LoadResponse, error)
	Reserve(ctx context.Context, userID int64, request ReserveRequest) error
	NotifyMe(ctx context.Context, userID int64, request NotifyMeRequest) error
	SubscribeRoom(ctx context.Context, userID int64, roomID int64) error
	Rooms(ctx context.Context, userID int64) ([]Room, error)
	StartCourse(ctx context.Context, request StartCourseRequest) (StartCourseResponse, error)
	SubmitSurvey(ctx context.Context, request SurveyRequest) error
	Congestion(ctx context.Context) (CongestionResponse, error)
	AdminAddRoom(ctx context.Context, userID int64, request AdminAddRoomRequest) (AdminAddRoomResponse, error)
	AdminAddDevice(ctx context.Context, request AdminAddDeviceRequest) error
}

// IIngestUsecase consumes device telemetry and drives the realtime core.
type IIngestUsecase interface {
	DeviceUpdate(ctx context.Context, request DeviceUpdateRequest) error
}
