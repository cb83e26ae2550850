package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/washday/washday/domains/laundry"
)

// machineModel is the persistence model for GORM. The domain struct stays
// free of GORM tags.
type machineModel struct {
	ID              int64   `gorm:"primaryKey;column:machine_id;autoIncrement"`
	UUID            string  `gorm:"column:machine_uuid;uniqueIndex;not null"`
	RoomID          int64   `gorm:"column:room_id;index;not null"`
	Name            string  `gorm:"column:machine_name"`
	Type            string  `gorm:"column:machine_type;not null;default:WASHER"`
	Status          string  `gorm:"column:status;not null;default:IDLE"`
	CourseName      *string `gorm:"column:course_name"`
	CycleStartedAt  *time.Time
	SpinStartedAt   *time.Time
	Battery         int
	BatteryCapacity int       `gorm:"not null;default:100"`
	LastUpdate      int64     `gorm:"column:last_update"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (machineModel) TableName() string {
	return "machines"
}

// machineRow carries the room name alongside the machine columns for joined
// reads.
type machineRow struct {
	machineModel
	RoomName string `gorm:"column:room_name"`
}

// MachineGormRepository implements laundry.IMachineRepository using GORM.
type MachineGormRepository struct {
	db *gorm.DB
}

func NewMachineGormRepository(db *gorm.DB) *MachineGormRepository {
	return &MachineGormRepository{db: db}
}

func (r *MachineGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&machineModel{})
}

func (r *MachineGormRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("machines").
		Select("machines.*, rooms.room_name").
		Joins("JOIN rooms ON rooms.room_id = machines.room_id")
}

func (r *MachineGormRepository) GetByID(ctx context.Context, machineID int64) (*laundry.Machine, error) {
	var row machineRow
	err := r.joined(ctx).Where("machines.machine_id = ?", machineID).Take(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, laundry.ErrMachineNotFound
		}
		return nil, err
	}
	machine := fromMachineRow(row)
	return &machine, nil
}

func (r *MachineGormRepository) GetByUUID(ctx context.Context, machineUUID string) (*laundry.Machine, error) {
	var row machineRow
	err := r.joined(ctx).Where("machines.machine_uuid = ?", machineUUID).Take(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, laundry.ErrMachineNotFound
		}
		return nil, err
	}
	machine := fromMachineRow(row)
	return &machine, nil
}

func (r *MachineGormRepository) ListForUser(ctx context.Context, userID int64) ([]laundry.Machine, error) {
	var rows []machineRow
	err := r.joined(ctx).
		Joins("JOIN room_subscriptions ON room_subscriptions.room_id = machines.room_id").
		Where("room_subscriptions.user_id = ?", userID).
		Order("machines.machine_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromMachineRows(rows), nil
}

func (r *MachineGormRepository) ListBusy(ctx context.Context) ([]laundry.Machine, error) {
	var rows []machineRow
	err := r.joined(ctx).
		Where("machines.status IN ?", []string{
			string(laundry.StatusWashing),
			string(laundry.StatusSpinning),
			string(laundry.StatusDrying),
		}).
		Order("machines.machine_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromMachineRows(rows), nil
}

func (r *MachineGormRepository) Create(ctx context.Context, machine *laundry.Machine) error {
	model := toMachineModel(*machine)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	machine.ID = model.ID
	return nil
}

func (r *MachineGormRepository) UpdateRuntime(ctx context.Context, machineUUID string, status laundry.MachineStatus, battery int, lastUpdate int64, spinStartedAt *time.Time, clearCycle bool) error {
	updates := map[string]any{
		"status":      string(status),
		"battery":     battery,
		"last_update": lastUpdate,
	}
	if spinStartedAt != nil {
		updates["spin_started_at"] = *spinStartedAt
	}
	if clearCycle {
		updates["course_name"] = nil
		updates["cycle_started_at"] = nil
		updates["spin_started_at"] = nil
	}

	result := r.db.WithContext(ctx).
		Model(&machineModel{}).
		Where("machine_uuid = ?", machineUUID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return laundry.ErrMachineNotFound
	}
	return nil
}

func (r *MachineGormRepository) SetCourse(ctx context.Context, machineID int64, courseName *string, startedAt time.Time) error {
	updates := map[string]any{
		"course_name":      courseName,
		"cycle_started_at": startedAt,
		"spin_started_at":  nil,
	}
	result := r.db.WithContext(ctx).
		Model(&machineModel{}).
		Where("machine_id = ?", machineID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return laundry.ErrMachineNotFound
	}
	return nil
}

// Manual mappers keep the domain free of persistence concerns.
func toMachineModel(m laundry.Machine) machineModel {
	var course *string
	if m.CourseName != "" {
		course = &m.CourseName
	}
	return machineModel{
		ID:              m.ID,
		UUID:            m.UUID,
		RoomID:          m.RoomID,
		Name:            m.Name,
		Type:            m.Type,
		Status:          string(m.Status),
		CourseName:      course,
		CycleStartedAt:  m.CycleStartedAt,
		SpinStartedAt:   m.SpinStartedAt,
		Battery:         m.Battery,
		BatteryCapacity: m.BatteryCapacity,
		LastUpdate:      m.LastUpdate,
	}
}

func fromMachineRow(row machineRow) laundry.Machine {
	course := ""
	if row.CourseName != nil {
		course = *row.CourseName
	}
	return laundry.Machine{
		ID:              row.ID,
		UUID:            row.UUID,
		RoomID:          row.RoomID,
		RoomName:        row.RoomName,
		Name:            row.Name,
		Type:            row.Type,
		Status:          laundry.MachineStatus(row.Status),
		CourseName:      course,
		CycleStartedAt:  row.CycleStartedAt,
		SpinStartedAt:   row.SpinStartedAt,
		Battery:         row.Battery,
		BatteryCapacity: row.BatteryCapacity,
		LastUpdate:      row.LastUpdate,
		UpdatedAt:       row.UpdatedAt,
	}
}

func fromMachineRows(rows []machineRow) []laundry.Machine {
	machines := make([]laundry.Machine, len(rows))
	for i, row := range rows {
		machines[i] = fromMachineRow(row)
	}
	return machines
}
