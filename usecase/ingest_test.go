package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainLaundry "github.com/washday/washday/domains/laundry"
)

func newIngestFixture() (*fakeMachineRepo, *fakeDispatcher, *serviceIngest, time.Time) {
	machines := &fakeMachineRepo{machines: map[string]*domainLaundry.Machine{}}
	dispatcher := &fakeDispatcher{}
	now := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	svc := NewIngestService(machines, dispatcher).(*serviceIngest)
	svc.now = func() time.Time { return now }
	return machines, dispatcher, svc, now
}

func TestDeviceUpdate_PersistsThenDispatches(t *testing.T) {
	machines, dispatcher, svc, _ := newIngestFixture()
	machines.machines["uuid-1"] = &domainLaundry.Machine{ID: 1, UUID: "uuid-1", Status: domainLaundry.StatusIdle}

	err := svc.DeviceUpdate(context.Background(), domainLaundry.DeviceUpdateRequest{
		MachineUUID: "uuid-1",
		Status:      domainLaundry.StatusWashing,
		Battery:     80,
		LastUpdate:  1741617000,
	})
	if err != nil {
		t.Fatalf("DeviceUpdate: %v", err)
	}

	if machines.updateCalls != 1 {
		t.Fatalf("expected one runtime update, got %d", machines.updateCalls)
	}
	if machines.updateStatus != domainLaundry.StatusWashing || machines.updateBattery != 80 {
		t.Errorf("unexpected update: status=%s battery=%d", machines.updateStatus, machines.updateBattery)
	}
	if machines.updateLastUpdate != 1741617000 {
		t.Errorf("expected reported last_update to be kept, got %d", machines.updateLastUpdate)
	}
	if machines.updateSpinAt != nil {
		t.Errorf("washing must not stamp a spin start")
	}
	if machines.updateClearCycle {
		t.Errorf("washing must not clear the cycle")
	}

	if len(dispatcher.uuids) != 1 || dispatcher.uuids[0] != "uuid-1" {
		t.Fatalf("expected one dispatch for uuid-1, got %v", dispatcher.uuids)
	}
	if dispatcher.statuses[0] != domainLaundry.StatusWashing {
		t.Errorf("dispatched status = %s", dispatcher.statuses[0])
	}
}

func TestDeviceUpdate_FirstSpinningStampsSpinStart(t *testing.T) {
	machines, _, svc, now := newIngestFixture()
	machines.machines["uuid-1"] = &domainLaundry.Machine{ID: 1, UUID: "uuid-1", Status: domainLaundry.StatusWashing}

	err := svc.DeviceUpdate(context.Background(), domainLaundry.DeviceUpdateRequest{
		MachineUUID: "uuid-1",
		Status:      domainLaundry.StatusSpinning,
	})
	if err != nil {
		t.Fatalf("DeviceUpdate: %v", err)
	}
	if machines.updateSpinAt == nil {
		t.Fatal("first spinning report must stamp the spin start")
	}
	if !machines.updateSpinAt.Equal(now) {
		t.Errorf("spin start = %v, want %v", machines.updateSpinAt, now)
	}
}

func TestDeviceUpdate_RepeatedSpinningKeepsMarker(t *testing.T) {
	machines, _, svc, now := newIngestFixture()
	earlier := now.Add(-5 * time.Minute)
	machines.machines["uuid-1"] = &domainLaundry.Machine{
		ID: 1, UUID: "uuid-1",
		Status:        domainLaundry.StatusSpinning,
		SpinStartedAt: &earlier,
	}

	err := svc.DeviceUpdate(context.Background(), domainLaundry.DeviceUpdateRequest{
		MachineUUID: "uuid-1",
		Status:      domainLaundry.StatusSpinning,
	})
	if err != nil {
		t.Fatalf("DeviceUpdate: %v", err)
	}
	if machines.updateSpinAt != nil {
		t.Error("later spinning reports must not move the spin start")
	}
}

func TestDeviceUpdate_IdleClearsCycle(t *testing.T) {
	machines, _, svc, now := newIngestFixture()
	cycleStart := now.Add(-50 * time.Minute)
	machines.machines["uuid-1"] = &domainLaundry.Machine{
		ID: 1, UUID: "uuid-1",
		Status:         domainLaundry.StatusFinished,
		CourseName:     "표준",
		CycleStartedAt: &cycleStart,
	}

	err := svc.DeviceUpdate(context.Background(), domainLaundry.DeviceUpdateRequest{
		MachineUUID: "uuid-1",
		Status:      domainLaundry.StatusIdle,
	})
	if err != nil {
		t.Fatalf("DeviceUpdate: %v", err)
	}
	if !machines.updateClearCycle {
		t.Error("idle must clear the course and phase markers")
	}
}

func TestDeviceUpdate_MissingTimestampDefaultsToNow(t *testing.T) {
	machines, _, svc, now := newIngestFixture()
	machines.machines["uuid-1"] = &domainLaundry.Machine{ID: 1, UUID: "uuid-1"}

	err := svc.DeviceUpdate(context.Background(), domainLaundry.DeviceUpdateRequest{
		MachineUUID: "uuid-1",
		Status:      domainLaundry.StatusWashing,
	})
	if err != nil {
		t.Fatalf("DeviceUpdate: %v", err)
	}
	if machines.updateLastUpdate != now.Unix() {
		t.Errorf("last_update = %d, want %d", machines.updateLastUpdate, now.Unix())
	}
}

func TestDeviceUpdate_UnknownMachine(t *testing.T) {
	machines, dispatcher, svc, _ := newIngestFixture()

	err := svc.DeviceUpdate(context.Background(), domainLaundry.DeviceUpdateRequest{
		MachineUUID: "ghost",
		Status:      domainLaundry.StatusWashing,
	})
	if !errors.Is(err, domainLaundry.ErrMachineNotFound) {
		t.Fatalf("expected ErrMachineNotFound, got %v", err)
	}
	if machines.updateCalls != 0 || len(dispatcher.uuids) != 0 {
		t.Error("unknown machine must not write or dispatch")
	}
}

func TestDeviceUpdate_RejectsUnknownStatus(t *testing.T) {
	machines, dispatcher, svc, _ := newIngestFixture()
	machines.machines["uuid-1"] = &domainLaundry.Machine{ID: 1, UUID: "uuid-1"}

	err := svc.DeviceUpdate(context.Background(), domainLaundry.DeviceUpdateRequest{
		MachineUUID: "uuid-1",
		Status:      "EXPLODING",
	})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if machines.updateCalls != 0 || len(dispatcher.uuids) != 0 {
		t.Error("invalid payload must not write or dispatch")
	}
}
