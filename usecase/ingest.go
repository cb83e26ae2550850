package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	domainLaundry "github.com/washday/washday/domains/laundry"
	"github.com/washday/washday/validations"
)

type serviceIngest struct {
	machines   domainLaundry.IMachineRepository
	dispatcher StatusDispatcher
	now        func() time.Time
}

func NewIngestService(machines domainLaundry.IMachineRepository, dispatcher StatusDispatcher) domainLaundry.IIngestUsecase {
	return &serviceIngest{
		machines:   machines,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// DeviceUpdate persists a reported state change and queues the fanout. The
// database write commits before any notification work starts; delivery rides
// the event pool so telemetry requests return immediately.
func (service serviceIngest) DeviceUpdate(ctx context.Context, request domainLaundry.DeviceUpdateRequest) error {
	err := validations.ValidateDeviceUpdate(ctx, request)
	if err != nil {
		return err
	}

	machine, err := service.machines.GetByUUID(ctx, request.MachineUUID)
	if err != nil {
		return err
	}

	// First report of SPINNING stamps the spin-phase start; later SPINNING
	// reports in the same cycle leave it alone.
	var spinStartedAt *time.Time
	if request.Status == domainLaundry.StatusSpinning && machine.SpinStartedAt == nil {
		now := service.now()
		spinStartedAt = &now
	}

	// Back to IDLE ends the cycle: course and phase markers are cleared so a
	// stale course can never feed the next cycle's timer.
	clearCycle := request.Status == domainLaundry.StatusIdle

	lastUpdate := request.LastUpdate
	if lastUpdate == 0 {
		lastUpdate = service.now().Unix()
	}

	if err := service.machines.UpdateRuntime(ctx, request.MachineUUID, request.Status, request.Battery, lastUpdate, spinStartedAt, clearCycle); err != nil {
		return err
	}

	logrus.Debugf("[INGEST] Machine %s reported %s", request.MachineUUID, request.Status)
	if service.dispatcher != nil {
		service.dispatcher.DispatchStatusChange(request.MachineUUID, request.Status)
	}
	return nil
}
