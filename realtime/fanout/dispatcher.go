package fanout

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/washday/washday/domains/laundry"
	"github.com/washday/washday/pkg/eventworker"
)

// Dispatcher bridges request handlers to the fanout through the event pool.
// Sharding by machine UUID keeps one machine's events ordered while the
// calling request returns immediately.
type Dispatcher struct {
	pool *eventworker.Pool
	svc  *Service
}

func NewDispatcher(pool *eventworker.Pool, svc *Service) *Dispatcher {
	return &Dispatcher{pool: pool, svc: svc}
}

func (d *Dispatcher) DispatchStatusChange(machineUUID string, status laundry.MachineStatus) {
	accepted := d.pool.TryDispatch(eventworker.Job{
		MachineUUID: machineUUID,
		Handler: func(ctx context.Context) error {
			return d.svc.OnStatusChange(ctx, machineUUID, status)
		},
	})
	if !accepted {
		logrus.Warnf("[FANOUT] Event dropped for machine %s (%s)", machineUUID, status)
	}
}
