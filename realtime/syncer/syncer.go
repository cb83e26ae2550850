package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/washday/washday/domains/laundry"
	"github.com/washday/washday/realtime/estimator"
)

const defaultInterval = 60 * time.Second

// BusyLister returns every machine currently mid-cycle.
type BusyLister interface {
	ListBusy(ctx context.Context) ([]laundry.Machine, error)
}

// StatsReader is the read-only estimator surface the scheduler needs.
type StatsReader interface {
	StatsFor(ctx context.Context, courseName string) (*estimator.CourseStats, error)
}

// Broadcaster is the connection-registry surface the scheduler needs.
type Broadcaster interface {
	Broadcast(payload any)
	HasConnections() bool
}

// MachineTimer is one machine's entry in the periodic snapshot.
type MachineTimer struct {
	MachineID      int64                 `json:"machine_id"`
	MachineUUID    string                `json:"machine_uuid"`
	RoomID         int64                 `json:"room_id"`
	Status         laundry.MachineStatus `json:"status"`
	Timer          *int                  `json:"timer"`
	AvgMinutes     *int                  `json:"avg_minutes"`
	ElapsedMinutes *int                  `json:"elapsed_time_minutes"`
}

// SyncMessage is the aggregated snapshot broadcast to every connected user,
// correcting client-side timer drift between status events.
type SyncMessage struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Machines  []MachineTimer `json:"machines"`
}

// Scheduler periodically recomputes timers for all busy machines and
// broadcasts one snapshot. Ticks with zero live connections are skipped so an
// idle server does no recurring database work.
type Scheduler struct {
	machines BusyLister
	stats    StatsReader
	registry Broadcaster
	interval time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(machines BusyLister, stats StatsReader, registry Broadcaster, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		machines: machines,
		stats:    stats,
		registry: registry,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop. It returns immediately; the loop runs until
// Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	logrus.Infof("[SYNCER] Timer sync started, interval %s", s.interval)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logrus.Info("[SYNCER] Context cancelled, stopping")
				return
			case <-s.stop:
				logrus.Info("[SYNCER] Stop requested")
				return
			case <-ticker.C:
				s.runTick(ctx)
			}
		}
	}()
}

// Stop signals the loop and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// runTick does one snapshot pass. A panic inside a tick is logged and the
// loop keeps running; the scheduler must never take the process down.
func (s *Scheduler) runTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[SYNCER] Tick panicked: %v", r)
		}
	}()

	if !s.registry.HasConnections() {
		return
	}

	machines, err := s.machines.ListBusy(ctx)
	if err != nil {
		logrus.WithError(err).Error("[SYNCER] Busy machine listing failed")
		return
	}
	if len(machines) == 0 {
		return
	}

	now := s.now()
	snapshot := make([]MachineTimer, 0, len(machines))
	statsCache := make(map[string]*estimator.CourseStats)

	for _, m := range machines {
		var stats *estimator.CourseStats
		if m.CourseName != "" {
			cached, ok := statsCache[m.CourseName]
			if !ok {
				cached, err = s.stats.StatsFor(ctx, m.CourseName)
				if err != nil {
					logrus.WithError(err).Warnf("[SYNCER] Stats lookup failed for course %s", m.CourseName)
					cached = nil
				}
				statsCache[m.CourseName] = cached
			}
			stats = cached
		}

		info := estimator.ComputeTimer(m, stats, now)
		snapshot = append(snapshot, MachineTimer{
			MachineID:      m.ID,
			MachineUUID:    m.UUID,
			RoomID:         m.RoomID,
			Status:         m.Status,
			Timer:          info.Timer,
			AvgMinutes:     info.AvgMinutes,
			ElapsedMinutes: info.ElapsedMinutes,
		})
	}

	s.registry.Broadcast(SyncMessage{
		Type:      "timer_sync",
		Timestamp: now.Unix(),
		Machines:  snapshot,
	})
	logrus.Debugf("[SYNCER] Broadcast snapshot of %d machines", len(snapshot))
}
