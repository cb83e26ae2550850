package fanout

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/washday/washday/domains/laundry"
	"github.com/washday/washday/infrastructure/push"
	"github.com/washday/washday/realtime/estimator"
)

// MachineStore resolves the persisted runtime state of a machine.
type MachineStore interface {
	GetByUUID(ctx context.Context, machineUUID string) (*laundry.Machine, error)
}

// SubscriptionStore resolves recipients for a status change. Room
// subscriptions are persistent; device subscriptions are one-shot and get
// deleted here after a terminal push.
type SubscriptionStore interface {
	RoomSubscribers(ctx context.Context, roomID int64) ([]int64, error)
	DeviceSubscribers(ctx context.Context, machineUUID string) ([]int64, error)
	DeleteDeviceSubscriptions(ctx context.Context, machineUUID string) error
}

// TokenStore maps user identities to their registered push tokens.
type TokenStore interface {
	TokensForUsers(ctx context.Context, userIDs []int64) ([]string, error)
}

// LivePublisher delivers realtime messages over the connection registry.
type LivePublisher interface {
	SendToUser(userID int64, payload any)
}

// Pusher is the batched push gateway.
type Pusher interface {
	SendBatch(ctx context.Context, tokens []string, title, body string, data map[string]string) (push.Summary, error)
}

// DurationEstimator is the estimator surface the fanout needs.
type DurationEstimator interface {
	StatsFor(ctx context.Context, courseName string) (*estimator.CourseStats, error)
	RecordSample(ctx context.Context, courseName string, phase estimator.Phase, elapsedMinutes int)
}

// StatusMessage is the live-channel payload for a single machine update.
type StatusMessage struct {
	Type           string                `json:"type"`
	MachineID      int64                 `json:"machine_id"`
	MachineUUID    string                `json:"machine_uuid"`
	RoomID         int64                 `json:"room_id"`
	MachineName    string                `json:"machine_name"`
	Status         laundry.MachineStatus `json:"status"`
	Timer          *int                  `json:"timer"`
	AvgMinutes     *int                  `json:"avg_minutes"`
	ElapsedMinutes *int                  `json:"elapsed_time_minutes"`
	Timestamp      int64                 `json:"timestamp"`
}

// Service reacts to machine state-change events: live messages to everyone
// watching, push notifications on FINISHED only, and duration samples fed
// back into the estimator.
type Service struct {
	machines MachineStore
	subs     SubscriptionStore
	tokens   TokenStore
	live     LivePublisher
	pusher   Pusher
	est      DurationEstimator
	now      func() time.Time
}

func NewService(machines MachineStore, subs SubscriptionStore, tokens TokenStore, live LivePublisher, pusher Pusher, est DurationEstimator) *Service {
	return &Service{
		machines: machines,
		subs:     subs,
		tokens:   tokens,
		live:     live,
		pusher:   pusher,
		est:      est,
		now:      time.Now,
	}
}

// OnStatusChange handles one reported status transition. The triggering
// database write has already been committed by the ingestion path; everything
// here is post-commit delivery. Recipient resolution and timer computation
// happen before any send, and a persistence failure degrades the push and
// stat steps without silencing the live channel.
func (s *Service) OnStatusChange(ctx context.Context, machineUUID string, newStatus laundry.MachineStatus) error {
	machine, err := s.machines.GetByUUID(ctx, machineUUID)
	if err != nil {
		logrus.WithError(err).Errorf("[FANOUT] Machine lookup failed for %s", machineUUID)
		return err
	}

	roomSubs, err := s.subs.RoomSubscribers(ctx, machine.RoomID)
	if err != nil {
		logrus.WithError(err).Warnf("[FANOUT] Room subscriber lookup failed for room %d", machine.RoomID)
	}
	deviceSubs, err := s.subs.DeviceSubscribers(ctx, machineUUID)
	if err != nil {
		logrus.WithError(err).Warnf("[FANOUT] Device subscriber lookup failed for %s", machineUUID)
	}

	now := s.now()
	stats := s.statsFor(ctx, machine.CourseName)
	info := estimator.ComputeTimer(*machine, stats, now)

	// Live viewers always see the current state, whatever the status.
	statusMsg := s.message("room_status", machine, newStatus, info, now)
	for _, userID := range union(roomSubs, deviceSubs) {
		s.live.SendToUser(userID, statusMsg)
	}

	if !newStatus.IsTerminal() {
		return nil
	}

	// Device subscribers also get an explicit finish event on their socket.
	notifyMsg := s.message("notify", machine, newStatus, info, now)
	for _, userID := range deviceSubs {
		s.live.SendToUser(userID, notifyMsg)
	}

	deviceSet := make(map[int64]bool, len(deviceSubs))
	for _, userID := range deviceSubs {
		deviceSet[userID] = true
	}
	// Users subscribed at both levels get the device-targeted push only.
	var roomOnly []int64
	for _, userID := range roomSubs {
		if !deviceSet[userID] {
			roomOnly = append(roomOnly, userID)
		}
	}

	data := map[string]string{
		"machine_uuid": machine.UUID,
		"status":       string(newStatus),
	}

	if len(deviceSubs) > 0 {
		s.push(ctx, deviceSubs, "세탁 완료", machine.Name+" 세탁이 완료되었습니다.", data)

		// One-shot semantics: a user must re-subscribe for the next cycle.
		if err := s.subs.DeleteDeviceSubscriptions(ctx, machineUUID); err != nil {
			logrus.WithError(err).Errorf("[FANOUT] Failed to clear device subscriptions for %s", machineUUID)
		}
	}

	if len(roomOnly) > 0 {
		s.push(ctx, roomOnly, "세탁 완료", machine.RoomName+"의 "+machine.Name+" 세탁이 완료되었습니다.", data)
	}

	s.recordCycleSamples(ctx, machine, now)
	return nil
}

func (s *Service) statsFor(ctx context.Context, courseName string) *estimator.CourseStats {
	if courseName == "" {
		return nil
	}
	stats, err := s.est.StatsFor(ctx, courseName)
	if err != nil {
		logrus.WithError(err).Warnf("[FANOUT] Stats lookup failed for course %s", courseName)
		return nil
	}
	return stats
}

func (s *Service) message(msgType string, machine *laundry.Machine, status laundry.MachineStatus, info estimator.TimerInfo, now time.Time) StatusMessage {
	return StatusMessage{
		Type:           msgType,
		MachineID:      machine.ID,
		MachineUUID:    machine.UUID,
		RoomID:         machine.RoomID,
		MachineName:    machine.Name,
		Status:         status,
		Timer:          info.Timer,
		AvgMinutes:     info.AvgMinutes,
		ElapsedMinutes: info.ElapsedMinutes,
		Timestamp:      now.Unix(),
	}
}

func (s *Service) push(ctx context.Context, userIDs []int64, title, body string, data map[string]string) {
	tokens, err := s.tokens.TokensForUsers(ctx, userIDs)
	if err != nil {
		logrus.WithError(err).Warnf("[FANOUT] Token lookup failed for %d users", len(userIDs))
		return
	}
	if len(tokens) == 0 {
		return
	}
	if _, err := s.pusher.SendBatch(ctx, tokens, title, body, data); err != nil {
		logrus.WithError(err).Error("[FANOUT] Push delivery failed")
	}
}

// recordCycleSamples feeds the finished cycle's durations back into the
// estimator. The washing segment runs from cycle start to spin start, the
// spinning segment from spin start to finish. A machine never started through
// the course path has no markers and records nothing.
func (s *Service) recordCycleSamples(ctx context.Context, machine *laundry.Machine, now time.Time) {
	if machine.CourseName == "" || machine.CycleStartedAt == nil {
		return
	}

	total := elapsedMinutes(*machine.CycleStartedAt, now)
	s.est.RecordSample(ctx, machine.CourseName, estimator.PhaseTotal, total)

	if machine.SpinStartedAt != nil {
		washing := elapsedMinutes(*machine.CycleStartedAt, *machine.SpinStartedAt)
		spinning := elapsedMinutes(*machine.SpinStartedAt, now)
		s.est.RecordSample(ctx, machine.CourseName, estimator.PhaseWashing, washing)
		s.est.RecordSample(ctx, machine.CourseName, estimator.PhaseSpinning, spinning)
	}
}

func elapsedMinutes(from, to time.Time) int {
	seconds := to.Unix() - from.Unix()
	if seconds < 0 {
		return 0
	}
	return int(seconds / 60)
}

func union(a, b []int64) []int64 {
	seen := make(map[int64]bool, len(a)+len(b))
	merged := make([]int64, 0, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}
