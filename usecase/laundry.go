package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domainLaundry "github.com/washday/washday/domains/laundry"
	"github.com/washday/washday/realtime/estimator"
	"github.com/washday/washday/validations"
)

// StatusDispatcher queues a post-commit fanout for a machine. Dispatch never
// blocks the calling request.
type StatusDispatcher interface {
	DispatchStatusChange(machineUUID string, status domainLaundry.MachineStatus)
}

type serviceLaundry struct {
	machines     domainLaundry.IMachineRepository
	rooms        domainLaundry.IRoomRepository
	subs         domainLaundry.ISubscriptionRepository
	reservations domainLaundry.IReservationRepository
	surveys      domainLaundry.ISurveyRepository
	congestion   domainLaundry.ICongestionRepository
	est          *estimator.Estimator
	dispatcher   StatusDispatcher
	cycleMinutes int
	now          func() time.Time
}

func NewLaundryService(
	machines domainLaundry.IMachineRepository,
	rooms domainLaundry.IRoomRepository,
	subs domainLaundry.ISubscriptionRepository,
	reservations domainLaundry.IReservationRepository,
	surveys domainLaundry.ISurveyRepository,
	congestion domainLaundry.ICongestionRepository,
	est *estimator.Estimator,
	dispatcher StatusDispatcher,
	cycleMinutes int,
) domainLaundry.ILaundryUsecase {
	if cycleMinutes <= 0 {
		cycleMinutes = 50
	}
	return &serviceLaundry{
		machines:     machines,
		rooms:        rooms,
		subs:         subs,
		reservations: reservations,
		surveys:      surveys,
		congestion:   congestion,
		est:          est,
		dispatcher:   dispatcher,
		cycleMinutes: cycleMinutes,
		now:          time.Now,
	}
}

type roomAccumulator struct {
	roomID    int64
	roomName  string
	total     int
	busy      int
	idle      int
	remaining []int
}

func (service serviceLaundry) Load(ctx context.Context, userID int64) (domainLaundry.LoadResponse, error) {
	var response domainLaundry.LoadResponse

	machines, err := service.machines.ListForUser(ctx, userID)
	if err != nil {
		return response, err
	}

	deviceSubs, err := service.subs.DeviceSubscriptionsForUser(ctx, userID)
	if err != nil {
		logrus.WithError(err).Warnf("[LAUNDRY] Device subscription lookup failed for user %d", userID)
		deviceSubs = map[string]bool{}
	}

	now := service.now()
	statsCache := make(map[string]*estimator.CourseStats)
	var roomOrder []int64
	roomAgg := make(map[int64]*roomAccumulator)

	response.MachineList = make([]domainLaundry.MachineItem, 0, len(machines))
	for _, m := range machines {
		var info estimator.TimerInfo
		if m.Status.IsBusy() {
			info = estimator.ComputeTimer(m, service.cachedStats(ctx, statsCache, m.CourseName), now)
		}

		isUsing := 0
		if deviceSubs[m.UUID] {
			isUsing = 1
		}

		response.MachineList = append(response.MachineList, domainLaundry.MachineItem{
			MachineID:   m.ID,
			RoomName:    m.RoomName,
			MachineName: m.Name,
			Status:      string(m.Status),
			MachineType: m.Type,
			IsUsing:     isUsing,
			Timer:       info.Timer,
		})

		agg, ok := roomAgg[m.RoomID]
		if !ok {
			agg = &roomAccumulator{roomID: m.RoomID, roomName: m.RoomName}
			roomAgg[m.RoomID] = agg
			roomOrder = append(roomOrder, m.RoomID)
		}
		agg.total++
		if m.Status.IsBusy() {
			agg.busy++
			if info.Timer != nil {
				agg.remaining = append(agg.remaining, *info.Timer)
			}
		} else {
			agg.idle++
		}
	}

	maxReserved, err := service.reservations.MaxReservedForUser(ctx, userID)
	if err != nil {
		logrus.WithError(err).Warnf("[LAUNDRY] Reservation lookup failed for user %d", userID)
	}
	response.IsReserved = maxReserved

	reservedCounts, err := service.reservations.CountReservedByRoom(ctx, roomOrder)
	if err != nil {
		logrus.WithError(err).Warn("[LAUNDRY] Reservation counts unavailable")
		reservedCounts = map[int64]int{}
	}
	notifyCounts, err := service.subs.CountDeviceSubscriptionsByRoom(ctx, roomOrder)
	if err != nil {
		logrus.WithError(err).Warn("[LAUNDRY] Notify counts unavailable")
		notifyCounts = map[int64]int{}
	}

	response.Rooms = make([]domainLaundry.RoomSummary, 0, len(roomOrder))
	for _, roomID := range roomOrder {
		agg := roomAgg[roomID]
		summary := domainLaundry.RoomSummary{
			RoomID:           agg.roomID,
			RoomName:         agg.roomName,
			MachinesTotal:    agg.total,
			MachinesBusy:     agg.busy,
			MachinesIdle:     agg.idle,
			ReservationCount: reservedCounts[roomID],
			NotifyCount:      notifyCounts[roomID],
		}

		if len(agg.remaining) > 0 {
			sum, max := 0, agg.remaining[0]
			for _, r := range agg.remaining {
				sum += r
				if r > max {
					max = r
				}
			}
			avg := float64(sum) / float64(len(agg.remaining))
			summary.AvgRemainingMinutes = &avg
			summary.MaxRemainingMinutes = &max
		}

		// A free machine means no wait; otherwise the queue is the longest
		// running cycle plus one full cycle per reservation ahead of you.
		if agg.idle > 0 {
			wait := 0.0
			summary.EstimatedWaitMinutes = &wait
		} else if summary.MaxRemainingMinutes != nil {
			wait := float64(*summary.MaxRemainingMinutes + summary.ReservationCount*service.cycleMinutes)
			summary.EstimatedWaitMinutes = &wait
		}

		response.Rooms = append(response.Rooms, summary)
	}

	return response, nil
}

func (service serviceLaundry) cachedStats(ctx context.Context, cache map[string]*estimator.CourseStats, courseName string) *estimator.CourseStats {
	if courseName == "" {
		return nil
	}
	if stats, ok := cache[courseName]; ok {
		return stats
	}
	stats, err := service.est.StatsFor(ctx, courseName)
	if err != nil {
		logrus.WithError(err).Warnf("[LAUNDRY] Stats lookup failed for course %s", courseName)
		stats = nil
	}
	cache[courseName] = stats
	return stats
}

func (service serviceLaundry) Reserve(ctx context.Context, userID int64, request domainLaundry.ReserveRequest) error {
	err := validations.ValidateReserve(ctx, request)
	if err != nil {
		return err
	}

	if _, err := service.rooms.GetByID(ctx, request.RoomID); err != nil {
		return err
	}
	if err := service.reservations.Upsert(ctx, userID, request.RoomID, request.IsReserved); err != nil {
		return err
	}

	// Reserving implies interest in the room's status updates.
	return service.subs.SubscribeRoom(ctx, userID, request.RoomID)
}

func (service serviceLaundry) NotifyMe(ctx context.Context, userID int64, request domainLaundry.NotifyMeRequest) error {
	err := validations.ValidateNotifyMe(ctx, request)
	if err != nil {
		return err
	}

	machine, err := service.machines.GetByID(ctx, request.MachineID)
	if err != nil {
		return err
	}

	if request.IsUsing == 1 {
		return service.subs.SubscribeDevice(ctx, userID, machine.UUID)
	}
	return service.subs.UnsubscribeDevice(ctx, userID, machine.UUID)
}

func (service serviceLaundry) SubscribeRoom(ctx context.Context, userID int64, roomID int64) error {
	if _, err := service.rooms.GetByID(ctx, roomID); err != nil {
		return err
	}
	return service.subs.SubscribeRoom(ctx, userID, roomID)
}

func (service serviceLaundry) Rooms(ctx context.Context, userID int64) ([]domainLaundry.Room, error) {
	return service.rooms.ListForUser(ctx, userID)
}

func (service serviceLaundry) StartCourse(ctx context.Context, request domainLaundry.StartCourseRequest) (domainLaundry.StartCourseResponse, error) {
	var response domainLaundry.StartCourseResponse

	err := validations.ValidateStartCourse(ctx, request)
	if err != nil {
		return response, err
	}

	machine, err := service.machines.GetByID(ctx, request.MachineID)
	if err != nil {
		return response, err
	}

	now := service.now()
	if err := service.machines.SetCourse(ctx, machine.ID, &request.CourseName, now); err != nil {
		return response, err
	}

	if err := service.congestion.Increment(ctx, now.Weekday().String(), now.Hour()); err != nil {
		logrus.WithError(err).Warn("[LAUNDRY] Congestion slot update failed")
	}

	// The cycle just started, so the timer is the full course average.
	stats, err := service.est.StatsFor(ctx, request.CourseName)
	if err != nil {
		logrus.WithError(err).Warnf("[LAUNDRY] Stats lookup failed for course %s", request.CourseName)
	} else if stats != nil {
		response.Timer = stats.AvgMinutes
	}

	if service.dispatcher != nil {
		service.dispatcher.DispatchStatusChange(machine.UUID, machine.Status)
	}
	return response, nil
}

func (service serviceLaundry) SubmitSurvey(ctx context.Context, request domainLaundry.SurveyRequest) error {
	err := validations.ValidateSurvey(ctx, request)
	if err != nil {
		return err
	}

	return service.surveys.Create(ctx, &domainLaundry.Survey{
		Satisfaction: request.Satisfaction,
		Suggestion:   request.Suggestion,
	})
}

func (service serviceLaundry) Congestion(ctx context.Context) (domainLaundry.CongestionResponse, error) {
	slots, err := service.congestion.ListSlots(ctx)
	if err != nil {
		return nil, err
	}

	response := make(domainLaundry.CongestionResponse, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		response[day.String()] = make([]int, 24)
	}
	for _, slot := range slots {
		hours, ok := response[slot.Day]
		if !ok || slot.Hour < 0 || slot.Hour > 23 {
			continue
		}
		hours[slot.Hour] = slot.Count
	}
	return response, nil
}

func (service serviceLaundry) AdminAddRoom(ctx context.Context, userID int64, request domainLaundry.AdminAddRoomRequest) (domainLaundry.AdminAddRoomResponse, error) {
	var response domainLaundry.AdminAddRoomResponse

	err := validations.ValidateAdminAddRoom(ctx, request)
	if err != nil {
		return response, err
	}

	room := domainLaundry.Room{Name: request.RoomName}
	roomID, err := service.rooms.Create(ctx, &room)
	if err != nil {
		return response, err
	}

	if err := service.subs.SubscribeRoom(ctx, userID, roomID); err != nil {
		logrus.WithError(err).Warnf("[LAUNDRY] Creator subscription failed for room %d", roomID)
	}

	response.RoomID = roomID
	return response, nil
}

func (service serviceLaundry) AdminAddDevice(ctx context.Context, request domainLaundry.AdminAddDeviceRequest) error {
	err := validations.ValidateAdminAddDevice(ctx, request)
	if err != nil {
		return err
	}

	if _, err := service.rooms.GetByID(ctx, request.RoomID); err != nil {
		return err
	}

	machine := domainLaundry.Machine{
		ID:              request.MachineID,
		UUID:            uuid.NewString(),
		RoomID:          request.RoomID,
		Name:            request.MachineName,
		Type:            "WASHER",
		Status:          domainLaundry.StatusIdle,
		BatteryCapacity: 100,
	}
	if err := service.machines.Create(ctx, &machine); err != nil {
		return err
	}

	logrus.Infof("[LAUNDRY] Added machine %s (%s) to room %d", machine.Name, machine.UUID, machine.RoomID)
	return nil
}
