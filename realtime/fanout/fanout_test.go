package fanout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/washday/washday/domains/laundry"
	"github.com/washday/washday/infrastructure/push"
	"github.com/washday/washday/realtime/estimator"
)

type fakeMachineStore struct {
	machine *laundry.Machine
	err     error
}

func (f *fakeMachineStore) GetByUUID(ctx context.Context, machineUUID string) (*laundry.Machine, error) {
	return f.machine, f.err
}

type fakeSubStore struct {
	roomSubs   []int64
	deviceSubs []int64
	roomErr    error
	deleted    []string
}

func (f *fakeSubStore) RoomSubscribers(ctx context.Context, roomID int64) ([]int64, error) {
	return f.roomSubs, f.roomErr
}

func (f *fakeSubStore) DeviceSubscribers(ctx context.Context, machineUUID string) ([]int64, error) {
	return f.deviceSubs, nil
}

func (f *fakeSubStore) DeleteDeviceSubscriptions(ctx context.Context, machineUUID string) error {
	f.deleted = append(f.deleted, machineUUID)
	return nil
}

type fakeTokenStore struct {
	tokens map[int64]string
	err    error
}

func (f *fakeTokenStore) TokensForUsers(ctx context.Context, userIDs []int64) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var tokens []string
	for _, id := range userIDs {
		if t, ok := f.tokens[id]; ok {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

type fakeLive struct {
	sent map[int64][]StatusMessage
}

func newFakeLive() *fakeLive {
	return &fakeLive{sent: make(map[int64][]StatusMessage)}
}

func (f *fakeLive) SendToUser(userID int64, payload any) {
	f.sent[userID] = append(f.sent[userID], payload.(StatusMessage))
}

type pushCall struct {
	tokens []string
	title  string
}

type fakePusher struct {
	calls []pushCall
}

func (f *fakePusher) SendBatch(ctx context.Context, tokens []string, title, body string, data map[string]string) (push.Summary, error) {
	f.calls = append(f.calls, pushCall{tokens: tokens, title: title})
	return push.Summary{Attempted: len(tokens), Sent: len(tokens)}, nil
}

type recordedSample struct {
	course  string
	phase   estimator.Phase
	minutes int
}

type fakeEstimator struct {
	stats   *estimator.CourseStats
	samples []recordedSample
}

func (f *fakeEstimator) StatsFor(ctx context.Context, courseName string) (*estimator.CourseStats, error) {
	return f.stats, nil
}

func (f *fakeEstimator) RecordSample(ctx context.Context, courseName string, phase estimator.Phase, elapsedMinutes int) {
	f.samples = append(f.samples, recordedSample{course: courseName, phase: phase, minutes: elapsedMinutes})
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

type fixture struct {
	svc      *Service
	machines *fakeMachineStore
	subs     *fakeSubStore
	tokens   *fakeTokenStore
	live     *fakeLive
	pusher   *fakePusher
	est      *fakeEstimator
	now      time.Time
}

func newFixture(machine *laundry.Machine) *fixture {
	f := &fixture{
		machines: &fakeMachineStore{machine: machine},
		subs:     &fakeSubStore{},
		tokens:   &fakeTokenStore{tokens: map[int64]string{}},
		live:     newFakeLive(),
		pusher:   &fakePusher{},
		est:      &fakeEstimator{},
		now:      time.Unix(1_700_000_000, 0),
	}
	f.svc = NewService(f.machines, f.subs, f.tokens, f.live, f.pusher, f.est)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func busyMachine(now time.Time) *laundry.Machine {
	return &laundry.Machine{
		ID:             7,
		UUID:           "washer-7",
		RoomID:         1,
		RoomName:       "1층 세탁실",
		Name:           "세탁기 7",
		Status:         laundry.StatusWashing,
		CourseName:     "표준",
		CycleStartedAt: timePtr(now.Add(-45 * time.Minute)),
		SpinStartedAt:  timePtr(now.Add(-12 * time.Minute)),
	}
}

func TestOnStatusChange_LiveMessageOnEveryStatus(t *testing.T) {
	f := newFixture(busyMachine(time.Unix(1_700_000_000, 0)))
	f.subs.roomSubs = []int64{1, 2}
	f.subs.deviceSubs = []int64{3}
	f.tokens.tokens = map[int64]string{1: "t1", 2: "t2", 3: "t3"}

	if err := f.svc.OnStatusChange(context.Background(), "washer-7", laundry.StatusSpinning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, userID := range []int64{1, 2, 3} {
		msgs := f.live.sent[userID]
		if len(msgs) != 1 || msgs[0].Type != "room_status" {
			t.Errorf("user %d: expected one room_status message, got %v", userID, msgs)
		}
	}
	if len(f.pusher.calls) != 0 {
		t.Errorf("intermediate status must not push, got %d calls", len(f.pusher.calls))
	}
	if len(f.subs.deleted) != 0 {
		t.Error("intermediate status must not touch device subscriptions")
	}
}

func TestOnStatusChange_FinishedPushesAndClearsDeviceSubs(t *testing.T) {
	// A subscribes at room level only, B at device level only.
	f := newFixture(busyMachine(time.Unix(1_700_000_000, 0)))
	f.subs.roomSubs = []int64{100}
	f.subs.deviceSubs = []int64{200}
	f.tokens.tokens = map[int64]string{100: "token-a", 200: "token-b"}

	if err := f.svc.OnStatusChange(context.Background(), "washer-7", laundry.StatusFinished); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.live.sent[100]) != 1 {
		t.Errorf("room subscriber gets the status message, got %d", len(f.live.sent[100]))
	}
	if len(f.live.sent[200]) != 2 {
		t.Errorf("device subscriber gets status plus notify, got %d", len(f.live.sent[200]))
	}

	if len(f.pusher.calls) != 2 {
		t.Fatalf("expected device push and room push, got %d", len(f.pusher.calls))
	}
	if got := f.pusher.calls[0].tokens; len(got) != 1 || got[0] != "token-b" {
		t.Errorf("device push tokens: got %v, want [token-b]", got)
	}
	if got := f.pusher.calls[1].tokens; len(got) != 1 || got[0] != "token-a" {
		t.Errorf("room push tokens: got %v, want [token-a]", got)
	}

	if len(f.subs.deleted) != 1 || f.subs.deleted[0] != "washer-7" {
		t.Errorf("device subscriptions must be cleared once, got %v", f.subs.deleted)
	}
}

func TestOnStatusChange_NoDoublePush(t *testing.T) {
	// One user subscribed at both levels: exactly one push, the device one.
	f := newFixture(busyMachine(time.Unix(1_700_000_000, 0)))
	f.subs.roomSubs = []int64{300}
	f.subs.deviceSubs = []int64{300}
	f.tokens.tokens = map[int64]string{300: "token-c"}

	if err := f.svc.OnStatusChange(context.Background(), "washer-7", laundry.StatusFinished); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.pusher.calls) != 1 {
		t.Fatalf("dual-level subscriber must receive one push, got %d", len(f.pusher.calls))
	}
	if got := f.pusher.calls[0].tokens; len(got) != 1 || got[0] != "token-c" {
		t.Errorf("push tokens: got %v, want [token-c]", got)
	}
}

func TestOnStatusChange_FinishedRecordsCycleSamples(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	f := newFixture(busyMachine(now))
	f.subs.roomSubs = []int64{1}

	if err := f.svc.OnStatusChange(context.Background(), "washer-7", laundry.StatusFinished); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []recordedSample{
		{course: "표준", phase: estimator.PhaseTotal, minutes: 45},
		{course: "표준", phase: estimator.PhaseWashing, minutes: 33},
		{course: "표준", phase: estimator.PhaseSpinning, minutes: 12},
	}
	if len(f.est.samples) != len(want) {
		t.Fatalf("got %d samples, want %d: %v", len(f.est.samples), len(want), f.est.samples)
	}
	for i, s := range want {
		if f.est.samples[i] != s {
			t.Errorf("sample %d: got %+v, want %+v", i, f.est.samples[i], s)
		}
	}
}

func TestOnStatusChange_NoCourseNoTimerNoSamples(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	machine := busyMachine(now)
	machine.CourseName = ""
	machine.CycleStartedAt = nil
	machine.SpinStartedAt = nil

	f := newFixture(machine)
	f.subs.roomSubs = []int64{1}
	f.est.stats = &estimator.CourseStats{CourseName: "표준", AvgMinutes: intPtr(45)}

	if err := f.svc.OnStatusChange(context.Background(), "washer-7", laundry.StatusFinished); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg := f.live.sent[1][0]; msg.Timer != nil || msg.AvgMinutes != nil {
		t.Errorf("machine without a course must carry no timer: %+v", msg)
	}
	if len(f.est.samples) != 0 {
		t.Errorf("machine without a course must record no samples, got %v", f.est.samples)
	}
}

func TestOnStatusChange_TokenLookupFailureDegradesPushOnly(t *testing.T) {
	f := newFixture(busyMachine(time.Unix(1_700_000_000, 0)))
	f.subs.deviceSubs = []int64{5}
	f.tokens.err = errors.New("database gone")

	if err := f.svc.OnStatusChange(context.Background(), "washer-7", laundry.StatusFinished); err != nil {
		t.Fatalf("push degradation must not fail the event: %v", err)
	}

	if len(f.live.sent[5]) == 0 {
		t.Error("live delivery must still happen when token lookup fails")
	}
	if len(f.pusher.calls) != 0 {
		t.Error("no push without tokens")
	}
	if len(f.est.samples) == 0 {
		t.Error("sample recording must survive a push failure")
	}
}

func TestOnStatusChange_MachineLookupFailure(t *testing.T) {
	f := newFixture(nil)
	f.machines.err = errors.New("not found")

	if err := f.svc.OnStatusChange(context.Background(), "ghost", laundry.StatusFinished); err == nil {
		t.Error("unknown machine must surface an error")
	}
}
