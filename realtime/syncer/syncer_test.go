package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/washday/washday/domains/laundry"
	"github.com/washday/washday/realtime/estimator"
)

type fakeLister struct {
	mu       sync.Mutex
	machines []laundry.Machine
	calls    int
	panics   bool
}

func (f *fakeLister) ListBusy(ctx context.Context) ([]laundry.Machine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panics {
		panic("storage exploded")
	}
	return f.machines, nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStats struct {
	stats map[string]*estimator.CourseStats
}

func (f *fakeStats) StatsFor(ctx context.Context, courseName string) (*estimator.CourseStats, error) {
	return f.stats[courseName], nil
}

type fakeRegistry struct {
	mu        sync.Mutex
	connected bool
	messages  []SyncMessage
}

func (f *fakeRegistry) Broadcast(payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, payload.(SyncMessage))
}

func (f *fakeRegistry) HasConnections() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeRegistry) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestRunTick_SkipsWithoutConnections(t *testing.T) {
	lister := &fakeLister{}
	registry := &fakeRegistry{connected: false}
	s := New(lister, &fakeStats{}, registry, time.Minute)

	s.runTick(context.Background())

	if lister.callCount() != 0 {
		t.Error("no listeners means no database work")
	}
	if registry.messageCount() != 0 {
		t.Error("no listeners means no broadcast")
	}
}

func TestRunTick_BroadcastsSnapshot(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	lister := &fakeLister{machines: []laundry.Machine{
		{
			ID:             1,
			UUID:           "washer-1",
			RoomID:         1,
			Status:         laundry.StatusWashing,
			CourseName:     "표준",
			CycleStartedAt: timePtr(now.Add(-10 * time.Minute)),
		},
		{
			ID:     2,
			UUID:   "washer-2",
			RoomID: 1,
			Status: laundry.StatusDrying,
		},
	}}
	stats := &fakeStats{stats: map[string]*estimator.CourseStats{
		"표준": {CourseName: "표준", AvgMinutes: intPtr(45), SampleCount: 3},
	}}
	registry := &fakeRegistry{connected: true}

	s := New(lister, stats, registry, time.Minute)
	s.now = func() time.Time { return now }

	s.runTick(context.Background())

	if registry.messageCount() != 1 {
		t.Fatalf("expected one snapshot, got %d", registry.messageCount())
	}
	msg := registry.messages[0]
	if msg.Type != "timer_sync" || msg.Timestamp != now.Unix() {
		t.Errorf("snapshot envelope: %+v", msg)
	}
	if len(msg.Machines) != 2 {
		t.Fatalf("expected both busy machines, got %d", len(msg.Machines))
	}
	if msg.Machines[0].Timer == nil || *msg.Machines[0].Timer != 35 {
		t.Errorf("machine 1 timer: got %v, want 35", msg.Machines[0].Timer)
	}
	if msg.Machines[1].Timer != nil {
		t.Errorf("machine without a course has no timer, got %v", msg.Machines[1].Timer)
	}
}

func TestRunTick_PanicDoesNotEscape(t *testing.T) {
	lister := &fakeLister{panics: true}
	registry := &fakeRegistry{connected: true}
	s := New(lister, &fakeStats{}, registry, time.Minute)

	// Must not propagate; the loop relies on this.
	s.runTick(context.Background())
}

func TestSchedulerLifecycle(t *testing.T) {
	lister := &fakeLister{machines: []laundry.Machine{{ID: 1, UUID: "w", Status: laundry.StatusWashing}}}
	registry := &fakeRegistry{connected: true}
	s := New(lister, &fakeStats{}, registry, 5*time.Millisecond)

	s.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for registry.messageCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler never ticked")
		case <-time.After(time.Millisecond):
		}
	}

	s.Stop()
	after := registry.messageCount()
	time.Sleep(20 * time.Millisecond)
	if registry.messageCount() != after {
		t.Error("scheduler kept broadcasting after Stop")
	}

	// Idempotent.
	s.Stop()
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	lister := &fakeLister{}
	registry := &fakeRegistry{connected: true}
	s := New(lister, &fakeStats{}, registry, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on context cancellation")
	}
}
