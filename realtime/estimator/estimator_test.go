package estimator

import (
	"context"
	"testing"
	"time"

	"github.com/washday/washday/domains/laundry"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestRecordSample_Bootstrap(t *testing.T) {
	store := NewMemoryStore()
	est := New(store)
	ctx := context.Background()

	est.RecordSample(ctx, "quick", PhaseTotal, 28)

	stats, _ := store.Get(ctx, "quick")
	if stats == nil || stats.AvgMinutes == nil {
		t.Fatal("expected stats after first sample")
	}
	if *stats.AvgMinutes != 28 || stats.SampleCount != 1 {
		t.Errorf("bootstrap: got avg=%d count=%d, want 28/1", *stats.AvgMinutes, stats.SampleCount)
	}
}

func TestRecordSample_RejectsNonPositive(t *testing.T) {
	store := NewMemoryStore()
	est := New(store)
	ctx := context.Background()

	est.RecordSample(ctx, "quick", PhaseTotal, 0)
	est.RecordSample(ctx, "quick", PhaseTotal, -5)

	if stats, _ := store.Get(ctx, "quick"); stats != nil {
		t.Error("non-positive samples must not create a stat")
	}
}

func TestRecordSample_StandardCourseScenario(t *testing.T) {
	store := NewMemoryStore()
	est := New(store)
	ctx := context.Background()
	course := "표준"

	// Cycle 1: no prior average, accepted unconditionally.
	est.RecordSample(ctx, course, PhaseTotal, 40)
	stats, _ := store.Get(ctx, course)
	if *stats.AvgMinutes != 40 || stats.SampleCount != 1 {
		t.Fatalf("cycle 1: got avg=%d count=%d, want 40/1", *stats.AvgMinutes, stats.SampleCount)
	}

	// Cycle 2: 45 is inside [20, 60] -> floor((40+45)/2) = 42.
	est.RecordSample(ctx, course, PhaseTotal, 45)
	stats, _ = store.Get(ctx, course)
	if *stats.AvgMinutes != 42 || stats.SampleCount != 2 {
		t.Fatalf("cycle 2: got avg=%d count=%d, want 42/2", *stats.AvgMinutes, stats.SampleCount)
	}

	// Cycle 3: 100 is outside [21, 63] -> rejected, stat unchanged.
	est.RecordSample(ctx, course, PhaseTotal, 100)
	stats, _ = store.Get(ctx, course)
	if *stats.AvgMinutes != 42 || stats.SampleCount != 2 {
		t.Fatalf("cycle 3: got avg=%d count=%d, want unchanged 42/2", *stats.AvgMinutes, stats.SampleCount)
	}
}

func TestRecordSample_OutlierBandBoundariesInclusive(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		sample     int
		wantCount  int
		wantChange bool
	}{
		{20, 2, true},  // exactly avg*0.5
		{60, 2, true},  // exactly avg*1.5
		{19, 1, false}, // just below
		{61, 1, false}, // just above
	} {
		store := NewMemoryStore()
		est := New(store)
		est.RecordSample(ctx, "c", PhaseTotal, 40)
		est.RecordSample(ctx, "c", PhaseTotal, tc.sample)

		stats, _ := store.Get(ctx, "c")
		if stats.SampleCount != tc.wantCount {
			t.Errorf("sample %d: got count=%d, want %d", tc.sample, stats.SampleCount, tc.wantCount)
		}
		if !tc.wantChange && *stats.AvgMinutes != 40 {
			t.Errorf("sample %d: rejected outlier must not mutate avg, got %d", tc.sample, *stats.AvgMinutes)
		}
	}
}

func TestRecordSample_PhasesAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	est := New(store)
	ctx := context.Background()

	est.RecordSample(ctx, "표준", PhaseTotal, 45)
	est.RecordSample(ctx, "표준", PhaseWashing, 30)
	est.RecordSample(ctx, "표준", PhaseSpinning, 12)

	stats, _ := store.Get(ctx, "표준")
	if *stats.AvgMinutes != 45 || *stats.AvgWashingMinutes != 30 || *stats.AvgSpinningMinutes != 12 {
		t.Errorf("phases must be tracked independently: %+v", stats)
	}
	if stats.SampleCount != 1 || stats.WashingCount != 1 || stats.SpinningCount != 1 {
		t.Errorf("each phase keeps its own count: %+v", stats)
	}
}

func TestRemainingMinutes(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	// No average: no estimate, not invalid.
	if got, invalid := RemainingMinutes(timePtr(now), nil, now); got != nil || invalid {
		t.Errorf("nil avg: got (%v, %v), want (nil, false)", got, invalid)
	}

	// No start marker: full duration.
	if got, invalid := RemainingMinutes(nil, intPtr(40), now); got == nil || *got != 40 || invalid {
		t.Errorf("nil start: got (%v, %v), want (40, false)", got, invalid)
	}

	// Clock skew: start in the future is invalid, not clamped.
	future := now.Add(time.Minute)
	if got, invalid := RemainingMinutes(&future, intPtr(40), now); got != nil || !invalid {
		t.Errorf("negative elapsed: got (%v, %v), want (nil, true)", got, invalid)
	}

	// Normal case: 10 minutes elapsed of 40.
	start := now.Add(-10 * time.Minute)
	if got, invalid := RemainingMinutes(&start, intPtr(40), now); got == nil || *got != 30 || invalid {
		t.Errorf("elapsed 10m: got (%v, %v), want (30, false)", got, invalid)
	}

	// Elapsed minutes floor: 99 seconds is 1 minute.
	start = now.Add(-99 * time.Second)
	if got, _ := RemainingMinutes(&start, intPtr(40), now); got == nil || *got != 39 {
		t.Errorf("floor: got %v, want 39", got)
	}

	// Overrun: remaining below zero is invalid, never negative.
	start = now.Add(-50 * time.Minute)
	if got, invalid := RemainingMinutes(&start, intPtr(40), now); got != nil || !invalid {
		t.Errorf("overrun: got (%v, %v), want (nil, true)", got, invalid)
	}

	// Boundary: exactly spent is zero remaining, valid.
	start = now.Add(-40 * time.Minute)
	if got, invalid := RemainingMinutes(&start, intPtr(40), now); got == nil || *got != 0 || invalid {
		t.Errorf("exact: got (%v, %v), want (0, false)", got, invalid)
	}
}

func TestComputeTimer_PhaseToAverageMapping(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cycleStart := now.Add(-20 * time.Minute)
	spinStart := now.Add(-5 * time.Minute)

	stats := &CourseStats{
		CourseName:         "표준",
		AvgMinutes:         intPtr(45),
		SampleCount:        3,
		AvgWashingMinutes:  intPtr(30),
		WashingCount:       3,
		AvgSpinningMinutes: intPtr(12),
		SpinningCount:      3,
	}

	washing := laundry.Machine{
		Status:         laundry.StatusWashing,
		CourseName:     "표준",
		CycleStartedAt: timePtr(cycleStart),
		SpinStartedAt:  timePtr(spinStart),
	}
	info := ComputeTimer(washing, stats, now)
	if info.Timer == nil || *info.Timer != 25 {
		t.Errorf("WASHING uses the full-course average from cycle start: got %v, want 25", info.Timer)
	}
	if info.ElapsedMinutes == nil || *info.ElapsedMinutes != 20 {
		t.Errorf("WASHING elapsed: got %v, want 20", info.ElapsedMinutes)
	}

	spinning := washing
	spinning.Status = laundry.StatusSpinning
	info = ComputeTimer(spinning, stats, now)
	// SPINNING maps to the washing-segment average against the spin start.
	if info.Timer == nil || *info.Timer != 25 {
		t.Errorf("SPINNING timer: got %v, want 25", info.Timer)
	}
	if info.AvgMinutes == nil || *info.AvgMinutes != 30 {
		t.Errorf("SPINNING avg: got %v, want washing-segment 30", info.AvgMinutes)
	}
	if info.ElapsedMinutes == nil || *info.ElapsedMinutes != 5 {
		t.Errorf("SPINNING elapsed: got %v, want 5", info.ElapsedMinutes)
	}
}

func TestComputeTimer_NoCourseShortCircuits(t *testing.T) {
	now := time.Now()
	m := laundry.Machine{Status: laundry.StatusWashing}

	if info := ComputeTimer(m, nil, now); info.Timer != nil || info.AvgMinutes != nil {
		t.Error("machine with no stats must have no timer")
	}

	m.CourseName = ""
	stats := &CourseStats{CourseName: "표준", AvgMinutes: intPtr(45)}
	if info := ComputeTimer(m, stats, now); info.Timer != nil {
		t.Error("machine with no course must have no timer")
	}
}
