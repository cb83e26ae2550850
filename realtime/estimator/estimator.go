package estimator

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/washday/washday/domains/laundry"
)

// Phase identifies which duration of a cycle a sample measures.
type Phase string

const (
	PhaseTotal    Phase = "total"
	PhaseWashing  Phase = "washing"
	PhaseSpinning Phase = "spinning"
)

// Outlier band: a sample is accepted only inside [avg*0.5, avg*1.5]. A single
// malfunctioning cycle (stuck sensor, premature finish) must not permanently
// skew the estimate.
const (
	outlierLowerFactor = 0.5
	outlierUpperFactor = 1.5
)

// CourseStats is the per-course duration record: one average and sample
// count per phase.
type CourseStats struct {
	CourseName         string
	AvgMinutes         *int
	SampleCount        int
	AvgWashingMinutes  *int
	WashingCount       int
	AvgSpinningMinutes *int
	SpinningCount      int
}

func (s *CourseStats) phase(p Phase) (*int, int) {
	switch p {
	case PhaseWashing:
		return s.AvgWashingMinutes, s.WashingCount
	case PhaseSpinning:
		return s.AvgSpinningMinutes, s.SpinningCount
	default:
		return s.AvgMinutes, s.SampleCount
	}
}

func (s *CourseStats) setPhase(p Phase, avg int, count int) {
	switch p {
	case PhaseWashing:
		s.AvgWashingMinutes = &avg
		s.WashingCount = count
	case PhaseSpinning:
		s.AvgSpinningMinutes = &avg
		s.SpinningCount = count
	default:
		s.AvgMinutes = &avg
		s.SampleCount = count
	}
}

// StatsStore persists course statistics. Get returns (nil, nil) when the
// course has no record yet.
type StatsStore interface {
	Get(ctx context.Context, courseName string) (*CourseStats, error)
	Save(ctx context.Context, stats *CourseStats) error
}

// Estimator maintains rolling, outlier-filtered average cycle durations per
// course and phase. Write volume is one sample per finished cycle, so a
// single mutex over the read-modify-write is enough to prevent lost updates.
type Estimator struct {
	mu    sync.Mutex
	store StatsStore
}

func New(store StatsStore) *Estimator {
	return &Estimator{store: store}
}

// RecordSample folds one measured duration into the course average.
// Non-positive samples are rejected. For an existing stat the sample is
// rejected as an outlier when it falls outside the band around the current
// average; the stored value is left untouched either way.
func (e *Estimator) RecordSample(ctx context.Context, courseName string, phase Phase, elapsedMinutes int) {
	if courseName == "" {
		return
	}
	if elapsedMinutes <= 0 {
		logrus.Warnf("[ESTIMATOR] Rejecting non-positive sample %dm for course=%s phase=%s", elapsedMinutes, courseName, phase)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stats, err := e.store.Get(ctx, courseName)
	if err != nil {
		logrus.WithError(err).Warnf("[ESTIMATOR] Stats lookup failed for course=%s", courseName)
		return
	}
	if stats == nil {
		stats = &CourseStats{CourseName: courseName}
	}

	avg, count := stats.phase(phase)
	if avg == nil || count == 0 {
		stats.setPhase(phase, elapsedMinutes, 1)
	} else {
		lower := float64(*avg) * outlierLowerFactor
		upper := float64(*avg) * outlierUpperFactor
		sample := float64(elapsedMinutes)
		if sample < lower || sample > upper {
			logrus.Warnf("[ESTIMATOR] Rejecting outlier %dm for course=%s phase=%s (band [%.0f, %.0f])",
				elapsedMinutes, courseName, phase, lower, upper)
			return
		}
		newAvg := (*avg*count + elapsedMinutes) / (count + 1)
		stats.setPhase(phase, newAvg, count+1)
	}

	if err := e.store.Save(ctx, stats); err != nil {
		logrus.WithError(err).Warnf("[ESTIMATOR] Stats save failed for course=%s", courseName)
	}
}

// StatsFor reads the stored stats for a course; (nil, nil) when the course
// is unknown or empty.
func (e *Estimator) StatsFor(ctx context.Context, courseName string) (*CourseStats, error) {
	if courseName == "" {
		return nil, nil
	}
	return e.store.Get(ctx, courseName)
}

// RemainingMinutes computes the minutes left in a phase given its start time
// and the average duration. The second return value flags an invalid
// elapsed-time computation: negative elapsed (clock skew) or a cycle that
// has overrun its estimate. Callers must surface invalid results as "no
// timer", never as a negative number.
func RemainingMinutes(phaseStart *time.Time, avgMinutes *int, now time.Time) (*int, bool) {
	if avgMinutes == nil {
		return nil, false
	}
	if phaseStart == nil {
		full := *avgMinutes
		return &full, false
	}

	elapsedSeconds := now.Unix() - phaseStart.Unix()
	if elapsedSeconds < 0 {
		return nil, true
	}

	elapsedMinutes := int(elapsedSeconds / 60)
	remaining := *avgMinutes - elapsedMinutes
	if remaining < 0 {
		return nil, true
	}
	return &remaining, false
}

// TimerInfo is the computed view of one machine's remaining time.
type TimerInfo struct {
	Timer          *int
	AvgMinutes     *int
	ElapsedMinutes *int
}

// ComputeTimer selects the phase-appropriate average and start marker for a
// machine and evaluates RemainingMinutes.
//
// The mapping is intentionally asymmetric: SPINNING uses the washing-segment
// average against the spin-phase start marker, while every other busy status
// uses the full-course average against the cycle start marker. Do not
// "normalize" this.
func ComputeTimer(m laundry.Machine, stats *CourseStats, now time.Time) TimerInfo {
	if stats == nil || m.CourseName == "" {
		return TimerInfo{}
	}

	var avg *int
	var start *time.Time
	if m.Status == laundry.StatusSpinning {
		avg = stats.AvgWashingMinutes
		start = m.SpinStartedAt
	} else {
		avg = stats.AvgMinutes
		start = m.CycleStartedAt
	}

	timer, invalid := RemainingMinutes(start, avg, now)
	if invalid {
		timer = nil
	}

	var elapsed *int
	if start != nil {
		if seconds := now.Unix() - start.Unix(); seconds >= 0 {
			minutes := int(seconds / 60)
			elapsed = &minutes
		}
	}

	return TimerInfo{Timer: timer, AvgMinutes: avg, ElapsedMinutes: elapsed}
}
