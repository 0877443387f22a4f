package worker

import (
	"sync/atomic"
	"time"
)

// PoolMetrics tracks upstream fetch counts and latencies
type PoolMetrics struct {
	tasksSubmitted atomic.Uint64
	tasksCompleted atomic.Uint64
	tasksFailed    atomic.Uint64
	tasksRejected  atomic.Uint64

	totalDuration atomic.Uint64 // nanoseconds
	minDuration   atomic.Uint64
	maxDuration   atomic.Uint64

	startTime time.Time
}

// NewPoolMetrics creates a new metrics instance
func NewPoolMetrics() *PoolMetrics {
	return &PoolMetrics{startTime: time.Now()}
}

func (pm *PoolMetrics) IncrementTasksSubmitted() { pm.tasksSubmitted.Add(1) }

func (pm *PoolMetrics) IncrementTasksCompleted() { pm.tasksCompleted.Add(1) }

func (pm *PoolMetrics) IncrementTasksFailed() { pm.tasksFailed.Add(1) }

func (pm *PoolMetrics) IncrementTasksRejected() { pm.tasksRejected.Add(1) }

// RecordTaskDuration records task execution duration
func (pm *PoolMetrics) RecordTaskDuration(duration time.Duration) {
	nanos := uint64(duration.Nanoseconds())
	pm.totalDuration.Add(nanos)

	for {
		current := pm.minDuration.Load()
		if current != 0 && nanos >= current {
			break
		}
		if pm.minDuration.CompareAndSwap(current, nanos) {
			break
		}
	}

	for {
		current := pm.maxDuration.Load()
		if nanos <= current {
			break
		}
		if pm.maxDuration.CompareAndSwap(current, nanos) {
			break
		}
	}
}

// record counts a finished task. A nil receiver records nothing.
func (pm *PoolMetrics) record(result Result) {
	if pm == nil {
		return
	}
	if result.Error != nil {
		pm.IncrementTasksFailed()
	} else {
		pm.IncrementTasksCompleted()
	}
	pm.RecordTaskDuration(result.Duration)
}

// GetSnapshot returns a snapshot of current metrics
func (pm *PoolMetrics) GetSnapshot() MetricsSnapshot {
	submitted := pm.tasksSubmitted.Load()
	completed := pm.tasksCompleted.Load()
	failed := pm.tasksFailed.Load()
	finished := completed + failed

	var avgDuration time.Duration
	if finished > 0 {
		avgDuration = time.Duration(pm.totalDuration.Load() / finished)
	}

	var successRate float64
	if finished > 0 {
		successRate = float64(completed) / float64(finished)
	}

	return MetricsSnapshot{
		TasksSubmitted:  submitted,
		TasksCompleted:  completed,
		TasksFailed:     failed,
		TasksRejected:   pm.tasksRejected.Load(),
		SuccessRate:     successRate,
		AverageDuration: avgDuration,
		MinDuration:     time.Duration(pm.minDuration.Load()),
		MaxDuration:     time.Duration(pm.maxDuration.Load()),
		Uptime:          time.Since(pm.startTime),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	TasksSubmitted  uint64        `json:"tasks_submitted"`
	TasksCompleted  uint64        `json:"tasks_completed"`
	TasksFailed     uint64        `json:"tasks_failed"`
	TasksRejected   uint64        `json:"tasks_rejected"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
	MinDuration     time.Duration `json:"min_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	Uptime          time.Duration `json:"uptime"`
}
