package logger

import (
	"fmt"
	"sync"
	"time"
)

// StepReporter tracks progress through a fixed number of pipeline steps.
// One reporter belongs to one analysis run.
type StepReporter struct {
	mu        sync.RWMutex
	total     int
	current   int
	message   string
	startTime time.Time
	logger    *Logger
}

// NewStepReporter creates a reporter for total steps.
func NewStepReporter(total int, log *Logger) *StepReporter {
	if log == nil {
		log = GetLogger()
	}
	return &StepReporter{
		total:     total,
		startTime: time.Now(),
		logger:    log.WithField("component", "progress"),
	}
}

// Advance moves to step and logs message with the completion percentage.
func (sr *StepReporter) Advance(step int, message string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if step > sr.total {
		step = sr.total
	}
	sr.current = step
	sr.message = message
	sr.report()
}

// report logs the current progress (must be called with lock held)
func (sr *StepReporter) report() {
	percentage := sr.percentage()
	sr.logger.WithFields(map[string]interface{}{
		"step":     sr.current,
		"total":    sr.total,
		"progress": fmt.Sprintf("%.0f%%", percentage),
		"elapsed":  time.Since(sr.startTime).Round(time.Millisecond).String(),
	}).Info(fmt.Sprintf("Step %d/%d: %s", sr.current, sr.total, sr.message))
}

func (sr *StepReporter) percentage() float64 {
	if sr.total == 0 {
		return 0
	}
	return float64(sr.current) / float64(sr.total) * 100
}

// Current returns the current step, the total and the percentage complete.
func (sr *StepReporter) Current() (step, total int, percentage float64) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.current, sr.total, sr.percentage()
}

// Message returns the message of the current step.
func (sr *StepReporter) Message() string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.message
}
