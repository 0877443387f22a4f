package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"keyword-research-go/pkg/logger"
)

// worker drains the shared queue of a WorkerPool
type worker struct {
	id             int
	queue          <-chan Task
	defaultTimeout time.Duration
	busy           atomic.Bool
	log            *logger.Logger
}

func newWorker(id int, queue <-chan Task, defaultTimeout time.Duration, log *logger.Logger) *worker {
	return &worker{
		id:             id,
		queue:          queue,
		defaultTimeout: defaultTimeout,
		log:            log.WithField("worker_id", id),
	}
}

// start runs tasks until the queue is closed or the pool context is cancelled
func (w *worker) start(ctx context.Context, metrics *PoolMetrics) {
	w.log.Debug("Worker started")
	defer w.log.Debug("Worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-w.queue:
			if !ok {
				return
			}
			w.busy.Store(true)
			result := w.execute(task)
			w.busy.Store(false)

			metrics.record(result)
			if task.notify != nil {
				task.notify <- result
			}
		}
	}
}

// execute runs task under its caller's context, bounded by the task or worker timeout.
func (w *worker) execute(task Task) Result {
	timeout := task.Timeout
	if timeout <= 0 {
		timeout = w.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(task.parent, timeout)
	defer cancel()

	start := time.Now()
	err := w.call(ctx, task)
	result := Result{TaskID: task.ID, Error: err, Duration: time.Since(start)}

	entry := w.log.WithFields(map[string]interface{}{
		"task_id":  task.ID,
		"duration": result.Duration.String(),
	})
	if err != nil {
		entry.WithError(err).Warn("Task failed")
	} else {
		entry.Debug("Task done")
	}
	return result
}

// call invokes task.Fn, converting a panic into *PanicError.
func (w *worker) call(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.WithField("task_id", task.ID).WithField("panic", fmt.Sprint(r)).Error("Task panicked")
			err = &PanicError{Value: r}
		}
	}()
	return task.Fn(ctx)
}

func (w *worker) isActive() bool {
	return w.busy.Load()
}

// PanicError carries the value recovered from a panicking task
type PanicError struct {
	Value interface{}
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", pe.Value)
}
