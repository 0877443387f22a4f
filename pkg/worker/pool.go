package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"keyword-research-go/pkg/logger"
)

// ErrPoolStopped is returned for work handed to a stopped pool.
var ErrPoolStopped = errors.New("worker pool is stopped")

// Task represents a unit of work to be executed
type Task struct {
	ID      string
	Fn      func(ctx context.Context) error
	Timeout time.Duration

	parent context.Context
	notify chan<- Result
}

// Result represents the result of task execution
type Result struct {
	TaskID   string
	Error    error
	Duration time.Duration
}

// WorkerPoolConfig holds configuration for the worker pool
type WorkerPoolConfig struct {
	MaxWorkers      int           `mapstructure:"max_workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	WorkerTimeout   time.Duration `mapstructure:"worker_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableMetrics   bool          `mapstructure:"enable_metrics"`
}

// DefaultWorkerPoolConfig returns the default configuration
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MaxWorkers:      runtime.NumCPU() * 2,
		QueueSize:       256,
		WorkerTimeout:   90 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		EnableMetrics:   true,
	}
}

// WorkerPool runs upstream fetches on a fixed set of goroutines shared by all analysis runs
type WorkerPool struct {
	config    WorkerPoolConfig
	taskQueue chan Task
	workers   []*worker
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	log       *logger.Logger

	// Metrics
	metrics *PoolMetrics

	// State management
	mu      sync.RWMutex
	started atomic.Bool
	stopped bool
}

// NewWorkerPool creates a new worker pool with the given configuration
func NewWorkerPool(config WorkerPoolConfig) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		config:    config,
		taskQueue: make(chan Task, config.QueueSize),
		workers:   make([]*worker, 0, config.MaxWorkers),
		ctx:       ctx,
		cancel:    cancel,
		log:       logger.GetLogger().WithField("component", "worker_pool"),
	}

	if config.EnableMetrics {
		pool.metrics = NewPoolMetrics()
	}

	return pool
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() error {
	if !wp.started.CompareAndSwap(false, true) {
		return fmt.Errorf("worker pool already started")
	}

	wp.log.WithField("max_workers", wp.config.MaxWorkers).Info("Starting worker pool")

	for i := 0; i < wp.config.MaxWorkers; i++ {
		w := newWorker(i, wp.taskQueue, wp.config.WorkerTimeout, wp.log)
		wp.workers = append(wp.workers, w)

		wp.wg.Add(1)
		go func(worker *worker) {
			defer wp.wg.Done()
			worker.start(wp.ctx, wp.metrics)
		}(w)
	}

	return nil
}

// Submit adds a task to the worker pool queue
func (wp *WorkerPool) Submit(task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.stopped {
		return ErrPoolStopped
	}
	if !wp.started.Load() {
		return fmt.Errorf("worker pool not started")
	}

	if task.Timeout == 0 {
		task.Timeout = wp.config.WorkerTimeout
	}
	if task.parent == nil {
		task.parent = context.Background()
	}

	select {
	case wp.taskQueue <- task:
		if wp.metrics != nil {
			wp.metrics.IncrementTasksSubmitted()
		}
		return nil
	default:
		if wp.metrics != nil {
			wp.metrics.IncrementTasksRejected()
		}
		return fmt.Errorf("task queue is full")
	}
}

// RunAll executes tasks concurrently and waits for all of them. The first
// failure to arrive cancels the remaining tasks and is returned, so sibling
// cancellations never mask the original cause.
func (wp *WorkerPool) RunAll(ctx context.Context, tasks []Task) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Result, len(tasks))
	var firstErr error
	pending := 0

	for _, task := range tasks {
		task.parent = runCtx
		task.notify = results
		if err := wp.Submit(task); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("submit %s: %w", task.ID, err)
			}
			cancel()
			continue
		}
		pending++
	}

	for pending > 0 {
		select {
		case res := <-results:
			pending--
			if res.Error != nil && firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", res.TaskID, res.Error)
				cancel()
			}
		case <-wp.ctx.Done():
			return ErrPoolStopped
		}
	}
	return firstErr
}

// Stop gracefully shuts down the worker pool
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return nil
	}
	wp.stopped = true
	close(wp.taskQueue)
	wp.mu.Unlock()

	wp.log.Info("Stopping worker pool")

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.log.Info("Worker pool stopped gracefully")
	case <-time.After(wp.config.ShutdownTimeout):
		wp.log.Warn("Worker pool shutdown timeout exceeded")
	}

	wp.cancel()
	return nil
}

// Metrics returns a snapshot of the pool metrics
func (wp *WorkerPool) Metrics() MetricsSnapshot {
	if wp.metrics == nil {
		return MetricsSnapshot{}
	}
	return wp.metrics.GetSnapshot()
}

// QueueSize returns current queue size
func (wp *WorkerPool) QueueSize() int {
	return len(wp.taskQueue)
}

// ActiveWorkers returns number of workers currently running a task
func (wp *WorkerPool) ActiveWorkers() int {
	activeCount := 0
	for _, w := range wp.workers {
		if w.isActive() {
			activeCount++
		}
	}
	return activeCount
}
