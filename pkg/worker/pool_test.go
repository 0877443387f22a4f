package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPool(t *testing.T, workers int) *WorkerPool {
	t.Helper()
	cfg := DefaultWorkerPoolConfig()
	cfg.MaxWorkers = workers
	cfg.QueueSize = 16
	cfg.WorkerTimeout = time.Second
	cfg.ShutdownTimeout = time.Second

	pool := NewWorkerPool(cfg)
	if err := pool.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = pool.Stop() })
	return pool
}

func TestWorkerPool_RunAll(t *testing.T) {
	pool := newTestPool(t, 3)

	var ran atomic.Int32
	tasks := make([]Task, 0, 3)
	for _, id := range []string{"search_volume", "related_keywords", "serp"} {
		tasks = append(tasks, Task{ID: id, Fn: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}})
	}

	if err := pool.RunAll(context.Background(), tasks); err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if got := ran.Load(); got != 3 {
		t.Errorf("ran %d tasks, want 3", got)
	}

	snapshot := pool.Metrics()
	if snapshot.TasksSubmitted != 3 || snapshot.TasksCompleted != 3 {
		t.Errorf("metrics = %+v, want 3 submitted and completed", snapshot)
	}
}

func TestWorkerPool_RunAllReturnsEarliestFailure(t *testing.T) {
	pool := newTestPool(t, 3)
	errLate := errors.New("late failure")
	errEarly := errors.New("early failure")

	tasks := []Task{
		{ID: "ok", Fn: func(ctx context.Context) error { return nil }},
		{ID: "late", Fn: func(ctx context.Context) error {
			time.Sleep(50 * time.Millisecond)
			return errLate
		}},
		{ID: "early", Fn: func(ctx context.Context) error { return errEarly }},
	}

	err := pool.RunAll(context.Background(), tasks)
	if !errors.Is(err, errEarly) {
		t.Fatalf("RunAll() error = %v, want %v", err, errEarly)
	}
}

func TestWorkerPool_PanicNotMaskedBySiblingCancellation(t *testing.T) {
	pool := newTestPool(t, 3)

	blocking := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	tasks := []Task{
		{ID: "search_volume", Fn: blocking},
		{ID: "related_keywords", Fn: blocking},
		{ID: "serp", Fn: func(ctx context.Context) error { panic("bad serp page") }},
	}

	err := pool.RunAll(context.Background(), tasks)
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("RunAll() error = %v, want PanicError", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("RunAll() error = %v, should not be a sibling cancellation", err)
	}
}

func TestWorkerPool_RunAllCancelsSiblingsOnFailure(t *testing.T) {
	pool := newTestPool(t, 2)
	boom := errors.New("boom")

	var cancelled atomic.Bool
	tasks := []Task{
		{ID: "slow", Fn: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				cancelled.Store(true)
				return ctx.Err()
			case <-time.After(2 * time.Second):
				return nil
			}
		}},
		{ID: "failing", Fn: func(ctx context.Context) error { return boom }},
	}

	err := pool.RunAll(context.Background(), tasks)
	if !errors.Is(err, boom) {
		t.Fatalf("RunAll() error = %v, want %v", err, boom)
	}
	if !cancelled.Load() {
		t.Error("slow task was not cancelled")
	}
}

func TestWorkerPool_PanicBecomesError(t *testing.T) {
	pool := newTestPool(t, 1)

	err := pool.RunAll(context.Background(), []Task{
		{ID: "panics", Fn: func(ctx context.Context) error { panic("bad batch") }},
	})

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("RunAll() error = %v, want PanicError", err)
	}
	if panicErr.Value != "bad batch" {
		t.Errorf("panic value = %v", panicErr.Value)
	}
}

func TestWorkerPool_TaskSeesCallerContext(t *testing.T) {
	pool := newTestPool(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.RunAll(ctx, []Task{
		{ID: "cancelled", Fn: func(ctx context.Context) error { return ctx.Err() }},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunAll() error = %v, want context.Canceled", err)
	}
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	cfg := DefaultWorkerPoolConfig()
	cfg.MaxWorkers = 1
	pool := NewWorkerPool(cfg)
	if err := pool.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := pool.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	err := pool.Submit(Task{ID: "late", Fn: func(ctx context.Context) error { return nil }})
	if !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Submit() error = %v, want ErrPoolStopped", err)
	}
	if err := pool.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWorkerPool_StartTwice(t *testing.T) {
	pool := newTestPool(t, 1)
	if err := pool.Start(); err == nil {
		t.Error("second Start() succeeded, want error")
	}
}

func TestPoolMetrics_Durations(t *testing.T) {
	m := NewPoolMetrics()
	m.IncrementTasksSubmitted()
	m.IncrementTasksSubmitted()
	m.IncrementTasksCompleted()
	m.IncrementTasksFailed()
	m.RecordTaskDuration(30 * time.Millisecond)
	m.RecordTaskDuration(10 * time.Millisecond)

	s := m.GetSnapshot()
	if s.MinDuration != 10*time.Millisecond || s.MaxDuration != 30*time.Millisecond {
		t.Errorf("min/max = %v/%v", s.MinDuration, s.MaxDuration)
	}
	if s.AverageDuration != 20*time.Millisecond {
		t.Errorf("average = %v, want 20ms", s.AverageDuration)
	}
	if s.SuccessRate != 0.5 {
		t.Errorf("success rate = %v, want 0.5", s.SuccessRate)
	}
}
