package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type stubOutcome struct {
	err error
}

func (o *stubOutcome) Err() error {
	return o.err
}

type stubTask struct {
	duration time.Duration
	fail     bool
	ran      *int32
}

func (t *stubTask) Run(ctx context.Context) Outcome {
	if t.ran != nil {
		atomic.AddInt32(t.ran, 1)
	}
	if t.duration > 0 {
		select {
		case <-time.After(t.duration):
		case <-ctx.Done():
			return &stubOutcome{err: ctx.Err()}
		}
	}
	if t.fail {
		return &stubOutcome{err: errors.New("task error")}
	}
	return &stubOutcome{}
}

func TestNewPool(t *testing.T) {
	if p := NewPool(context.Background(), 5); p.size != 5 {
		t.Errorf("Expected 5 workers, got %d", p.size)
	}
	if p := NewPool(context.Background(), 0); p.size != 1 {
		t.Errorf("Expected 1 worker for 0 input, got %d", p.size)
	}
	if p := NewPool(context.Background(), -1); p.size != 1 {
		t.Errorf("Expected 1 worker for negative input, got %d", p.size)
	}
}

func TestPool_RunsEveryTask(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := NewPool(context.Background(), 2)
	pool.Start()

	var ran int32
	count := 50 // Well past both channel buffers
	for i := 0; i < count; i++ {
		pool.Submit(&stubTask{ran: &ran, fail: i%5 == 0})
	}

	outcomes := pool.Drain()

	if len(outcomes) != count {
		t.Errorf("Expected %d outcomes, got %d", count, len(outcomes))
	}
	if atomic.LoadInt32(&ran) != int32(count) {
		t.Errorf("Expected %d runs, got %d", count, ran)
	}
	failed := 0
	for _, o := range outcomes {
		if o.Err() != nil {
			failed++
		}
	}
	if failed != 10 {
		t.Errorf("Expected 10 failed outcomes, got %d", failed)
	}
}

type trackingTask struct {
	start func()
	end   func()
}

func (t *trackingTask) Run(ctx context.Context) Outcome {
	t.start()
	time.Sleep(5 * time.Millisecond)
	t.end()
	return &stubOutcome{}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	workers := 4
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var current, peak int32
	var mu sync.Mutex
	for i := 0; i < 40; i++ {
		pool.Submit(&trackingTask{
			start: func() {
				n := atomic.AddInt32(&current, 1)
				mu.Lock()
				if n > peak {
					peak = n
				}
				mu.Unlock()
			},
			end: func() { atomic.AddInt32(&current, -1) },
		})
	}
	pool.Drain()

	mu.Lock()
	defer mu.Unlock()
	if peak > int32(workers) {
		t.Errorf("Peak concurrency %d exceeded %d workers", peak, workers)
	}
}

func TestPool_ParentCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	pool.Submit(&stubTask{duration: time.Minute})
	cancel()

	outcomes := pool.Stop()
	if pool.Submit(&stubTask{}) {
		t.Error("Expected Submit to refuse work after cancellation")
	}
	for _, o := range outcomes {
		if !errors.Is(o.Err(), context.Canceled) {
			t.Errorf("Expected cancelled outcome, got %v", o.Err())
		}
	}
}
