// Package worker runs independent guidance requests concurrently and bounds
// the rate of completion calls per provider. Each request still runs its
// pipeline strictly sequentially.
package worker

import (
	"context"
	"sync"
)

// Task is one unit of batch work
type Task interface {
	Run(ctx context.Context) Outcome
}

// Outcome is what a Task produced
type Outcome interface {
	Err() error
}

// Pool runs tasks on a fixed number of goroutines
type Pool struct {
	size      int
	tasks     chan Task
	outcomes  chan Outcome
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	collected []Outcome
	collector chan struct{}
}

// NewPool creates a pool bound to parent; cancelling parent stops the workers.
// Drain and Stop are only valid after Start.
func NewPool(parent context.Context, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		size:      size,
		tasks:     make(chan Task, size*2),
		outcomes:  make(chan Outcome, size*2),
		ctx:       ctx,
		cancel:    cancel,
		collector: make(chan struct{}),
	}
}

// Start launches the workers and the outcome collector. Outcomes are drained
// while tasks are still being submitted, so Submit never waits on a full
// outcome buffer.
func (p *Pool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work()
	}
	go func() {
		defer close(p.collector)
		for o := range p.outcomes {
			p.collected = append(p.collected, o)
		}
	}()
}

func (p *Pool) work() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.outcomes <- task.Run(p.ctx)
		}
	}
}

// Submit queues a task. It returns false once the pool has been stopped.
func (p *Pool) Submit(task Task) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.tasks <- task:
		return true
	}
}

// Drain closes the queue, waits for running tasks and returns every outcome
// in completion order. Submit must not be called afterwards.
func (p *Pool) Drain() []Outcome {
	close(p.tasks)
	p.wg.Wait()
	p.closeOutcomes()
	<-p.collector
	p.cancel()
	return p.collected
}

// Stop cancels the workers without running queued tasks and returns the
// outcomes of tasks that had already finished
func (p *Pool) Stop() []Outcome {
	p.cancel()
	p.wg.Wait()
	p.closeOutcomes()
	<-p.collector
	return p.collected
}

func (p *Pool) closeOutcomes() {
	p.closeOnce.Do(func() {
		close(p.outcomes)
	})
}
