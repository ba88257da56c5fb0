// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coloring-book-generator/internal/domain"

	"github.com/rs/zerolog"
)

// Task is a unit of work run by the pool. It is an alias so plain func
// literals satisfy interfaces declared in terms of the func type.
type Task = func(ctx context.Context) error

// Pool runs every submitted task on its own goroutine right away. Pages
// retried by the user are dispatched here so a retry never waits on the
// batch loop or on other retries. Nothing is queued: past maxInFlight a
// task is rejected.
type Pool struct {
	wg          sync.WaitGroup
	mu          sync.Mutex
	ctx         context.Context
	maxInFlight int
	inFlight    int
	seq         int
	stopped     bool
	log         *zerolog.Logger
}

// NewPool: maxInFlight <= 0 means no limit.
func NewPool(maxInFlight int, log *zerolog.Logger) *Pool {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Pool{ctx: context.Background(), maxInFlight: maxInFlight, log: log}
}

// Start sets the context handed to tasks submitted from now on.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()
}

// InFlight is the number of tasks currently running.
func (p *Pool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// Submit starts the task without blocking.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return fmt.Errorf("%w: pool stopped", domain.ErrDispatchRejected)
	}
	if p.maxInFlight > 0 && p.inFlight >= p.maxInFlight {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d tasks in flight", domain.ErrDispatchRejected, p.inFlight)
	}
	p.inFlight++
	p.seq++
	id, ctx := p.seq, p.ctx
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			p.inFlight--
			p.mu.Unlock()
			p.wg.Done()
		}()
		p.run(ctx, id, task)
	}()
	return nil
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Int("task", id).Interface("panic", rec).Msg("worker task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Warn().Int("task", id).Err(err).Msg("worker task error")
	}
}

// Stop rejects new tasks and waits for in-flight ones.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.wg.Wait()
}
