// Package workerpool runs tasks on a fixed number of goroutines with a
// bounded queue.
//
//	pool := workerpool.New(8, 64)
//	defer pool.Shutdown()
//
//	if err := pool.Submit(task); errors.Is(err, workerpool.ErrPoolFull) {
//	    // shed load
//	}
package workerpool

import (
	"errors"
	"sync"

	"github.com/shashiranjanraj/littlelemon/pkg/logger"
)

var (
	// ErrPoolFull is returned by Submit when every worker is busy and the
	// queue is at capacity.
	ErrPoolFull = errors.New("workerpool: pool is full")

	// ErrPoolClosed is returned after Shutdown.
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	wg     sync.WaitGroup
}

// New starts workers goroutines draining a queue of queue tasks.
func New(workers, queue int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}

	p := &Pool{tasks: make(chan func(), queue)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// Shutdown stops accepting tasks and waits for queued and running ones to
// finish. It is safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		run(task)
	}
}

func run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "panic", r)
		}
	}()
	task()
}
