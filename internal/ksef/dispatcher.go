package ksef

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrQueueFull = errors.New("ksef queue is full")
	ErrStopped   = errors.New("ksef dispatcher is stopped")
)

// Processor forwards one stored invoice to the gateway.
type Processor interface {
	Process(ctx context.Context, invoiceID uuid.UUID) error
}

// Dispatcher queues invoice ids and hands them to a fixed number of workers.
type Dispatcher struct {
	jobs    chan uuid.UUID
	workers int

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewDispatcher(workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		jobs:    make(chan uuid.UUID, queueSize),
		workers: workers,
	}
}

// Start launches the workers. They run until Stop is called or ctx ends.
func (d *Dispatcher) Start(ctx context.Context, p Processor) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(worker int) {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id, ok := <-d.jobs:
					if !ok {
						return
					}
					if err := p.Process(ctx, id); err != nil {
						log.Printf("ksef worker %d: invoice %s: %v", worker, id, err)
					}
				}
			}
		}(i + 1)
	}
}

// Enqueue schedules an invoice without blocking.
func (d *Dispatcher) Enqueue(id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	select {
	case d.jobs <- id:
		return nil
	default:
		return ErrQueueFull
	}
}

// Depth is the number of invoices waiting for a worker.
func (d *Dispatcher) Depth() int {
	return len(d.jobs)
}

// Capacity is the queue size.
func (d *Dispatcher) Capacity() int {
	return cap(d.jobs)
}

// Stop refuses new work, lets the workers drain the queue and waits for them.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.jobs)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
