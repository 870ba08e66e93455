package pipeline

import (
	"context"
	"log"
	"sync"

	"github.com/projectflow-ai/projectflow/internal/state"
)

// Dispatcher hands decide-time snapshots to the background pipeline. A fixed
// worker pool absorbs the steady load; when the queue is full a detached
// goroutine takes the overflow so a dispatch never blocks the caller's turn.
type Dispatcher struct {
	bg     *Background
	jobs   chan *state.Record
	wg     sync.WaitGroup
	logger *log.Logger

	mu     sync.Mutex
	closed bool
}

func NewDispatcher(bg *Background, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	d := &Dispatcher{
		bg:     bg,
		jobs:   make(chan *state.Record, queueSize),
		logger: log.New(log.Writer(), "[BACKGROUND] ", log.LstdFlags),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for snap := range d.jobs {
		d.bg.Run(context.Background(), snap)
	}
}

// Dispatch queues a snapshot for background processing. There is no
// cancellation: once dispatched, the task runs to completion or fails on its
// own. Dispatch after Close drops the snapshot with a warning.
func (d *Dispatcher) Dispatch(snap *state.Record) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Printf("session %s turn %d: dispatcher closed, dropping snapshot",
			snap.SessionID, snap.Turn)
		return
	}
	select {
	case d.jobs <- snap:
		d.mu.Unlock()
	default:
		d.wg.Add(1)
		d.mu.Unlock()
		go func() {
			defer d.wg.Done()
			d.bg.Run(context.Background(), snap)
		}()
	}
}

// Close stops accepting work and waits for in-flight tasks to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}
