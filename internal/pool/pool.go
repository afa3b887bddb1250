// Package pool provides a fixed-size goroutine pool whose workers run
// under a tomb.Tomb so the whole pool shuts down cleanly when the
// owning server dies.
package pool

import (
	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"
)

const defaultTaskQueueSize = 256

// WorkerFunc processes one task. A returned error is logged and the
// worker moves on to the next task; it does not kill the tomb.
type WorkerFunc func(t *tomb.Tomb, task any) error

// WorkerPool runs a fixed number of goroutines that each pull tasks
// from a shared channel and hand them to a WorkerFunc.
type WorkerPool struct {
	size   int
	tasks  chan any
	logger zerolog.Logger
}

// New returns a WorkerPool with size workers.
func New(size int, logger zerolog.Logger) *WorkerPool {
	return &WorkerPool{
		size:   size,
		tasks:  make(chan any, defaultTaskQueueSize),
		logger: logger,
	}
}

// AddTask enqueues a task for the pool. It blocks if the queue is full.
func (p *WorkerPool) AddTask(task any) {
	p.tasks <- task
}

// Run starts size workers under t and blocks until t is dying.
func (p *WorkerPool) Run(t *tomb.Tomb, work WorkerFunc) {
	p.logger.Info().Int("workers", p.size).Msg("starting worker pool")
	for i := 0; i < p.size; i++ {
		t.Go(func() error {
			return p.worker(t, work)
		})
	}
	<-t.Dying()
}

func (p *WorkerPool) worker(t *tomb.Tomb, work WorkerFunc) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := work(t, task); err != nil {
				p.logger.Error().Err(err).Msg("worker task failed")
			}
		}
	}
}
