// Package worker runs fire-and-forget jobs, such as officer notifications,
// on a fixed set of goroutines.
package worker

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Job is a unit of background work.
type Job func(context.Context) error

type Pool struct {
	workerCount int
	jobChan     chan Job
	wg          sync.WaitGroup
	log         logrus.FieldLogger

	mu      sync.RWMutex
	stopped bool
}

func NewPool(workerCount int, log logrus.FieldLogger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{
		workerCount: workerCount,
		jobChan:     make(chan Job, workerCount*2),
		log:         log.WithField("component", "worker_pool"),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.log.WithField("worker_count", p.workerCount).Info("Starting worker pool")

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop closes the queue and waits for queued jobs to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobChan)
	p.mu.Unlock()

	p.log.Info("Stopping worker pool")
	p.wg.Wait()
	p.log.Info("Worker pool stopped")
}

// Submit enqueues job and reports whether it was accepted. Jobs are dropped
// when the queue is full or the pool has stopped.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		p.log.Warn("Worker pool stopped, job dropped")
		return false
	}

	select {
	case p.jobChan <- job:
		return true
	default:
		p.log.Warn("Worker pool job queue full, job dropped")
		return false
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.log.WithField("worker_id", id)
	log.Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("Worker stopping due to context cancellation")
			return
		case job, ok := <-p.jobChan:
			if !ok {
				log.Debug("Worker stopping due to closed job channel")
				return
			}

			if err := job(ctx); err != nil {
				log.WithError(err).Error("Job execution failed")
			}
		}
	}
}
