package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/logger"
)

// maxTrackedJobs bounds how many finished jobs are remembered for Job lookups.
const maxTrackedJobs = 1024

// Task is a unit of work run by the pool.
type Task func(ctx context.Context) (any, error)

// WorkerPool runs tasks on a fixed number of goroutines with a bounded
// queue. Submit never blocks: once every worker is busy and the queue is
// full it fails with domain.ErrQueueFull.
type WorkerPool struct {
	queue   chan *poolJob
	metrics driven.MetricsRecorder

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	jobs   map[string]*poolJob
	closed bool
}

type poolJob struct {
	task Task
	done chan struct{}

	// guarded by WorkerPool.mu
	info   domain.Job
	result any
	err    error
}

// NewWorkerPool starts workers goroutines sharing a queue of queueSize.
// A queueSize of zero accepts work only while a worker is idle.
func NewWorkerPool(workers, queueSize int, metrics driven.MetricsRecorder) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		queue:   make(chan *poolJob, queueSize),
		metrics: metricsOrNoop(metrics),
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*poolJob),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit queues task and returns its job ID.
func (p *WorkerPool) Submit(name string, task Task) (string, error) {
	j := &poolJob{
		task: task,
		done: make(chan struct{}),
		info: domain.Job{
			ID:          uuid.New().String(),
			Name:        name,
			Status:      domain.JobQueued,
			SubmittedAt: time.Now(),
		},
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return "", domain.ErrPoolClosed
	}

	select {
	case p.queue <- j:
	default:
		return "", fmt.Errorf("%w: %d jobs waiting", domain.ErrQueueFull, len(p.queue))
	}

	p.jobs[j.info.ID] = j
	p.pruneLocked()
	p.metrics.SetQueueDepth(len(p.queue))
	return j.info.ID, nil
}

// Job returns a snapshot of a job.
func (p *WorkerPool) Job(id string) (domain.Job, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	j, ok := p.jobs[id]
	if !ok {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return j.info, nil
}

// Wait blocks until the job finishes or ctx is done. Abandoning a wait
// does not cancel the job.
func (p *WorkerPool) Wait(ctx context.Context, id string) (any, error) {
	p.mu.RLock()
	j, ok := p.jobs[id]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}

	select {
	case <-j.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return j.result, j.err
}

// QueueDepth returns the number of jobs waiting for a worker.
func (p *WorkerPool) QueueDepth() int {
	return len(p.queue)
}

// Shutdown stops accepting work and waits for queued jobs to finish.
// If ctx ends first, running tasks see their context cancelled.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-finished
		return ctx.Err()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for j := range p.queue {
		p.run(j)
	}
}

func (p *WorkerPool) run(j *poolJob) {
	p.mu.Lock()
	j.info.Status = domain.JobRunning
	j.info.StartedAt = time.Now()
	p.mu.Unlock()
	p.metrics.SetQueueDepth(len(p.queue))

	result, err := p.safeRun(j.task)

	p.mu.Lock()
	j.result, j.err = result, err
	j.info.EndedAt = time.Now()
	if err != nil {
		j.info.Status = domain.JobFailed
		j.info.Error = err.Error()
	} else {
		j.info.Status = domain.JobDone
	}
	p.mu.Unlock()
	close(j.done)
}

func (p *WorkerPool) safeRun(task Task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker task panicked: %v", r)
			err = errors.New(fmt.Sprint("task panicked: ", r))
		}
	}()
	return task(p.ctx)
}

// pruneLocked forgets the oldest finished jobs once too many are tracked.
func (p *WorkerPool) pruneLocked() {
	if len(p.jobs) <= maxTrackedJobs {
		return
	}

	finished := make([]*poolJob, 0, len(p.jobs))
	for _, j := range p.jobs {
		if j.info.Status.IsTerminal() {
			finished = append(finished, j)
		}
	}
	sort.Slice(finished, func(a, b int) bool {
		return finished[a].info.EndedAt.Before(finished[b].info.EndedAt)
	})

	for _, j := range finished {
		if len(p.jobs) <= maxTrackedJobs {
			break
		}
		delete(p.jobs, j.info.ID)
	}
}
