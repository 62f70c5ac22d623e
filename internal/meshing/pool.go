package meshing

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"voxmesh/internal/world"
)

// Job is a meshing request. Build must only touch the snapshots it closed
// over; it runs on a worker goroutine.
type Job struct {
	Coord  world.ChunkCoord
	Entity uuid.UUID
	Level  int
	Build  func() *MeshData
}

// Task is the handle for a submitted Job. The main loop polls it; it never
// blocks on it.
type Task struct {
	Coord  world.ChunkCoord
	Entity uuid.UUID
	Level  int

	build   func() *MeshData
	done    chan struct{}
	result  *MeshData
	err     error
	elapsed time.Duration
}

// NewTask wraps job in a task that has not run yet.
func NewTask(job Job) *Task {
	return &Task{
		Coord:  job.Coord,
		Entity: job.Entity,
		Level:  job.Level,
		build:  job.Build,
		done:   make(chan struct{}),
	}
}

// Run executes the job and completes the task. A panic inside Build is
// turned into the task's error.
func (t *Task) Run() {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			t.err = fmt.Errorf("mesh chunk %v: %v", t.Coord, r)
			t.result = nil
		}
		t.elapsed = time.Since(start)
		close(t.done)
	}()
	if t.build == nil {
		t.result = &MeshData{Scale: 1}
		return
	}
	t.result = t.build()
}

// Poll returns the result if the task has completed.
func (t *Task) Poll() (*MeshData, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return nil, false
	}
}

// Done is closed when the task completes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err reports a failure of a completed task.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Elapsed returns how long Build ran. Zero until the task completes.
func (t *Task) Elapsed() time.Duration {
	select {
	case <-t.done:
		return t.elapsed
	default:
		return 0
	}
}

// WorkerPool manages goroutines for mesh generation
type WorkerPool struct {
	jobQueue chan *Task
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWorkerPool creates a new mesh worker pool
func NewWorkerPool(workers int, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	workers = max(workers, 1)
	queueSize = max(queueSize, 1)

	pool := &WorkerPool{
		jobQueue: make(chan *Task, queueSize),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	return pool
}

// Submit queues a job and returns its task.
// Returns false if the queue is full or the pool is shutting down.
func (p *WorkerPool) Submit(job Job) (*Task, bool) {
	if p.ctx.Err() != nil {
		return nil, false
	}
	task := NewTask(job)
	select {
	case p.jobQueue <- task:
		return task, true
	default:
		return nil, false // Queue is full
	}
}

// worker is the worker goroutine that processes mesh jobs
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.jobQueue:
			task.Run()
			if err := task.Err(); err != nil {
				log.Printf("mesh worker %d: %v", id, err)
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers. Queued tasks that never started stay
// incomplete; their chunks are simply never applied.
func (p *WorkerPool) Shutdown() {
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}

// QueueLength returns the current number of jobs in the queue
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int { return p.workers }

// Inline runs each job on the caller's goroutine during Submit. Handy for
// tools and deterministic tests.
type Inline struct{}

func (Inline) Submit(job Job) (*Task, bool) {
	task := NewTask(job)
	task.Run()
	return task, true
}
