package mux

import (
	"chatserver/common/message"
	"chatserver/server/processes"
	"sync"
)

const (
	DefaultWorkers = 10
	DefaultQueue   = 10
)

// Task is one decoded command waiting for a worker.
type Task struct {
	Session *processes.Session
	Cmd     *message.Command
}

// ThreadPool runs tasks on a fixed number of workers. Submit blocks once the
// queue is full, which stalls the readiness loop instead of growing memory.
type ThreadPool struct {
	tasks   chan Task
	workers int
	exec    func(id int, t Task)
	wg      sync.WaitGroup
	once    sync.Once
}

func NewThreadPool(workers, queue int, exec func(id int, t Task)) *ThreadPool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queue < 0 {
		queue = DefaultQueue
	}
	return &ThreadPool{
		tasks:   make(chan Task, queue),
		workers: workers,
		exec:    exec,
	}
}

func (tp *ThreadPool) Start() {
	for i := 0; i < tp.workers; i++ {
		tp.wg.Add(1)
		go tp.worker(i + 1)
	}
}

func (tp *ThreadPool) Submit(t Task) {
	tp.tasks <- t
}

// Stop lets queued tasks drain and waits for every worker to return.
func (tp *ThreadPool) Stop() {
	tp.once.Do(func() { close(tp.tasks) })
	tp.wg.Wait()
}

func (tp *ThreadPool) worker(id int) {
	defer tp.wg.Done()
	for task := range tp.tasks {
		tp.exec(id, task)
	}
}
