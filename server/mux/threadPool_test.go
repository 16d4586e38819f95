package mux

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadPoolBoundsConcurrency(t *testing.T) {
	var running, peak int32
	var mu sync.Mutex
	release := make(chan struct{})
	pool := NewThreadPool(2, 8, func(id int, task Task) {
		n := atomic.AddInt32(&running, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		<-release
		atomic.AddInt32(&running, -1)
	})
	pool.Start()
	for i := 0; i < 6; i++ {
		pool.Submit(Task{})
	}
	close(release)
	pool.Stop()

	assert.LessOrEqual(t, peak, int32(2))
	assert.Zero(t, atomic.LoadInt32(&running))
}

func TestThreadPoolDrainsOnStop(t *testing.T) {
	var done int32
	pool := NewThreadPool(3, 16, func(id int, task Task) {
		atomic.AddInt32(&done, 1)
	})
	pool.Start()
	for i := 0; i < 16; i++ {
		pool.Submit(Task{})
	}
	pool.Stop()
	pool.Stop()
	assert.EqualValues(t, 16, atomic.LoadInt32(&done))
}
