package jobs

import (
	"context"
	"sync"
)

// DefaultMemoryQueueSize is the buffer size of NewMemoryQueue when size < 1.
const DefaultMemoryQueueSize = 1024

// MemoryQueue is an in-process Queue backed by a buffered channel.
type MemoryQueue struct {
	ch     chan Job
	done   chan struct{}
	closer sync.Once
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates a queue holding up to size pending jobs.
func NewMemoryQueue(size int) *MemoryQueue {
	if size < 1 {
		size = DefaultMemoryQueueSize
	}
	return &MemoryQueue{ch: make(chan Job, size), done: make(chan struct{})}
}

// Enqueue implements Enqueuer. It blocks while the buffer is full.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- job:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue implements Queue
func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-q.ch:
		return job, nil
	case <-q.done:
		return Job{}, ErrQueueClosed
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Len returns the number of pending jobs.
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

// Ping implements Queue
func (q *MemoryQueue) Ping(context.Context) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
		return nil
	}
}

// Close implements Queue
func (q *MemoryQueue) Close() error {
	q.closer.Do(func() { close(q.done) })
	return nil
}
