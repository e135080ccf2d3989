// ABOUTME: Lock-free single-producer single-consumer sample queue
// ABOUTME: Bounded FIFO shared between the decode loop and the playback callback
package ring

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// DefaultCapacity is the queue size used when none is configured
const DefaultCapacity = 8192

// pollInterval bounds how long WaitFree sleeps if a space signal is missed
const pollInterval = 5 * time.Millisecond

// Queue is a fixed-capacity circular buffer of interleaved samples.
//
// head and tail are monotonic counters; head is written only by the
// producer, tail only by the consumer. head-tail is the number of queued
// samples and never exceeds the capacity.
type Queue[T any] struct {
	buf  []T
	size uint64

	_    cpu.CacheLinePad
	head atomic.Uint64
	_    cpu.CacheLinePad
	tail atomic.Uint64
	_    cpu.CacheLinePad

	// space receives a token after the consumer frees slots
	space chan struct{}
	split atomic.Bool
}

// New creates a queue holding up to capacity samples. It panics if capacity is not positive.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Queue[T]{
		buf:   make([]T, capacity),
		size:  uint64(capacity),
		space: make(chan struct{}, 1),
	}
}

// Split returns the producer and consumer handles. It panics if called twice.
func (q *Queue[T]) Split() (*Producer[T], *Consumer[T]) {
	if !q.split.CompareAndSwap(false, true) {
		panic("ring: queue already split")
	}
	return &Producer[T]{q: q}, &Consumer[T]{q: q}
}

// Cap returns the fixed capacity in samples
func (q *Queue[T]) Cap() int { return int(q.size) }

// Len returns the number of queued samples. Observers other than the
// producer and consumer may see both cursors move between the two loads,
// so the result is clamped to the capacity.
func (q *Queue[T]) Len() int {
	tail := q.tail.Load()
	head := q.head.Load()
	return int(min(head-tail, q.size))
}

// Free returns the number of empty slots
func (q *Queue[T]) Free() int { return q.Cap() - q.Len() }

// IsEmpty reports whether no samples are queued
func (q *Queue[T]) IsEmpty() bool { return q.Len() == 0 }

// Producer is the write side of a Queue. Only one goroutine may use it.
type Producer[T any] struct {
	q *Queue[T]
}

// Push copies as many samples as fit and returns how many were queued.
// It never blocks; a short count means the queue filled up.
func (p *Producer[T]) Push(samples []T) int {
	q := p.q
	head := q.head.Load()
	tail := q.tail.Load()

	n := min(uint64(len(samples)), q.size-(head-tail))
	if n == 0 {
		return 0
	}

	start := head % q.size
	first := min(n, q.size-start)
	copy(q.buf[start:start+first], samples[:first])
	copy(q.buf[:n-first], samples[first:n])

	q.head.Store(head + n)
	return int(n)
}

// WaitFree blocks until at least n slots are free (clamped to the capacity)
// or ctx is done. The wait sleeps on the consumer's space signal.
func (p *Producer[T]) WaitFree(ctx context.Context, n int) error {
	n = min(n, p.q.Cap())
	if p.q.Free() >= n {
		return nil
	}

	timer := time.NewTimer(pollInterval)
	defer timer.Stop()

	for p.q.Free() < n {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.q.space:
		case <-timer.C:
			timer.Reset(pollInterval)
		}
	}
	return nil
}

// WaitEmpty blocks until the consumer has drained every queued sample or ctx is done
func (p *Producer[T]) WaitEmpty(ctx context.Context) error {
	return p.WaitFree(ctx, p.q.Cap())
}

// Cap, Len, Free and IsEmpty observe the shared queue
func (p *Producer[T]) Cap() int      { return p.q.Cap() }
func (p *Producer[T]) Len() int      { return p.q.Len() }
func (p *Producer[T]) Free() int     { return p.q.Free() }
func (p *Producer[T]) IsEmpty() bool { return p.q.IsEmpty() }

// Consumer is the read side of a Queue. Only one goroutine may use it.
type Consumer[T any] struct {
	q *Queue[T]
}

// Pop moves up to len(dst) samples into dst in FIFO order and returns the count.
// Slots of dst past the count are left untouched.
func (c *Consumer[T]) Pop(dst []T) int {
	q := c.q
	tail := q.tail.Load()
	head := q.head.Load()

	n := min(uint64(len(dst)), head-tail)
	if n == 0 {
		return 0
	}

	start := tail % q.size
	first := min(n, q.size-start)
	copy(dst[:first], q.buf[start:start+first])
	copy(dst[first:n], q.buf[:n-first])

	q.tail.Store(tail + n)

	select {
	case q.space <- struct{}{}:
	default:
	}
	return int(n)
}

// Cap, Len, Free and IsEmpty observe the shared queue
func (c *Consumer[T]) Cap() int      { return c.q.Cap() }
func (c *Consumer[T]) Len() int      { return c.q.Len() }
func (c *Consumer[T]) Free() int     { return c.q.Free() }
func (c *Consumer[T]) IsEmpty() bool { return c.q.IsEmpty() }
