// ABOUTME: Real-time playback callback draining the sample queue
// ABOUTME: Zero-fills shortfalls and counts played samples, underruns and faults
package ringplay

import (
	"sync/atomic"

	"github.com/Resonate-Protocol/ringplay/pkg/audio/frame"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/ring"
)

// CallbackStats counts what the device has consumed
type CallbackStats struct {
	Played    int64
	Underruns int64
	Faults    int64
}

// Callback fills device buffers from the consumer end of a sample queue.
// Fill and FillBytes run on the device thread: they never block, allocate,
// log or perform I/O.
type Callback[T frame.Sample] struct {
	cons *ring.Consumer[T]

	tapProd *ring.Producer[T]
	tapCons *ring.Consumer[T]
	tapBuf  []T

	started  atomic.Bool
	finished atomic.Bool

	played    atomic.Int64
	underruns atomic.Int64
	faults    atomic.Int64
}

// NewCallback creates a callback reading from cons. A positive tapSize
// keeps a copy of the most recently played samples for Tapped.
func NewCallback[T frame.Sample](cons *ring.Consumer[T], tapSize int) *Callback[T] {
	c := &Callback[T]{cons: cons}
	if tapSize > 0 {
		c.tapProd, c.tapCons = ring.New[T](tapSize).Split()
		c.tapBuf = make([]T, tapSize)
	}
	return c
}

// Fill pops up to len(out) samples and zero-fills the rest. A short fill
// counts as an underrun once playback has started and until EndOfStream.
func (c *Callback[T]) Fill(out []T) {
	n := c.cons.Pop(out)
	clear(out[n:])

	if n > 0 {
		c.started.Store(true)
		c.played.Add(int64(n))
		if c.tapProd != nil {
			c.tapProd.Push(out[:n])
		}
	}
	if n < len(out) && c.started.Load() && !c.finished.Load() {
		c.underruns.Add(1)
	}
}

// FillBytes fills a raw device buffer. A buffer that cannot be viewed as
// samples of type T is silenced and counted as a fault.
func (c *Callback[T]) FillBytes(out []byte) {
	samples, err := frame.View[T](out)
	if err != nil {
		clear(out)
		c.faults.Add(1)
		return
	}
	c.Fill(samples)
}

// EndOfStream stops underrun counting while the queue drains its tail
func (c *Callback[T]) EndOfStream() {
	c.finished.Store(true)
}

// Stats returns the callback counters
func (c *Callback[T]) Stats() CallbackStats {
	return CallbackStats{
		Played:    c.played.Load(),
		Underruns: c.underruns.Load(),
		Faults:    c.faults.Load(),
	}
}

// Tapped drains the samples tapped since the last call and copies the
// newest that fit into dst, normalized to [-1, 1]. It returns how many were
// written. The tap drops samples while full, so callers should read at
// least once per tap's worth of playback. Only one goroutine may call it.
func (c *Callback[T]) Tapped(dst []float64) int {
	if c.tapCons == nil {
		return 0
	}

	format := frame.FormatOf[T]()
	written := 0
	for {
		n := c.tapCons.Pop(c.tapBuf)
		if n == 0 {
			break
		}
		src := c.tapBuf[:n]
		if len(src) >= len(dst) {
			src = src[len(src)-len(dst):]
			written = 0
		} else if written+len(src) > len(dst) {
			shift := written + len(src) - len(dst)
			copy(dst, dst[shift:written])
			written -= shift
		}
		for i, v := range src {
			dst[written+i] = format.Normalize(float64(v))
		}
		written += len(src)
	}
	return written
}
