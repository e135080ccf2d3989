// ABOUTME: Sample queue package for real-time producer/consumer handoff
// ABOUTME: Provides a generic lock-free SPSC ring buffer with split handles
// Package ring provides the bounded sample queue between a decode loop and
// an audio device callback.
//
// The queue is single-producer single-consumer. Push and Pop never block,
// never allocate and run in bounded time, so Pop is safe on a real-time
// audio thread. The producer may wait for space with WaitFree, which sleeps
// on a signal raised by the consumer instead of spinning.
//
// Example:
//
//	q := ring.New[float32](ring.DefaultCapacity)
//	prod, cons := q.Split()
//	prod.Push(samples)
//	n := cons.Pop(out)
package ring
