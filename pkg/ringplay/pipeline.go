// ABOUTME: Decode, resample and enqueue loop feeding the sample queue
// ABOUTME: Applies backpressure through the queue's admission policy
package ringplay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/Resonate-Protocol/ringplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/frame"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/resample"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/ring"
)

// Policy decides how resampled samples are admitted to the queue
type Policy int

const (
	// AdmitFreeSpace waits until the next chunk fits, so nothing is dropped
	AdmitFreeSpace Policy = iota
	// AdmitWhenEmpty waits for an empty queue, pushes once and drops the rest
	AdmitWhenEmpty
)

func (p Policy) String() string {
	if p == AdmitWhenEmpty {
		return "when-empty"
	}
	return "free-space"
}

// ParsePolicy maps a name to a Policy
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "free-space":
		return AdmitFreeSpace, nil
	case "when-empty":
		return AdmitWhenEmpty, nil
	}
	return AdmitFreeSpace, fmt.Errorf("unknown admission policy %q", name)
}

// PipelineStats counts pipeline progress
type PipelineStats struct {
	Packets   int64
	Discarded int64
	Frames    int64
	Pushed    int64
	Dropped   int64
}

// Pipeline reads packets of one stream, decodes, resamples and pushes the
// samples into the queue. Run executes on the caller's goroutine.
type Pipeline[T frame.Sample] struct {
	container decode.Container
	stream    int
	decoder   decode.Decoder
	resampler *resample.Resampler
	prod      *ring.Producer[T]
	policy    Policy

	packets   atomic.Int64
	discarded atomic.Int64
	frames    atomic.Int64
	pushed    atomic.Int64
	dropped   atomic.Int64
}

// NewPipeline wires a pipeline for the stream with the given index
func NewPipeline[T frame.Sample](c decode.Container, stream int, dec decode.Decoder, rs *resample.Resampler, prod *ring.Producer[T], policy Policy) *Pipeline[T] {
	return &Pipeline[T]{
		container: c,
		stream:    stream,
		decoder:   dec,
		resampler: rs,
		prod:      prod,
		policy:    policy,
	}
}

// Run processes every packet until end of input, then flushes the decoder
// and resampler. Any decode, resample or extraction error ends the run.
func (p *Pipeline[T]) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pkt, err := p.container.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}
		if pkt.StreamIndex != p.stream {
			p.discarded.Add(1)
			continue
		}
		p.packets.Add(1)

		if err := p.decoder.SendPacket(pkt); err != nil {
			return fmt.Errorf("failed to send packet: %w", err)
		}
		if err := p.receive(ctx); err != nil {
			return err
		}
	}

	if err := p.decoder.SendPacket(nil); err != nil {
		return fmt.Errorf("failed to flush decoder: %w", err)
	}
	if err := p.receive(ctx); err != nil {
		return err
	}

	tail, err := p.resampler.Flush()
	if err != nil {
		return fmt.Errorf("failed to flush resampler: %w", err)
	}
	if tail != nil {
		return p.enqueue(ctx, tail)
	}
	return nil
}

// receive drains every frame the decoder has ready
func (p *Pipeline[T]) receive(ctx context.Context) error {
	for {
		f, err := p.decoder.ReceiveFrame()
		if errors.Is(err, decode.ErrAgain) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to decode frame: %w", err)
		}
		p.frames.Add(1)

		out, err := p.resampler.Run(f)
		if err != nil {
			return fmt.Errorf("failed to resample frame: %w", err)
		}
		if err := p.enqueue(ctx, out); err != nil {
			return err
		}
	}
}

func (p *Pipeline[T]) enqueue(ctx context.Context, f *frame.Frame) error {
	if f.Samples == 0 {
		return nil
	}
	samples, err := frame.Packed[T](f)
	if err != nil {
		return fmt.Errorf("failed to extract samples: %w", err)
	}

	if p.policy == AdmitWhenEmpty {
		if err := p.prod.WaitEmpty(ctx); err != nil {
			return err
		}
		n := p.prod.Push(samples)
		p.pushed.Add(int64(n))
		p.dropped.Add(int64(len(samples) - n))
		return nil
	}

	for len(samples) > 0 {
		chunk := min(len(samples), p.prod.Cap())
		if err := p.prod.WaitFree(ctx, chunk); err != nil {
			return err
		}
		n := p.prod.Push(samples[:chunk])
		p.pushed.Add(int64(n))
		samples = samples[n:]
	}
	return nil
}

// Stats returns the pipeline counters
func (p *Pipeline[T]) Stats() PipelineStats {
	return PipelineStats{
		Packets:   p.packets.Load(),
		Discarded: p.discarded.Load(),
		Frames:    p.frames.Load(),
		Pushed:    p.pushed.Load(),
		Dropped:   p.dropped.Load(),
	}
}
