// ABOUTME: Typed playback session binding queue, callback and pipeline
// ABOUTME: Dispatches the generic machinery on the negotiated sample format
package ringplay

import (
	"context"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/frame"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/resample"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/ring"
)

// session hides the sample type from the Player
type session interface {
	fill(out []byte)
	run(ctx context.Context) error
	drain(ctx context.Context) error
	endOfStream()
	tapped(dst []float64) int
	stats() Stats
}

type typedSession[T frame.Sample] struct {
	prod     *ring.Producer[T]
	callback *Callback[T]
	pipeline *Pipeline[T]
}

func newTypedSession[T frame.Sample](opts Options, c decode.Container, stream int, dec decode.Decoder, rs *resample.Resampler) *typedSession[T] {
	prod, cons := ring.New[T](opts.QueueSize).Split()
	return &typedSession[T]{
		prod:     prod,
		callback: NewCallback(cons, opts.TapSize),
		pipeline: NewPipeline(c, stream, dec, rs, prod, opts.Policy),
	}
}

func newSession(format audio.SampleFormat, opts Options, c decode.Container, stream int, dec decode.Decoder, rs *resample.Resampler) (session, error) {
	switch format {
	case audio.F32:
		return newTypedSession[float32](opts, c, stream, dec, rs), nil
	case audio.F64:
		return newTypedSession[float64](opts, c, stream, dec, rs), nil
	case audio.I16:
		return newTypedSession[int16](opts, c, stream, dec, rs), nil
	case audio.I32:
		return newTypedSession[int32](opts, c, stream, dec, rs), nil
	case audio.I64:
		return newTypedSession[int64](opts, c, stream, dec, rs), nil
	case audio.U8:
		return newTypedSession[uint8](opts, c, stream, dec, rs), nil
	}
	return nil, &resample.UnsupportedFormatError{Format: format}
}

func (s *typedSession[T]) fill(out []byte) {
	s.callback.FillBytes(out)
}

func (s *typedSession[T]) run(ctx context.Context) error {
	return s.pipeline.Run(ctx)
}

func (s *typedSession[T]) drain(ctx context.Context) error {
	return s.prod.WaitEmpty(ctx)
}

func (s *typedSession[T]) endOfStream() {
	s.callback.EndOfStream()
}

func (s *typedSession[T]) tapped(dst []float64) int {
	return s.callback.Tapped(dst)
}

func (s *typedSession[T]) stats() Stats {
	cb := s.callback.Stats()
	pl := s.pipeline.Stats()
	return Stats{
		Queued:    s.prod.Len(),
		Capacity:  s.prod.Cap(),
		Played:    cb.Played,
		Underruns: cb.Underruns,
		Faults:    cb.Faults,
		Packets:   pl.Packets,
		Discarded: pl.Discarded,
		Frames:    pl.Frames,
		Pushed:    pl.Pushed,
		Dropped:   pl.Dropped,
	}
}
