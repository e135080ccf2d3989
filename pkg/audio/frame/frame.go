// ABOUTME: Decoded and resampled audio frame type
// ABOUTME: Extracts packed frames as typed sample views without copying
package frame

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
)

var (
	// ErrNotPacked is returned when a planar frame is extracted as interleaved samples
	ErrNotPacked = errors.New("frame is not packed")
	// ErrInvalidType is returned when the requested sample type does not match the frame
	ErrInvalidType = errors.New("frame is not valid for sample type")
	// ErrMisaligned is returned when a byte buffer cannot be viewed as typed samples
	ErrMisaligned = errors.New("buffer is misaligned for sample type")
)

// Sample is the set of numeric types a device can consume
type Sample interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// Frame is a block of audio: Samples per channel, stored as raw bytes in
// one plane (packed) or one plane per channel (planar).
type Frame struct {
	Format     audio.SampleFormat
	Layout     audio.Layout
	Channels   int
	SampleRate int
	Samples    int
	Planes     [][]byte
	PTS        int64
}

// Alloc creates a frame whose planes are aligned for the sample format
func Alloc(format audio.SampleFormat, layout audio.Layout, channels, rate, samples int) *Frame {
	f := &Frame{
		Format:     format,
		Layout:     layout,
		Channels:   channels,
		SampleRate: rate,
		Samples:    samples,
	}

	bps := format.BytesPerSample()
	if layout == audio.Planar {
		f.Planes = make([][]byte, channels)
		for ch := range f.Planes {
			f.Planes[ch] = alignedBytes(samples * bps)
		}
	} else {
		f.Planes = [][]byte{alignedBytes(samples * channels * bps)}
	}
	return f
}

// IsPacked reports whether the frame stores channels interleaved in a single plane
func (f *Frame) IsPacked() bool {
	return f.Layout == audio.Packed
}

// Len returns the total number of samples across all channels
func (f *Frame) Len() int {
	return f.Samples * f.Channels
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s %s %dHz %dch x%d", f.Format, f.Layout, f.SampleRate, f.Channels, f.Samples)
}

// Packed returns the frame's interleaved samples as a []T of exactly
// Samples*Channels elements. The result aliases the frame's storage and is
// valid only as long as the frame is.
func Packed[T Sample](f *Frame) ([]T, error) {
	if !f.IsPacked() {
		return nil, ErrNotPacked
	}
	if f.Format != FormatOf[T]() || f.Channels <= 0 || len(f.Planes) != 1 {
		return nil, fmt.Errorf("%w: frame %s, want %s", ErrInvalidType, f.Format, FormatOf[T]())
	}

	n := f.Len()
	samples, err := View[T](f.Planes[0])
	if err != nil {
		return nil, err
	}
	if len(samples) < n {
		return nil, fmt.Errorf("%w: plane holds %d samples, need %d", ErrInvalidType, len(samples), n)
	}
	return samples[:n:n], nil
}

// Plane returns one plane of the frame as a []T
func Plane[T Sample](f *Frame, index int) ([]T, error) {
	if f.Format != FormatOf[T]() || index < 0 || index >= len(f.Planes) {
		return nil, ErrInvalidType
	}
	return View[T](f.Planes[index])
}

// FormatOf returns the sample format matching T
func FormatOf[T Sample]() audio.SampleFormat {
	var zero T
	switch any(zero).(type) {
	case int8:
		return audio.I8
	case int16:
		return audio.I16
	case int32:
		return audio.I32
	case int64:
		return audio.I64
	case uint8:
		return audio.U8
	case uint16:
		return audio.U16
	case uint32:
		return audio.U32
	case uint64:
		return audio.U64
	case float32:
		return audio.F32
	case float64:
		return audio.F64
	}
	return audio.FormatUnknown
}
