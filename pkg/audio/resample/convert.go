// ABOUTME: Sample format conversion between frames and float64 working buffers
// ABOUTME: Reports formats the player cannot drive as UnsupportedFormatError
package resample

import (
	"errors"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/frame"
)

// ErrUnsupportedFormat matches any UnsupportedFormatError
var ErrUnsupportedFormat = errors.New("unsupported sample format")

// UnsupportedFormatError names a sample format that cannot be converted
type UnsupportedFormatError struct {
	Format audio.SampleFormat
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported sample format %s", e.Format)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// CheckFormat returns an *UnsupportedFormatError for formats other than
// f32, f64, i16, i32, i64 and u8
func CheckFormat(format audio.SampleFormat) error {
	switch format {
	case audio.F32, audio.F64, audio.I16, audio.I32, audio.I64, audio.U8:
		return nil
	}
	return &UnsupportedFormatError{Format: format}
}

// readFloats decodes a frame into interleaved samples in [-1, 1], reusing dst
func readFloats(in *frame.Frame, dst []float64) ([]float64, error) {
	switch in.Format {
	case audio.F32:
		return gather[float32](in, dst)
	case audio.F64:
		return gather[float64](in, dst)
	case audio.I16:
		return gather[int16](in, dst)
	case audio.I32:
		return gather[int32](in, dst)
	case audio.I64:
		return gather[int64](in, dst)
	case audio.U8:
		return gather[uint8](in, dst)
	}
	return nil, &UnsupportedFormatError{Format: in.Format}
}

func gather[T frame.Sample](in *frame.Frame, dst []float64) ([]float64, error) {
	n := in.Len()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	if in.IsPacked() {
		samples, err := frame.Packed[T](in)
		if err != nil {
			return nil, err
		}
		for i, v := range samples {
			dst[i] = in.Format.Normalize(float64(v))
		}
		return dst, nil
	}

	ch := in.Channels
	for c := 0; c < ch; c++ {
		plane, err := frame.Plane[T](in, c)
		if err != nil {
			return nil, err
		}
		if len(plane) < in.Samples {
			return nil, fmt.Errorf("%w: plane %d holds %d samples, need %d", frame.ErrInvalidType, c, len(plane), in.Samples)
		}
		for i := 0; i < in.Samples; i++ {
			dst[i*ch+c] = in.Format.Normalize(float64(plane[i]))
		}
	}
	return dst, nil
}

// writeFloats encodes interleaved samples into a packed frame, clamping to [-1, 1]
func writeFloats(out *frame.Frame, samples []float64) error {
	switch out.Format {
	case audio.F32:
		return scatter(out, samples, func(v float64) float32 { return float32(v) })
	case audio.F64:
		return scatter(out, samples, func(v float64) float64 { return v })
	case audio.I16:
		return scatter(out, samples, func(v float64) int16 {
			return int16(quantize(v, 32768, math.MinInt16, math.MaxInt16))
		})
	case audio.I32:
		return scatter(out, samples, func(v float64) int32 {
			return int32(quantize(v, 2147483648, math.MinInt32, math.MaxInt32))
		})
	case audio.I64:
		return scatter(out, samples, func(v float64) int64 {
			x := math.Round(clamp(v) * 9223372036854775808)
			if x >= 9223372036854775807 {
				return math.MaxInt64
			}
			return int64(x)
		})
	case audio.U8:
		return scatter(out, samples, func(v float64) uint8 {
			return uint8(quantize(v, 128, -128, 127) + 128)
		})
	}
	return &UnsupportedFormatError{Format: out.Format}
}

func scatter[T frame.Sample](out *frame.Frame, samples []float64, conv func(float64) T) error {
	dst, err := frame.Packed[T](out)
	if err != nil {
		return err
	}
	if len(dst) != len(samples) {
		return fmt.Errorf("%w: frame holds %d samples, got %d", frame.ErrInvalidType, len(dst), len(samples))
	}
	for i, v := range samples {
		dst[i] = conv(v)
	}
	return nil
}

func quantize(v, scale, lo, hi float64) float64 {
	x := math.Round(clamp(v) * scale)
	return math.Max(lo, math.Min(hi, x))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
