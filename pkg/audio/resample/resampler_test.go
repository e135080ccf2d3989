// ABOUTME: Tests for the resampler
// ABOUTME: Tests passthrough, format conversion, remixing and rate conversion
package resample

import (
	"errors"
	"math"
	"testing"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/frame"
)

func f32Frame(t *testing.T, channels, rate int, values []float32) *frame.Frame {
	t.Helper()
	f := frame.Alloc(audio.F32, audio.Packed, channels, rate, len(values)/channels)
	dst, err := frame.Packed[float32](f)
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	copy(dst, values)
	return f
}

func TestPassthroughReturnsInput(t *testing.T) {
	r, err := New(Config{
		InFormat: audio.F32, InRate: 48000, InChannels: 2,
		OutFormat: audio.F32, OutRate: 48000, OutChannels: 2,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	in := f32Frame(t, 2, 48000, []float32{0.1, -0.1, 0.2, -0.2})
	out, err := r.Run(in)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != in {
		t.Error("expected the input frame back")
	}

	if f, err := r.Flush(); f != nil || err != nil {
		t.Errorf("expected empty flush, got %v (%v)", f, err)
	}
}

func TestFormatConversion(t *testing.T) {
	r, err := New(Config{
		InFormat: audio.F32, InRate: 44100, InChannels: 1,
		OutFormat: audio.I16, OutRate: 44100, OutChannels: 1,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	out, err := r.Run(f32Frame(t, 1, 44100, []float32{0, 0.5, 1, -1, 2, -0.25}))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	got, err := frame.Packed[int16](out)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	want := []int16{0, 16384, 32767, -32768, 32767, -8192}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestIntegerInputNormalized(t *testing.T) {
	r, err := New(Config{
		InFormat: audio.U8, InRate: 8000, InChannels: 1,
		OutFormat: audio.F64, OutRate: 8000, OutChannels: 1,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	in := frame.Alloc(audio.U8, audio.Packed, 1, 8000, 3)
	copy(in.Planes[0], []byte{128, 192, 0})

	out, err := r.Run(in)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	got, _ := frame.Packed[float64](out)
	want := []float64{0, 0.5, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestPlanarInterleaved(t *testing.T) {
	r, err := New(Config{
		InFormat: audio.F32, InLayout: audio.Planar, InRate: 8000, InChannels: 2,
		OutFormat: audio.F32, OutRate: 8000, OutChannels: 2,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	in := frame.Alloc(audio.F32, audio.Planar, 2, 8000, 3)
	left, _ := frame.Plane[float32](in, 0)
	right, _ := frame.Plane[float32](in, 1)
	copy(left, []float32{0.1, 0.2, 0.3})
	copy(right, []float32{-0.1, -0.2, -0.3})

	out, err := r.Run(in)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	got, _ := frame.Packed[float32](out)
	want := []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestRemix(t *testing.T) {
	tests := []struct {
		name   string
		in     []float64
		frames int
		inCh   int
		outCh  int
		want   []float64
	}{
		{"mono to stereo", []float64{0.5, -0.5}, 2, 1, 2, []float64{0.5, 0.5, -0.5, -0.5}},
		{"stereo to mono", []float64{0.5, 0.25, -1, 0}, 2, 2, 1, []float64{0.375, -0.5}},
		{"stereo to quad", []float64{0.1, 0.2}, 1, 2, 4, []float64{0.1, 0.2, 0.1, 0.2}},
		{"same", []float64{0.1, 0.2}, 1, 2, 2, []float64{0.1, 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := remix(tt.in, tt.frames, tt.inCh, tt.outCh, nil)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
					break
				}
			}
		})
	}
}

func TestRateConversion(t *testing.T) {
	for _, q := range []Quality{Linear, Cubic} {
		t.Run(q.String(), func(t *testing.T) {
			r, err := New(Config{
				InFormat: audio.F32, InRate: 24000, InChannels: 1,
				OutFormat: audio.F32, OutRate: 48000, OutChannels: 2,
				Quality: q,
			})
			if err != nil {
				t.Fatalf("new failed: %v", err)
			}

			values := make([]float32, 500)
			for i := range values {
				values[i] = 0.25
			}

			var got []float32
			collect := func(f *frame.Frame) {
				if f == nil {
					return
				}
				s, err := frame.Packed[float32](f)
				if err != nil {
					t.Fatalf("extract failed: %v", err)
				}
				got = append(got, s...)
			}

			for i := 0; i < 2; i++ {
				out, err := r.Run(f32Frame(t, 1, 24000, values))
				if err != nil {
					t.Fatalf("run failed: %v", err)
				}
				collect(out)
			}
			out, err := r.Flush()
			if err != nil {
				t.Fatalf("flush failed: %v", err)
			}
			collect(out)

			if len(got) != 2000*2 {
				t.Errorf("expected %d samples, got %d", 2000*2, len(got))
			}
			for i, v := range got {
				if math.Abs(float64(v)-0.25) > 1e-6 {
					t.Fatalf("sample %d: expected 0.25, got %v", i, v)
				}
			}
		})
	}
}

func TestLinearMidpoint(t *testing.T) {
	r, err := New(Config{
		InFormat: audio.F32, InRate: 1000, InChannels: 1,
		OutFormat: audio.F32, OutRate: 2000, OutChannels: 1,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	out, err := r.Run(f32Frame(t, 1, 1000, []float32{0, 1, 0}))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	got, _ := frame.Packed[float32](out)
	want := []float32{0, 0.5, 1, 0.5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestOutputSamplesNeeded(t *testing.T) {
	r, err := New(Config{
		InFormat: audio.I16, InRate: 44100, InChannels: 2,
		OutFormat: audio.F32, OutRate: 88200, OutChannels: 2,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if n := r.OutputSamplesNeeded(2000); n != 4000 {
		t.Errorf("expected 4000, got %d", n)
	}
}

func TestUnsupportedFormats(t *testing.T) {
	for _, format := range []audio.SampleFormat{audio.I8, audio.U16, audio.U32, audio.U64, audio.FormatUnknown} {
		t.Run(format.String(), func(t *testing.T) {
			_, err := New(Config{
				InFormat: audio.F32, InRate: 48000, InChannels: 2,
				OutFormat: format, OutRate: 48000, OutChannels: 2,
			})
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
			}
			var ufe *UnsupportedFormatError
			if !errors.As(err, &ufe) || ufe.Format != format {
				t.Errorf("expected format %s in error, got %v", format, err)
			}
		})
	}

	for _, format := range []audio.SampleFormat{audio.F32, audio.F64, audio.I16, audio.I32, audio.I64, audio.U8} {
		if err := CheckFormat(format); err != nil {
			t.Errorf("expected %s supported, got %v", format, err)
		}
	}
}

func TestFrameMismatch(t *testing.T) {
	r, err := New(Config{
		InFormat: audio.F32, InRate: 48000, InChannels: 2,
		OutFormat: audio.F32, OutRate: 48000, OutChannels: 2,
	})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if _, err := r.Run(f32Frame(t, 1, 48000, []float32{0})); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("expected ErrFormatMismatch, got %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []Config{
		{InFormat: audio.F32, InRate: 0, InChannels: 2, OutFormat: audio.F32, OutRate: 48000, OutChannels: 2},
		{InFormat: audio.F32, InRate: 48000, InChannels: 0, OutFormat: audio.F32, OutRate: 48000, OutChannels: 2},
	}
	for _, cfg := range tests {
		if _, err := New(cfg); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestParseQuality(t *testing.T) {
	if q, err := ParseQuality("cubic"); err != nil || q != Cubic {
		t.Errorf("expected cubic, got %v (%v)", q, err)
	}
	if q, err := ParseQuality(""); err != nil || q != Linear {
		t.Errorf("expected linear default, got %v (%v)", q, err)
	}
	if _, err := ParseQuality("sinc"); err == nil {
		t.Error("expected error for unknown quality")
	}
}
