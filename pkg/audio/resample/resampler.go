// ABOUTME: Stateful resampler converting format, layout, channel count and rate
// ABOUTME: Uses linear or Catmull-Rom cubic interpolation across frame boundaries
package resample

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/frame"
)

// Quality selects the interpolation used for rate conversion
type Quality int

const (
	Linear Quality = iota
	Cubic
)

func (q Quality) String() string {
	if q == Cubic {
		return "cubic"
	}
	return "linear"
}

// ParseQuality maps a name to a Quality
func ParseQuality(name string) (Quality, error) {
	switch name {
	case "", "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	}
	return Linear, fmt.Errorf("unknown resampler quality %q", name)
}

// ErrFormatMismatch is returned when a frame does not match the configured input
var ErrFormatMismatch = errors.New("frame does not match resampler input")

// Config describes a conversion. The output is always packed.
type Config struct {
	InFormat   audio.SampleFormat
	InLayout   audio.Layout
	InRate     int
	InChannels int

	OutFormat   audio.SampleFormat
	OutRate     int
	OutChannels int

	Quality Quality
}

// Resampler converts frames from one configuration to another. It keeps
// interpolation history between calls so consecutive frames join seamlessly.
type Resampler struct {
	cfg         Config
	passthrough bool
	ratio       float64
	position    float64
	pts         int64
	history     []float64 // interleaved at OutChannels, frames not yet fully consumed

	scratch []float64
	mixed   []float64
	out     *frame.Frame
}

// New creates a resampler, rejecting formats it cannot read or write
func New(cfg Config) (*Resampler, error) {
	if err := CheckFormat(cfg.InFormat); err != nil {
		return nil, err
	}
	if err := CheckFormat(cfg.OutFormat); err != nil {
		return nil, err
	}
	if cfg.InRate <= 0 || cfg.OutRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", cfg.InRate, cfg.OutRate)
	}
	if cfg.InChannels <= 0 || cfg.OutChannels <= 0 {
		return nil, fmt.Errorf("invalid channel counts %d -> %d", cfg.InChannels, cfg.OutChannels)
	}

	return &Resampler{
		cfg: cfg,
		passthrough: cfg.InFormat == cfg.OutFormat &&
			cfg.InLayout == audio.Packed &&
			cfg.InRate == cfg.OutRate &&
			cfg.InChannels == cfg.OutChannels,
		ratio: float64(cfg.InRate) / float64(cfg.OutRate),
	}, nil
}

// Config returns the conversion this resampler performs
func (r *Resampler) Config() Config {
	return r.cfg
}

// Run converts one frame. The returned frame may be the input itself when no
// conversion is needed, and otherwise is reused by the next call to Run.
// Rate conversion can hold back up to a few frames of history, so the
// result may be empty; Flush emits what is left.
func (r *Resampler) Run(in *frame.Frame) (*frame.Frame, error) {
	if in.Format != r.cfg.InFormat || in.Layout != r.cfg.InLayout ||
		in.Channels != r.cfg.InChannels || in.SampleRate != r.cfg.InRate {
		return nil, fmt.Errorf("%w: got %s", ErrFormatMismatch, in)
	}
	if r.passthrough {
		return in, nil
	}

	var err error
	r.scratch, err = readFloats(in, r.scratch)
	if err != nil {
		return nil, err
	}
	r.mixed = remix(r.scratch, in.Samples, r.cfg.InChannels, r.cfg.OutChannels, r.mixed)

	if r.cfg.InRate == r.cfg.OutRate {
		return r.emit(r.mixed, in.Samples, in.PTS)
	}

	r.history = append(r.history, r.mixed...)
	r.pts = in.PTS
	out, frames := r.interpolate(false)
	return r.emit(out, frames, in.PTS)
}

// Flush emits the samples still held as interpolation history
func (r *Resampler) Flush() (*frame.Frame, error) {
	if r.passthrough || len(r.history) == 0 {
		return nil, nil
	}
	out, frames := r.interpolate(true)
	r.history = r.history[:0]
	r.position = 0
	if frames == 0 {
		return nil, nil
	}
	return r.emit(out, frames, r.pts)
}

// Reset drops all history
func (r *Resampler) Reset() {
	r.history = r.history[:0]
	r.position = 0
}

// OutputSamplesNeeded estimates how many output samples inputSamples produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.cfg.InChannels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.cfg.OutChannels
}

// interpolate consumes r.history, producing frames until the interpolation
// window would run past the buffered input. When flushing, the last frame
// is repeated so the tail can be consumed.
func (r *Resampler) interpolate(flush bool) ([]float64, int) {
	ch := r.cfg.OutChannels
	lookahead := 1
	if r.cfg.Quality == Cubic {
		lookahead = 2
	}

	buffered := len(r.history) / ch
	if flush && buffered > 0 {
		last := r.history[(buffered-1)*ch : buffered*ch]
		for i := 0; i < lookahead; i++ {
			r.history = append(r.history, last...)
		}
	}
	total := len(r.history) / ch

	out := r.scratch[:0]
	frames := 0
	for {
		idx := int(r.position)
		if idx+lookahead >= total || (flush && idx >= buffered) {
			break
		}
		frac := r.position - float64(idx)
		for c := 0; c < ch; c++ {
			out = append(out, r.sample(idx, c, frac))
		}
		frames++
		r.position += r.ratio
	}
	r.scratch = out

	// keep one frame before the current position for cubic interpolation
	keep := int(r.position) - 1
	if keep > 0 {
		keep = min(keep, total)
		r.history = append(r.history[:0], r.history[keep*ch:]...)
		r.position -= float64(keep)
	}
	return out, frames
}

func (r *Resampler) sample(idx, c int, frac float64) float64 {
	ch := r.cfg.OutChannels
	at := func(i int) float64 {
		i = max(i, 0)
		return r.history[i*ch+c]
	}

	if r.cfg.Quality == Cubic {
		return cubic(at(idx-1), at(idx), at(idx+1), at(idx+2), frac)
	}
	return at(idx)*(1-frac) + at(idx+1)*frac
}

// cubic is Catmull-Rom spline interpolation between y1 and y2
func cubic(y0, y1, y2, y3, x float64) float64 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1
	return a0*x*x*x + a1*x*x + a2*x + a3
}

func (r *Resampler) emit(samples []float64, frames int, pts int64) (*frame.Frame, error) {
	if r.out == nil || cap(r.out.Planes[0]) < frames*r.cfg.OutChannels*r.cfg.OutFormat.BytesPerSample() {
		r.out = frame.Alloc(r.cfg.OutFormat, audio.Packed, r.cfg.OutChannels, r.cfg.OutRate, frames)
	}

	out := r.out
	out.Samples = frames
	out.PTS = pts
	out.Planes[0] = out.Planes[0][:frames*r.cfg.OutChannels*r.cfg.OutFormat.BytesPerSample()]

	if err := writeFloats(out, samples[:frames*r.cfg.OutChannels]); err != nil {
		return nil, err
	}
	return out, nil
}

// remix maps in channels to out channels: mono is duplicated, downmix to
// mono averages, anything else maps output channel i to input i mod in.
func remix(in []float64, frames, inCh, outCh int, dst []float64) []float64 {
	if inCh == outCh {
		return append(dst[:0], in[:frames*inCh]...)
	}

	dst = dst[:0]
	for f := 0; f < frames; f++ {
		src := in[f*inCh : (f+1)*inCh]
		switch {
		case outCh == 1:
			var sum float64
			for _, v := range src {
				sum += v
			}
			dst = append(dst, sum/float64(inCh))
		case inCh == 1:
			for c := 0; c < outCh; c++ {
				dst = append(dst, src[0])
			}
		default:
			for c := 0; c < outCh; c++ {
				dst = append(dst, src[c%inCh])
			}
		}
	}
	return dst
}
