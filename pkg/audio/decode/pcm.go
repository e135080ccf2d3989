// ABOUTME: PCM audio decoder
// ABOUTME: Reframes raw PCM packets into fixed-size native-endian frames
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/frame"
)

// FrameSize is the number of samples per channel in each emitted packed frame
const FrameSize = 1024

type pcmCodec struct {
	width  int // bytes per input sample
	format audio.SampleFormat
	planar bool
	bits   int
	decode func(dst, src []byte) error
}

var pcmCodecs = map[string]pcmCodec{
	"pcm_u8": {1, audio.U8, false, 8, func(dst, src []byte) error {
		copy(dst, src)
		return nil
	}},
	"pcm_s8": {1, audio.I16, false, 8, convert(1, func(b []byte) int16 {
		return int16(int8(b[0])) << 8
	})},
	"pcm_s16le": {2, audio.I16, false, 16, convert(2, func(b []byte) int16 {
		return int16(binary.LittleEndian.Uint16(b))
	})},
	"pcm_s16be": {2, audio.I16, false, 16, convert(2, func(b []byte) int16 {
		return int16(binary.BigEndian.Uint16(b))
	})},
	"pcm_s24le": {3, audio.I32, false, 24, convert(3, func(b []byte) int32 {
		return audio.SampleFrom24Bit([3]byte{b[0], b[1], b[2]}) << 8
	})},
	"pcm_s24be": {3, audio.I32, false, 24, convert(3, func(b []byte) int32 {
		return audio.SampleFrom24Bit([3]byte{b[2], b[1], b[0]}) << 8
	})},
	"pcm_s32le": {4, audio.I32, false, 32, convert(4, func(b []byte) int32 {
		return int32(binary.LittleEndian.Uint32(b))
	})},
	"pcm_s32be": {4, audio.I32, false, 32, convert(4, func(b []byte) int32 {
		return int32(binary.BigEndian.Uint32(b))
	})},
	"pcm_s32le_planar": {4, audio.I32, true, 32, convert(4, func(b []byte) int32 {
		return int32(binary.LittleEndian.Uint32(b))
	})},
	"pcm_f32le": {4, audio.F32, false, 32, convert(4, func(b []byte) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	})},
	"pcm_f32be": {4, audio.F32, false, 32, convert(4, func(b []byte) float32 {
		return math.Float32frombits(binary.BigEndian.Uint32(b))
	})},
	"pcm_f64le": {8, audio.F64, false, 64, convert(8, func(b []byte) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	})},
}

// convert builds a decode func writing one T per width bytes of input
func convert[T frame.Sample](width int, conv func([]byte) T) func(dst, src []byte) error {
	return func(dst, src []byte) error {
		out, err := frame.View[T](dst)
		if err != nil {
			return err
		}
		for i := range out {
			out[i] = conv(src[i*width:])
		}
		return nil
	}
}

// PCMDecoder decodes PCM packets. Packed input is buffered across packets and
// emitted in FrameSize frames; planar input is emitted one frame per packet.
type PCMDecoder struct {
	format   audio.Format
	codec    pcmCodec
	pending  []byte
	queued   []*Packet
	pts      int64
	flushing bool
}

// NewPCM creates a new PCM decoder
func NewPCM(stream Stream) (*PCMDecoder, error) {
	if !strings.HasPrefix(stream.Codec, "pcm_") {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", stream.Codec)
	}

	codec, ok := pcmCodecs[stream.Codec]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, stream.Codec)
	}
	if stream.Channels <= 0 || stream.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid PCM stream: %d channels at %dHz", stream.Channels, stream.SampleRate)
	}

	layout := audio.Packed
	if codec.planar {
		layout = audio.Planar
	}

	bitDepth := stream.BitDepth
	if bitDepth == 0 {
		bitDepth = codec.bits
	}

	return &PCMDecoder{
		format: audio.Format{
			Codec:        stream.Codec,
			SampleFormat: codec.format,
			Layout:       layout,
			SampleRate:   stream.SampleRate,
			Channels:     stream.Channels,
			BitDepth:     bitDepth,
		},
		codec: codec,
	}, nil
}

// Format describes the frames this decoder emits
func (d *PCMDecoder) Format() audio.Format {
	return d.format
}

// SendPacket queues a packet for decoding; nil starts the flush
func (d *PCMDecoder) SendPacket(pkt *Packet) error {
	if d.flushing {
		if pkt == nil {
			return nil
		}
		return ErrFlushed
	}
	if pkt == nil {
		d.flushing = true
		return nil
	}

	if d.codec.planar {
		d.queued = append(d.queued, &Packet{
			StreamIndex: pkt.StreamIndex,
			Data:        append([]byte(nil), pkt.Data...),
			PTS:         pkt.PTS,
		})
		return nil
	}

	d.pending = append(d.pending, pkt.Data...)
	return nil
}

// ReceiveFrame returns the next decoded frame, ErrAgain, or io.EOF once flushed and drained
func (d *PCMDecoder) ReceiveFrame() (*frame.Frame, error) {
	if d.codec.planar {
		return d.receivePlanar()
	}

	stride := d.codec.width * d.format.Channels
	want := FrameSize * stride

	switch {
	case len(d.pending) >= want:
		return d.emit(want)
	case d.flushing:
		whole := len(d.pending) / stride * stride
		if whole == 0 {
			// trailing partial sample frame is dropped
			d.pending = d.pending[:0]
			return nil, io.EOF
		}
		return d.emit(whole)
	default:
		return nil, ErrAgain
	}
}

func (d *PCMDecoder) emit(n int) (*frame.Frame, error) {
	samples := n / (d.codec.width * d.format.Channels)
	f := frame.Alloc(d.codec.format, audio.Packed, d.format.Channels, d.format.SampleRate, samples)
	f.PTS = d.pts

	if err := d.codec.decode(f.Planes[0], d.pending[:n]); err != nil {
		return nil, fmt.Errorf("pcm decode failed: %w", err)
	}

	d.pts += int64(samples)
	d.pending = append(d.pending[:0], d.pending[n:]...)
	return f, nil
}

func (d *PCMDecoder) receivePlanar() (*frame.Frame, error) {
	if len(d.queued) == 0 {
		if d.flushing {
			return nil, io.EOF
		}
		return nil, ErrAgain
	}

	pkt := d.queued[0]
	d.queued[0] = nil
	d.queued = d.queued[1:]

	channels := d.format.Channels
	planeBytes := len(pkt.Data) / channels
	samples := planeBytes / d.codec.width

	f := frame.Alloc(d.codec.format, audio.Planar, channels, d.format.SampleRate, samples)
	f.PTS = pkt.PTS
	for ch := 0; ch < channels; ch++ {
		src := pkt.Data[ch*planeBytes : ch*planeBytes+samples*d.codec.width]
		if err := d.codec.decode(f.Planes[ch], src); err != nil {
			return nil, fmt.Errorf("pcm decode failed: %w", err)
		}
	}

	d.pts = pkt.PTS + int64(samples)
	return f, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	d.pending = nil
	d.queued = nil
	return nil
}
