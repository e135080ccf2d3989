// ABOUTME: Shared test fixtures for playback tests
// ABOUTME: In-memory container producing float PCM packets
package ringplay

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/Resonate-Protocol/ringplay/pkg/audio/decode"
)

// memContainer serves prepared packets in order
type memContainer struct {
	streams  []decode.Stream
	packets  []*decode.Packet
	selected int
	closed   bool
}

func (c *memContainer) Streams() []decode.Stream {
	return c.streams
}

func (c *memContainer) ReadPacket() (*decode.Packet, error) {
	if len(c.packets) == 0 {
		return nil, io.EOF
	}
	pkt := c.packets[0]
	c.packets = c.packets[1:]
	return pkt, nil
}

func (c *memContainer) SelectStream(index int) error {
	c.selected = index
	return nil
}

func (c *memContainer) Close() error {
	c.closed = true
	return nil
}

func f32Stream(index, rate, channels int) decode.Stream {
	return decode.Stream{
		Index:       index,
		Type:        decode.MediaAudio,
		Codec:       "pcm_f32le",
		SourceCodec: "test",
		SampleRate:  rate,
		Channels:    channels,
	}
}

// f32Packets encodes samples into packets of at most per samples, with a
// video packet for stream 0 interleaved after every audio packet
func f32Packets(stream int, samples []float32, per int, withVideo bool) []*decode.Packet {
	var packets []*decode.Packet
	for start := 0; start < len(samples); start += per {
		end := min(start+per, len(samples))
		data := make([]byte, 4*(end-start))
		for i, v := range samples[start:end] {
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
		}
		packets = append(packets, &decode.Packet{StreamIndex: stream, Data: data, PTS: int64(start)})
		if withVideo {
			packets = append(packets, &decode.Packet{StreamIndex: 0, Data: []byte{0, 0, 0, 1}})
		}
	}
	return packets
}

func ramp(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(i%200)/200 - 0.5
	}
	return s
}

func constant(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}
