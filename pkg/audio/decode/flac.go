// ABOUTME: FLAC container
// ABOUTME: Parses FLAC frames with mewkiz/flac into planar 32-bit packets
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

type flacContainer struct {
	stream  *flac.Stream
	streams []Stream
	shift   uint
	buf     []byte
	pts     int64
}

// OpenFLAC opens a FLAC file. Each FLAC frame becomes one planar packet.
func OpenFLAC(path string) (Container, error) {
	s, err := flac.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flac stream: %w", err)
	}

	bits := int(s.Info.BitsPerSample)
	if bits <= 0 || bits > 32 {
		s.Close()
		return nil, fmt.Errorf("%w: flac at %d bits", ErrUnsupportedCodec, bits)
	}

	return &flacContainer{
		stream: s,
		streams: []Stream{{
			Index:       0,
			Type:        MediaAudio,
			Codec:       "pcm_s32le_planar",
			SourceCodec: "flac",
			SampleRate:  int(s.Info.SampleRate),
			Channels:    int(s.Info.NChannels),
			BitDepth:    bits,
			Default:     true,
		}},
		shift: uint(32 - bits),
	}, nil
}

func (c *flacContainer) Streams() []Stream {
	return c.streams
}

func (c *flacContainer) ReadPacket() (*Packet, error) {
	fr, err := c.stream.ParseNext()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("flac frame parse failed: %w", err)
	}
	if len(fr.Subframes) == 0 {
		return nil, fmt.Errorf("flac frame without subframes")
	}

	samples := len(fr.Subframes[0].Samples)
	size := len(fr.Subframes) * samples * 4
	if cap(c.buf) < size {
		c.buf = make([]byte, size)
	}
	c.buf = c.buf[:size]

	for ch, sub := range fr.Subframes {
		plane := c.buf[ch*samples*4:]
		for i, s := range sub.Samples[:samples] {
			binary.LittleEndian.PutUint32(plane[i*4:], uint32(s<<c.shift))
		}
	}

	pkt := &Packet{StreamIndex: 0, Data: c.buf, PTS: c.pts}
	c.pts += int64(samples)
	return pkt, nil
}

func (c *flacContainer) Close() error {
	return c.stream.Close()
}
