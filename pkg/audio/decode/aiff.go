// ABOUTME: AIFF container
// ABOUTME: Re-encodes go-audio integer buffers as little-endian PCM packets
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

// OpenAIFF opens an AIFF file
func OpenAIFF(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s: invalid AIFF file", path)
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil {
		f.Close()
		return nil, fmt.Errorf("%s: missing AIFF format", path)
	}

	bits := int(dec.BitDepth)
	var codec string
	switch bits {
	case 8:
		codec = "pcm_s8"
	case 16:
		codec = "pcm_s16le"
	case 24:
		codec = "pcm_s24le"
	case 32:
		codec = "pcm_s32le"
	default:
		f.Close()
		return nil, fmt.Errorf("%w: aiff at %d bits", ErrUnsupportedCodec, bits)
	}

	stream := Stream{
		Index:       0,
		Type:        MediaAudio,
		Codec:       codec,
		SourceCodec: "aiff",
		SampleRate:  format.SampleRate,
		Channels:    format.NumChannels,
		BitDepth:    bits,
		Default:     true,
	}

	r := &intReader{
		dec:   dec,
		width: bits / 8,
		buf:   &goaudio.IntBuffer{Format: format, SourceBitDepth: bits},
	}
	return newReaderContainer(stream, r, f, bits/8), nil
}

type pcmBufferReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// intReader encodes decoded integer samples back into little-endian bytes
type intReader struct {
	dec   pcmBufferReader
	width int
	buf   *goaudio.IntBuffer
}

func (r *intReader) Read(p []byte) (int, error) {
	want := len(p) / r.width
	if want == 0 {
		return 0, io.ErrShortBuffer
	}
	if cap(r.buf.Data) < want {
		r.buf.Data = make([]int, want)
	}
	r.buf.Data = r.buf.Data[:want]

	n, err := r.dec.PCMBuffer(r.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	for i, v := range r.buf.Data[:n] {
		b := p[i*r.width:]
		switch r.width {
		case 1:
			b[0] = byte(int8(v))
		case 2:
			binary.LittleEndian.PutUint16(b, uint16(int16(v)))
		case 3:
			s := audio.SampleTo24Bit(int32(v))
			copy(b, s[:])
		case 4:
			binary.LittleEndian.PutUint32(b, uint32(int32(v)))
		}
	}
	return n * r.width, err
}
