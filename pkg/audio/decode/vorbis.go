// ABOUTME: Ogg Vorbis container
// ABOUTME: Decodes Vorbis with oggvorbis into 32-bit float PCM packets
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// OpenVorbis opens an Ogg Vorbis file
func OpenVorbis(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create vorbis decoder: %w", err)
	}

	stream := Stream{
		Index:       0,
		Type:        MediaAudio,
		Codec:       "pcm_f32le",
		SourceCodec: "vorbis",
		SampleRate:  dec.SampleRate(),
		Channels:    dec.Channels(),
		BitDepth:    32,
		Default:     true,
	}
	return newReaderContainer(stream, &floatReader{read: dec.Read}, f, 4), nil
}

// maxEmptyReads bounds consecutive reads that return neither samples nor an error
const maxEmptyReads = 100

// floatReader encodes interleaved float32 samples as little-endian bytes.
// read returns the number of values written, not frames.
type floatReader struct {
	read    func([]float32) (int, error)
	scratch []float32
}

func (r *floatReader) Read(p []byte) (int, error) {
	want := len(p) / 4
	if want == 0 {
		return 0, io.ErrShortBuffer
	}
	if cap(r.scratch) < want {
		r.scratch = make([]float32, want)
	}
	buf := r.scratch[:want]

	for i := 0; i < maxEmptyReads; i++ {
		n, err := r.read(buf)
		for j, v := range buf[:n] {
			binary.LittleEndian.PutUint32(p[j*4:], math.Float32bits(v))
		}
		if n > 0 || err != nil {
			return n * 4, err
		}
	}
	return 0, io.ErrNoProgress
}
