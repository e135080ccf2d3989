// ABOUTME: WAV container
// ABOUTME: Streams the raw PCM chunk of a RIFF/WAVE file as packets
package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// OpenWAV opens a WAV file
func OpenWAV(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s: invalid WAV file", path)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to find PCM data: %w", err)
	}

	codec, err := wavCodec(dec.WavAudioFormat, int(dec.BitDepth))
	if err != nil {
		f.Close()
		return nil, err
	}

	stream := Stream{
		Index:       0,
		Type:        MediaAudio,
		Codec:       codec,
		SourceCodec: "wav",
		SampleRate:  int(dec.SampleRate),
		Channels:    int(dec.NumChans),
		BitDepth:    int(dec.BitDepth),
		Default:     true,
	}

	return newReaderContainer(stream, pcmReader(dec.PCMChunk, dec.PCMLen()), f, int(dec.BitDepth)/8), nil
}

// pcmReader bounds reads to the data chunk so trailing chunks are not played
func pcmReader(chunk *riff.Chunk, size int64) io.Reader {
	return io.LimitReader(chunk, size)
}

func wavCodec(format uint16, bitDepth int) (string, error) {
	switch format {
	case wavFormatPCM, wavFormatExtensible:
		switch bitDepth {
		case 8:
			return "pcm_u8", nil
		case 16:
			return "pcm_s16le", nil
		case 24:
			return "pcm_s24le", nil
		case 32:
			return "pcm_s32le", nil
		}
	case wavFormatFloat:
		switch bitDepth {
		case 32:
			return "pcm_f32le", nil
		case 64:
			return "pcm_f64le", nil
		}
	}
	return "", fmt.Errorf("%w: wav format %d at %d bits", ErrUnsupportedCodec, format, bitDepth)
}
