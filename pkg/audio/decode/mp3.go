// ABOUTME: MP3 container
// ABOUTME: Decodes MP3 with go-mp3 into 16-bit stereo PCM packets
package decode

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// OpenMP3 opens an MP3 file. go-mp3 always decodes to 16-bit stereo.
func OpenMP3(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	stream := Stream{
		Index:       0,
		Type:        MediaAudio,
		Codec:       "pcm_s16le",
		SourceCodec: "mp3",
		SampleRate:  dec.SampleRate(),
		Channels:    2,
		BitDepth:    16,
		Default:     true,
	}
	return newReaderContainer(stream, dec, f, 2), nil
}
