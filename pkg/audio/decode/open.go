// ABOUTME: Container opening by file extension
// ABOUTME: Registry of format openers with an ffmpeg fallback for everything else
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// packetFrames is the number of sample frames read into each packet
const packetFrames = 4096

// OpenFunc opens a media file as a Container
type OpenFunc func(path string) (Container, error)

var formats = map[string]OpenFunc{
	".wav":  OpenWAV,
	".wave": OpenWAV,
	".aif":  OpenAIFF,
	".aiff": OpenAIFF,
	".mp3":  OpenMP3,
	".flac": OpenFLAC,
	".ogg":  OpenVorbis,
	".oga":  OpenVorbis,
	".opus": OpenOpus,
}

// Register associates a file extension (including the dot) with an opener
func Register(ext string, open OpenFunc) {
	formats[strings.ToLower(ext)] = open
}

// Opener opens media files, trying native decoders by extension before ffmpeg
type Opener struct {
	// FFmpegPath overrides the ffmpeg binary used for other formats
	FFmpegPath string
}

// Open opens path with the default Opener
func Open(path string) (Container, error) {
	return Opener{}.Open(path)
}

// Open opens path, picking a container implementation from its extension
func (o Opener) Open(path string) (Container, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if open, ok := formats[strings.ToLower(filepath.Ext(path))]; ok {
		return open(path)
	}
	return OpenFFmpeg(path, o.FFmpegPath)
}

// readerContainer exposes a single stream of raw sample bytes as packets
type readerContainer struct {
	streams []Stream
	r       io.Reader
	closer  io.Closer
	buf     []byte
	stride  int
	pts     int64
}

func newReaderContainer(stream Stream, r io.Reader, closer io.Closer, width int) *readerContainer {
	stride := width * stream.Channels
	return &readerContainer{
		streams: []Stream{stream},
		r:       r,
		closer:  closer,
		buf:     make([]byte, packetFrames*stride),
		stride:  stride,
	}
}

func (c *readerContainer) Streams() []Stream {
	return c.streams
}

func (c *readerContainer) ReadPacket() (*Packet, error) {
	n, err := io.ReadFull(c.r, c.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read %s data: %w", c.streams[0].SourceCodec, err)
	}
	if n == 0 {
		return nil, io.EOF
	}

	pkt := &Packet{
		StreamIndex: c.streams[0].Index,
		Data:        c.buf[:n],
		PTS:         c.pts,
	}
	c.pts += int64(n / c.stride)
	return pkt, nil
}

func (c *readerContainer) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// closers closes every element in order and reports the first failure
type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
