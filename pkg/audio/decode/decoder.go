// ABOUTME: Decoder and container interface definitions
// ABOUTME: Streams, packets, best-stream selection and the codec factory
package decode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/frame"
)

var (
	// ErrAgain means the decoder needs another packet before it can emit a frame
	ErrAgain = errors.New("decoder needs more input")
	// ErrStreamNotFound is returned when a container has no playable audio stream
	ErrStreamNotFound = errors.New("no audio stream found")
	// ErrUnsupportedCodec is returned for codecs no decoder handles
	ErrUnsupportedCodec = errors.New("unsupported codec")
	// ErrFlushed is returned when a packet is sent after the end-of-input flush
	ErrFlushed = errors.New("decoder already flushed")
)

// MediaType classifies a container stream
type MediaType int

const (
	MediaUnknown MediaType = iota
	MediaAudio
	MediaVideo
	MediaSubtitle
	MediaData
)

func (t MediaType) String() string {
	switch t {
	case MediaAudio:
		return "audio"
	case MediaVideo:
		return "video"
	case MediaSubtitle:
		return "subtitle"
	case MediaData:
		return "data"
	}
	return "unknown"
}

// Stream describes one elementary stream inside a container
type Stream struct {
	Index int
	Type  MediaType
	// Codec is the encoding of the stream's packets
	Codec string
	// SourceCodec is the encoding stored in the file, e.g. "mp3"
	SourceCodec string
	SampleRate  int
	Channels    int
	BitDepth    int
	Default     bool
}

// Packet is a chunk of encoded data belonging to one stream.
// Data is only valid until the next ReadPacket call.
type Packet struct {
	StreamIndex int
	Data        []byte
	PTS         int64
}

// Container yields packets from a media file in file order
type Container interface {
	Streams() []Stream
	// ReadPacket returns io.EOF after the last packet
	ReadPacket() (*Packet, error)
	Close() error
}

// Selector is implemented by containers that only demux the streams they are told to
type Selector interface {
	SelectStream(index int) error
}

// Decoder turns packets into frames with send/receive semantics.
// After SendPacket, ReceiveFrame is called until it returns ErrAgain;
// a nil packet flushes, after which ReceiveFrame returns io.EOF once drained.
type Decoder interface {
	Format() audio.Format
	SendPacket(pkt *Packet) error
	ReceiveFrame() (*frame.Frame, error)
	Close() error
}

// BestStream picks the audio stream to play: the default-flagged one,
// then the one with most channels, then the lowest index.
func BestStream(streams []Stream) (Stream, error) {
	var best Stream
	found := false
	for _, s := range streams {
		if s.Type != MediaAudio {
			continue
		}
		if !found || better(s, best) {
			best = s
			found = true
		}
	}
	if !found {
		return Stream{}, ErrStreamNotFound
	}
	return best, nil
}

func better(a, b Stream) bool {
	if a.Default != b.Default {
		return a.Default
	}
	if a.Channels != b.Channels {
		return a.Channels > b.Channels
	}
	return a.Index < b.Index
}

// NewDecoder creates a decoder for the stream's packet codec
func NewDecoder(stream Stream) (Decoder, error) {
	if stream.Type != MediaAudio {
		return nil, fmt.Errorf("stream %d is %s: %w", stream.Index, stream.Type, ErrUnsupportedCodec)
	}

	switch {
	case strings.HasPrefix(stream.Codec, "pcm_"):
		return NewPCM(stream)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, stream.Codec)
	}
}
