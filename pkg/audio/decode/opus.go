//go:build !noopus

// ABOUTME: Ogg Opus container
// ABOUTME: Decodes Opus files with libopusfile into 48kHz float PCM packets
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/hraban/opus.v2"
)

// opusRate is the fixed output rate of the Opus decoder
const opusRate = 48000

// OpenOpus opens an Ogg Opus file
func OpenOpus(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	channels, err := opusChannels(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	s, err := opus.NewStream(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create opus stream: %w", err)
	}

	stream := Stream{
		Index:       0,
		Type:        MediaAudio,
		Codec:       "pcm_f32le",
		SourceCodec: "opus",
		SampleRate:  opusRate,
		Channels:    channels,
		BitDepth:    32,
		Default:     true,
	}

	read := func(pcm []float32) (int, error) {
		n, err := s.ReadFloat32(pcm)
		return n * channels, err
	}
	return newReaderContainer(stream, &floatReader{read: read}, closers{s, f}, 4), nil
}

// opusChannels reads the channel count from the OpusHead packet and rewinds
func opusChannels(rs io.ReadSeeker) (int, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(rs, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("failed to read opus header: %w", err)
	}
	head = head[:n]

	idx := bytes.Index(head, []byte("OpusHead"))
	if idx < 0 || idx+9 >= len(head) {
		return 0, fmt.Errorf("missing OpusHead packet")
	}
	channels := int(head[idx+9])
	if channels == 0 {
		return 0, fmt.Errorf("opus header declares zero channels")
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind opus file: %w", err)
	}
	return channels, nil
}
