// ABOUTME: ffmpeg-backed container for formats without a native decoder
// ABOUTME: Enumerates streams with ffprobe and pipes the chosen one as float PCM
package decode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type ffmpegContainer struct {
	path     string
	bin      string
	streams  []Stream
	selected int

	cmd    *exec.Cmd
	pipe   *io.PipeReader
	done   chan struct{}
	stderr bytes.Buffer
	reader *readerContainer
}

// OpenFFmpeg probes path with ffprobe. Decoding starts on the first ReadPacket,
// so SelectStream can pick any audio stream before then. bin overrides the
// ffmpeg binary when not empty.
func OpenFFmpeg(path, bin string) (Container, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", path, err)
	}

	streams, err := parseProbe([]byte(out))
	if err != nil {
		return nil, err
	}

	return &ffmpegContainer{
		path:     path,
		bin:      bin,
		streams:  streams,
		selected: -1,
	}, nil
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index            int    `json:"index"`
	CodecType        string `json:"codec_type"`
	CodecName        string `json:"codec_name"`
	SampleRate       string `json:"sample_rate"`
	Channels         int    `json:"channels"`
	BitsPerRawSample string `json:"bits_per_raw_sample"`
	Disposition      struct {
		Default int `json:"default"`
	} `json:"disposition"`
}

var mediaTypes = map[string]MediaType{
	"audio":    MediaAudio,
	"video":    MediaVideo,
	"subtitle": MediaSubtitle,
	"data":     MediaData,
}

func parseProbe(data []byte) ([]Stream, error) {
	var result probeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	streams := make([]Stream, 0, len(result.Streams))
	for _, ps := range result.Streams {
		s := Stream{
			Index:       ps.Index,
			Type:        mediaTypes[ps.CodecType],
			Codec:       ps.CodecName,
			SourceCodec: ps.CodecName,
			Channels:    ps.Channels,
			Default:     ps.Disposition.Default == 1,
		}
		if s.Type == MediaAudio {
			// ffmpeg converts the selected stream to interleaved float
			s.Codec = "pcm_f32le"
			s.SampleRate, _ = strconv.Atoi(ps.SampleRate)
			s.BitDepth, _ = strconv.Atoi(ps.BitsPerRawSample)
		}
		streams = append(streams, s)
	}
	return streams, nil
}

func (c *ffmpegContainer) Streams() []Stream {
	return c.streams
}

// SelectStream chooses the audio stream to decode; it must precede the first ReadPacket
func (c *ffmpegContainer) SelectStream(index int) error {
	if c.reader != nil {
		return errors.New("stream already selected: decoding has started")
	}
	for _, s := range c.streams {
		if s.Index == index {
			if s.Type != MediaAudio {
				return fmt.Errorf("stream %d is %s, not audio", index, s.Type)
			}
			c.selected = index
			return nil
		}
	}
	return fmt.Errorf("stream %d: %w", index, ErrStreamNotFound)
}

func (c *ffmpegContainer) ReadPacket() (*Packet, error) {
	if c.reader == nil {
		if err := c.start(); err != nil {
			return nil, err
		}
	}
	return c.reader.ReadPacket()
}

func (c *ffmpegContainer) start() error {
	stream, err := c.stream()
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()
	cmdStream := ffmpeg.Input(c.path, ffmpeg.KwArgs{
		"loglevel": "error",
		"nostdin":  "",
	}).Output("pipe:", ffmpeg.KwArgs{
		"map":    fmt.Sprintf("0:%d", stream.Index),
		"f":      "f32le",
		"acodec": "pcm_f32le",
	}).WithOutput(pw).WithErrorOutput(&c.stderr)

	if c.bin != "" {
		cmdStream.SetFfmpegPath(c.bin)
	}

	cmd := cmdStream.Compile()
	if err := cmd.Start(); err != nil {
		pw.Close()
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	c.cmd = cmd
	c.pipe = pr
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		if err := cmd.Wait(); err != nil {
			pw.CloseWithError(fmt.Errorf("ffmpeg exited: %w: %s", err, bytes.TrimSpace(c.stderr.Bytes())))
			return
		}
		pw.Close()
	}()

	c.reader = newReaderContainer(stream, pr, nil, 4)
	return nil
}

func (c *ffmpegContainer) stream() (Stream, error) {
	if c.selected < 0 {
		return BestStream(c.streams)
	}
	for _, s := range c.streams {
		if s.Index == c.selected {
			return s, nil
		}
	}
	return Stream{}, ErrStreamNotFound
}

func (c *ffmpegContainer) Close() error {
	if c.cmd == nil || c.done == nil {
		return nil
	}
	c.pipe.Close()
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	<-c.done
	c.cmd = nil
	return nil
}
