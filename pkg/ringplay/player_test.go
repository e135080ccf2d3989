// ABOUTME: End-to-end tests for the Player on the null output host
// ABOUTME: Tests full playback, setup errors, device errors and cancellation
package ringplay

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/output"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/resample"
)

func openMem(c *memContainer) func(string) (decode.Container, error) {
	return func(string) (decode.Container, error) {
		return c, nil
	}
}

func fastHost() *output.NullHost {
	return &output.NullHost{Period: time.Millisecond, FramesPerPeriod: 256}
}

func TestNewPlayerDefaults(t *testing.T) {
	p := NewPlayer(output.NewNullHost(), Options{})
	if p.opts.QueueSize != 8192 {
		t.Errorf("expected default queue size 8192, got %d", p.opts.QueueSize)
	}
	if p.opts.DrainTimeout != DefaultDrainTimeout {
		t.Errorf("expected default drain timeout, got %v", p.opts.DrainTimeout)
	}
	if p.opts.Open == nil {
		t.Error("expected default opener")
	}
	if s := p.Stats(); s != (Stats{}) {
		t.Errorf("expected zero stats before Play, got %+v", s)
	}
	if n := p.Samples(make([]float64, 4)); n != 0 {
		t.Errorf("expected no samples before Play, got %d", n)
	}
}

func TestPlayEndToEnd(t *testing.T) {
	c := &memContainer{
		streams: []decode.Stream{{Index: 0, Type: decode.MediaVideo, Codec: "h264"}, f32Stream(1, 48000, 2)},
		packets: f32Packets(1, constant(8000, 0.5), 1000, true),
	}
	h := fastHost()

	var info Info
	p := NewPlayer(h, Options{
		TapSize: 16384,
		Open:    openMem(c),
		OnStart: func(i Info) { info = i },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Play(ctx, "tone.raw"); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	s := p.Stats()
	if s.Played != 8000 || s.Pushed != 8000 {
		t.Errorf("expected 8000 samples played and pushed, got %+v", s)
	}
	if s.Discarded != 8 || s.Packets != 8 {
		t.Errorf("expected 8 audio and 8 discarded packets, got %+v", s)
	}
	if s.Queued != 0 || s.Capacity != 8192 || s.Dropped != 0 || s.Faults != 0 {
		t.Errorf("unexpected stats %+v", s)
	}

	if info.Path != "tone.raw" || info.Stream.Index != 1 || info.Backend != "null" {
		t.Errorf("unexpected start info %+v", info)
	}
	if info.Config != (audio.StreamConfig{Format: audio.F32, Channels: 2, SampleRate: 48000}) {
		t.Errorf("unexpected device config %v", info.Config)
	}
	if c.selected != 1 || !c.closed {
		t.Errorf("expected stream 1 selected and container closed, got %d %v", c.selected, c.closed)
	}

	streams := h.OpenedStreams()
	if len(streams) != 1 || !streams[0].Closed() {
		t.Fatalf("expected one closed device stream, got %d", len(streams))
	}

	dst := make([]float64, 64)
	n := p.Samples(dst)
	if n != 64 {
		t.Fatalf("expected 64 tapped samples, got %d", n)
	}
	for i, v := range dst[:n] {
		if v != 0.5 {
			t.Fatalf("tapped sample %d: expected 0.5, got %v", i, v)
		}
	}
}

func TestPlayDeliversSamplesInOrder(t *testing.T) {
	want := ramp(8000)
	c := &memContainer{
		streams: []decode.Stream{f32Stream(0, 48000, 2)},
		packets: f32Packets(0, want, 1000, false),
	}
	var sink bytes.Buffer
	h := &output.NullHost{Period: 2 * time.Millisecond, FramesPerPeriod: 64, Sink: &sink}

	p := NewPlayer(h, Options{Open: openMem(c)})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Play(ctx, "ramp.raw"); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	raw := sink.Bytes()
	got := make([]float32, len(raw)/4)
	for i := range got {
		got[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}

	// strip the silence written before the first and after the last sample
	start, end := 0, len(got)
	for start < end && got[start] == 0 {
		start++
	}
	for end > start && got[end-1] == 0 {
		end--
	}
	got = got[start:end]

	if len(got) != len(want) {
		t.Fatalf("expected %d samples at the sink, got %d (underruns %d)", len(want), len(got), p.Stats().Underruns)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestPlayConvertsToDeviceFormat(t *testing.T) {
	mono := f32Stream(0, 44100, 1)
	c := &memContainer{
		streams: []decode.Stream{mono},
		packets: f32Packets(0, constant(4410, 0.25), 441, false),
	}
	h := fastHost()
	h.Configs = []output.SupportedConfig{{Format: audio.I16, Channels: 2, MinSampleRate: 8000, MaxSampleRate: 48000}}

	p := NewPlayer(h, Options{Open: openMem(c), Quality: resample.Cubic})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Play(ctx, "mono.raw"); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	s := p.Stats()
	if s.Played != s.Pushed {
		t.Errorf("expected every pushed sample played, got %+v", s)
	}
	if s.Played < 9590 || s.Played > 9610 {
		t.Errorf("expected about 9600 stereo samples at 48kHz, got %d", s.Played)
	}
}

func TestPlayNoAudioStream(t *testing.T) {
	c := &memContainer{streams: []decode.Stream{{Index: 0, Type: decode.MediaVideo, Codec: "h264"}}}
	h := fastHost()

	err := NewPlayer(h, Options{Open: openMem(c)}).Play(context.Background(), "video.mp4")
	if !errors.Is(err, decode.ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound, got %v", err)
	}
	if len(h.OpenedStreams()) != 0 {
		t.Error("expected no device stream opened")
	}
	if !c.closed {
		t.Error("expected container closed")
	}
}

func TestPlayUnsupportedDeviceFormat(t *testing.T) {
	h := fastHost()
	h.Configs = []output.SupportedConfig{{Format: audio.U16, Channels: 2, MinSampleRate: 8000, MaxSampleRate: 48000}}

	opened := false
	p := NewPlayer(h, Options{Open: func(string) (decode.Container, error) {
		opened = true
		return nil, errors.New("unexpected open")
	}})

	err := p.Play(context.Background(), "song.flac")
	if !errors.Is(err, resample.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if opened {
		t.Error("expected negotiation to fail before opening the file")
	}
}

func TestPlayDeviceErrorIsNotFatal(t *testing.T) {
	c := &memContainer{
		streams: []decode.Stream{f32Stream(0, 48000, 2)},
		packets: f32Packets(0, constant(8000, 0.1), 1000, false),
	}
	h := fastHost()
	h.AsyncErr = errors.New("device hiccup")

	p := NewPlayer(h, Options{Open: openMem(c)})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Play(ctx, "tone.raw"); err != nil {
		t.Fatalf("expected device error to be non-fatal, got %v", err)
	}

	s := p.Stats()
	if s.DeviceErrors != 1 {
		t.Errorf("expected 1 device error, got %d", s.DeviceErrors)
	}
	if s.Played != 8000 {
		t.Errorf("expected playback to complete, got %d played", s.Played)
	}
}

func TestPlayCancelled(t *testing.T) {
	c := &memContainer{
		streams: []decode.Stream{f32Stream(0, 48000, 2)},
		packets: f32Packets(0, constant(8000, 0.1), 1000, false),
	}
	h := fastHost()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewPlayer(h, Options{Open: openMem(c)}).Play(ctx, "tone.raw")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	streams := h.OpenedStreams()
	if len(streams) != 1 || !streams[0].Closed() {
		t.Error("expected the device stream closed after cancellation")
	}
}

func TestPlayOpenError(t *testing.T) {
	openErr := errors.New("permission denied")
	p := NewPlayer(fastHost(), Options{Open: func(string) (decode.Container, error) {
		return nil, openErr
	}})
	if err := p.Play(context.Background(), "locked.wav"); !errors.Is(err, openErr) {
		t.Errorf("expected open error, got %v", err)
	}
}
