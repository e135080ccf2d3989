// ABOUTME: Clock-driven output host with no audio hardware
// ABOUTME: Used for headless runs and tests; optionally copies output to a writer
package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/frame"
)

const (
	nullPeriod          = 10 * time.Millisecond
	nullFramesPerPeriod = 480
)

// NullHost has one virtual device whose streams call the data callback
// from a ticker. Zero fields take defaults: a float stereo config from
// 8kHz to 48kHz, and 480 frames every 10ms.
type NullHost struct {
	Configs         []SupportedConfig
	DeviceName      string
	Period          time.Duration
	FramesPerPeriod int
	// Sink receives every buffer after the callback fills it
	Sink io.Writer
	// NoDevice makes the host report no output devices
	NoDevice bool
	// AsyncErr is delivered to the ErrorFunc after the first period
	AsyncErr error

	mu      sync.Mutex
	streams []*NullStream
}

// NewNullHost creates a host with default settings
func NewNullHost() *NullHost {
	return &NullHost{}
}

func (h *NullHost) Name() string {
	return "null"
}

func (h *NullHost) DefaultOutputDevice() (Device, error) {
	if h.NoDevice {
		return nil, ErrNoDevice
	}
	return &nullDevice{host: h}, nil
}

func (h *NullHost) OutputDevices() ([]Device, error) {
	if h.NoDevice {
		return nil, nil
	}
	return []Device{&nullDevice{host: h}}, nil
}

// OpenedStreams returns every stream opened on this host
func (h *NullHost) OpenedStreams() []*NullStream {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*NullStream(nil), h.streams...)
}

// Close stops any streams still running
func (h *NullHost) Close() error {
	for _, s := range h.OpenedStreams() {
		s.Close()
	}
	return nil
}

type nullDevice struct {
	host *NullHost
}

func (d *nullDevice) Name() string {
	if d.host.DeviceName != "" {
		return d.host.DeviceName
	}
	return "null"
}

func (d *nullDevice) SupportedOutputConfigs() ([]SupportedConfig, error) {
	if d.host.Configs == nil {
		return []SupportedConfig{{
			Format:        audio.F32,
			Channels:      2,
			MinSampleRate: 8000,
			MaxSampleRate: 48000,
		}}, nil
	}
	if len(d.host.Configs) == 0 {
		return nil, ErrNoSupportedConfig
	}
	return append([]SupportedConfig(nil), d.host.Configs...), nil
}

func (d *nullDevice) OpenOutputStream(cfg audio.StreamConfig, data DataFunc, onErr ErrorFunc) (Stream, error) {
	if cfg.Format.BytesPerSample() == 0 || cfg.Channels <= 0 || cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSupportedConfig, cfg)
	}

	h := d.host
	period := h.Period
	if period <= 0 {
		period = nullPeriod
	}
	frames := h.FramesPerPeriod
	if frames <= 0 {
		frames = nullFramesPerPeriod
	}

	s := &NullStream{
		cfg:      cfg,
		data:     data,
		onErr:    onErr,
		period:   period,
		buf:      frame.Alloc(cfg.Format, audio.Packed, cfg.Channels, cfg.SampleRate, frames).Planes[0],
		sink:     h.Sink,
		asyncErr: h.AsyncErr,
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	h.streams = append(h.streams, s)
	h.mu.Unlock()
	return s, nil
}

// NullStream calls its data callback once per period after Play
type NullStream struct {
	cfg      audio.StreamConfig
	data     DataFunc
	onErr    ErrorFunc
	period   time.Duration
	buf      []byte
	sink     io.Writer
	asyncErr error

	done    chan struct{}
	wg      sync.WaitGroup
	started atomic.Bool
	closed  atomic.Bool
	once    sync.Once
	periods atomic.Int64
}

// Config returns the configuration the stream was opened with
func (s *NullStream) Config() audio.StreamConfig {
	return s.cfg
}

// Periods returns how many buffers the callback has filled
func (s *NullStream) Periods() int64 {
	return s.periods.Load()
}

// Closed reports whether Close has been called
func (s *NullStream) Closed() bool {
	return s.closed.Load()
}

func (s *NullStream) Play() error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}
	if s.started.Swap(true) {
		return nil
	}

	s.wg.Add(1)
	go s.run()
	return nil
}

func (s *NullStream) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.data(s.buf)
			if s.sink != nil {
				s.sink.Write(s.buf)
			}
			if s.periods.Add(1) == 1 && s.asyncErr != nil && s.onErr != nil {
				s.onErr(s.asyncErr)
			}
		}
	}
}

// Close stops the ticker and waits for an in-flight callback to return
func (s *NullStream) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.wg.Wait()
	})
	return nil
}
