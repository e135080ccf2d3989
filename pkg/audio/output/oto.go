// ABOUTME: Oto output host
// ABOUTME: Feeds oto's pull reader from the data callback
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog/log"
)

const (
	otoMinRate    = 44100
	otoMaxRate    = 48000
	otoBufferSize = 50 * time.Millisecond
	otoErrPoll    = 100 * time.Millisecond
)

// OtoHost exposes oto's single default device. Oto allows one context per
// process, so every stream must use the configuration of the first one.
type OtoHost struct {
	mu  sync.Mutex
	ctx *oto.Context
	cfg audio.StreamConfig
}

// NewOtoHost creates a host; the oto context is created by the first stream
func NewOtoHost() *OtoHost {
	return &OtoHost{}
}

func (h *OtoHost) Name() string {
	return "oto"
}

func (h *OtoHost) DefaultOutputDevice() (Device, error) {
	return &otoDevice{host: h}, nil
}

func (h *OtoHost) OutputDevices() ([]Device, error) {
	return []Device{&otoDevice{host: h}}, nil
}

// Close suspends the context; oto cannot destroy it
func (h *OtoHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx != nil {
		if err := h.ctx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	return nil
}

func (h *OtoHost) context(cfg audio.StreamConfig) (*oto.Context, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx != nil {
		if h.cfg != cfg {
			return nil, fmt.Errorf("oto context already running as %s, cannot open %s", h.cfg, cfg)
		}
		if err := h.ctx.Resume(); err != nil {
			return nil, fmt.Errorf("failed to resume oto context: %w", err)
		}
		return h.ctx, nil
	}

	format, ok := toOtoFormat(cfg.Format)
	if !ok {
		return nil, fmt.Errorf("%w: oto cannot play %s", ErrNoSupportedConfig, cfg.Format)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       format,
		BufferSize:   otoBufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	h.ctx = ctx
	h.cfg = cfg
	log.Debug().Str("config", cfg.String()).Msg("Oto context initialized")
	return ctx, nil
}

type otoDevice struct {
	host *OtoHost
}

func (d *otoDevice) Name() string {
	return "default"
}

// SupportedOutputConfigs lists oto's sample formats, float first
func (d *otoDevice) SupportedOutputConfigs() ([]SupportedConfig, error) {
	var configs []SupportedConfig
	for _, format := range []audio.SampleFormat{audio.F32, audio.I16, audio.U8} {
		configs = mergeConfig(configs, format, 2, otoMinRate, otoMaxRate)
	}
	return configs, nil
}

func (d *otoDevice) OpenOutputStream(cfg audio.StreamConfig, data DataFunc, onErr ErrorFunc) (Stream, error) {
	ctx, err := d.host.context(cfg)
	if err != nil {
		return nil, err
	}

	reader := &callbackReader{data: data, frameBytes: cfg.Channels * cfg.Format.BytesPerSample()}
	return &otoStream{
		player: ctx.NewPlayer(reader),
		onErr:  onErr,
		done:   make(chan struct{}),
	}, nil
}

type otoStream struct {
	player *oto.Player
	onErr  ErrorFunc
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func (s *otoStream) Play() error {
	s.player.Play()

	s.wg.Add(1)
	go s.watch()
	return nil
}

// watch forwards the player's error, which oto only exposes by polling
func (s *otoStream) watch() {
	defer s.wg.Done()

	ticker := time.NewTicker(otoErrPoll)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.player.Err(); err != nil {
				if s.onErr != nil {
					s.onErr(err)
				}
				return
			}
		}
	}
}

func (s *otoStream) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.player.Pause()
		s.player.Close()
	})
	return nil
}

// callbackReader adapts a DataFunc to the io.Reader oto pulls from. It
// never reports EOF; silence comes from the callback's zero fill.
type callbackReader struct {
	data       DataFunc
	frameBytes int
}

func (r *callbackReader) Read(p []byte) (int, error) {
	n := len(p) - len(p)%r.frameBytes
	if n == 0 {
		return 0, nil
	}
	r.data(p[:n])
	return n, nil
}

func toOtoFormat(f audio.SampleFormat) (oto.Format, bool) {
	switch f {
	case audio.F32:
		return oto.FormatFloat32LE, true
	case audio.I16:
		return oto.FormatSignedInt16LE, true
	case audio.U8:
		return oto.FormatUnsignedInt8, true
	}
	return 0, false
}
