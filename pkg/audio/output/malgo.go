// ABOUTME: Malgo (miniaudio) output host
// ABOUTME: Enumerates playback devices and drives their data callback
package output

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog/log"
)

const (
	// miniaudio reports a zero rate or channel count when the device
	// accepts anything; these are used in that case
	anyMinRate  = 8000
	anyMaxRate  = 48000
	anyChannels = 2
)

// MalgoHost is the default backend, built on miniaudio
type MalgoHost struct {
	ctx *malgo.AllocatedContext
}

// NewMalgoHost initializes a miniaudio context
func NewMalgoHost() (*MalgoHost, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug().Str("backend", "malgo").Msg(strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return &MalgoHost{ctx: ctx}, nil
}

func (h *MalgoHost) Name() string {
	return "malgo"
}

// OutputDevices lists playback devices
func (h *MalgoHost) OutputDevices() ([]Device, error) {
	infos, err := h.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate playback devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, &malgoDevice{ctx: h.ctx, info: info})
	}
	return devices, nil
}

// DefaultOutputDevice returns the device flagged as default, or the first one
func (h *MalgoHost) DefaultOutputDevice() (Device, error) {
	infos, err := h.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate playback devices: %w", err)
	}
	if len(infos) == 0 {
		return nil, ErrNoDevice
	}

	for _, info := range infos {
		if info.IsDefault != 0 {
			return &malgoDevice{ctx: h.ctx, info: info}, nil
		}
	}
	return &malgoDevice{ctx: h.ctx, info: infos[0]}, nil
}

// Close releases the miniaudio context. Streams must be closed first.
func (h *MalgoHost) Close() error {
	if h.ctx == nil {
		return nil
	}
	err := h.ctx.Uninit()
	h.ctx.Free()
	h.ctx = nil
	if err != nil {
		return fmt.Errorf("failed to uninit malgo context: %w", err)
	}
	return nil
}

type malgoDevice struct {
	ctx  *malgo.AllocatedContext
	info malgo.DeviceInfo
}

func (d *malgoDevice) Name() string {
	return d.info.Name()
}

// SupportedOutputConfigs reports the device's native formats. 24-bit packed
// samples have no Go type and are skipped.
func (d *malgoDevice) SupportedOutputConfigs() ([]SupportedConfig, error) {
	info, err := d.ctx.DeviceInfo(malgo.Playback, d.info.ID, malgo.Shared)
	if err != nil {
		log.Debug().Err(err).Str("device", d.Name()).Msg("Detailed device info unavailable")
		info = d.info
	}

	var configs []SupportedConfig
	for _, df := range info.Formats[:min(int(info.FormatCount), len(info.Formats))] {
		format, ok := fromMalgoFormat(df.Format)
		if !ok {
			continue
		}
		channels := int(df.Channels)
		if channels == 0 {
			channels = anyChannels
		}
		minRate, maxRate := int(df.SampleRate), int(df.SampleRate)
		if df.SampleRate == 0 {
			minRate, maxRate = anyMinRate, anyMaxRate
		}
		configs = mergeConfig(configs, format, channels, minRate, maxRate)
	}

	// miniaudio converts in shared mode, so a device without native
	// formats still plays float stereo
	if len(configs) == 0 && info.FormatCount == 0 {
		configs = append(configs, SupportedConfig{
			Format:        audio.F32,
			Channels:      anyChannels,
			MinSampleRate: anyMinRate,
			MaxSampleRate: anyMaxRate,
		})
	}
	if len(configs) == 0 {
		return nil, ErrNoSupportedConfig
	}
	return configs, nil
}

// OpenOutputStream initializes a device in the stopped state
func (d *malgoDevice) OpenOutputStream(cfg audio.StreamConfig, data DataFunc, onErr ErrorFunc) (Stream, error) {
	format, ok := toMalgoFormat(cfg.Format)
	if !ok {
		return nil, fmt.Errorf("%w: malgo cannot play %s", ErrNoSupportedConfig, cfg.Format)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.Playback.DeviceID = d.info.ID.Pointer()
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	s := &malgoStream{}
	frameBytes := cfg.Channels * cfg.Format.BytesPerSample()

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			n := min(int(frameCount)*frameBytes, len(pOutputSample))
			data(pOutputSample[:n])
		},
		Stop: func() {
			if !s.closing.Load() && onErr != nil {
				onErr(ErrDeviceStopped)
			}
		},
	}

	device, err := malgo.InitDevice(d.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	s.device = device

	log.Debug().Str("device", d.Name()).Str("config", cfg.String()).Msg("Playback device initialized")
	return s, nil
}

type malgoStream struct {
	device  *malgo.Device
	closing atomic.Bool
	once    sync.Once
}

func (s *malgoStream) Play() error {
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// Close stops the device and waits for the data callback to return
func (s *malgoStream) Close() error {
	s.once.Do(func() {
		s.closing.Store(true)
		s.device.Uninit()
	})
	return nil
}

func fromMalgoFormat(f malgo.FormatType) (audio.SampleFormat, bool) {
	switch f {
	case malgo.FormatU8:
		return audio.U8, true
	case malgo.FormatS16:
		return audio.I16, true
	case malgo.FormatS32:
		return audio.I32, true
	case malgo.FormatF32:
		return audio.F32, true
	}
	return audio.FormatUnknown, false
}

func toMalgoFormat(f audio.SampleFormat) (malgo.FormatType, bool) {
	switch f {
	case audio.U8:
		return malgo.FormatU8, true
	case audio.I16:
		return malgo.FormatS16, true
	case audio.I32:
		return malgo.FormatS32, true
	case audio.F32:
		return malgo.FormatF32, true
	}
	return malgo.FormatUnknown, false
}
