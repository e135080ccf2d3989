//go:build portaudio

// ABOUTME: PortAudio output host
// ABOUTME: Opens typed PortAudio callbacks that forward raw bytes to the data callback
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/frame"
	"github.com/gordonklaus/portaudio"
)

const paMinRate = 8000

// PortAudioHost wraps an initialized PortAudio library
type PortAudioHost struct{}

// NewPortAudioHost initializes PortAudio; Close terminates it
func NewPortAudioHost() (Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &PortAudioHost{}, nil
}

func (h *PortAudioHost) Name() string {
	return "portaudio"
}

func (h *PortAudioHost) DefaultOutputDevice() (Device, error) {
	info, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	return &paDevice{info: info}, nil
}

func (h *PortAudioHost) OutputDevices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	var devices []Device
	for _, info := range infos {
		if info.MaxOutputChannels > 0 {
			devices = append(devices, &paDevice{info: info})
		}
	}
	return devices, nil
}

func (h *PortAudioHost) Close() error {
	return portaudio.Terminate()
}

type paDevice struct {
	info *portaudio.DeviceInfo
}

func (d *paDevice) Name() string {
	return d.info.Name
}

// SupportedOutputConfigs offers the sample types PortAudio converts from,
// topping out at the device's default rate
func (d *paDevice) SupportedOutputConfigs() ([]SupportedConfig, error) {
	if d.info.MaxOutputChannels <= 0 {
		return nil, ErrNoSupportedConfig
	}

	channels := min(d.info.MaxOutputChannels, 2)
	rate := int(d.info.DefaultSampleRate)

	var configs []SupportedConfig
	for _, format := range []audio.SampleFormat{audio.F32, audio.I32, audio.I16, audio.U8} {
		configs = mergeConfig(configs, format, channels, paMinRate, rate)
	}
	return configs, nil
}

func (d *paDevice) OpenOutputStream(cfg audio.StreamConfig, data DataFunc, onErr ErrorFunc) (Stream, error) {
	params := portaudio.HighLatencyParameters(nil, d.info)
	params.Output.Channels = cfg.Channels
	params.SampleRate = float64(cfg.SampleRate)

	var callback any
	switch cfg.Format {
	case audio.F32:
		callback = func(out []float32) { data(frame.Bytes(out)) }
	case audio.I32:
		callback = func(out []int32) { data(frame.Bytes(out)) }
	case audio.I16:
		callback = func(out []int16) { data(frame.Bytes(out)) }
	case audio.U8:
		callback = func(out []uint8) { data(out) }
	default:
		return nil, fmt.Errorf("%w: portaudio cannot play %s", ErrNoSupportedConfig, cfg.Format)
	}

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	return &paStream{stream: stream}, nil
}

type paStream struct {
	stream  *portaudio.Stream
	started bool
}

func (s *paStream) Play() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	s.started = true
	return nil
}

func (s *paStream) Close() error {
	if s.started {
		if err := s.stream.Stop(); err != nil {
			return err
		}
		s.started = false
	}
	return s.stream.Close()
}
