// ABOUTME: Audio output host, device and stream interfaces
// ABOUTME: Backends pull samples from a data callback on their own thread
package output

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
)

var (
	// ErrNoDevice is returned when the host has no output device
	ErrNoDevice = errors.New("no output device available")
	// ErrNoSupportedConfig is returned when a device reports no usable configuration
	ErrNoSupportedConfig = errors.New("no supported output config")
	// ErrDeviceStopped is delivered to the ErrorFunc when a device stops on its own
	ErrDeviceStopped = errors.New("output device stopped unexpectedly")
	// ErrBackendUnavailable is returned for backends not compiled into this binary
	ErrBackendUnavailable = errors.New("audio backend not available")
)

// DataFunc fills a device buffer with interleaved samples in the stream's
// format. It runs on the device's real-time thread and must not block.
type DataFunc func(out []byte)

// ErrorFunc receives asynchronous stream errors
type ErrorFunc func(err error)

// Host enumerates output devices of one audio backend
type Host interface {
	Name() string
	DefaultOutputDevice() (Device, error)
	OutputDevices() ([]Device, error)
	Close() error
}

// Device is a single output endpoint
type Device interface {
	Name() string
	SupportedOutputConfigs() ([]SupportedConfig, error)
	OpenOutputStream(cfg audio.StreamConfig, data DataFunc, onErr ErrorFunc) (Stream, error)
}

// Stream is an open output stream. Close stops callbacks before returning.
type Stream interface {
	Play() error
	Close() error
}

// SupportedConfig is a format and channel count a device accepts over a
// range of sample rates
type SupportedConfig struct {
	Format        audio.SampleFormat
	Channels      int
	MinSampleRate int
	MaxSampleRate int
}

// WithMaxSampleRate picks the highest rate in the range
func (c SupportedConfig) WithMaxSampleRate() audio.StreamConfig {
	return audio.StreamConfig{
		Format:     c.Format,
		Channels:   c.Channels,
		SampleRate: c.MaxSampleRate,
	}
}

// Supports reports whether cfg falls inside this configuration
func (c SupportedConfig) Supports(cfg audio.StreamConfig) bool {
	return cfg.Format == c.Format &&
		cfg.Channels == c.Channels &&
		cfg.SampleRate >= c.MinSampleRate &&
		cfg.SampleRate <= c.MaxSampleRate
}

func (c SupportedConfig) String() string {
	return fmt.Sprintf("%s %dch %d-%dHz", c.Format, c.Channels, c.MinSampleRate, c.MaxSampleRate)
}

// Backends lists the names accepted by NewHost
var Backends = []string{"malgo", "oto", "portaudio", "null"}

// NewHost opens the named backend. An empty name selects malgo.
func NewHost(backend string) (Host, error) {
	switch backend {
	case "", "malgo":
		return NewMalgoHost()
	case "oto":
		return NewOtoHost(), nil
	case "portaudio":
		return NewPortAudioHost()
	case "null":
		return NewNullHost(), nil
	}
	return nil, fmt.Errorf("%w: %q (choose from %v)", ErrBackendUnavailable, backend, Backends)
}

// mergeConfig widens the rate range of an existing entry with the same
// format and channel count, or appends a new one, preserving report order
func mergeConfig(configs []SupportedConfig, format audio.SampleFormat, channels, minRate, maxRate int) []SupportedConfig {
	for i := range configs {
		if configs[i].Format == format && configs[i].Channels == channels {
			configs[i].MinSampleRate = min(configs[i].MinSampleRate, minRate)
			configs[i].MaxSampleRate = max(configs[i].MaxSampleRate, maxRate)
			return configs
		}
	}
	return append(configs, SupportedConfig{
		Format:        format,
		Channels:      channels,
		MinSampleRate: minRate,
		MaxSampleRate: maxRate,
	})
}
