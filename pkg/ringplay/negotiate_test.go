// ABOUTME: Tests for device negotiation
// ABOUTME: Tests config selection and the unsupported format path
package ringplay

import (
	"errors"
	"testing"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/output"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/resample"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name     string
		configs  []output.SupportedConfig
		expected audio.StreamConfig
	}{
		{
			"default null config",
			nil,
			audio.StreamConfig{Format: audio.F32, Channels: 2, SampleRate: 48000},
		},
		{
			"first config at max rate",
			[]output.SupportedConfig{
				{Format: audio.I16, Channels: 2, MinSampleRate: 8000, MaxSampleRate: 96000},
				{Format: audio.F32, Channels: 2, MinSampleRate: 8000, MaxSampleRate: 192000},
			},
			audio.StreamConfig{Format: audio.I16, Channels: 2, SampleRate: 96000},
		},
		{
			"mono u8",
			[]output.SupportedConfig{{Format: audio.U8, Channels: 1, MinSampleRate: 8000, MaxSampleRate: 22050}},
			audio.StreamConfig{Format: audio.U8, Channels: 1, SampleRate: 22050},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &output.NullHost{Configs: tt.configs, DeviceName: "speakers"}
			dev, cfg, err := Negotiate(h)
			if err != nil {
				t.Fatalf("negotiate failed: %v", err)
			}
			if dev.Name() != "speakers" {
				t.Errorf("expected speakers, got %s", dev.Name())
			}
			if cfg != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, cfg)
			}
		})
	}
}

func TestNegotiateUnsupportedFormat(t *testing.T) {
	for _, format := range []audio.SampleFormat{audio.I8, audio.U16, audio.U32, audio.U64} {
		t.Run(format.String(), func(t *testing.T) {
			h := &output.NullHost{Configs: []output.SupportedConfig{
				{Format: format, Channels: 2, MinSampleRate: 44100, MaxSampleRate: 48000},
				{Format: audio.F32, Channels: 2, MinSampleRate: 44100, MaxSampleRate: 48000},
			}}

			_, _, err := Negotiate(h)
			if !errors.Is(err, resample.ErrUnsupportedFormat) {
				t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
			}
			var ufe *resample.UnsupportedFormatError
			if !errors.As(err, &ufe) || ufe.Format != format {
				t.Errorf("expected %s in error, got %v", format, err)
			}
		})
	}
}

func TestNegotiateNoDevice(t *testing.T) {
	if _, _, err := Negotiate(&output.NullHost{NoDevice: true}); !errors.Is(err, output.ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}

	h := &output.NullHost{Configs: []output.SupportedConfig{}}
	if _, _, err := Negotiate(h); !errors.Is(err, output.ErrNoSupportedConfig) {
		t.Errorf("expected ErrNoSupportedConfig, got %v", err)
	}
}
