// ABOUTME: Output device and stream configuration negotiation
// ABOUTME: Picks the default device, its first config and the highest rate
package ringplay

import (
	"fmt"

	"github.com/Resonate-Protocol/ringplay/pkg/audio"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/output"
	"github.com/Resonate-Protocol/ringplay/pkg/audio/resample"
)

// Negotiate selects the host's default output device and the stream
// configuration to drive it with: the first configuration the device
// reports, at its maximum sample rate. Formats the resampler cannot
// produce fail with a *resample.UnsupportedFormatError.
func Negotiate(host output.Host) (output.Device, audio.StreamConfig, error) {
	dev, err := host.DefaultOutputDevice()
	if err != nil {
		return nil, audio.StreamConfig{}, fmt.Errorf("failed to find output device: %w", err)
	}

	configs, err := dev.SupportedOutputConfigs()
	if err != nil {
		return nil, audio.StreamConfig{}, fmt.Errorf("failed to query configs of %s: %w", dev.Name(), err)
	}
	if len(configs) == 0 {
		return nil, audio.StreamConfig{}, fmt.Errorf("device %s: %w", dev.Name(), output.ErrNoSupportedConfig)
	}

	cfg := configs[0].WithMaxSampleRate()
	if err := resample.CheckFormat(cfg.Format); err != nil {
		return nil, cfg, fmt.Errorf("device %s: %w", dev.Name(), err)
	}
	return dev, cfg, nil
}
