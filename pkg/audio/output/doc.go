// Package output provides audio device hosts for pull-based playback.
//
// A Host enumerates output Devices; a Device reports the configurations it
// accepts and opens a Stream that calls a DataFunc on the backend's own
// thread whenever it needs more samples. Backends: malgo (default), oto,
// portaudio (build tag portaudio) and a clock-driven null host.
//
// Example:
//
//	host, err := output.NewHost("malgo")
//	dev, err := host.DefaultOutputDevice()
//	configs, err := dev.SupportedOutputConfigs()
//	stream, err := dev.OpenOutputStream(configs[0].WithMaxSampleRate(), fill, onErr)
//	err = stream.Play()
package output
