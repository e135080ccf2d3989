//go:build !portaudio

// ABOUTME: PortAudio host placeholder for builds without the portaudio tag
// ABOUTME: Reports the backend as unavailable
package output

import "fmt"

// NewPortAudioHost reports that PortAudio support was not compiled in
func NewPortAudioHost() (Host, error) {
	return nil, fmt.Errorf("%w: portaudio (build with -tags portaudio)", ErrBackendUnavailable)
}
