//go:build noopus

// ABOUTME: Opus fallback when libopusfile is not linked
// ABOUTME: Routes .opus files through the ffmpeg container
package decode

// OpenOpus opens an Ogg Opus file through ffmpeg
func OpenOpus(path string) (Container, error) {
	return OpenFFmpeg(path, "")
}
