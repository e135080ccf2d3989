// Package ringplay plays a media file on the default audio output device.
//
// The decode side runs a Pipeline on the caller's goroutine: packets are
// decoded, resampled to the device's configuration and pushed into a
// lock-free single-producer single-consumer queue. The device side runs a
// Callback on the backend's real-time thread that pops from the queue and
// zero-fills any shortfall. The queue is the only state the two share.
//
// Example:
//
//	host, err := output.NewHost("malgo")
//	player := ringplay.NewPlayer(host, ringplay.Options{})
//	err = player.Play(ctx, "song.flac")
package ringplay
