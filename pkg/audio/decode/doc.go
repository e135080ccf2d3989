// ABOUTME: Audio decoding package for media containers and PCM codecs
// ABOUTME: Provides Container, Decoder, stream selection and per-format openers
// Package decode reads media files as packets and decodes them into frames.
//
// Containers: WAV, AIFF, MP3, FLAC, Ogg Vorbis and Ogg Opus are handled
// natively; any other extension goes through ffmpeg/ffprobe.
//
// Decoders use send/receive semantics: SendPacket feeds one packet, then
// ReceiveFrame is called until ErrAgain. Sending nil flushes, after which
// ReceiveFrame drains the remainder and returns io.EOF.
//
// Example:
//
//	c, err := decode.Open("track.flac")
//	stream, err := decode.BestStream(c.Streams())
//	dec, err := decode.NewDecoder(stream)
//	pkt, err := c.ReadPacket()
//	err = dec.SendPacket(pkt)
//	f, err := dec.ReceiveFrame()
package decode
