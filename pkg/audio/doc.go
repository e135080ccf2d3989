// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines sample formats, layouts and stream configuration
// Package audio provides the sample-level vocabulary shared by the player.
//
// This package defines:
//   - SampleFormat: the numeric type of one sample (i16, f32, ...)
//   - Layout: packed (interleaved) or planar channel arrangement
//   - StreamConfig: the negotiated device format, channel count and rate
//   - Format: the description of a decoded stream
//
// Example:
//
//	cfg := audio.StreamConfig{Format: audio.F32, Channels: 2, SampleRate: 48000}
//	size := cfg.Format.BytesPerSample() * cfg.Channels
package audio
