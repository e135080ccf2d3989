// ABOUTME: Audio type definitions
// ABOUTME: Defines sample formats, stream configuration and 24-bit sample helpers
package audio

import "fmt"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// SampleFormat identifies the numeric type of a single sample
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
)

var formatNames = map[SampleFormat]string{
	I8:  "i8",
	I16: "i16",
	I32: "i32",
	I64: "i64",
	U8:  "u8",
	U16: "u16",
	U32: "u32",
	U64: "u64",
	F32: "f32",
	F64: "f64",
}

func (f SampleFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(f))
}

// BytesPerSample returns the storage size of one sample, 0 for unknown formats
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case I8, U8:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	}
	return 0
}

// IsFloat reports whether samples are IEEE floating point
func (f SampleFormat) IsFloat() bool {
	return f == F32 || f == F64
}

// Normalize maps a raw sample value of this format into [-1, 1]
func (f SampleFormat) Normalize(v float64) float64 {
	switch f {
	case I8:
		return v / 128
	case I16:
		return v / 32768
	case I32:
		return v / 2147483648
	case I64:
		return v / 9223372036854775808
	case U8:
		return (v - 128) / 128
	case U16:
		return (v - 32768) / 32768
	case U32:
		return (v - 2147483648) / 2147483648
	case U64:
		return (v - 9223372036854775808) / 9223372036854775808
	}
	return v
}

// Layout describes how channels are arranged in a frame
type Layout int

const (
	// Packed stores channels interleaved in a single plane
	Packed Layout = iota
	// Planar stores one plane per channel
	Planar
)

func (l Layout) String() string {
	if l == Planar {
		return "planar"
	}
	return "packed"
}

// StreamConfig is the output configuration decided once during device negotiation
type StreamConfig struct {
	Format     SampleFormat
	Channels   int
	SampleRate int
}

func (c StreamConfig) String() string {
	return fmt.Sprintf("%s %dHz %dch", c.Format, c.SampleRate, c.Channels)
}

// Format describes a decoded audio stream
type Format struct {
	Codec        string
	SampleFormat SampleFormat
	Layout       Layout
	SampleRate   int
	Channels     int
	BitDepth     int
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
