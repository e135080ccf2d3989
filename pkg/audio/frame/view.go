// ABOUTME: Byte to typed sample reinterpretation
// ABOUTME: The only code in the module that uses package unsafe
package frame

import (
	"fmt"
	"unsafe"
)

// View reinterprets b as a slice of T without copying. b must hold a whole
// number of samples and start on T's alignment boundary.
func View[T Sample](b []byte) ([]T, error) {
	if len(b) == 0 {
		return nil, nil
	}

	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(b)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMisaligned, len(b), size)
	}
	ptr := unsafe.Pointer(unsafe.SliceData(b))
	if uintptr(ptr)%unsafe.Alignof(zero) != 0 {
		return nil, fmt.Errorf("%w: address not aligned to %d", ErrMisaligned, unsafe.Alignof(zero))
	}
	return unsafe.Slice((*T)(ptr), len(b)/size), nil
}

// Bytes reinterprets s as its underlying bytes without copying
func Bytes[T Sample](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

// alignedBytes allocates n bytes on an 8-byte boundary so any sample type can view them
func alignedBytes(n int) []byte {
	if n == 0 {
		return []byte{}
	}
	words := make([]uint64, (n+7)/8)
	return Bytes(words)[:n]
}
