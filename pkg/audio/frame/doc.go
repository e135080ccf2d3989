// ABOUTME: Audio frame package
// ABOUTME: Frame type plus the checked view from raw bytes to typed samples
// Package frame holds decoded audio frames and turns them into typed sample slices.
//
// Packed validates that a frame is interleaved and that its sample format
// matches the requested Go type, then returns a view over the frame's bytes.
// View and Bytes are the single place where byte buffers are reinterpreted.
//
// Example:
//
//	samples, err := frame.Packed[float32](f)
//	if err != nil {
//	    return err
//	}
//	prod.Push(samples)
package frame
