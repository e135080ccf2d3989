// Package resample converts decoded frames into the device's stream
// configuration.
//
// A Resampler changes sample format, flattens planar layouts, remixes
// channel counts and converts sample rates with linear or cubic
// interpolation. When the decoded format already matches the device the
// input frame is returned untouched.
//
// Example:
//
//	r, err := resample.New(resample.Config{
//		InFormat: audio.I16, InLayout: audio.Packed, InRate: 44100, InChannels: 2,
//		OutFormat: audio.F32, OutRate: 48000, OutChannels: 2,
//	})
//	if err != nil {
//		return err
//	}
//	out, err := r.Run(decoded)
package resample
