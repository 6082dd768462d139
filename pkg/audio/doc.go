// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and float32 sample conversion functions
// Package audio provides the fundamental PCM types shared by the decoders,
// the output devices and the mixer.
//
// All PCM inside yourgame is interleaved float32 in [-1, 1]. A Format only
// carries the sample rate and channel count; the sample type is fixed.
//
// Example:
//
//	format := audio.Format{SampleRate: 48000, Channels: 2}
//	if err := format.Validate(); err != nil {
//	    return err
//	}
//
//	// Convert a 16-bit sample for mixing
//	f := audio.Int16ToFloat32(sample16)
package audio
