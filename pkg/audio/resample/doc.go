// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts float32 audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation between neighbouring frames. The last frame of
// each chunk is carried into the next one, so a stream can be fed in
// arbitrary pieces and produces the same output as a single call.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out := make([]float32, r.OutputCapacity(len(in)/2)*2)
//	n := r.Resample(in, out)
//	n += r.Flush(out[n:]) // at end of stream
package resample
